package vm

import (
	"context"
	"math"
)

// ---------------------------------------------------------------------------
// vec: tagged 2-vectors with operator overloading
// ---------------------------------------------------------------------------

// VecAddress is the registry address of the vec builtin, and the tag
// of the Data values it constructs.
var VecAddress = MustAddress("vec")

// NewVecModule builds the vec builtin. Its operator evaluator gives
// Add, Sub, Mul, and Size meaning for vec-tagged records, which is
// the type-directed operator overloading path exercised end to end.
func NewVecModule() *LoadedModule {
	return BuiltinModule(NewModule(), []NativeMethod{
		{Name: "make", Fn: vecMake},
		{Name: "x", Fn: vecX},
		{Name: "y", Fn: vecY},
	}, vecOperators)
}

func newVec(x, y int64) Value {
	return DataOf(VecAddress, map[Label]Value{
		"x": FromInt(x),
		"y": FromInt(y),
	})
}

func popVec(rt *Runtime) (int64, int64) {
	v := rt.PopValue()
	x, y, ok := vecParts(v)
	if !ok {
		raiseProblem(ProblemBadInstruction, map[Label]Value{
			"operand": v,
		})
	}
	return x, y
}

func vecParts(v Value) (int64, int64, bool) {
	fields, ok := v.AsData(VecAddress)
	if !ok {
		return 0, 0, false
	}
	x, ok := fields["x"].AsInt()
	if !ok {
		return 0, 0, false
	}
	y, ok := fields["y"].AsInt()
	if !ok {
		return 0, 0, false
	}
	return x, y, true
}

func popInt(rt *Runtime) int64 {
	v := rt.PopValue()
	n, ok := v.AsInt()
	if !ok {
		raiseProblem(ProblemBadInstruction, map[Label]Value{
			"operand": v,
		})
	}
	return n
}

func vecMake(_ context.Context, rt *Runtime) Value {
	x := popInt(rt)
	y := popInt(rt)
	return newVec(x, y)
}

func vecX(_ context.Context, rt *Runtime) Value {
	x, _ := popVec(rt)
	return FromInt(x)
}

func vecY(_ context.Context, rt *Runtime) Value {
	_, y := popVec(rt)
	return FromInt(y)
}

// vecOperators is consulted whenever a primitive operator sees a
// vec-tagged operand.
func vecOperators(rt *Runtime, expr Expression, operands []Value) Value {
	switch e := expr.(type) {
	case Unary:
		if e.Op == OpSize && len(operands) == 1 {
			if x, y, ok := vecParts(operands[0]); ok {
				return FromFloat(math.Hypot(float64(x), float64(y)))
			}
		}
	case Binary:
		if len(operands) == 2 {
			if v := vecBinary(e.Op, operands[0], operands[1]); !v.IsNull() {
				return v
			}
		}
	}
	raiseProblem(ProblemBadInstruction, map[Label]Value{
		"instruction": FromStr(expr.String()),
		"module":      PointerTo(VecAddress),
	})
	return Null
}

func vecBinary(op BinaryOp, a, b Value) Value {
	ax, ay, aok := vecParts(a)
	bx, by, bok := vecParts(b)
	switch op {
	case OpAdd:
		if aok && bok {
			return newVec(ax+bx, ay+by)
		}
	case OpSub:
		if aok && bok {
			return newVec(ax-bx, ay-by)
		}
	case OpMul:
		// Scalar scaling from either side.
		if aok {
			if n, ok := b.AsInt(); ok {
				return newVec(ax*n, ay*n)
			}
		}
		if bok {
			if n, ok := a.AsInt(); ok {
				return newVec(bx*n, by*n)
			}
		}
	}
	return Null
}
