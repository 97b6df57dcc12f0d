package vm

import "math"

// ---------------------------------------------------------------------------
// Expression evaluation
// ---------------------------------------------------------------------------

func (rt *Runtime) evalExpression(e Expression) Value {
	switch e := e.(type) {
	case Unary:
		return rt.applyUnary(e, rt.evalLookup(e.X))
	case Binary:
		return rt.applyBinary(e, rt.evalLookup(e.A), rt.evalLookup(e.B))
	case If:
		return rt.applyIf(e.Cond, e.Then, e.Else, false)
	case IfNot:
		return rt.applyIf(e.Cond, e.Then, e.Else, true)
	case Sys:
		return rt.sysCall(e)
	case Call:
		return rt.callAcross(e)
	case Local:
		return rt.callLocal(e)
	case Goto:
		return rt.tailGoto(e)
	}
	raiseProblem(ProblemBadInstruction, map[Label]Value{
		"instruction": FromStr(e.String()),
	})
	return Null
}

func (rt *Runtime) applyIf(cond, then, els Lookup, invert bool) Value {
	c := rt.evalLookup(cond)
	b, ok := c.AsBool()
	if !ok {
		raiseProblem(ProblemBadInstruction, map[Label]Value{
			"operand": c,
		})
	}
	if b != invert {
		return rt.evalLookup(then)
	}
	return rt.evalLookup(els)
}

// ---------------------------------------------------------------------------
// Unary operators
// ---------------------------------------------------------------------------

func (rt *Runtime) applyUnary(e Unary, x Value) Value {
	switch e.Op {
	case OpTake:
		return x
	case OpNot:
		return FromBool(!x.IsTruthy())
	case OpSize:
		switch x.Kind() {
		case KindInt:
			n, _ := x.AsInt()
			if n < 0 {
				n = -n
			}
			return FromInt(n)
		case KindFloat:
			f, _ := x.AsFloat()
			if f < 0 {
				f = -f
			}
			return FromFloat(f)
		case KindStr:
			s, _ := x.AsStr()
			return FromInt(int64(len(s)))
		case KindList:
			return FromInt(int64(x.Len()))
		case KindData:
			return rt.dispatchData(e, x)
		}
	}
	raiseProblem(ProblemBadInstruction, map[Label]Value{
		"instruction": FromStr(e.Op.String()),
		"operand":     x,
	})
	return Null
}

// ---------------------------------------------------------------------------
// Binary operators
// ---------------------------------------------------------------------------

func (rt *Runtime) applyBinary(e Binary, a, b Value) Value {
	// Structural equality is total and never delegates.
	switch e.Op {
	case OpEq:
		return FromBool(a.Equal(b))
	case OpNe:
		return FromBool(!a.Equal(b))
	}

	// A Data operand routes the operator to its owning module.
	if a.Kind() == KindData || b.Kind() == KindData {
		return rt.dispatchData(e, a, b)
	}

	switch e.Op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		if x, ok := a.AsInt(); ok {
			if y, ok := b.AsInt(); ok {
				return rt.intArith(e, x, y)
			}
		}
		if x, ok := a.AsFloat(); ok {
			if y, ok := b.AsFloat(); ok {
				return rt.floatArith(e, x, y)
			}
		}
	case OpGt, OpGe, OpLt, OpLe:
		if x, ok := a.AsInt(); ok {
			if y, ok := b.AsInt(); ok {
				return orderResult(e.Op, compareInt(x, y))
			}
		}
		if x, ok := a.AsFloat(); ok {
			if y, ok := b.AsFloat(); ok {
				return orderResult(e.Op, compareFloat(x, y))
			}
		}
	case OpAppend:
		if x, ok := a.AsStr(); ok {
			if y, ok := b.AsStr(); ok {
				return FromStr(x + y)
			}
		}
		if x, ok := a.AsList(); ok {
			if y, ok := b.AsList(); ok {
				joined := make([]Value, 0, len(x)+len(y))
				joined = append(joined, x...)
				joined = append(joined, y...)
				return ListOf(joined...)
			}
		}
	case OpAnd, OpOr, OpXor, OpShiftR, OpShiftL:
		if x, ok := a.AsInt(); ok {
			if y, ok := b.AsInt(); ok {
				return rt.intBitwise(e, x, y)
			}
		}
	}

	raiseProblem(ProblemBadInstruction, map[Label]Value{
		"instruction": FromStr(e.Op.String()),
		"left":        a,
		"right":       b,
	})
	return Null
}

func (rt *Runtime) intArith(e Binary, x, y int64) Value {
	switch e.Op {
	case OpAdd:
		return FromInt(x + y)
	case OpSub:
		return FromInt(x - y)
	case OpMul:
		return FromInt(x * y)
	case OpDiv:
		if y == 0 {
			raiseProblem(ProblemBadInstruction, map[Label]Value{
				"instruction": FromStr(e.Op.String()),
				"left":        FromInt(x),
				"right":       FromInt(y),
			})
		}
		return FromInt(x / y)
	case OpMod:
		if y == 0 {
			raiseProblem(ProblemBadInstruction, map[Label]Value{
				"instruction": FromStr(e.Op.String()),
				"left":        FromInt(x),
				"right":       FromInt(y),
			})
		}
		return FromInt(x % y)
	}
	panic("intArith: not an arithmetic op")
}

func (rt *Runtime) floatArith(e Binary, x, y float64) Value {
	switch e.Op {
	case OpAdd:
		return FromFloat(x + y)
	case OpSub:
		return FromFloat(x - y)
	case OpMul:
		return FromFloat(x * y)
	case OpDiv:
		return FromFloat(x / y)
	case OpMod:
		raiseProblem(ProblemBadInstruction, map[Label]Value{
			"instruction": FromStr(e.Op.String()),
			"left":        FromFloat(x),
			"right":       FromFloat(y),
		})
	}
	panic("floatArith: not an arithmetic op")
}

func (rt *Runtime) intBitwise(e Binary, x, y int64) Value {
	switch e.Op {
	case OpAnd:
		return FromInt(x & y)
	case OpOr:
		return FromInt(x | y)
	case OpXor:
		return FromInt(x ^ y)
	case OpShiftR, OpShiftL:
		if y < 0 || y > 63 {
			raiseProblem(ProblemBadInstruction, map[Label]Value{
				"instruction": FromStr(e.Op.String()),
				"left":        FromInt(x),
				"right":       FromInt(y),
			})
		}
		if e.Op == OpShiftR {
			return FromInt(x >> uint(y))
		}
		return FromInt(x << uint(y))
	}
	panic("intBitwise: not a bitwise op")
}

func compareInt(x, y int64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// compareFloat keeps the float order total: NaN sorts before every
// other float and equal to itself.
func compareFloat(x, y float64) int {
	xn, yn := math.IsNaN(x), math.IsNaN(y)
	switch {
	case xn && yn:
		return 0
	case xn:
		return -1
	case yn:
		return 1
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func orderResult(op BinaryOp, c int) Value {
	switch op {
	case OpGt:
		return FromBool(c > 0)
	case OpGe:
		return FromBool(c >= 0)
	case OpLt:
		return FromBool(c < 0)
	case OpLe:
		return FromBool(c <= 0)
	}
	panic("orderResult: not a comparison op")
}

// ---------------------------------------------------------------------------
// Type-directed dispatch
// ---------------------------------------------------------------------------

// dispatchData routes an operator whose operands include a Data value
// to the operator evaluator of the module owning the value's tag.
// Open dispatch by address: any installed builtin can give operators
// meaning for its own tagged records.
func (rt *Runtime) dispatchData(expr Expression, operands ...Value) Value {
	var tag Address
	for _, v := range operands {
		if v.Kind() == KindData {
			tag = v.Tag()
			break
		}
	}
	lm, ok := rt.modules.get(tag)
	if !ok {
		raiseProblem(ProblemUndefinedModule, map[Label]Value{
			"module": PointerTo(tag),
		})
	}
	if lm.Evaluator == nil {
		raiseProblem(ProblemBadInstruction, map[Label]Value{
			"instruction": FromStr(expr.String()),
			"module":      PointerTo(tag),
		})
	}
	return lm.Evaluator(rt, expr, operands)
}
