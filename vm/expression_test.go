package vm

import (
	"context"
	"math"
	"testing"
)

// evalExpr runs a single expression against a fresh runtime.
func evalExpr(t *testing.T, e Expression) (Value, error) {
	t.Helper()
	rt := NewRuntime()
	return rt.Execute(context.Background(), NewBlock(Eval{E: e}))
}

func TestAddInts(t *testing.T) {
	result, err := evalExpr(t, Binary{Op: OpAdd, A: Const{V: FromInt(2)}, B: Const{V: FromInt(3)}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Equal(FromInt(5)) {
		t.Errorf("2 + 3 = %s, want 5", result)
	}
}

func TestAddMixedNumericsIsBadInstruction(t *testing.T) {
	_, err := evalExpr(t, Binary{Op: OpAdd, A: Const{V: FromInt(2)}, B: Const{V: FromFloat(3.0)}})
	if got := problemOf(t, err); got != ProblemBadInstruction {
		t.Errorf("problem = %q, want BadInstruction", got)
	}
}

func TestFloatArithmetic(t *testing.T) {
	result, err := evalExpr(t, Binary{Op: OpMul, A: Const{V: FromFloat(1.5)}, B: Const{V: FromFloat(4.0)}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Equal(FromFloat(6.0)) {
		t.Errorf("1.5 * 4.0 = %s, want 6", result)
	}
}

func TestDivModByZero(t *testing.T) {
	for _, op := range []BinaryOp{OpDiv, OpMod} {
		_, err := evalExpr(t, Binary{Op: op, A: Const{V: FromInt(1)}, B: Const{V: FromInt(0)}})
		if got := problemOf(t, err); got != ProblemBadInstruction {
			t.Errorf("%s by zero: problem = %q, want BadInstruction", op, got)
		}
	}
}

func TestComparisons(t *testing.T) {
	cases := []struct {
		op   BinaryOp
		a, b int64
		want Value
	}{
		{OpGt, 3, 2, True},
		{OpGt, 2, 3, Null},
		{OpGe, 2, 2, True},
		{OpLt, 2, 3, True},
		{OpLe, 3, 2, Null},
	}
	for _, c := range cases {
		result, err := evalExpr(t, Binary{Op: c.op, A: Const{V: FromInt(c.a)}, B: Const{V: FromInt(c.b)}})
		if err != nil {
			t.Fatalf("%s(%d, %d) failed: %v", c.op, c.a, c.b, err)
		}
		if !result.Equal(c.want) {
			t.Errorf("%s(%d, %d) = %s, want %s", c.op, c.a, c.b, result, c.want)
		}
	}
}

func TestNaNOrdersBelowEveryFloat(t *testing.T) {
	nan := Const{V: FromFloat(math.NaN())}
	five := Const{V: FromFloat(5.0)}

	result, err := evalExpr(t, Binary{Op: OpEq, A: nan, B: five})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Equal(Null) {
		t.Errorf("NaN == 5.0 = %s, want null", result)
	}

	// NaN sorts first, so every ordering against 5.0 agrees with that.
	for _, c := range []struct {
		op   BinaryOp
		want Value
	}{
		{OpLt, True},
		{OpLe, True},
		{OpGt, Null},
		{OpGe, Null},
	} {
		result, err := evalExpr(t, Binary{Op: c.op, A: nan, B: five})
		if err != nil {
			t.Fatalf("%s(NaN, 5.0) failed: %v", c.op, err)
		}
		if !result.Equal(c.want) {
			t.Errorf("%s(NaN, 5.0) = %s, want %s", c.op, result, c.want)
		}
	}
}

func TestComparisonOnStringsIsBadInstruction(t *testing.T) {
	_, err := evalExpr(t, Binary{Op: OpLt, A: Const{V: FromStr("a")}, B: Const{V: FromStr("b")}})
	if got := problemOf(t, err); got != ProblemBadInstruction {
		t.Errorf("problem = %q, want BadInstruction", got)
	}
}

func TestEqIsStructuralAndTotal(t *testing.T) {
	result, err := evalExpr(t, Binary{Op: OpEq,
		A: Const{V: ListOf(FromInt(1), FromStr("x"))},
		B: Const{V: ListOf(FromInt(1), FromStr("x"))}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Equal(True) {
		t.Errorf("structural Eq = %s, want true", result)
	}

	// Mixed kinds never raise; they are simply unequal.
	result, err = evalExpr(t, Binary{Op: OpNe, A: Const{V: FromInt(1)}, B: Const{V: FromStr("1")}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Equal(True) {
		t.Errorf("Ne across kinds = %s, want true", result)
	}
}

func TestAppend(t *testing.T) {
	result, err := evalExpr(t, Binary{Op: OpAppend, A: Const{V: FromStr("foo")}, B: Const{V: FromStr("bar")}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Equal(FromStr("foobar")) {
		t.Errorf("append strs = %s", result)
	}

	result, err = evalExpr(t, Binary{Op: OpAppend,
		A: Const{V: ListOf(FromInt(1))},
		B: Const{V: ListOf(FromInt(2))}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Equal(ListOf(FromInt(1), FromInt(2))) {
		t.Errorf("append lists = %s", result)
	}

	_, err = evalExpr(t, Binary{Op: OpAppend, A: Const{V: FromStr("x")}, B: Const{V: ListOf()}})
	if got := problemOf(t, err); got != ProblemBadInstruction {
		t.Errorf("append Str×List: problem = %q, want BadInstruction", got)
	}
}

func TestBitwise(t *testing.T) {
	cases := []struct {
		op      BinaryOp
		a, b, w int64
	}{
		{OpAnd, 0b1100, 0b1010, 0b1000},
		{OpOr, 0b1100, 0b1010, 0b1110},
		{OpXor, 0b1100, 0b1010, 0b0110},
		{OpShiftL, 1, 4, 16},
		{OpShiftR, 16, 2, 4},
	}
	for _, c := range cases {
		result, err := evalExpr(t, Binary{Op: c.op, A: Const{V: FromInt(c.a)}, B: Const{V: FromInt(c.b)}})
		if err != nil {
			t.Fatalf("%s failed: %v", c.op, err)
		}
		if !result.Equal(FromInt(c.w)) {
			t.Errorf("%s(%d, %d) = %s, want %d", c.op, c.a, c.b, result, c.w)
		}
	}
}

func TestUnaryOps(t *testing.T) {
	result, err := evalExpr(t, Unary{Op: OpTake, X: Const{V: FromStr("x")}})
	if err != nil || !result.Equal(FromStr("x")) {
		t.Errorf("take = %s, %v", result, err)
	}

	result, err = evalExpr(t, Unary{Op: OpNot, X: Const{V: Null}})
	if err != nil || !result.Equal(True) {
		t.Errorf("not null = %s, %v", result, err)
	}
	result, err = evalExpr(t, Unary{Op: OpNot, X: Const{V: FromInt(0)}})
	if err != nil || !result.Equal(Null) {
		t.Errorf("not 0 = %s, %v", result, err)
	}

	result, err = evalExpr(t, Unary{Op: OpSize, X: Const{V: FromInt(-5)}})
	if err != nil || !result.Equal(FromInt(5)) {
		t.Errorf("size -5 = %s, %v", result, err)
	}
	result, err = evalExpr(t, Unary{Op: OpSize, X: Const{V: FromStr("abc")}})
	if err != nil || !result.Equal(FromInt(3)) {
		t.Errorf("size \"abc\" = %s, %v", result, err)
	}
	result, err = evalExpr(t, Unary{Op: OpSize, X: Const{V: ListOf(FromInt(1), FromInt(2))}})
	if err != nil || !result.Equal(FromInt(2)) {
		t.Errorf("size list = %s, %v", result, err)
	}

	_, err = evalExpr(t, Unary{Op: OpSize, X: Const{V: True}})
	if got := problemOf(t, err); got != ProblemBadInstruction {
		t.Errorf("size true: problem = %q, want BadInstruction", got)
	}
}

func TestIfExpressions(t *testing.T) {
	result, err := evalExpr(t, If{Cond: Const{V: True}, Then: Const{V: FromInt(1)}, Else: Const{V: FromInt(2)}})
	if err != nil || !result.Equal(FromInt(1)) {
		t.Errorf("if true = %s, %v", result, err)
	}
	result, err = evalExpr(t, If{Cond: Const{V: Null}, Then: Const{V: FromInt(1)}, Else: Const{V: FromInt(2)}})
	if err != nil || !result.Equal(FromInt(2)) {
		t.Errorf("if null = %s, %v", result, err)
	}
	result, err = evalExpr(t, IfNot{Cond: Const{V: Null}, Then: Const{V: FromInt(1)}, Else: Const{V: FromInt(2)}})
	if err != nil || !result.Equal(FromInt(1)) {
		t.Errorf("ifnot null = %s, %v", result, err)
	}

	// The condition must be boolean-coercible, not merely truthy.
	_, err = evalExpr(t, If{Cond: Const{V: FromInt(1)}, Then: Const{V: FromInt(1)}, Else: Const{V: FromInt(2)}})
	if got := problemOf(t, err); got != ProblemBadInstruction {
		t.Errorf("if 1: problem = %q, want BadInstruction", got)
	}
}

func TestDataOperandWithoutModuleIsUndefinedModule(t *testing.T) {
	d := DataOf(MustAddress("ghost"), nil)
	_, err := evalExpr(t, Binary{Op: OpAdd, A: Const{V: d}, B: Const{V: d}})
	if got := problemOf(t, err); got != ProblemUndefinedModule {
		t.Errorf("problem = %q, want UndefinedModule", got)
	}
}

func TestDataOperandWithoutEvaluatorIsBadInstruction(t *testing.T) {
	rt := NewRuntime()
	tag := MustAddress("plain")
	if err := rt.Activate(tag, PlainModule(NewModule())); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	d := DataOf(tag, nil)
	_, err := rt.Execute(context.Background(), NewBlock(
		Eval{E: Binary{Op: OpAdd, A: Const{V: d}, B: Const{V: d}}},
	))
	if got := problemOf(t, err); got != ProblemBadInstruction {
		t.Errorf("problem = %q, want BadInstruction", got)
	}
}
