package vm

import (
	"context"
	"errors"
	"testing"
)

func TestActivateAndLookup(t *testing.T) {
	rt := NewRuntime()
	addr := MustAddress("a", "b")
	if err := rt.Activate(addr, PlainModule(NewModule())); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if _, ok := rt.LookupModule(addr); !ok {
		t.Errorf("module not resolvable after activation")
	}
	// The prefix alone is not a module.
	if _, ok := rt.LookupModule(MustAddress("a")); ok {
		t.Errorf("prefix resolved as a module")
	}
}

func TestActivateTwiceFails(t *testing.T) {
	rt := NewRuntime()
	addr := MustAddress("dup")
	if err := rt.Activate(addr, PlainModule(NewModule())); err != nil {
		t.Fatalf("first Activate failed: %v", err)
	}
	err := rt.Activate(addr, PlainModule(NewModule()))
	var re *RuntimeError
	if !errors.As(err, &re) || Problem(re.Value) != ProblemModuleAlreadyActive {
		t.Errorf("second Activate: %v, want ModuleAlreadyActive", err)
	}
}

func TestDeactivateRemovesSubtree(t *testing.T) {
	rt := NewRuntime()
	for _, labels := range [][]Label{{"app"}, {"app", "x"}, {"app", "y"}, {"other"}} {
		if err := rt.Activate(MustAddress(labels...), PlainModule(NewModule())); err != nil {
			t.Fatalf("Activate failed: %v", err)
		}
	}
	if n := rt.Deactivate(MustAddress("app")); n != 3 {
		t.Errorf("Deactivate removed %d modules, want 3", n)
	}
	if _, ok := rt.LookupModule(MustAddress("app", "x")); ok {
		t.Errorf("app.x still resolvable")
	}
	if _, ok := rt.LookupModule(MustAddress("other")); !ok {
		t.Errorf("unrelated module removed")
	}
}

// ---------------------------------------------------------------------------
// Builtin installation
// ---------------------------------------------------------------------------

func TestBuiltinRegistersSystemCalls(t *testing.T) {
	rt := NewRuntime()
	if err := rt.Activate(TextAddress, NewTextModule()); err != nil {
		t.Fatalf("Activate text failed: %v", err)
	}
	if err := rt.Activate(VecAddress, NewVecModule()); err != nil {
		t.Fatalf("Activate vec failed: %v", err)
	}

	for _, target := range []Address{
		TextAddress.Child("upper"),
		TextAddress.Child("split"),
		VecAddress.Child("make"),
	} {
		if _, ok := rt.SystemCallFor(target); !ok {
			t.Errorf("system call %s not registered", target)
		}
	}

	lm, _ := rt.LookupModule(TextAddress)
	if _, ok := lm.Module.Public["upper"]; !ok {
		t.Errorf("public method upper not synthesized")
	}
}

// A builtin's native is reachable both as a direct system call and as
// an ordinary module method, with identical results.
func TestSysAndModuleCallAgree(t *testing.T) {
	rt := NewRuntime()
	if err := rt.Activate(TextAddress, NewTextModule()); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	direct, err := rt.Execute(context.Background(), NewBlock(
		Eval{E: Sys{Target: TextAddress.Child("upper"), Args: []Lookup{Const{V: FromStr("dave")}}}},
	))
	if err != nil {
		t.Fatalf("direct Sys failed: %v", err)
	}

	viaCall, err := rt.Execute(context.Background(), NewBlock(
		Eval{E: Call{Module: TextAddress, Fn: ModuleRef{Module: TextAddress, Name: "upper"},
			Args: []Lookup{Const{V: FromStr("dave")}}}},
	))
	if err != nil {
		t.Fatalf("Call of synthesized method failed: %v", err)
	}

	if !direct.Equal(FromStr("DAVE")) {
		t.Errorf("direct Sys = %s, want \"DAVE\"", direct)
	}
	if !direct.Equal(viaCall) {
		t.Errorf("Sys (%s) and Call (%s) disagree", direct, viaCall)
	}
}

func TestUndefinedSystemCall(t *testing.T) {
	rt := NewRuntime()
	_, err := rt.Execute(context.Background(), NewBlock(
		Eval{E: Sys{Target: MustAddress("no", "such"), Args: nil}},
	))
	if got := problemOf(t, err); got != ProblemUndefinedSystemCall {
		t.Errorf("problem = %q, want UndefinedSystemCall", got)
	}
}

func TestSysRestoresStackAndWrapsErrors(t *testing.T) {
	rt := NewRuntime()
	boom := MustAddress("boom")
	rt.InstallSystemCall(boom, func(_ context.Context, rt *Runtime) Value {
		RaiseError(FromStr("native failure"))
		return Null
	})

	_, err := rt.Execute(context.Background(), NewBlock(
		Push{L: Const{V: FromInt(1)}},
		Eval{E: Sys{Target: boom, Args: nil}},
	))
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("error type = %T", err)
	}
	if Problem(re.Value) != ProblemSystemCall {
		t.Errorf("problem = %q, want SystemCall", Problem(re.Value))
	}
	cause, ok := re.Value.Field("cause")
	if !ok || !cause.Equal(FromStr("native failure")) {
		t.Errorf("cause = %s, want the native's error value", cause)
	}
	if len(rt.Stack) != 1 || !rt.Stack[0].Equal(FromInt(1)) {
		t.Errorf("stack = %v, want restored [1]", rt.Stack)
	}
}

func TestSysPopsArgumentsPositionally(t *testing.T) {
	rt := NewRuntime()
	pair := MustAddress("pair")
	rt.InstallSystemCall(pair, func(_ context.Context, rt *Runtime) Value {
		first := rt.PopValue()
		second := rt.PopValue()
		return ListOf(first, second)
	})

	result, err := rt.Execute(context.Background(), NewBlock(
		Eval{E: Sys{Target: pair, Args: []Lookup{
			Const{V: FromStr("one")}, Const{V: FromStr("two")},
		}}},
	))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Equal(ListOf(FromStr("one"), FromStr("two"))) {
		t.Errorf("result = %s, want [\"one\", \"two\"]", result)
	}
}

func TestDeactivateRemovesBuiltinSystemCalls(t *testing.T) {
	rt := NewRuntime()
	if err := rt.Activate(TextAddress, NewTextModule()); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	rt.Deactivate(TextAddress)
	if _, ok := rt.SystemCallFor(TextAddress.Child("upper")); ok {
		t.Errorf("system call survived deactivation")
	}
}

func TestUninstallSystemCall(t *testing.T) {
	rt := NewRuntime()
	addr := MustAddress("tmp")
	rt.InstallSystemCall(addr, func(_ context.Context, _ *Runtime) Value { return Null })
	rt.UninstallSystemCall(addr)
	if _, ok := rt.SystemCallFor(addr); ok {
		t.Errorf("system call survived uninstall")
	}
}
