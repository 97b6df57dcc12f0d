package vm

import "context"

// ---------------------------------------------------------------------------
// Modules
// ---------------------------------------------------------------------------

// Module is a unit of loadable code: imports, two namespaces, and a
// rule list. Private holds internal state, mutated only by the Update
// instruction; Public holds exported bindings (typically Funcs)
// reachable by qualified lookup from other modules.
type Module struct {
	Imports []Address
	Private map[Label]Value
	Public  map[Label]Value
	Rules   []Rule
}

// NewModule returns an empty module with initialized namespaces.
func NewModule() *Module {
	return &Module{
		Private: map[Label]Value{},
		Public:  map[Label]Value{},
	}
}

// Rule pairs a token-prefix pattern with an action block. A rule
// matches an input when Pattern is a prefix of the token sequence.
type Rule struct {
	Pattern []string
	Action  *Block
}

// ---------------------------------------------------------------------------
// Native extension points
// ---------------------------------------------------------------------------

// SystemCall is a native function reachable by address from the Sys
// expression. It runs against the current runtime with the stack
// pre-loaded so Pop yields the call's arguments in positional order;
// the caller restores the stack afterward regardless of outcome.
// Failure is signaled through RaiseError, early return through
// RaiseReturn.
type SystemCall func(ctx context.Context, rt *Runtime) Value

// NativeMethod declares one native method of a builtin module. On
// install it is registered as a system call at module.name and
// exposed as a public Func of the same name.
type NativeMethod struct {
	Name Label
	Fn   SystemCall
}

// OperatorEvaluator gives a builtin module operator semantics for
// Data values carrying its tag. It is consulted when standard
// operator dispatch does not apply to the operand shapes; operands
// arrive already evaluated. Unsupported combinations should raise
// BadInstruction via RaiseError.
type OperatorEvaluator func(rt *Runtime, expr Expression, operands []Value) Value

// ---------------------------------------------------------------------------
// Loaded modules
// ---------------------------------------------------------------------------

// LoadedModule wraps a Module in the registry, distinguishing plain
// script modules from builtin (native-augmented) ones.
type LoadedModule struct {
	Module    *Module
	Methods   []NativeMethod
	Evaluator OperatorEvaluator
	builtin   bool
}

// PlainModule wraps a script module for loading.
func PlainModule(m *Module) *LoadedModule {
	return &LoadedModule{Module: m}
}

// BuiltinModule wraps a module with native methods and an optional
// operator evaluator.
func BuiltinModule(m *Module, methods []NativeMethod, eval OperatorEvaluator) *LoadedModule {
	return &LoadedModule{Module: m, Methods: methods, Evaluator: eval, builtin: true}
}

// IsBuiltin reports whether the module carries native methods.
func (lm *LoadedModule) IsBuiltin() bool {
	return lm.builtin
}
