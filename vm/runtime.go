package vm

import (
	"context"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("parlor.vm")

// DefaultMaxCallDepth bounds nested calls. Nested calls ride the host
// call stack, so the machine cuts them off well before the Go runtime
// would.
const DefaultMaxCallDepth = 10000

// ---------------------------------------------------------------------------
// Runtime: the machine state
// ---------------------------------------------------------------------------

// Runtime is one execution context of the virtual machine. It is
// owned by a single logical thread of control: registers, stack, and
// module context are mutated in place with no internal locking.
// Independent Runtimes may run concurrently as long as they do not
// share loadedModules/systemCalls tables mutably.
type Runtime struct {
	// ID names this runtime instance in logs and transcripts.
	ID string

	// EvalCounter counts executed instructions. Diagnostics only.
	EvalCounter uint64

	// LastResult is the accumulator: the most recently produced value.
	LastResult Value

	// Registers holds the current frame's local variables.
	Registers map[Label]Value

	// Stack is the operand stack. The top is the last element; slice
	// order (bottom to top) is the positional order of a call's
	// arguments.
	Stack []Value

	// CurrentModule is the active module context, or nil. Deref and
	// Update act on its namespaces.
	CurrentModule *Module

	// MaxCallDepth cuts off runaway call recursion.
	MaxCallDepth int

	// TraceEval logs every executed command at debug verbosity.
	TraceEval bool

	// Tracer, when set, observes rule dispatches.
	Tracer DispatchTracer

	currentBlock *Block
	pc           int
	jumpTable    map[Label]int

	systemCalls map[string]SystemCall
	modules     *moduleTrie

	depth int
	ctx   context.Context
}

// DispatchTracer observes completed rule dispatches, one record per
// module per dispatch. The transcript store implements this.
type DispatchTracer interface {
	RecordDispatch(rec DispatchRecord)
}

// DispatchRecord describes one rule dispatch against one module.
type DispatchRecord struct {
	RuntimeID string
	Module    Address
	Input     []string
	Matched   int
	Result    Value
	Steps     uint64
}

// NewRuntime creates an empty runtime with a fresh instance ID.
func NewRuntime() *Runtime {
	rt := &Runtime{
		ID:           uuid.New().String(),
		Registers:    map[Label]Value{},
		jumpTable:    map[Label]int{},
		systemCalls:  map[string]SystemCall{},
		modules:      newModuleTrie(),
		MaxCallDepth: DefaultMaxCallDepth,
	}
	log.Debugf("runtime %s created", rt.ID)
	return rt
}

// Context returns the context of the evaluation currently driving
// this runtime, for native functions performing host I/O.
func (rt *Runtime) Context() context.Context {
	if rt.ctx == nil {
		return context.Background()
	}
	return rt.ctx
}

// ---------------------------------------------------------------------------
// Stack discipline
// ---------------------------------------------------------------------------

// PushValue pushes v onto the operand stack.
func (rt *Runtime) PushValue(v Value) {
	rt.Stack = append(rt.Stack, v)
}

// PopValue removes and returns the top of the stack, raising
// StackUnderflow when empty. Native functions use it to read their
// arguments in positional order.
func (rt *Runtime) PopValue() Value {
	if len(rt.Stack) == 0 {
		raiseProblem(ProblemStackUnderflow, nil)
	}
	v := rt.Stack[len(rt.Stack)-1]
	rt.Stack = rt.Stack[:len(rt.Stack)-1]
	return v
}

// PeekValue returns the top of the stack without removing it, raising
// StackUnderflow when empty.
func (rt *Runtime) PeekValue() Value {
	if len(rt.Stack) == 0 {
		raiseProblem(ProblemStackUnderflow, nil)
	}
	return rt.Stack[len(rt.Stack)-1]
}

// ---------------------------------------------------------------------------
// Module registry
// ---------------------------------------------------------------------------

// Activate loads a module at addr. For builtin modules this also
// registers one system call per native method at addr.method, and
// synthesizes a public Func of the same name whose body invokes that
// system call and returns, so the native is reachable both ways.
// Activating an occupied address fails with ModuleAlreadyActive.
func (rt *Runtime) Activate(addr Address, lm *LoadedModule) error {
	if !rt.modules.put(addr, lm) {
		return &RuntimeError{Value: NewError(ProblemModuleAlreadyActive, map[Label]Value{
			"module": PointerTo(addr),
		})}
	}
	for _, m := range lm.Methods {
		target := addr.Child(m.Name)
		rt.systemCalls[target.String()] = m.Fn
		lm.Module.Public[m.Name] = FuncOf(nil, NewBlock(
			Eval{E: Sys{Target: target}},
			Return{L: Result{}},
		))
	}
	log.Infof("module %s activated (builtin=%v, methods=%d, rules=%d)",
		addr, lm.IsBuiltin(), len(lm.Methods), len(lm.Module.Rules))
	return nil
}

// Deactivate removes every module under addr, including the system
// calls a builtin registered there. Returns the number of modules
// removed.
func (rt *Runtime) Deactivate(addr Address) int {
	prefix := addr.String()
	for name := range rt.systemCalls {
		if name == prefix || (len(name) > len(prefix) &&
			name[:len(prefix)] == prefix && name[len(prefix)] == '.') {
			delete(rt.systemCalls, name)
		}
	}
	n := rt.modules.removePrefix(addr)
	log.Infof("deactivated %d module(s) under %s", n, addr)
	return n
}

// LookupModule resolves an exact address in the registry.
func (rt *Runtime) LookupModule(addr Address) (*LoadedModule, bool) {
	return rt.modules.get(addr)
}

// Modules visits every loaded module.
func (rt *Runtime) Modules(fn func(addr Address, lm *LoadedModule)) {
	rt.modules.walk(nil, fn)
}

// InstallSystemCall registers a bare native function at addr,
// replacing any previous registration.
func (rt *Runtime) InstallSystemCall(addr Address, fn SystemCall) {
	rt.systemCalls[addr.String()] = fn
}

// UninstallSystemCall removes the native function at addr.
func (rt *Runtime) UninstallSystemCall(addr Address) {
	delete(rt.systemCalls, addr.String())
}

// SystemCallFor resolves a system call by address.
func (rt *Runtime) SystemCallFor(addr Address) (SystemCall, bool) {
	fn, ok := rt.systemCalls[addr.String()]
	return fn, ok
}
