package vm

import "fmt"

// ---------------------------------------------------------------------------
// Error values
// ---------------------------------------------------------------------------

// ErrorTag is the Data tag carried by every error value raised by the
// machine itself.
var ErrorTag = MustAddress("vm", "error")

// Problem kinds carried in the "problem" field of machine errors.
const (
	ProblemUndefinedVariable       = "UndefinedVariable"
	ProblemUndefinedModuleVariable = "UndefinedModuleVariable"
	ProblemUndefinedModule         = "UndefinedModule"
	ProblemUndefinedSystemCall     = "UndefinedSystemCall"
	ProblemUndefinedJumpTarget     = "UndefinedJumpTarget"
	ProblemStackUnderflow          = "StackUnderflow"
	ProblemNotEnoughArguments      = "NotEnoughArguments"
	ProblemNoCurrentModule         = "NoCurrentModule"
	ProblemBadInstruction          = "BadInstruction"
	ProblemModuleAlreadyActive     = "ModuleAlreadyActive"
	ProblemSystemCall              = "SystemCall"
	ProblemStackOverflow           = "StackOverflow"
)

// NewError builds an error value: a Data record tagged vm.error with
// a "problem" field plus any contextual fields.
func NewError(problem string, fields map[Label]Value) Value {
	all := map[Label]Value{"problem": FromStr(problem)}
	for name, v := range fields {
		all[name] = v
	}
	return DataOf(ErrorTag, all)
}

// Problem extracts the problem kind from an error value, or "" when v
// is not a machine error.
func Problem(v Value) string {
	if _, ok := v.AsData(ErrorTag); !ok {
		return ""
	}
	f, ok := v.Field("problem")
	if !ok {
		return ""
	}
	s, _ := f.AsStr()
	return s
}

// ---------------------------------------------------------------------------
// Signals: the unified return/throw channel
// ---------------------------------------------------------------------------

// SignalKind distinguishes the two variants of the non-local control
// channel.
type SignalKind uint8

const (
	// SignalReturn unwinds to the nearest call boundary, where it is
	// converted into the call's result.
	SignalReturn SignalKind = iota
	// SignalError unwinds past call boundaries until a handler
	// explicitly catches it, or the outermost evaluation surfaces it
	// to the host.
	SignalError
)

// Signal is panicked to unwind the interpreter. Return and Throw use
// the same channel; catch sites match on Kind.
type Signal struct {
	Kind  SignalKind
	Value Value
}

// RaiseReturn raises v as a Return signal. Native functions use this
// to return early through scripted frames.
func RaiseReturn(v Value) {
	panic(Signal{Kind: SignalReturn, Value: v})
}

// RaiseError raises v as an Error signal. Native functions use this
// to fail through the same channel as scripted code.
func RaiseError(v Value) {
	panic(Signal{Kind: SignalError, Value: v})
}

func raiseProblem(problem string, fields map[Label]Value) {
	RaiseError(NewError(problem, fields))
}

// ---------------------------------------------------------------------------
// Host-facing error wrapper
// ---------------------------------------------------------------------------

// RuntimeError is the Go error presented to the host when an Error
// signal escapes the outermost evaluation. It carries the structured
// error value rather than an opaque message.
type RuntimeError struct {
	Value Value
}

func (e *RuntimeError) Error() string {
	if p := Problem(e.Value); p != "" {
		return fmt.Sprintf("vm: %s: %s", p, e.Value)
	}
	return fmt.Sprintf("vm: uncaught error: %s", e.Value)
}
