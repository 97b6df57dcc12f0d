package vm

import (
	"fmt"
	"strings"
)

// The instruction set is pure data: no instruction holds mutable
// state, so instructions and blocks can be shared freely between
// modules and runtimes.

// ---------------------------------------------------------------------------
// Lookups: read a value, never mutate
// ---------------------------------------------------------------------------

// Lookup produces a Value from the current machine state.
type Lookup interface {
	fmt.Stringer
	lookup()
}

// Result reads the lastResult accumulator.
type Result struct{}

// Const yields a fixed value.
type Const struct {
	V Value
}

// Var reads a register. Raises UndefinedVariable if absent.
type Var struct {
	Name Label
}

// Deref reads the current module's private namespace, then its public
// one. Raises NoCurrentModule or UndefinedModuleVariable.
type Deref struct {
	Name Label
}

// ModuleRef resolves a module by address and reads its public
// namespace. Raises UndefinedModule or UndefinedModuleVariable.
type ModuleRef struct {
	Module Address
	Name   Label
}

func (Result) lookup()    {}
func (Const) lookup()     {}
func (Var) lookup()       {}
func (Deref) lookup()     {}
func (ModuleRef) lookup() {}

func (Result) String() string      { return "result" }
func (l Const) String() string     { return "const " + l.V.String() }
func (l Var) String() string       { return "var " + string(l.Name) }
func (l Deref) String() string     { return "deref " + string(l.Name) }
func (l ModuleRef) String() string { return fmt.Sprintf("ref %s:%s", l.Module, l.Name) }

// ---------------------------------------------------------------------------
// Commands: the executable instructions
// ---------------------------------------------------------------------------

// Command is a single executable instruction. Blocks are arrays of
// Commands; executing one advances the program counter and the eval
// counter.
type Command interface {
	fmt.Stringer
	command()
}

// Load copies a lookup's result into lastResult.
type Load struct {
	L Lookup
}

// Store copies lastResult into a register.
type Store struct {
	Name Label
}

// Update evaluates a lookup and writes it into the current module's
// private namespace. The label must already exist there.
type Update struct {
	L    Lookup
	Name Label
}

// SetJump marks a jump target. At execution time it is a no-op; it is
// consulted only when the jump table is built for a block.
type SetJump struct {
	Name Label
}

// Jump moves the program counter to a jump target. Raises
// UndefinedJumpTarget if the label is unknown or out of range.
type Jump struct {
	Name Label
}

// Push evaluates a lookup and pushes the result.
type Push struct {
	L Lookup
}

// Peek copies the top of the stack into lastResult.
type Peek struct{}

// Pop removes the top of the stack into lastResult.
type Pop struct{}

// ClearForward drains the stack into a List in lastResult, bottom
// first.
type ClearForward struct{}

// ClearReverse drains the stack into a List in lastResult, top first.
type ClearReverse struct{}

// Eval evaluates an expression and stores its value in lastResult.
type Eval struct {
	E Expression
}

// Do evaluates a condition.
type Do struct {
	C Condition
}

// Return evaluates a lookup and raises it as a Return signal, caught
// at the nearest call boundary.
type Return struct {
	L Lookup
}

// Throw evaluates a lookup and raises it as an Error signal, which
// propagates past call boundaries.
type Throw struct {
	L Lookup
}

func (Load) command()         {}
func (Store) command()        {}
func (Update) command()       {}
func (SetJump) command()      {}
func (Jump) command()         {}
func (Push) command()         {}
func (Peek) command()         {}
func (Pop) command()          {}
func (ClearForward) command() {}
func (ClearReverse) command() {}
func (Eval) command()         {}
func (Do) command()           {}
func (Return) command()       {}
func (Throw) command()        {}

func (c Load) String() string    { return "load (" + c.L.String() + ")" }
func (c Store) String() string   { return "store " + string(c.Name) }
func (c Update) String() string  { return fmt.Sprintf("update %s (%s)", c.Name, c.L) }
func (c SetJump) String() string { return "setjump " + string(c.Name) }
func (c Jump) String() string    { return "jump " + string(c.Name) }
func (c Push) String() string    { return "push (" + c.L.String() + ")" }
func (Peek) String() string      { return "peek" }
func (Pop) String() string       { return "pop" }
func (ClearForward) String() string { return "clear>" }
func (ClearReverse) String() string { return "clear<" }
func (c Eval) String() string    { return "eval (" + c.E.String() + ")" }
func (c Do) String() string      { return "do (" + c.C.String() + ")" }
func (c Return) String() string  { return "return (" + c.L.String() + ")" }
func (c Throw) String() string   { return "throw (" + c.L.String() + ")" }

// ---------------------------------------------------------------------------
// Conditions
// ---------------------------------------------------------------------------

// Condition guards a command on a lookup's truthiness.
type Condition interface {
	fmt.Stringer
	condition()
}

// When runs Cmd iff Cond evaluates to a truthy value.
type When struct {
	Cond Lookup
	Cmd  Command
}

// Unless runs Cmd iff Cond evaluates to Null.
type Unless struct {
	Cond Lookup
	Cmd  Command
}

func (When) condition()   {}
func (Unless) condition() {}

func (c When) String() string   { return fmt.Sprintf("when (%s) %s", c.Cond, c.Cmd) }
func (c Unless) String() string { return fmt.Sprintf("unless (%s) %s", c.Cond, c.Cmd) }

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// Expression is the payload of an Eval command.
type Expression interface {
	fmt.Stringer
	expression()
}

// UnaryOp selects a unary operator.
type UnaryOp uint8

const (
	OpTake UnaryOp = iota // identity passthrough
	OpNot                 // truthy -> Null, Null -> True
	OpSize                // abs for numbers, length for Str/List
)

func (op UnaryOp) String() string {
	switch op {
	case OpTake:
		return "take"
	case OpNot:
		return "not"
	case OpSize:
		return "size"
	}
	return fmt.Sprintf("unary(%d)", op)
}

// BinaryOp selects a binary operator.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpGt
	OpGe
	OpLt
	OpLe
	OpEq
	OpNe
	OpAppend
	OpAnd
	OpOr
	OpXor
	OpShiftR
	OpShiftL
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpMod:
		return "mod"
	case OpGt:
		return "gt"
	case OpGe:
		return "ge"
	case OpLt:
		return "lt"
	case OpLe:
		return "le"
	case OpEq:
		return "eq"
	case OpNe:
		return "ne"
	case OpAppend:
		return "append"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	case OpShiftR:
		return "shr"
	case OpShiftL:
		return "shl"
	}
	return fmt.Sprintf("binary(%d)", op)
}

// Unary applies a unary operator to one operand.
type Unary struct {
	Op UnaryOp
	X  Lookup
}

// Binary applies a binary operator to two operands.
type Binary struct {
	Op BinaryOp
	A  Lookup
	B  Lookup
}

// If evaluates Then or Else depending on a boolean-coercible
// condition. A non-boolean condition is a BadInstruction.
type If struct {
	Cond Lookup
	Then Lookup
	Else Lookup
}

// IfNot is If with the branches swapped.
type IfNot struct {
	Cond Lookup
	Then Lookup
	Else Lookup
}

// Sys dispatches a system call by address.
type Sys struct {
	Target Address
	Args   []Lookup
}

// Call invokes a Func in another module, swapping the module context
// for the duration of the call.
type Call struct {
	Module Address
	Fn     Lookup
	Args   []Lookup
}

// Local invokes a Func in the current module context.
type Local struct {
	Fn   Lookup
	Args []Lookup
}

// Goto tail-transfers to a Func: the current frame is replaced, not
// snapshotted, and there is no implicit return point.
type Goto struct {
	Fn   Lookup
	Args []Lookup
}

func (Unary) expression()  {}
func (Binary) expression() {}
func (If) expression()     {}
func (IfNot) expression()  {}
func (Sys) expression()    {}
func (Call) expression()   {}
func (Local) expression()  {}
func (Goto) expression()   {}

func lookupList(args []Lookup) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

func (e Unary) String() string  { return fmt.Sprintf("%s (%s)", e.Op, e.X) }
func (e Binary) String() string { return fmt.Sprintf("%s (%s) (%s)", e.Op, e.A, e.B) }
func (e If) String() string     { return fmt.Sprintf("if (%s) (%s) (%s)", e.Cond, e.Then, e.Else) }
func (e IfNot) String() string  { return fmt.Sprintf("ifnot (%s) (%s) (%s)", e.Cond, e.Then, e.Else) }
func (e Sys) String() string    { return fmt.Sprintf("sys %s(%s)", e.Target, lookupList(e.Args)) }
func (e Call) String() string {
	return fmt.Sprintf("call %s:(%s)(%s)", e.Module, e.Fn, lookupList(e.Args))
}
func (e Local) String() string { return fmt.Sprintf("local (%s)(%s)", e.Fn, lookupList(e.Args)) }
func (e Goto) String() string  { return fmt.Sprintf("goto (%s)(%s)", e.Fn, lookupList(e.Args)) }
