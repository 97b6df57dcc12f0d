package vm

import "context"

// ---------------------------------------------------------------------------
// Host entry points
// ---------------------------------------------------------------------------

// Execute installs b as the current block and runs the interpreter
// loop against the current machine state. The block's result is
// whatever LastResult holds when the program counter leaves the
// block. An Error signal escaping the evaluation is returned as a
// *RuntimeError carrying the structured error value; a top-level
// Return yields its value directly.
func (rt *Runtime) Execute(ctx context.Context, b *Block) (result Value, err error) {
	prev := rt.ctx
	rt.ctx = ctx
	defer func() {
		rt.ctx = prev
		if r := recover(); r != nil {
			sig, ok := r.(Signal)
			if !ok {
				panic(r)
			}
			if sig.Kind == SignalReturn {
				result, err = sig.Value, nil
				return
			}
			result, err = Null, &RuntimeError{Value: sig.Value}
		}
	}()
	rt.setBlock(b)
	return rt.runLoop(), nil
}

// EvalCommand executes a single command against the current state,
// for hosts driving the machine at instruction granularity. Signals
// are converted the same way Execute converts them.
func (rt *Runtime) EvalCommand(ctx context.Context, cmd Command) (err error) {
	prev := rt.ctx
	rt.ctx = ctx
	defer func() {
		rt.ctx = prev
		if r := recover(); r != nil {
			sig, ok := r.(Signal)
			if !ok {
				panic(r)
			}
			if sig.Kind == SignalReturn {
				rt.LastResult = sig.Value
				return
			}
			err = &RuntimeError{Value: sig.Value}
		}
	}()
	rt.execCommand(cmd)
	return nil
}

// EvalLookup evaluates a lookup against the current state.
func (rt *Runtime) EvalLookup(l Lookup) (result Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			sig, ok := r.(Signal)
			if !ok {
				panic(r)
			}
			result, err = Null, &RuntimeError{Value: sig.Value}
		}
	}()
	return rt.evalLookup(l), nil
}

// ---------------------------------------------------------------------------
// The interpreter loop
// ---------------------------------------------------------------------------

// setBlock makes b the current block: the program counter rewinds to
// zero and the jump table is rebuilt from b's SetJump commands.
func (rt *Runtime) setBlock(b *Block) {
	rt.currentBlock = b
	rt.pc = 0
	rt.jumpTable = b.jumpTargets()
}

// runLoop executes commands while the program counter is in range of
// the current block, then yields LastResult. The counter is
// incremented before the fetched command executes, so Jump targets
// overwrite it cleanly.
func (rt *Runtime) runLoop() Value {
	for rt.pc >= 0 && rt.pc < rt.currentBlock.Len() {
		cmd := rt.currentBlock.At(rt.pc)
		rt.pc++
		rt.execCommand(cmd)
	}
	return rt.LastResult
}

// ---------------------------------------------------------------------------
// Lookups
// ---------------------------------------------------------------------------

func (rt *Runtime) evalLookup(l Lookup) Value {
	switch l := l.(type) {
	case Result:
		return rt.LastResult
	case Const:
		return l.V
	case Var:
		v, ok := rt.Registers[l.Name]
		if !ok {
			raiseProblem(ProblemUndefinedVariable, map[Label]Value{
				"register": FromStr(string(l.Name)),
			})
		}
		return v
	case Deref:
		if rt.CurrentModule == nil {
			raiseProblem(ProblemNoCurrentModule, map[Label]Value{
				"name": FromStr(string(l.Name)),
			})
		}
		if v, ok := rt.CurrentModule.Private[l.Name]; ok {
			return v
		}
		if v, ok := rt.CurrentModule.Public[l.Name]; ok {
			return v
		}
		raiseProblem(ProblemUndefinedModuleVariable, map[Label]Value{
			"name": FromStr(string(l.Name)),
		})
	case ModuleRef:
		lm, ok := rt.modules.get(l.Module)
		if !ok {
			raiseProblem(ProblemUndefinedModule, map[Label]Value{
				"module": PointerTo(l.Module),
			})
		}
		v, ok := lm.Module.Public[l.Name]
		if !ok {
			raiseProblem(ProblemUndefinedModuleVariable, map[Label]Value{
				"module": PointerTo(l.Module),
				"name":   FromStr(string(l.Name)),
			})
		}
		return v
	}
	raiseProblem(ProblemBadInstruction, map[Label]Value{
		"instruction": FromStr(l.String()),
	})
	return Null
}

func (rt *Runtime) evalLookups(ls []Lookup) []Value {
	out := make([]Value, len(ls))
	for i, l := range ls {
		out[i] = rt.evalLookup(l)
	}
	return out
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func (rt *Runtime) execCommand(cmd Command) {
	rt.EvalCounter++
	if rt.TraceEval {
		log.Debugf("eval %d: %s", rt.EvalCounter, cmd)
	}
	switch cmd := cmd.(type) {
	case Load:
		rt.LastResult = rt.evalLookup(cmd.L)
	case Store:
		rt.Registers[cmd.Name] = rt.LastResult
	case Update:
		if rt.CurrentModule == nil {
			raiseProblem(ProblemNoCurrentModule, map[Label]Value{
				"name": FromStr(string(cmd.Name)),
			})
		}
		if _, ok := rt.CurrentModule.Private[cmd.Name]; !ok {
			raiseProblem(ProblemUndefinedVariable, map[Label]Value{
				"register": FromStr(string(cmd.Name)),
			})
		}
		rt.CurrentModule.Private[cmd.Name] = rt.evalLookup(cmd.L)
	case SetJump:
		// Jump targets are collected when the block is installed.
	case Jump:
		target, ok := rt.jumpTable[cmd.Name]
		if !ok || target < 0 || target >= rt.currentBlock.Len() {
			raiseProblem(ProblemUndefinedJumpTarget, map[Label]Value{
				"target": FromStr(string(cmd.Name)),
			})
		}
		rt.pc = target
	case Push:
		rt.PushValue(rt.evalLookup(cmd.L))
	case Peek:
		rt.LastResult = rt.PeekValue()
	case Pop:
		rt.LastResult = rt.PopValue()
	case ClearForward:
		rt.LastResult = ListOf(rt.drainStack()...)
	case ClearReverse:
		vals := rt.drainStack()
		for i, j := 0, len(vals)-1; i < j; i, j = i+1, j-1 {
			vals[i], vals[j] = vals[j], vals[i]
		}
		rt.LastResult = ListOf(vals...)
	case Eval:
		rt.LastResult = rt.evalExpression(cmd.E)
	case Do:
		rt.execCondition(cmd.C)
	case Return:
		RaiseReturn(rt.evalLookup(cmd.L))
	case Throw:
		RaiseError(rt.evalLookup(cmd.L))
	default:
		raiseProblem(ProblemBadInstruction, map[Label]Value{
			"instruction": FromStr(cmd.String()),
		})
	}
}

// drainStack empties the stack, returning the values bottom first.
func (rt *Runtime) drainStack() []Value {
	vals := rt.Stack
	rt.Stack = nil
	return vals
}

// ---------------------------------------------------------------------------
// Conditions
// ---------------------------------------------------------------------------

func (rt *Runtime) execCondition(c Condition) {
	switch c := c.(type) {
	case When:
		if rt.evalLookup(c.Cond).IsTruthy() {
			rt.execCommand(c.Cmd)
		}
	case Unless:
		if !rt.evalLookup(c.Cond).IsTruthy() {
			rt.execCommand(c.Cmd)
		}
	default:
		raiseProblem(ProblemBadInstruction, map[Label]Value{
			"instruction": FromStr(c.String()),
		})
	}
}
