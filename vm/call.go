package vm

// ---------------------------------------------------------------------------
// Call & control-flow protocol
// ---------------------------------------------------------------------------

// frame is the caller state snapshotted around a call boundary. The
// machine has no explicit frame stack: each nested call holds its
// snapshot in a Go local, so the host call stack is the VM call
// stack.
//
// The operand stack is not part of the frame. A call consumes the
// caller's stack as arguments, and whatever the callee's stack holds
// at Return time, initially the surplus arguments, flows back to the
// caller.
type frame struct {
	registers map[Label]Value
	block     *Block
	pc        int
	jumpTable map[Label]int
	module    *Module
}

func (rt *Runtime) snapshot() frame {
	return frame{
		registers: rt.Registers,
		block:     rt.currentBlock,
		pc:        rt.pc,
		jumpTable: rt.jumpTable,
		module:    rt.CurrentModule,
	}
}

func (rt *Runtime) restore(f frame) {
	rt.Registers = f.registers
	rt.currentBlock = f.block
	rt.pc = f.pc
	rt.jumpTable = f.jumpTable
	rt.CurrentModule = f.module
}

// callArguments builds the positional argument list for a call: the
// current stack bottom-to-top (the reverse of its pop order), then
// the evaluated explicit arguments. The stack is consumed.
func (rt *Runtime) callArguments(explicit []Lookup) []Value {
	args := make([]Value, 0, len(rt.Stack)+len(explicit))
	args = append(args, rt.Stack...)
	rt.Stack = nil
	return append(args, rt.evalLookups(explicit)...)
}

// bindParams binds a closure's parameters positionally against args.
// Fewer values than parameters is NotEnoughArguments; surplus values
// are returned and become the callee's initial stack.
func bindParams(fn *Func, args []Value) (map[Label]Value, []Value) {
	if len(args) < len(fn.Params) {
		raiseProblem(ProblemNotEnoughArguments, map[Label]Value{
			"wanted": FromInt(int64(len(fn.Params))),
			"got":    FromInt(int64(len(args))),
		})
	}
	regs := make(map[Label]Value, len(fn.Params))
	for i, p := range fn.Params {
		regs[p] = args[i]
	}
	return regs, args[len(fn.Params):]
}

func (rt *Runtime) asFunc(v Value) *Func {
	fn, ok := v.AsFunc()
	if !ok {
		raiseProblem(ProblemBadInstruction, map[Label]Value{
			"operand": v,
		})
	}
	return fn
}

// invoke runs fn at a call boundary.
//
// The caller's registers, block, program counter, and module context
// are snapshotted into locals. A Return signal raised in the callee
// is caught here: the snapshot is restored and the returned value
// becomes the call's result; surplus arguments still on the callee's
// stack remain for the caller. An Error signal passes through
// uncaught.
//
// When the callee block falls off its end without an explicit Return,
// the snapshot is deliberately NOT restored: execution continues from
// whatever state the callee left behind, including the exhausted
// block, so the caller's remaining commands never run. That asymmetry
// is long-standing observable behavior and is kept, not fixed.
func (rt *Runtime) invoke(fn *Func, args []Value, module *Module, swapModule bool) (result Value) {
	rt.depth++
	defer func() { rt.depth-- }()
	if rt.depth > rt.MaxCallDepth {
		raiseProblem(ProblemStackOverflow, map[Label]Value{
			"depth": FromInt(int64(rt.depth)),
		})
	}

	saved := rt.snapshot()
	regs, leftover := bindParams(fn, args)

	defer func() {
		if r := recover(); r != nil {
			sig, ok := r.(Signal)
			if ok && sig.Kind == SignalReturn {
				rt.restore(saved)
				result = sig.Value
				return
			}
			panic(r)
		}
	}()

	if swapModule {
		rt.CurrentModule = module
	}
	rt.Registers = regs
	rt.Stack = leftover
	rt.setBlock(fn.Body)
	return rt.runLoop()
}

// ---------------------------------------------------------------------------
// The three transfer expressions
// ---------------------------------------------------------------------------

// callAcross implements Call: resolve the target module, then invoke
// with the module context swapped. The context is restored only along
// the Return path, the same asymmetry as the rest of the frame.
func (rt *Runtime) callAcross(e Call) Value {
	lm, ok := rt.modules.get(e.Module)
	if !ok {
		raiseProblem(ProblemUndefinedModule, map[Label]Value{
			"module": PointerTo(e.Module),
		})
	}
	fn := rt.asFunc(rt.evalLookup(e.Fn))
	return rt.invoke(fn, rt.callArguments(e.Args), lm.Module, true)
}

// callLocal implements Local: invoke within the current module
// context.
func (rt *Runtime) callLocal(e Local) Value {
	fn := rt.asFunc(rt.evalLookup(e.Fn))
	return rt.invoke(fn, rt.callArguments(e.Args), nil, false)
}

// tailGoto implements Goto: a genuine tail transfer. The current
// frame is replaced wholesale with a fresh frame for the target Func;
// nothing is snapshotted and there is no implicit return point, so
// the surrounding loop simply carries on in the new block.
func (rt *Runtime) tailGoto(e Goto) Value {
	fn := rt.asFunc(rt.evalLookup(e.Fn))
	regs, leftover := bindParams(fn, rt.callArguments(e.Args))
	rt.Registers = regs
	rt.Stack = leftover
	rt.setBlock(fn.Body)
	return rt.LastResult
}
