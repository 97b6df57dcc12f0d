package vm

// ---------------------------------------------------------------------------
// System calls
// ---------------------------------------------------------------------------

// sysCall implements the Sys expression. The call's arguments follow
// the same convention as Call: the current stack bottom-to-top, then
// the evaluated explicit arguments. The native runs against this
// runtime with the stack replaced by the reverse-ordered arguments,
// so Pop yields them positionally; the caller's stack is restored
// afterward whether or not the native raised. An Error raised by the
// native is wrapped into a SystemCall error naming the target.
func (rt *Runtime) sysCall(e Sys) (result Value) {
	fn, ok := rt.systemCalls[e.Target.String()]
	if !ok {
		raiseProblem(ProblemUndefinedSystemCall, map[Label]Value{
			"target": PointerTo(e.Target),
		})
	}

	saved := rt.Stack
	args := make([]Value, 0, len(saved)+len(e.Args))
	args = append(args, saved...)
	args = append(args, rt.evalLookups(e.Args)...)

	callStack := make([]Value, len(args))
	for i, v := range args {
		callStack[len(args)-1-i] = v
	}
	rt.Stack = callStack

	defer func() {
		rt.Stack = saved
		if r := recover(); r != nil {
			sig, ok := r.(Signal)
			if !ok {
				panic(r)
			}
			if sig.Kind == SignalReturn {
				result = sig.Value
				return
			}
			RaiseError(NewError(ProblemSystemCall, map[Label]Value{
				"target": PointerTo(e.Target),
				"cause":  sig.Value,
			}))
		}
	}()

	return fn(rt.Context(), rt)
}
