package vm

import "context"

// ---------------------------------------------------------------------------
// Rule dispatch
// ---------------------------------------------------------------------------

// Dispatch prefix-matches tokens against the rules of each addressed
// module in turn, returning the total number of rules that ran. Every
// matching rule runs, in declaration order, with no short-circuit on
// first match; side effects on a module's private namespace persist
// across rules within one dispatch. An Error raised by an action
// aborts the dispatch and surfaces as a *RuntimeError.
func (rt *Runtime) Dispatch(ctx context.Context, tokens []string, addrs ...Address) (matched int, err error) {
	prev := rt.ctx
	rt.ctx = ctx
	defer func() { rt.ctx = prev }()

	for _, addr := range addrs {
		lm, ok := rt.modules.get(addr)
		if !ok {
			return matched, &RuntimeError{Value: NewError(ProblemUndefinedModule, map[Label]Value{
				"module": PointerTo(addr),
			})}
		}
		n, err := rt.dispatchModule(addr, lm.Module, tokens)
		matched += n
		if err != nil {
			return matched, err
		}
	}
	return matched, nil
}

func (rt *Runtime) dispatchModule(addr Address, m *Module, tokens []string) (matched int, err error) {
	prevModule := rt.CurrentModule
	defer func() {
		rt.CurrentModule = prevModule
		if rt.Tracer != nil {
			rt.Tracer.RecordDispatch(DispatchRecord{
				RuntimeID: rt.ID,
				Module:    addr,
				Input:     tokens,
				Matched:   matched,
				Result:    rt.LastResult,
				Steps:     rt.EvalCounter,
			})
		}
	}()

	for _, rule := range m.Rules {
		if !prefixMatch(rule.Pattern, tokens) {
			continue
		}
		matched++
		log.Debugf("module %s: rule %v matched %v", addr, rule.Pattern, tokens)
		if err := rt.runAction(m, rule, tokens[len(rule.Pattern):]); err != nil {
			return matched, err
		}
	}
	return matched, nil
}

// runAction executes one matched rule: the module becomes current,
// the remainder tokens are loaded head-first onto a fresh stack as
// Str values, and the prior stack comes back afterward.
func (rt *Runtime) runAction(m *Module, rule Rule, rest []string) (err error) {
	saved := rt.Stack
	rt.CurrentModule = m
	rt.Stack = nil
	for _, tok := range rest {
		rt.PushValue(FromStr(tok))
	}

	defer func() {
		rt.Stack = saved
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

	rt.setBlock(rule.Action)
	rt.runLoop()
	return nil
}

func prefixMatch(pattern, tokens []string) bool {
	if len(pattern) > len(tokens) {
		return false
	}
	for i, p := range pattern {
		if tokens[i] != p {
			return false
		}
	}
	return true
}
