package vm

import (
	"context"
	"strings"
)

// ---------------------------------------------------------------------------
// text: string natives
// ---------------------------------------------------------------------------

// TextAddress is the registry address of the text builtin.
var TextAddress = MustAddress("text")

// NewTextModule builds the text builtin: string helpers exposed both
// as system calls (text.upper, ...) and as public module methods.
func NewTextModule() *LoadedModule {
	return BuiltinModule(NewModule(), []NativeMethod{
		{Name: "upper", Fn: textUpper},
		{Name: "lower", Fn: textLower},
		{Name: "trim", Fn: textTrim},
		{Name: "concat", Fn: textConcat},
		{Name: "split", Fn: textSplit},
		{Name: "join", Fn: textJoin},
		{Name: "len", Fn: textLen},
	}, nil)
}

// popStr pops a Str argument, raising BadInstruction on any other
// shape.
func popStr(rt *Runtime) string {
	v := rt.PopValue()
	s, ok := v.AsStr()
	if !ok {
		raiseProblem(ProblemBadInstruction, map[Label]Value{
			"operand": v,
		})
	}
	return s
}

func textUpper(_ context.Context, rt *Runtime) Value {
	return FromStr(strings.ToUpper(popStr(rt)))
}

func textLower(_ context.Context, rt *Runtime) Value {
	return FromStr(strings.ToLower(popStr(rt)))
}

func textTrim(_ context.Context, rt *Runtime) Value {
	return FromStr(strings.TrimSpace(popStr(rt)))
}

func textConcat(_ context.Context, rt *Runtime) Value {
	a := popStr(rt)
	b := popStr(rt)
	return FromStr(a + b)
}

func textSplit(_ context.Context, rt *Runtime) Value {
	s := popStr(rt)
	sep := popStr(rt)
	parts := strings.Split(s, sep)
	elems := make([]Value, len(parts))
	for i, p := range parts {
		elems[i] = FromStr(p)
	}
	return ListOf(elems...)
}

func textJoin(_ context.Context, rt *Runtime) Value {
	v := rt.PopValue()
	elems, ok := v.AsList()
	if !ok {
		raiseProblem(ProblemBadInstruction, map[Label]Value{
			"operand": v,
		})
	}
	sep := popStr(rt)
	parts := make([]string, len(elems))
	for i, e := range elems {
		s, ok := e.AsStr()
		if !ok {
			raiseProblem(ProblemBadInstruction, map[Label]Value{
				"operand": e,
			})
		}
		parts[i] = s
	}
	return FromStr(strings.Join(parts, sep))
}

func textLen(_ context.Context, rt *Runtime) Value {
	return FromInt(int64(len(popStr(rt))))
}
