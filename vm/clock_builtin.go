package vm

import (
	"context"
	"time"
)

// ---------------------------------------------------------------------------
// clock: time natives
// ---------------------------------------------------------------------------

// ClockAddress is the registry address of the clock builtin.
var ClockAddress = MustAddress("clock")

// NewClockModule builds the clock builtin. sleep honors the context
// threaded through the evaluation, which is the intended escape hatch
// for host I/O in native code.
func NewClockModule() *LoadedModule {
	return BuiltinModule(NewModule(), []NativeMethod{
		{Name: "now", Fn: clockNow},
		{Name: "unix", Fn: clockUnix},
		{Name: "sleep", Fn: clockSleep},
	}, nil)
}

func clockNow(_ context.Context, _ *Runtime) Value {
	return FromStr(time.Now().UTC().Format(time.RFC3339))
}

func clockUnix(_ context.Context, _ *Runtime) Value {
	return FromInt(time.Now().Unix())
}

// clockSleep pauses for the given number of milliseconds, or until
// the context is canceled.
func clockSleep(ctx context.Context, rt *Runtime) Value {
	ms := popInt(rt)
	if ms < 0 {
		ms = 0
	}
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
		return Null
	case <-ctx.Done():
		RaiseError(NewError(ProblemSystemCall, map[Label]Value{
			"target": PointerTo(ClockAddress.Child("sleep")),
			"cause":  FromStr(ctx.Err().Error()),
		}))
	}
	return Null
}
