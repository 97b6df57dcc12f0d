package vm

import (
	"context"
	"testing"
)

func TestDispatchPrefixMatch(t *testing.T) {
	rt := NewRuntime()
	addr := MustAddress("intro")
	m := NewModule()
	m.Rules = []Rule{{
		Pattern: []string{"my", "name", "is"},
		Action: NewBlock(
			ClearForward{},
			Store{Name: "names"},
		),
	}}
	if err := rt.Activate(addr, PlainModule(m)); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	matched, err := rt.Dispatch(context.Background(), []string{"my", "name", "is", "Dave"}, addr)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if matched != 1 {
		t.Errorf("matched = %d, want 1", matched)
	}
	if !rt.Registers["names"].Equal(ListOf(FromStr("Dave"))) {
		t.Errorf("remainder = %s, want [\"Dave\"]", rt.Registers["names"])
	}
}

func TestDispatchRemainderIsHeadFirst(t *testing.T) {
	rt := NewRuntime()
	addr := MustAddress("order")
	m := NewModule()
	m.Rules = []Rule{{
		Pattern: []string{"say"},
		Action: NewBlock(
			ClearForward{},
			Store{Name: "tokens"},
		),
	}}
	if err := rt.Activate(addr, PlainModule(m)); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	if _, err := rt.Dispatch(context.Background(), []string{"say", "a", "b", "c"}, addr); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	want := ListOf(FromStr("a"), FromStr("b"), FromStr("c"))
	if !rt.Registers["tokens"].Equal(want) {
		t.Errorf("tokens = %s, want %s", rt.Registers["tokens"], want)
	}
}

func TestDispatchRunsAllMatchingRules(t *testing.T) {
	rt := NewRuntime()
	addr := MustAddress("multi")
	m := NewModule()
	m.Private["hits"] = FromInt(0)
	bump := NewBlock(
		Eval{E: Binary{Op: OpAdd, A: Deref{Name: "hits"}, B: Const{V: FromInt(1)}}},
		Update{L: Result{}, Name: "hits"},
	)
	m.Rules = []Rule{
		{Pattern: []string{"go"}, Action: bump},
		{Pattern: []string{"stop"}, Action: bump},
		{Pattern: []string{"go", "fast"}, Action: bump},
	}
	if err := rt.Activate(addr, PlainModule(m)); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	matched, err := rt.Dispatch(context.Background(), []string{"go", "fast"}, addr)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	// Both "go" and "go fast" prefix the input; "stop" does not.
	if matched != 2 {
		t.Errorf("matched = %d, want 2", matched)
	}
	if !m.Private["hits"].Equal(FromInt(2)) {
		t.Errorf("hits = %s, want 2: private effects must persist across rules", m.Private["hits"])
	}
}

func TestDispatchRestoresStackAndModule(t *testing.T) {
	rt := NewRuntime()
	rt.PushValue(FromStr("outer"))
	addr := MustAddress("clean")
	m := NewModule()
	m.Rules = []Rule{{
		Pattern: []string{"hi"},
		Action:  NewBlock(Push{L: Const{V: FromStr("garbage")}}),
	}}
	if err := rt.Activate(addr, PlainModule(m)); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	if _, err := rt.Dispatch(context.Background(), []string{"hi"}, addr); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if len(rt.Stack) != 1 || !rt.Stack[0].Equal(FromStr("outer")) {
		t.Errorf("stack = %v, want the prior stack", rt.Stack)
	}
	if rt.CurrentModule != nil {
		t.Errorf("module context not restored after dispatch")
	}
}

func TestDispatchUnknownModule(t *testing.T) {
	rt := NewRuntime()
	if _, err := rt.Dispatch(context.Background(), []string{"x"}, MustAddress("nope")); err == nil {
		t.Errorf("Dispatch against a missing module succeeded")
	}
}

func TestDispatchErrorAborts(t *testing.T) {
	rt := NewRuntime()
	addr := MustAddress("angry")
	m := NewModule()
	m.Rules = []Rule{
		{Pattern: []string{"x"}, Action: NewBlock(Throw{L: Const{V: FromStr("no")}})},
		{Pattern: []string{"x"}, Action: NewBlock(Store{Name: "later"})},
	}
	if err := rt.Activate(addr, PlainModule(m)); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	matched, err := rt.Dispatch(context.Background(), []string{"x"}, addr)
	if err == nil {
		t.Fatalf("expected the action's error to surface")
	}
	if matched != 1 {
		t.Errorf("matched = %d, want 1 (second rule skipped)", matched)
	}
	if _, ok := rt.Registers["later"]; ok {
		t.Errorf("rules after an error still ran")
	}
}

// ---------------------------------------------------------------------------
// Tracing
// ---------------------------------------------------------------------------

type captureTracer struct {
	records []DispatchRecord
}

func (c *captureTracer) RecordDispatch(rec DispatchRecord) {
	c.records = append(c.records, rec)
}

func TestDispatchTracer(t *testing.T) {
	rt := NewRuntime()
	tracer := &captureTracer{}
	rt.Tracer = tracer

	addr := MustAddress("traced")
	m := NewModule()
	m.Rules = []Rule{{
		Pattern: []string{"ping"},
		Action:  NewBlock(Load{L: Const{V: FromStr("pong")}}),
	}}
	if err := rt.Activate(addr, PlainModule(m)); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	if _, err := rt.Dispatch(context.Background(), []string{"ping"}, addr); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if len(tracer.records) != 1 {
		t.Fatalf("records = %d, want 1", len(tracer.records))
	}
	rec := tracer.records[0]
	if rec.RuntimeID != rt.ID {
		t.Errorf("record runtime = %q, want %q", rec.RuntimeID, rt.ID)
	}
	if !rec.Module.Equal(addr) {
		t.Errorf("record module = %s, want %s", rec.Module, addr)
	}
	if rec.Matched != 1 || !rec.Result.Equal(FromStr("pong")) {
		t.Errorf("record = %+v", rec)
	}
}
