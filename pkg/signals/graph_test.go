package signals

import "testing"

func TestSourceOrderIsArgumentOrder(t *testing.T) {
	e := New()
	a, b, f := th(1), th(2), th(3)

	mustCreateState(t, e, a, "left")
	mustCreateState(t, e, b, "right")
	// Declared order b, a: argument order must follow it, not handle order.
	mustCreateComputed(t, e, f, func(args []Value) (any, error) {
		s0, _ := As[string](args[0])
		s1, _ := As[string](args[1])
		return s0 + "/" + s1, nil
	}, b, a)
	e.ProcessPending()

	got, _ := As[string](mustValue(t, e, f))
	if got != "right/left" {
		t.Errorf("f = %q, want %q", got, "right/left")
	}

	deps := e.DependenciesOf(f)
	if len(deps) != 2 || deps[0].Handle != b || deps[1].Handle != a {
		t.Errorf("DependenciesOf = %v, want declared order [b a]", deps)
	}
}

func TestDependenciesOfListsTriggersAfterSources(t *testing.T) {
	e := New()
	src, trigB, trigA, eff := th(1), th(9), th(2), th(4)

	mustCreateState(t, e, src, 0)
	mustCreateState(t, e, trigA, nil)
	mustCreateState(t, e, trigB, nil)
	if err := e.CreateEffect(eff, func([]Value) error { return nil },
		[]Handle{src}, []Handle{trigB, trigA}); err != nil {
		t.Fatalf("CreateEffect failed: %v", err)
	}

	deps := e.DependenciesOf(eff)
	if len(deps) != 3 {
		t.Fatalf("DependenciesOf returned %d edges, want 3", len(deps))
	}
	if deps[0].Handle != src || deps[0].Kind != EdgeSource {
		t.Errorf("deps[0] = %v, want source %s", deps[0], src)
	}
	// Triggers report in handle order regardless of declaration order.
	if deps[1].Handle != trigA || deps[1].Kind != EdgeTrigger {
		t.Errorf("deps[1] = %v, want trigger %s", deps[1], trigA)
	}
	if deps[2].Handle != trigB {
		t.Errorf("deps[2] = %v, want trigger %s", deps[2], trigB)
	}
}

func TestTransitiveCycleRejected(t *testing.T) {
	e := New()
	x, a, b, c := th(1), th(2), th(3), th(4)

	identity := func(args []Value) (any, error) { return args[0].Any(), nil }
	mustCreateState(t, e, x, 0)
	mustCreateComputed(t, e, a, identity, x)
	mustCreateComputed(t, e, b, identity, a)
	mustCreateComputed(t, e, c, identity, b)

	// c -> a closes a three-hop loop.
	if err := e.AddEdge(c, a, EdgeSource); err == nil {
		t.Errorf("transitive cycle not rejected")
	}

	// A sibling edge that shares nodes with the rejected one is fine.
	if err := e.AddEdge(x, c, EdgeSource); err != nil {
		t.Errorf("legal edge rejected: %v", err)
	}
}

func TestFingerprintTracksTopologyOnly(t *testing.T) {
	e := New()
	a, b := th(1), th(2)

	mustCreateState(t, e, a, 1)
	fp0 := e.Fingerprint()

	mustCreateComputed(t, e, b, func(args []Value) (any, error) { return args[0].Any(), nil }, a)
	fp1 := e.Fingerprint()
	if fp1 == fp0 {
		t.Errorf("fingerprint unchanged after adding a node")
	}

	// Value churn leaves the shape alone.
	e.Send(a, 2)
	e.ProcessPending()
	if got := e.Fingerprint(); got != fp1 {
		t.Errorf("fingerprint moved on a value change: %x != %x", got, fp1)
	}

	e.Remove(b)
	if got := e.Fingerprint(); got == fp1 {
		t.Errorf("fingerprint unchanged after removing a node")
	}
}

func TestReadAccessors(t *testing.T) {
	e := New()
	s, f := th(1), th(2)

	mustCreateState(t, e, s, 1)
	mustCreateComputed(t, e, f, func(args []Value) (any, error) { return args[0].Any(), nil }, s)

	if k, ok := e.KindOf(s); !ok || k != KindState {
		t.Errorf("KindOf(s) = %v, %v", k, ok)
	}
	if k, ok := e.KindOf(f); !ok || k != KindComputed {
		t.Errorf("KindOf(f) = %v, %v", k, ok)
	}
	if _, ok := e.KindOf(th(9)); ok {
		t.Errorf("KindOf reported a missing node")
	}
	if !e.Contains(s) || e.Contains(th(9)) {
		t.Errorf("Contains misreported membership")
	}
	if e.Len() != 2 {
		t.Errorf("Len = %d, want 2", e.Len())
	}

	e.Send(s, 2)
	if e.PendingSends() != 1 {
		t.Errorf("PendingSends = %d, want 1", e.PendingSends())
	}
	e.ProcessPending()
	if e.PendingSends() != 0 {
		t.Errorf("PendingSends = %d after pass, want 0", e.PendingSends())
	}
	if e.Pass() != 1 {
		t.Errorf("Pass = %d, want 1", e.Pass())
	}
}

func TestGenerationsKeepHandlesDistinct(t *testing.T) {
	e := New()
	gen1 := NewHandle(5, 1)
	gen2 := NewHandle(5, 2)

	mustCreateState(t, e, gen1, "old")
	e.Remove(gen1)
	mustCreateState(t, e, gen2, "new")

	if e.Contains(gen1) {
		t.Errorf("stale generation still resolves")
	}
	got, _ := As[string](mustValue(t, e, gen2))
	if got != "new" {
		t.Errorf("gen2 = %q, want %q", got, "new")
	}
	if gen1.Index() != gen2.Index() {
		t.Errorf("indices differ: %d vs %d", gen1.Index(), gen2.Index())
	}
	if gen1.Generation() == gen2.Generation() {
		t.Errorf("generations collide")
	}
}

func TestHandleString(t *testing.T) {
	h := NewHandle(7, 1)
	if got := h.String(); got != "7v1" {
		t.Errorf("String() = %q, want %q", got, "7v1")
	}
	if NoHandle.Valid() {
		t.Errorf("NoHandle reports valid")
	}
	if !h.Valid() {
		t.Errorf("real handle reports invalid")
	}
}
