package signals

import (
	"errors"
	"fmt"
	"testing"
)

// th builds a test handle with generation 1.
func th(index uint32) Handle {
	return NewHandle(index, 1)
}

// mustCreateState is a test helper that fails fast on wiring errors.
func mustCreateState(t *testing.T, e *Engine, h Handle, v any) {
	t.Helper()
	if err := e.CreateState(h, v); err != nil {
		t.Fatalf("CreateState(%s) failed: %v", h, err)
	}
}

func mustCreateComputed(t *testing.T, e *Engine, h Handle, fn ComputeFunc, sources ...Handle) {
	t.Helper()
	if err := e.CreateComputed(h, fn, sources); err != nil {
		t.Fatalf("CreateComputed(%s) failed: %v", h, err)
	}
}

func floatArg(t *testing.T, args []Value, i int) float64 {
	t.Helper()
	f, ok := As[float64](args[i])
	if !ok {
		t.Fatalf("argument %d is not a float64: %#v", i, args[i])
	}
	return f
}

func TestStateSendCommitsOnPass(t *testing.T) {
	e := New()
	x, f := th(1), th(2)

	mustCreateState(t, e, x, 0.0)
	mustCreateComputed(t, e, f, func(args []Value) (any, error) {
		return floatArg(t, args, 0) * 2, nil
	}, x)

	e.Send(x, 1.0)
	e.ProcessPending()

	v, ok := e.Value(f)
	if !ok {
		t.Fatalf("computed node vanished")
	}
	got, _ := As[float64](v)
	if got != 2.0 {
		t.Errorf("f = %v, want 2.0", got)
	}
}

func TestComputedDerivesInitialValueWithoutSends(t *testing.T) {
	e := New()
	x, f := th(1), th(2)

	mustCreateState(t, e, x, 21.0)
	mustCreateComputed(t, e, f, func(args []Value) (any, error) {
		return floatArg(t, args, 0) * 2, nil
	}, x)

	// No sends: the first pass still settles the fresh computed node.
	e.ProcessPending()

	got, _ := As[float64](mustValue(t, e, f))
	if got != 42.0 {
		t.Errorf("f = %v, want 42.0", got)
	}
}

func mustValue(t *testing.T, e *Engine, h Handle) Value {
	t.Helper()
	v, ok := e.Value(h)
	if !ok {
		t.Fatalf("node %s vanished", h)
	}
	return v
}

func TestLastWriteWins(t *testing.T) {
	e := New()
	x, f := th(1), th(2)

	evals := 0
	mustCreateState(t, e, x, 0.0)
	mustCreateComputed(t, e, f, func(args []Value) (any, error) {
		evals++
		return floatArg(t, args, 0) * 2, nil
	}, x)
	e.ProcessPending()
	evals = 0

	e.Send(x, 5.0)
	e.Send(x, 3.0)
	stats := e.ProcessPending()

	if stats.Sends != 1 {
		t.Errorf("Sends = %d, want 1 after collapse", stats.Sends)
	}
	if evals != 1 {
		t.Errorf("computed body ran %d times, want 1", evals)
	}
	got, _ := As[float64](mustValue(t, e, f))
	if got != 6.0 {
		t.Errorf("f = %v, want 6.0 (never 10.0)", got)
	}
	gotX, _ := As[float64](mustValue(t, e, x))
	if gotX != 3.0 {
		t.Errorf("x = %v, want 3.0", gotX)
	}
}

func TestDiamondEvaluatesOnce(t *testing.T) {
	e := New()
	a, b, c, d := th(1), th(2), th(3), th(4)

	counts := map[string]int{}
	mustCreateState(t, e, a, 1.0)
	mustCreateComputed(t, e, b, func(args []Value) (any, error) {
		counts["b"]++
		return floatArg(t, args, 0) + 1, nil
	}, a)
	mustCreateComputed(t, e, c, func(args []Value) (any, error) {
		counts["c"]++
		return floatArg(t, args, 0) + 2, nil
	}, a)
	mustCreateComputed(t, e, d, func(args []Value) (any, error) {
		counts["d"]++
		return floatArg(t, args, 0) + floatArg(t, args, 1), nil
	}, b, c)
	e.ProcessPending()

	for k, v := range counts {
		if v != 1 {
			t.Errorf("node %s evaluated %d times on settle, want 1", k, v)
		}
	}

	e.Send(a, 10.0)
	stats := e.ProcessPending()

	if counts["d"] != 2 {
		t.Errorf("d evaluated %d times total, want 2 (once per pass)", counts["d"])
	}
	if stats.Dirtied != 4 {
		t.Errorf("Dirtied = %d, want 4 (a, b, c, d each once)", stats.Dirtied)
	}
	got, _ := As[float64](mustValue(t, e, d))
	if got != 23.0 {
		t.Errorf("d = %v, want 23.0", got)
	}
}

func TestComputedMemoizedAcrossDependents(t *testing.T) {
	e := New()
	x, m := th(1), th(2)
	e1, e2, e3 := th(3), th(4), th(5)

	evals := 0
	mustCreateState(t, e, x, 2.0)
	mustCreateComputed(t, e, m, func(args []Value) (any, error) {
		evals++
		return floatArg(t, args, 0) * 10, nil
	}, x)
	for _, eff := range []Handle{e1, e2, e3} {
		if err := e.CreateEffect(eff, func([]Value) error { return nil }, []Handle{m}, nil); err != nil {
			t.Fatalf("CreateEffect(%s) failed: %v", eff, err)
		}
	}
	e.ProcessPending()
	if evals != 1 {
		t.Fatalf("computed body ran %d times on settle, want 1", evals)
	}

	e.Send(x, 3.0)
	e.ProcessPending()
	if evals != 2 {
		t.Errorf("computed body ran %d times total, want 2 despite 3 dependents", evals)
	}
}

func TestUnchangedSendDoesNotPropagate(t *testing.T) {
	e := New()
	x, f := th(1), th(2)

	evals := 0
	mustCreateState(t, e, x, 5.0)
	mustCreateComputed(t, e, f, func(args []Value) (any, error) {
		evals++
		return floatArg(t, args, 0), nil
	}, x)
	e.ProcessPending()
	evals = 0

	e.Send(x, 5.0)
	stats := e.ProcessPending()
	if evals != 0 {
		t.Errorf("computed re-evaluated after unchanged send")
	}
	if stats.Dirtied != 0 {
		t.Errorf("Dirtied = %d, want 0 for unchanged send", stats.Dirtied)
	}

	e.Trigger(x, 5.0)
	e.ProcessPending()
	if evals != 1 {
		t.Errorf("trigger did not force re-evaluation, evals = %d", evals)
	}
}

func TestTriggerForceSurvivesCollapse(t *testing.T) {
	e := New()
	x, f := th(1), th(2)

	evals := 0
	mustCreateState(t, e, x, 7.0)
	mustCreateComputed(t, e, f, func(args []Value) (any, error) {
		evals++
		return floatArg(t, args, 0), nil
	}, x)
	e.ProcessPending()
	evals = 0

	// A trigger collapsed with a later plain send of the unchanged value
	// must still propagate.
	e.Trigger(x, 7.0)
	e.Send(x, 7.0)
	e.ProcessPending()
	if evals != 1 {
		t.Errorf("forced propagation lost in collapse, evals = %d", evals)
	}
}

func TestStaleOnError(t *testing.T) {
	e := New()
	x, f := th(1), th(2)

	boom := errors.New("boom")
	mustCreateState(t, e, x, 2.0)
	mustCreateComputed(t, e, f, func(args []Value) (any, error) {
		v := floatArg(t, args, 0)
		if v < 0 {
			return nil, boom
		}
		return v * 2, nil
	}, x)
	e.ProcessPending()

	e.Send(x, -1.0)
	stats := e.ProcessPending()

	if stats.Failures != 1 {
		t.Errorf("Failures = %d, want 1", stats.Failures)
	}
	got, _ := As[float64](mustValue(t, e, f))
	if got != 4.0 {
		t.Errorf("f = %v, want stale 4.0 after failure", got)
	}
	d, ok := e.LastFailure(f)
	if !ok {
		t.Fatalf("no diagnostic recorded")
	}
	if d.Code() != CodeEvaluationFailure {
		t.Errorf("diagnostic code = %q, want %q", d.Code(), CodeEvaluationFailure)
	}
	if !errors.Is(d.Err, ErrEvaluationFailed) || !errors.Is(d.Err, boom) {
		t.Errorf("diagnostic error %v does not wrap sentinels", d.Err)
	}

	// Not retried until next dirtied.
	if e.Dirty(f) {
		t.Errorf("failed node left dirty; it would re-run without a new change")
	}

	e.Send(x, 10.0)
	e.ProcessPending()
	got, _ = As[float64](mustValue(t, e, f))
	if got != 20.0 {
		t.Errorf("f = %v, want 20.0 after recovery", got)
	}
}

func TestFailureDoesNotAffectSiblings(t *testing.T) {
	e := New()
	x, bad, good := th(1), th(2), th(3)

	mustCreateState(t, e, x, 1.0)
	mustCreateComputed(t, e, bad, func([]Value) (any, error) {
		return nil, fmt.Errorf("always fails")
	}, x)
	mustCreateComputed(t, e, good, func(args []Value) (any, error) {
		return floatArg(t, args, 0) + 100, nil
	}, x)

	e.Send(x, 5.0)
	e.ProcessPending()

	got, _ := As[float64](mustValue(t, e, good))
	if got != 105.0 {
		t.Errorf("sibling = %v, want 105.0; failures must stay local", got)
	}
}

func TestComputedPanicContained(t *testing.T) {
	e := New()
	x, f := th(1), th(2)

	mustCreateState(t, e, x, 1.0)
	mustCreateComputed(t, e, f, func(args []Value) (any, error) {
		if v := floatArg(t, args, 0); v > 1 {
			panic("overflow")
		}
		return 1.0, nil
	}, x)
	e.ProcessPending()

	e.Send(x, 2.0)
	e.ProcessPending()

	d, ok := e.LastFailure(f)
	if !ok {
		t.Fatalf("panic did not record a diagnostic")
	}
	if !errors.Is(d.Err, ErrEvaluationFailed) {
		t.Errorf("panic diagnostic %v does not wrap ErrEvaluationFailed", d.Err)
	}
}

func TestCycleRejectedAtInsertion(t *testing.T) {
	e := New()
	x, a, b := th(1), th(2), th(3)

	identity := func(args []Value) (any, error) { return args[0].Any(), nil }
	mustCreateState(t, e, x, 1.0)
	mustCreateComputed(t, e, a, identity, x)
	mustCreateComputed(t, e, b, identity, a)

	err := e.AddEdge(b, a, EdgeSource)
	if !errors.Is(err, ErrCycleDetected) {
		t.Errorf("AddEdge closing a cycle returned %v, want ErrCycleDetected", err)
	}

	if err := e.CreateComputed(th(4), identity, []Handle{th(4)}); !errors.Is(err, ErrCycleDetected) {
		t.Errorf("self-sourcing node returned %v, want ErrCycleDetected", err)
	}
}

func TestCycleCaughtAtEvaluation(t *testing.T) {
	e := New(WithEagerCycleCheck(false), WithMaxEvalDepth(16))
	x, a, b := th(1), th(2), th(3)

	identity := func(args []Value) (any, error) { return args[0].Any(), nil }
	mustCreateState(t, e, x, 1.0)
	mustCreateComputed(t, e, a, identity, x)
	mustCreateComputed(t, e, b, identity, a)
	if err := e.AddEdge(b, a, EdgeSource); err != nil {
		t.Fatalf("lazy mode rejected edge eagerly: %v", err)
	}

	e.Send(x, 2.0)
	e.ProcessPending() // must terminate

	found := false
	for _, d := range e.Diagnostics() {
		if d.Code() == CodeCycleDetected {
			found = true
		}
	}
	if !found {
		t.Errorf("no cycle diagnostic recorded by bounded evaluation")
	}
}

func TestDeepChainWithinLimit(t *testing.T) {
	e := New(WithMaxEvalDepth(64))
	s := th(1)
	mustCreateState(t, e, s, 0.0)

	prev := s
	last := s
	for i := uint32(2); i <= 50; i++ {
		h := th(i)
		mustCreateComputed(t, e, h, func(args []Value) (any, error) {
			return floatArg(t, args, 0) + 1, nil
		}, prev)
		prev, last = h, h
	}
	e.ProcessPending()

	got, _ := As[float64](mustValue(t, e, last))
	if got != 49.0 {
		t.Errorf("chain tail = %v, want 49.0", got)
	}
}

func TestUnresolvedDependencyAfterRemove(t *testing.T) {
	e := New()
	s, f := th(1), th(2)

	mustCreateState(t, e, s, 3.0)
	mustCreateComputed(t, e, f, func(args []Value) (any, error) {
		return floatArg(t, args, 0), nil
	}, s)
	e.ProcessPending()

	if !e.Remove(s) {
		t.Fatalf("Remove(s) reported no node")
	}

	// Poke the reader directly: its source is gone.
	e.Trigger(f, nil)
	e.ProcessPending()

	d, ok := e.LastFailure(f)
	if !ok {
		t.Fatalf("no diagnostic after reading a removed source")
	}
	if d.Code() != CodeUnresolvedDependency {
		t.Errorf("diagnostic code = %q, want %q", d.Code(), CodeUnresolvedDependency)
	}
	got, _ := As[float64](mustValue(t, e, f))
	if got != 3.0 {
		t.Errorf("f = %v, want stale 3.0", got)
	}
}

func TestEffectRunsPerDirtyPass(t *testing.T) {
	e := New()
	x, eff := th(1), th(2)

	runs := 0
	var seen float64
	mustCreateState(t, e, x, 1.0)
	if err := e.CreateEffect(eff, func(args []Value) error {
		runs++
		seen, _ = As[float64](args[0])
		return nil
	}, []Handle{x}, nil); err != nil {
		t.Fatalf("CreateEffect failed: %v", err)
	}

	e.ProcessPending()
	if runs != 1 {
		t.Fatalf("effect ran %d times at settle, want 1 initial run", runs)
	}

	e.Send(x, 2.0)
	e.Send(x, 4.0)
	e.ProcessPending()
	if runs != 2 {
		t.Errorf("effect ran %d times, want 2 (one per dirty pass)", runs)
	}
	if seen != 4.0 {
		t.Errorf("effect observed %v, want freshest commit 4.0", seen)
	}

	// Clean pass: nothing dirty, no run.
	e.ProcessPending()
	if runs != 2 {
		t.Errorf("effect ran on a clean pass")
	}
}

func TestEffectFailureTreatedAsCompleted(t *testing.T) {
	e := New()
	x, eff := th(1), th(2)

	runs := 0
	mustCreateState(t, e, x, 1.0)
	if err := e.CreateEffect(eff, func([]Value) error {
		runs++
		return errors.New("effect boom")
	}, []Handle{x}, nil); err != nil {
		t.Fatalf("CreateEffect failed: %v", err)
	}
	e.ProcessPending()

	// No retry without a fresh change.
	e.ProcessPending()
	if runs != 1 {
		t.Errorf("failing effect ran %d times, want 1 (no retry)", runs)
	}
	if _, ok := e.LastFailure(eff); !ok {
		t.Errorf("effect failure not recorded")
	}

	e.Send(x, 2.0)
	e.ProcessPending()
	if runs != 2 {
		t.Errorf("effect did not run again after its source changed")
	}
}

func TestEffectObservesTriggerWithoutReadingIt(t *testing.T) {
	e := New()
	x, trig, eff := th(1), th(2), th(3)

	var argCount int
	runs := 0
	mustCreateState(t, e, x, 1.0)
	mustCreateState(t, e, trig, nil)
	if err := e.CreateEffect(eff, func(args []Value) error {
		runs++
		argCount = len(args)
		return nil
	}, []Handle{x}, []Handle{trig}); err != nil {
		t.Fatalf("CreateEffect failed: %v", err)
	}
	e.ProcessPending()
	runs = 0

	e.Trigger(trig, nil)
	e.ProcessPending()

	if runs != 1 {
		t.Errorf("trigger edge did not re-run effect, runs = %d", runs)
	}
	if argCount != 1 {
		t.Errorf("effect received %d args, want 1 (triggers are not read)", argCount)
	}
}

func TestTerminalNodesCannotBeDependedOn(t *testing.T) {
	e := New()
	x, eff := th(1), th(2)

	mustCreateState(t, e, x, 1.0)
	if err := e.CreateEffect(eff, func([]Value) error { return nil }, []Handle{x}, nil); err != nil {
		t.Fatalf("CreateEffect failed: %v", err)
	}

	err := e.CreateComputed(th(3), func(args []Value) (any, error) { return nil, nil }, []Handle{eff})
	if !errors.Is(err, ErrTerminalNode) {
		t.Errorf("sourcing an effect returned %v, want ErrTerminalNode", err)
	}
}

func TestCreateValidation(t *testing.T) {
	e := New()

	if err := e.CreateState(NoHandle, 1); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("zero handle returned %v, want ErrInvalidHandle", err)
	}

	h := th(1)
	mustCreateState(t, e, h, 1)
	if err := e.CreateState(h, 2); !errors.Is(err, ErrNodeExists) {
		t.Errorf("duplicate handle returned %v, want ErrNodeExists", err)
	}

	if err := e.CreateComputed(th(2), func([]Value) (any, error) { return nil, nil }, []Handle{th(9)}); !errors.Is(err, ErrNoSuchNode) {
		t.Errorf("missing source returned %v, want ErrNoSuchNode", err)
	}
}

func TestSendToMissingNodeDropped(t *testing.T) {
	e := New()
	e.Send(th(9), 1.0)
	stats := e.ProcessPending()
	if stats.Dirtied != 0 {
		t.Errorf("send to missing node dirtied %d nodes", stats.Dirtied)
	}
}

func TestRemoveCascadesEdges(t *testing.T) {
	e := New()
	a, b := th(1), th(2)

	mustCreateState(t, e, a, 1.0)
	mustCreateComputed(t, e, b, func(args []Value) (any, error) { return args[0].Any(), nil }, a)

	if deps := e.DependentsOf(a); len(deps) != 1 || deps[0] != b {
		t.Fatalf("DependentsOf(a) = %v, want [b]", deps)
	}

	e.Remove(b)
	if deps := e.DependentsOf(a); len(deps) != 0 {
		t.Errorf("DependentsOf(a) = %v after removing b, want empty", deps)
	}

	// Changes to a must not visit the removed node.
	e.Send(a, 2.0)
	stats := e.ProcessPending()
	if stats.Dirtied != 1 {
		t.Errorf("Dirtied = %d, want 1", stats.Dirtied)
	}
}

func TestWithEqualsOverride(t *testing.T) {
	e := New()
	x, f := th(1), th(2)

	// Compare only the integer part: 1.2 -> 1.9 is "unchanged".
	err := e.CreateState(x, 1.2, WithEquals(func(a, b any) bool {
		return int(a.(float64)) == int(b.(float64))
	}))
	if err != nil {
		t.Fatalf("CreateState failed: %v", err)
	}
	evals := 0
	mustCreateComputed(t, e, f, func(args []Value) (any, error) {
		evals++
		return args[0].Any(), nil
	}, x)
	e.ProcessPending()
	evals = 0

	e.Send(x, 1.9)
	e.ProcessPending()
	if evals != 0 {
		t.Errorf("custom equality ignored, evals = %d", evals)
	}

	e.Send(x, 2.0)
	e.ProcessPending()
	if evals != 1 {
		t.Errorf("changed value did not propagate, evals = %d", evals)
	}
}

func TestClosedEngineRejectsMutation(t *testing.T) {
	e := New()
	h := th(1)
	mustCreateState(t, e, h, 1)

	e.Close()
	if err := e.CreateState(th(2), 1); !errors.Is(err, ErrClosed) {
		t.Errorf("create on closed engine returned %v, want ErrClosed", err)
	}
	stats := e.ProcessPending()
	if stats.Pass != 0 {
		t.Errorf("closed engine ran a pass")
	}
	if _, ok := e.Value(h); !ok {
		t.Errorf("reads should keep working after Close")
	}
}
