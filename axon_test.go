package axon

import (
	"errors"
	"testing"
)

// =============================================================================
// Facade Surface Tests
// =============================================================================

func TestFacade_BuildersProduceWorkingGraph(t *testing.T) {
	w := NewWorld()
	defer w.Close()

	first, err := NewState(w, "game", WithLabel("first"))
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	second, err := NewState(w, "on")
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	joined, err := NewComputed2(w, func(a, b string) (string, error) {
		return a + " " + b, nil
	}, first, second)
	if err != nil {
		t.Fatalf("NewComputed2: %v", err)
	}

	runs := 0
	if _, err := NewEffect1(w, func(string) error {
		runs++
		return nil
	}, joined); err != nil {
		t.Fatalf("NewEffect1: %v", err)
	}

	w.Tick()
	if got, _ := joined.Get(); got != "game on" {
		t.Errorf("joined = %q, want %q", got, "game on")
	}
	if runs != 1 {
		t.Errorf("effect ran %d times after construction, want 1", runs)
	}

	first.Send("lights")
	w.Tick()
	if got, _ := joined.Get(); got != "lights on" {
		t.Errorf("joined = %q, want %q", got, "lights on")
	}
	if runs != 2 {
		t.Errorf("effect ran %d times after send, want 2", runs)
	}
}

func TestFacade_SignalTriggersEffect(t *testing.T) {
	w := NewWorld()
	defer w.Close()

	ping, err := NewSignal(w, WithLabel("ping"))
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}
	runs := 0
	if _, err := NewEffect(w, func() error {
		runs++
		return nil
	}, WithTriggers(ping)); err != nil {
		t.Fatalf("NewEffect: %v", err)
	}

	w.Tick()
	runs = 0

	ping.Send()
	w.Tick()
	if runs != 1 {
		t.Errorf("effect ran %d times for 1 send, want 1", runs)
	}
}

func TestFacade_ReadAndReadError(t *testing.T) {
	w := NewWorld()
	defer w.Close()

	cell, err := NewState(w, 7)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}

	if got, err := Read[int](w, cell.Handle()); err != nil || got != 7 {
		t.Fatalf("Read = %d, %v; want 7, nil", got, err)
	}
	if _, err := Read[string](w, cell.Handle()); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("mistyped Read error = %v, want ErrTypeMismatch", err)
	}
	if err := ReadError(w, cell.Handle()); err != nil {
		t.Errorf("ReadError on healthy cell = %v, want nil", err)
	}

	boom := errors.New("boom")
	bad, err := NewComputed1(w, func(int) (int, error) { return 0, boom }, cell)
	if err != nil {
		t.Fatalf("NewComputed1: %v", err)
	}
	w.Tick()
	if err := ReadError(w, bad.Handle()); !errors.Is(err, boom) {
		t.Errorf("ReadError = %v, want wrapped boom", err)
	}
}

func TestFacade_ValueRoundTrip(t *testing.T) {
	v := ValueOf(42)
	if !v.Valid() {
		t.Fatal("ValueOf produced an empty cell")
	}
	got, ok := As[int](v)
	if !ok || got != 42 {
		t.Errorf("As[int] = %d, %t; want 42, true", got, ok)
	}
	if _, ok := As[string](v); ok {
		t.Error("As[string] on an int cell should report false")
	}
}

func TestFacade_EngineAccessByHandle(t *testing.T) {
	w := NewWorld()
	defer w.Close()

	cell, err := NewState(w, "raw")
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}

	eng := w.Engine()
	if kind, ok := eng.KindOf(cell.Handle()); !ok || kind != KindState {
		t.Errorf("KindOf = %v, %t; want KindState, true", kind, ok)
	}
	eng.Send(cell.Handle(), "updated")
	w.Tick()
	if got, _ := cell.Get(); got != "updated" {
		t.Errorf("cell = %q, want %q", got, "updated")
	}
}

func TestFacade_ResourcesAndComponents(t *testing.T) {
	w := NewWorld()
	defer w.Close()

	type score struct{ points int }

	SetResource(w, score{points: 10})
	if got, ok := Resource[score](w); !ok || got.points != 10 {
		t.Errorf("Resource = %+v, %t; want {10}, true", got, ok)
	}

	ent := w.Spawn()
	SetComponent(w, ent, score{points: 3})
	if got, ok := Component[score](w, ent); !ok || got.points != 3 {
		t.Errorf("Component = %+v, %t; want {3}, true", got, ok)
	}

	seen := 0
	EachComponent(w, func(Entity, score) { seen++ })
	if seen != 1 {
		t.Errorf("EachComponent visited %d entities, want 1", seen)
	}

	if !RemoveComponent[score](w, ent) {
		t.Error("RemoveComponent reported no component")
	}
	if !RemoveResource[score](w) {
		t.Error("RemoveResource reported no resource")
	}
}
