package signals

import "testing"

func TestQueueCollapsesLastWriteWins(t *testing.T) {
	q := newSendQueue()
	a, b := th(1), th(2)

	q.push(a, 1, false)
	q.push(b, 10, false)
	q.push(a, 2, false)
	q.push(a, 3, false)

	if q.pendingCount() != 2 {
		t.Fatalf("pendingCount = %d, want 2", q.pendingCount())
	}

	got := q.drain()
	if len(got) != 2 {
		t.Fatalf("drained %d entries, want 2", len(got))
	}
	// First-arrival order: a staged before b.
	if got[0].target != a || got[0].value != 3 {
		t.Errorf("entry 0 = %+v, want target %s value 3", got[0], a)
	}
	if got[1].target != b || got[1].value != 10 {
		t.Errorf("entry 1 = %+v, want target %s value 10", got[1], b)
	}

	if q.drain() != nil {
		t.Errorf("second drain returned entries")
	}
	if q.pendingCount() != 0 {
		t.Errorf("pendingCount = %d after drain, want 0", q.pendingCount())
	}
}

func TestQueueForceBitSticks(t *testing.T) {
	q := newSendQueue()
	a := th(1)

	q.push(a, 1, true)
	q.push(a, 2, false)

	got := q.drain()
	if len(got) != 1 {
		t.Fatalf("drained %d entries, want 1", len(got))
	}
	if !got[0].force {
		t.Errorf("force bit lost in collapse")
	}
	if got[0].value != 2 {
		t.Errorf("value = %v, want the later 2", got[0].value)
	}

	// The bit does not leak into the next cycle.
	q.push(a, 3, false)
	got = q.drain()
	if got[0].force {
		t.Errorf("force bit leaked across drains")
	}
}

func TestQueueReusableAfterDrain(t *testing.T) {
	q := newSendQueue()
	a := th(1)

	q.push(a, 1, false)
	q.drain()
	q.push(a, 2, false)

	got := q.drain()
	if len(got) != 1 || got[0].value != 2 {
		t.Errorf("drain after reuse = %+v", got)
	}
}
