package signals

import (
	"errors"
	"fmt"
	"time"
)

// Diagnostic codes, stable strings for metrics labels and inspector frames.
const (
	CodeCycleDetected        = "cycle_detected"
	CodeUnresolvedDependency = "unresolved_dependency"
	CodeEvaluationFailure    = "evaluation_failure"
)

// Diagnostic records one contained node failure. Failures never abort a
// pass or touch sibling nodes; they are kept on the node (most recent) and
// in a bounded engine-wide ring for later retrieval.
type Diagnostic struct {
	Node  Handle    `json:"node"`
	Kind  Kind      `json:"-"`
	Label string    `json:"label,omitempty"`
	Pass  uint64    `json:"pass"`
	Err   error     `json:"-"`
	At    time.Time `json:"at"`
}

// Code classifies the diagnostic by its sentinel.
func (d Diagnostic) Code() string {
	switch {
	case errors.Is(d.Err, ErrCycleDetected):
		return CodeCycleDetected
	case errors.Is(d.Err, ErrUnresolvedDependency):
		return CodeUnresolvedDependency
	default:
		return CodeEvaluationFailure
	}
}

// String renders the diagnostic for logs, e.g.
// "pass 12: computed 3v1 (total): signals: evaluation failed: boom".
func (d Diagnostic) String() string {
	name := d.Node.String()
	if d.Label != "" {
		name = fmt.Sprintf("%s (%s)", name, d.Label)
	}
	return fmt.Sprintf("pass %d: %s %s: %v", d.Pass, d.Kind, name, d.Err)
}

// diagRing is a fixed-capacity ring of recent diagnostics.
type diagRing struct {
	buf  []Diagnostic
	next int
	size int
}

func newDiagRing(capacity int) *diagRing {
	if capacity < 1 {
		capacity = 1
	}
	return &diagRing{buf: make([]Diagnostic, capacity)}
}

func (r *diagRing) push(d Diagnostic) {
	r.buf[r.next] = d
	r.next = (r.next + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

// snapshot returns the retained diagnostics, oldest first.
func (r *diagRing) snapshot() []Diagnostic {
	out := make([]Diagnostic, 0, r.size)
	start := r.next - r.size
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < r.size; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}
