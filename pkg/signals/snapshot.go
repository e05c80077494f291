package signals

import "fmt"

// maxSnapshotValueLen bounds the rendered value string per node.
const maxSnapshotValueLen = 128

// GraphSnapshot is a read-only view of the engine for inspection: nodes,
// edges, flags and rendered values. Handles serialize as strings and the
// fingerprint as hex, so frames survive JSON consumers that truncate
// 64-bit integers.
type GraphSnapshot struct {
	Pass        uint64         `json:"pass"`
	Fingerprint string         `json:"fingerprint"`
	InFlight    int            `json:"inFlight"`
	Nodes       []NodeSnapshot `json:"nodes"`
}

// NodeSnapshot is one node in a GraphSnapshot.
type NodeSnapshot struct {
	Handle      string   `json:"handle"`
	Label       string   `json:"label,omitempty"`
	Kind        string   `json:"kind"`
	Dirty       bool     `json:"dirty"`
	Running     bool     `json:"running,omitempty"`
	HasValue    bool     `json:"hasValue"`
	Value       string   `json:"value,omitempty"`
	Sources     []string `json:"sources,omitempty"`
	Triggers    []string `json:"triggers,omitempty"`
	Failure     string   `json:"failure,omitempty"`
	FailurePass uint64   `json:"failurePass,omitempty"`
}

// Snapshot captures the current graph under a shared lock, nodes in handle
// order.
func (e *Engine) Snapshot() GraphSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := GraphSnapshot{
		Pass:        e.passNum,
		Fingerprint: fmt.Sprintf("%016x", e.graph.fingerprint()),
		InFlight:    e.registry.inFlightCount(),
	}

	handles := e.graph.handles()
	snap.Nodes = make([]NodeSnapshot, 0, len(handles))
	for _, h := range handles {
		n := e.graph.get(h)
		ns := NodeSnapshot{
			Handle:   h.String(),
			Label:    n.label,
			Kind:     n.kind.String(),
			Dirty:    n.dirty,
			Running:  n.running,
			HasValue: n.value.valid,
		}
		if n.value.valid {
			ns.Value = renderValue(n.value.data)
		}
		for _, dep := range e.graph.dependenciesOf(h) {
			switch dep.Kind {
			case EdgeSource:
				ns.Sources = append(ns.Sources, dep.Handle.String())
			case EdgeTrigger:
				ns.Triggers = append(ns.Triggers, dep.Handle.String())
			}
		}
		if n.failure != nil {
			ns.Failure = n.failure.Err.Error()
			ns.FailurePass = n.failure.Pass
		}
		snap.Nodes = append(snap.Nodes, ns)
	}
	return snap
}

func renderValue(v any) string {
	s := fmt.Sprintf("%v", v)
	if len(s) > maxSnapshotValueLen {
		s = s[:maxSnapshotValueLen] + "..."
	}
	return s
}
