package inspect

import (
	"time"

	"github.com/axon-dev/axon/pkg/signals"
)

// FrameType discriminates stream frames.
type FrameType string

const (
	// FrameHello is sent once per connection with the current pass counter
	// and topology fingerprint.
	FrameHello FrameType = "hello"

	// FramePass carries the stats of one completed pass.
	FramePass FrameType = "pass"

	// FrameGraph carries a full graph snapshot. Sent on connect and
	// whenever the topology fingerprint moves; value-only churn does not
	// produce graph frames.
	FrameGraph FrameType = "graph"

	// FrameDiagnostic carries one contained node failure.
	FrameDiagnostic FrameType = "diagnostic"
)

// Frame is the envelope pushed to stream clients.
type Frame struct {
	Type       FrameType              `json:"type"`
	Hello      *HelloFrame            `json:"hello,omitempty"`
	Pass       *signals.PassStats     `json:"pass,omitempty"`
	Graph      *signals.GraphSnapshot `json:"graph,omitempty"`
	Diagnostic *DiagnosticFrame       `json:"diagnostic,omitempty"`
}

// HelloFrame greets a new stream client.
type HelloFrame struct {
	Pass        uint64 `json:"pass"`
	Fingerprint string `json:"fingerprint"`
	Nodes       int    `json:"nodes"`
}

// DiagnosticFrame is the wire form of a signals.Diagnostic. The engine
// type keeps its error and kind off the wire; this one renders both.
type DiagnosticFrame struct {
	Node  string    `json:"node"`
	Kind  string    `json:"kind"`
	Label string    `json:"label,omitempty"`
	Code  string    `json:"code"`
	Error string    `json:"error"`
	Pass  uint64    `json:"pass"`
	At    time.Time `json:"at"`
}

func diagnosticFrame(d signals.Diagnostic) DiagnosticFrame {
	f := DiagnosticFrame{
		Node:  d.Node.String(),
		Kind:  d.Kind.String(),
		Label: d.Label,
		Code:  d.Code(),
		Pass:  d.Pass,
		At:    d.At,
	}
	if d.Err != nil {
		f.Error = d.Err.Error()
	}
	return f
}
