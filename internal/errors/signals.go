package errors

import (
	stderrors "errors"

	"github.com/axon-dev/axon/pkg/signals"
)

// engineCodes maps engine sentinels to registry codes, most specific
// first: evaluation failures may wrap a cycle or unresolved-dependency
// sentinel, which then wins.
var engineCodes = []struct {
	sentinel error
	code     string
}{
	{signals.ErrCycleDetected, "AX001"},
	{signals.ErrUnresolvedDependency, "AX002"},
	{signals.ErrNodeExists, "AX010"},
	{signals.ErrNoSuchNode, "AX011"},
	{signals.ErrInvalidHandle, "AX012"},
	{signals.ErrTerminalNode, "AX013"},
	{signals.ErrClosed, "AX020"},
	{signals.ErrNoValue, "AX021"},
	{signals.ErrTypeMismatch, "AX022"},
	{signals.ErrEvaluationFailed, "AX003"},
}

// FromEngineError classifies an engine error by its sentinel.
func FromEngineError(err error) *AxonError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*AxonError); ok {
		return ae
	}
	for _, m := range engineCodes {
		if stderrors.Is(err, m.sentinel) {
			return New(m.code).Wrap(err)
		}
	}
	return Newf(CategoryEngine, "%v", err).Wrap(err)
}

// FromDiagnostic converts a contained node failure into a structured
// error for CLI and inspector rendering.
func FromDiagnostic(d signals.Diagnostic) *AxonError {
	var code string
	switch d.Code() {
	case signals.CodeCycleDetected:
		code = "AX001"
	case signals.CodeUnresolvedDependency:
		code = "AX002"
	default:
		code = "AX003"
	}
	ae := New(code).
		WithNode(d.Node.String(), d.Label).
		WithPass(d.Pass).
		Wrap(d.Err)
	if d.Err != nil {
		ae.Detail = d.Err.Error()
	}
	return ae
}
