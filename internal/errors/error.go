package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryEngine Category = "engine"
	CategoryGraph  Category = "graph"
	CategoryConfig Category = "config"
	CategoryCLI    Category = "cli"
)

// AxonError is a structured error with node context, suggestions, and
// documentation links.
type AxonError struct {
	// Code is a unique error identifier (e.g., "AX001").
	Code string

	// Category is the error type (engine, graph, config, cli).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Node names the graph node involved, if any, as "handle (label)".
	Node string

	// Pass is the pass counter at the time of the error, when known.
	Pass uint64

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example is code showing the correct approach.
	Example string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *AxonError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *AxonError) Unwrap() error {
	return e.Wrapped
}

// WithNode attaches the offending node. label may be empty.
func (e *AxonError) WithNode(handle, label string) *AxonError {
	if label != "" {
		e.Node = fmt.Sprintf("%s (%s)", handle, label)
	} else {
		e.Node = handle
	}
	return e
}

// WithPass records the pass the error surfaced in.
func (e *AxonError) WithPass(pass uint64) *AxonError {
	e.Pass = pass
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *AxonError) WithSuggestion(s string) *AxonError {
	e.Suggestion = s
	return e
}

// WithExample adds a code example to the error.
func (e *AxonError) WithExample(ex string) *AxonError {
	e.Example = ex
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *AxonError) WithDetail(d string) *AxonError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *AxonError) Wrap(err error) *AxonError {
	e.Wrapped = err
	return e
}

// New creates an AxonError from a registered error code.
func New(code string) *AxonError {
	template, ok := registry[code]
	if !ok {
		return &AxonError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &AxonError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new AxonError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *AxonError {
	return &AxonError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an AxonError.
func FromError(err error, code string) *AxonError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*AxonError); ok {
		return ae
	}
	return New(code).Wrap(err)
}
