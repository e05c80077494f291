// Package errors provides structured, actionable error messages for Axon.
//
// The errors package implements an error system that:
//   - Names the graph node and pass involved
//   - Explains what went wrong in plain language
//   - Suggests how to fix issues with code examples
//   - Links to documentation for deeper understanding
//
// # Error Categories
//
// Errors are organized into categories:
//   - engine: Pass execution errors (evaluation failures, closed engine)
//   - graph: Structural errors (cycles, dangling handles, duplicate nodes)
//   - config: axon.json errors
//   - cli: Command usage errors
//
// # Error Codes
//
// Each error has a unique code (e.g., "AX001") that maps to:
//   - A short message describing the error
//   - A detailed explanation
//   - A documentation URL
//
// # Usage
//
//	err := errors.New("AX001").
//	    WithNode("7v1", "total").
//	    WithSuggestion("Remove the edge from total back to price")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR AX001: Cycle detected in dependency graph
//	//
//	//   node 7v1 (total)
//	//
//	//   An edge would make a node reachable from itself, ...
//	//
//	//   Hint: Remove the edge from total back to price
//	//
//	//   Learn more: https://axon.dev/docs/errors/AX001
//
// FromEngineError and FromDiagnostic classify pkg/signals errors and
// contained failures into these codes.
package errors
