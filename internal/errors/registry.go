package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Diagnostic Errors (AX001-AX009)
	// ============================================

	"AX001": {
		Category: CategoryGraph,
		Message:  "Cycle detected in dependency graph",
		Detail:   "An edge would make a node reachable from itself, or an evaluation chain exceeded the depth limit. The engine never retries a cycle on its own; fix the graph and dirty the node again.",
		DocURL:   "https://axon.dev/docs/errors/AX001",
	},
	"AX002": {
		Category: CategoryGraph,
		Message:  "Unresolved dependency",
		Detail:   "A source handle no longer names a live node. The reading node keeps its last committed value and fails on every evaluation until the stale binding is removed.",
		DocURL:   "https://axon.dev/docs/errors/AX002",
	},
	"AX003": {
		Category: CategoryEngine,
		Message:  "Node evaluation failed",
		Detail:   "A node body returned an error or panicked. The failure is contained: the node keeps its previous committed value and sibling nodes are unaffected.",
		DocURL:   "https://axon.dev/docs/errors/AX003",
	},

	// ============================================
	// Graph Construction Errors (AX010-AX019)
	// ============================================

	"AX010": {
		Category: CategoryGraph,
		Message:  "Node already exists",
		Detail:   "The handle is already occupied by a live node. Remove the node first, or allocate a fresh handle.",
		DocURL:   "https://axon.dev/docs/errors/AX010",
	},
	"AX011": {
		Category: CategoryGraph,
		Message:  "No such node",
		Detail:   "The operation names a handle with no live node behind it. The node may have been removed, or the handle belongs to a recycled entity.",
		DocURL:   "https://axon.dev/docs/errors/AX011",
	},
	"AX012": {
		Category: CategoryGraph,
		Message:  "Invalid handle",
		Detail:   "The zero handle (or a handle with a zero generation) cannot name a node. Handles come from the host's entity allocator.",
		DocURL:   "https://axon.dev/docs/errors/AX012",
	},
	"AX013": {
		Category: CategoryGraph,
		Message:  "Effect and task nodes cannot be depended on",
		Detail:   "Effect and Task nodes are propagation targets only; nothing downstream may use them as a source or trigger.",
		DocURL:   "https://axon.dev/docs/errors/AX013",
	},

	// ============================================
	// Engine State Errors (AX020-AX029)
	// ============================================

	"AX020": {
		Category: CategoryEngine,
		Message:  "Engine closed",
		Detail:   "The engine has been closed; mutating operations are rejected. Reads of committed state keep working.",
		DocURL:   "https://axon.dev/docs/errors/AX020",
	},
	"AX021": {
		Category: CategoryEngine,
		Message:  "No committed value",
		Detail:   "The cell has never committed a value. Run a pass after the initial send, or check the node's failure state.",
		DocURL:   "https://axon.dev/docs/errors/AX021",
	},
	"AX022": {
		Category: CategoryEngine,
		Message:  "Value type mismatch",
		Detail:   "The cell holds a value of another type than the typed read expects.",
		DocURL:   "https://axon.dev/docs/errors/AX022",
	},

	// ============================================
	// Configuration Errors (AX120-AX139)
	// ============================================

	"AX120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "axon.json could not be read or parsed.",
		DocURL:   "https://axon.dev/docs/errors/AX120",
	},
	"AX121": {
		Category: CategoryConfig,
		Message:  "Configuration not found",
		Detail:   "No axon.json was found in the directory or any parent.",
		DocURL:   "https://axon.dev/docs/errors/AX121",
	},
	"AX122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration field holds a value outside its allowed range.",
		DocURL:   "https://axon.dev/docs/errors/AX122",
	},

	// ============================================
	// CLI Errors (AX140-AX159)
	// ============================================

	"AX140": {
		Category: CategoryCLI,
		Message:  "Invalid benchmark parameters",
		Detail:   "The benchmark grid dimensions or pass count are out of range.",
		DocURL:   "https://axon.dev/docs/errors/AX140",
	},
}
