package config

import "time"

// Default service identity and guardrails for the search provider. They are
// referenced by internal/runtime and overridden by the YAML file or TOASTY_*
// environment variables.

const (
	// D-Bus identity
	DefaultBusName    = "rodolf0.toasty.SearchProvider"
	DefaultObjectPath = "/rodolf0/toasty/SearchProvider"

	// Concurrency
	DefaultMaxConcurrentRequests    = 10
	DefaultMaxConcurrentEvaluations = 4

	// Input bounds
	DefaultMaxExpressionBytes = 4 * 1024
	DefaultMaxResultIDs       = 64

	// Session registry; 0 keeps every expression for the process lifetime.
	DefaultMaxSessionEntries = 0
)

const (
	// Timeouts
	DefaultOperationTimeout      = 5 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second
)

// Result metadata failure policies.
const (
	MetasAllOrNothing = "all_or_nothing"
	MetasPartial      = "partial"
)

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)
