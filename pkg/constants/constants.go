// Package constants provides shared constants used throughout the crosscheck
// codebase. This includes timeouts, limits, file permissions, and the handful
// of matching conventions (key separator, null placeholder, sentinel person)
// that must stay consistent across packages.
package constants

import "time"

// Matching conventions shared by the core packages
const (
	// KeySeparator joins person and client into a composite key
	KeySeparator = "."

	// NullPlaceholder stands in for a missing person or client name.
	// Carried over from the upstream data convention; records that hit it
	// are logged as suspect rather than dropped.
	NullPlaceholder = "None"

	// DefaultSentinelPerson is the administrative catch-all assignee whose
	// records are excluded from roster-side unmatched output and person diffs
	DefaultSentinelPerson = "BACKLOG ALLOCATIONS"

	// MappingSkipValue marks a mapping table row with no usable target yet
	MappingSkipValue = "0"
)

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to source APIs
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// SourceFetchTimeout is the timeout for pulling a full dataset from one source
	SourceFetchTimeout = 2 * time.Minute

	// LoginTimeout is the timeout for source authentication round-trips
	LoginTimeout = 15 * time.Second

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// QueryTimeout is the timeout for a single planner database query
	QueryTimeout = 1 * time.Minute
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for sensitive files like credentials (rw-------)
	SecureFilePermissions = 0600
)

// Limit constants define various limits and capacities
const (
	// DefaultPageSize is the default number of items per page for paginated
	// roster API results
	DefaultPageSize = 500

	// MaxPageSize is the maximum page size the roster API accepts
	MaxPageSize = 1000

	// MaxSourceRecords caps how many allocation rows a single source may
	// return before the run is aborted as misconfigured
	MaxSourceRecords = 500000

	// WriteBufferSize is the default buffer size for report write operations
	WriteBufferSize = 4096
)

// Cache constants
const (
	// TokenCacheTTL is the default time-to-live for cached auth tokens.
	// Roster tokens expire server-side at 60 minutes; refresh well before.
	TokenCacheTTL = 45 * time.Minute

	// TokenCacheCleanupInterval is how often expired tokens are purged
	TokenCacheCleanupInterval = 10 * time.Minute

	// TokenRefreshMargin is subtracted from a token's server-side
	// lifetime so it is refreshed before it can expire mid-request.
	TokenRefreshMargin = 5 * time.Minute
)

// Percent normalization bounds for planner quantities
const (
	// FractionalPercentCeiling is the upper bound under which a planner
	// allocation quantity is treated as a 0-1 fraction and scaled to percent
	FractionalPercentCeiling = 1.0

	// PercentScale converts fractional quantities to percentages
	PercentScale = 100.0
)
