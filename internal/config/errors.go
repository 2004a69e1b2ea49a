package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate and Config.ValidateSettings so
// callers can use errors.Is for programmatic handling.
var (
	// ErrNoTarget is returned when no URL or list file is specified.
	ErrNoTarget = errors.New("no target specified: provide a URL or use --list")

	// ErrInvalidTimeout is returned when the resolution timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidFailurePolicy is returned for a resolution failure policy
	// other than "open" or "closed".
	ErrInvalidFailurePolicy = errors.New("invalid resolution failure policy: must be open or closed")

	// ErrInvalidHeuristicMode is returned for a heuristic mode other than
	// "standalone" or "corroborate".
	ErrInvalidHeuristicMode = errors.New("invalid heuristic mode: must be standalone or corroborate")

	// ErrInvalidRateLimit is returned when the resolution rate is negative.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidTestFraction is returned when the evaluation test fraction
	// is outside (0, 1).
	ErrInvalidTestFraction = errors.New("invalid test fraction: must be between 0 and 1 exclusive")

	// ErrInvalidMaxRedirects is returned when the redirect limit is negative.
	ErrInvalidMaxRedirects = errors.New("invalid max redirects: must be non-negative")

	// ErrConflictingTransports is returned when --tor is combined with --proxy
	// or --offline.
	ErrConflictingTransports = errors.New("conflicting transports: only one of --tor, --proxy or --offline may be set")
)
