package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoSource is returned when no source name is specified.
	ErrNoSource = errors.New("no source specified: provide a source name such as ultimate-guitar or wywrota")

	// ErrUnknownSource is returned when the source name matches no
	// registered source.
	ErrUnknownSource = errors.New("unknown source: valid sources are ultimate-guitar and wywrota")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate fetch failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWaitFloor is returned when the retry wait floor is negative.
	// Use 0 to disable retry pacing (tests only).
	ErrInvalidWaitFloor = errors.New("invalid wait floor: must be non-negative")

	// ErrInvalidMaxAttempts is returned when the retry ceiling is not positive.
	// At least one attempt is needed to fetch anything.
	ErrInvalidMaxAttempts = errors.New("invalid max attempts: must be positive")

	// ErrInvalidConcurrency is returned when the fetch admission limit is
	// not positive. Use 1 for the sequential crawl shape.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidBatchSize is returned when the commit batch size is not
	// positive. A batch size of zero would commit nothing.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one report format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidExplorePages is returned when the explore page bound is
	// negative. Use 0 to skip the explore pages entirely.
	ErrInvalidExplorePages = errors.New("invalid explore pages: must be non-negative")
)
