package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values mirror the behavior the target sites tolerate; the rate
// handling in particular is calibrated against observed 429 responses.
const (
	// DefaultTimeout is the per-attempt request timeout. 30 seconds is
	// generous for static HTML pages while still failing a stalled
	// connection within one retry wait period.
	DefaultTimeout = 30 * time.Second

	// DefaultWaitFloor is the starting wait between retries of one
	// logical fetch. The sites' Retry-After hints rarely exceed it, so
	// the wait usually stays at the floor for an entire run.
	DefaultWaitFloor = 30 * time.Second

	// DefaultMaxAttempts is the retry ceiling per logical fetch. Five
	// attempts with 30 second waits means a permanently broken page
	// costs at most a couple of minutes before it is abandoned.
	DefaultMaxAttempts = 5

	// DefaultConcurrency is the admission limit on simultaneous fetches.
	// Four is low enough that the sites' rate limiting stays quiet and
	// high enough to keep a multi-hour crawl moving.
	DefaultConcurrency = 4

	// DefaultBatchSize is the sequential shape's claim/commit batch
	// size. A crash loses at most one batch of page results.
	DefaultBatchSize = 20

	// DefaultMaxBodySize limits response bodies to 10MB. Chord pages
	// are well under 1MB; anything larger is not a page we want.
	DefaultMaxBodySize = 10 * 1024 * 1024

	// DefaultUserAgent identifies chordcrawl in HTTP requests.
	// A descriptive User-Agent lets site operators identify crawler
	// traffic in their logs.
	DefaultUserAgent = "chordcrawl/1.0 (+https://github.com/kwitek/chordcrawl)"

	// DefaultExplorePages bounds the ranked explore pages fetched per
	// Ultimate Guitar run.
	DefaultExplorePages = 20

	// AppName is the application name used for XDG directory paths.
	AppName = "chordcrawl"
)

// Config holds all configuration options for chordcrawl.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// Source is the name of the source to crawl, e.g. "ultimate-guitar"
	// or "wywrota".
	Source string

	// Timeout is the per-attempt request timeout.
	// This applies to individual fetch attempts, not the overall crawl.
	Timeout time.Duration

	// WaitFloor is the minimum wait between retries of one fetch.
	// A server's Retry-After hint can raise the wait but never lower it.
	WaitFloor time.Duration

	// MaxAttempts is the retry ceiling per logical fetch, shared across
	// transport errors, rate limiting, and malformed pages.
	MaxAttempts int

	// Concurrency is the admission limit on simultaneous fetches.
	// 1 selects the sequential, batch-committing crawl shape.
	Concurrency int

	// BatchSize is the sequential shape's claim/commit batch size.
	BatchSize int

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated to prevent memory exhaustion.
	// Set to 0 to use the default (10MB).
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, info and above are logged.
	Verbose bool

	// DataDir is the directory holding the per-source frontier databases.
	// Defaults to the XDG data directory (~/.local/share/chordcrawl on Linux).
	DataDir string

	// InMemory runs the frontier store in memory. The crawl is not
	// resumable; useful for small partial runs and tests.
	InMemory bool

	// OutputFile is the CSV output path. When empty, "<source>.csv" in
	// the current directory is used.
	OutputFile string

	// JSONReport enables JSON report output instead of the human-readable
	// terminal summary. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of the
	// human-readable terminal summary. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the run summary report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// ExplorePages bounds the ranked explore pages per Ultimate Guitar
	// run. Ignored by other sources.
	ExplorePages int

	// Prefixes restricts the Ultimate Guitar band directory to the given
	// prefixes ("0-9", "a".."z"). Empty means all. Ignored by other sources.
	Prefixes []string

	// Letters restricts the Wywrota artist index to the given letters
	// ("A".."Z"). Empty means all. Ignored by other sources.
	Letters []string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .chordcrawl in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SourceConfigs holds per-source overrides loaded from the config file.
	SourceConfigs *File
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, retry
// ceiling). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:      DefaultTimeout,
		WaitFloor:    DefaultWaitFloor,
		MaxAttempts:  DefaultMaxAttempts,
		Concurrency:  DefaultConcurrency,
		BatchSize:    DefaultBatchSize,
		MaxBodySize:  DefaultMaxBodySize,
		UserAgent:    DefaultUserAgent,
		ExplorePages: DefaultExplorePages,
		DataDir:      XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for chordcrawl.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/chordcrawl
// On macOS: ~/Library/Application Support/chordcrawl
// On Windows: %LOCALAPPDATA%\chordcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for chordcrawl.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/chordcrawl
// On macOS: ~/Library/Application Support/chordcrawl
// On Windows: %APPDATA%\chordcrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DatabasePath returns the frontier database path for the named source.
func (c *Config) DatabasePath(source string) string {
	return filepath.Join(c.DataDir, source+".db")
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any crawling begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.Source == "" {
		return ErrNoSource
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// The wait floor must be non-negative; zero disables retry pacing
	// which is only sensible in tests
	if c.WaitFloor < 0 {
		return ErrInvalidWaitFloor
	}

	// At least one attempt is required to fetch anything at all
	if c.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// MaxBodySize must be non-negative; 0 means use the default
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.ExplorePages < 0 {
		return ErrInvalidExplorePages
	}

	return nil
}
