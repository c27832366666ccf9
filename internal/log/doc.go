// Package log provides terminal-friendly logging built on top of the
// standard slog package.
//
// This package extends slog to provide:
//   - Truncation of oversized string attributes (page snippets, long URLs)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Truncation
//
// The fetch path attaches fragments of fetched markup to debug log lines.
// A malformed page can be hundreds of kilobytes; the TruncateHandler cuts
// every string attribute above a configurable length so one log line can
// never flood the terminal or a log file.
//
// # Usage
//
//	// Create a logger for terminal output
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Debug("page rejected",
//	    "url", pageURL,
//	    "body", snippet, // cut to 512 bytes if longer
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
