package log

import (
	"context"
	"io"
	"log/slog"
)

// DefaultMaxValueLen is the length above which string attributes are cut.
// Long enough to keep full URLs readable, short enough that a logged page
// body cannot flood the terminal.
const DefaultMaxValueLen = 512

// Ellipsis marks a truncated attribute value.
const Ellipsis = "..."

// TruncateHandler wraps an slog.Handler and cuts oversized string
// attributes before they reach the underlying handler. Debug logging in
// the fetch path attaches page snippets and long query URLs; without a
// cap a single malformed-page log line can be hundreds of kilobytes.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Components keep taking a plain *slog.Logger
type TruncateHandler struct {
	// handler is the underlying slog handler that receives cut records.
	handler slog.Handler

	// maxLen is the longest string attribute value passed through intact.
	maxLen int
}

// NewTruncateHandler creates a TruncateHandler wrapping the given handler.
// If handler is nil, the returned TruncateHandler uses slog.Default().Handler().
// A maxLen of zero or below selects DefaultMaxValueLen.
func NewTruncateHandler(handler slog.Handler, maxLen int) *TruncateHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxValueLen
	}
	return &TruncateHandler{handler: handler, maxLen: maxLen}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *TruncateHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle cuts the record's attributes and passes it to the underlying handler.
func (h *TruncateHandler) Handle(ctx context.Context, r slog.Record) error {
	cut := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		cut.AddAttrs(h.truncateAttr(a))
		return true
	})
	return h.handler.Handle(ctx, cut)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are cut before being added.
func (h *TruncateHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cutAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		cutAttrs[i] = h.truncateAttr(a)
	}
	return &TruncateHandler{handler: h.handler.WithAttrs(cutAttrs), maxLen: h.maxLen}
}

// WithGroup returns a new handler with the given group name.
func (h *TruncateHandler) WithGroup(name string) slog.Handler {
	return &TruncateHandler{handler: h.handler.WithGroup(name), maxLen: h.maxLen}
}

// truncateAttr cuts a single attribute, recursively handling groups.
func (h *TruncateHandler) truncateAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		cutAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			cutAttrs[i] = h.truncateAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(cutAttrs...)}
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}
	s := a.Value.String()
	if len(s) <= h.maxLen {
		return a
	}
	// Cut on a rune boundary so a multibyte character is never split.
	cut := h.maxLen
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return slog.String(a.Key, s[:cut]+Ellipsis)
}

// NewLogger creates a *slog.Logger for terminal output with oversized
// attributes cut.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Info
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	textHandler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewTruncateHandler(textHandler, DefaultMaxValueLen))
}

// NewJSONLogger creates a *slog.Logger that outputs JSON with oversized
// attributes cut. Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewTruncateHandler(jsonHandler, DefaultMaxValueLen))
}
