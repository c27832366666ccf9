package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestTruncateHandler_CutsLongStrings tests that oversized string
// attributes are cut and marked.
func TestTruncateHandler_CutsLongStrings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		maxLen  int
		value   string
		wantCut bool
	}{
		{
			name:    "short value passes through",
			maxLen:  16,
			value:   "short",
			wantCut: false,
		},
		{
			name:    "value at the limit passes through",
			maxLen:  5,
			value:   "exact",
			wantCut: false,
		},
		{
			name:    "value above the limit is cut",
			maxLen:  8,
			value:   strings.Repeat("x", 100),
			wantCut: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(NewTruncateHandler(slog.NewTextHandler(&buf, nil), tt.maxLen))

			logger.Info("test", "value", tt.value)
			output := buf.String()

			if tt.wantCut {
				if strings.Contains(output, tt.value) {
					t.Error("expected value to be cut")
				}
				if !strings.Contains(output, Ellipsis) {
					t.Error("expected cut marker in output")
				}
			} else {
				if !strings.Contains(output, tt.value) {
					t.Errorf("expected value %q in output: %s", tt.value, output)
				}
			}
		})
	}
}

// TestTruncateHandler_RuneBoundary tests that multibyte characters are
// never split mid-sequence.
func TestTruncateHandler_RuneBoundary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewTruncateHandler(slog.NewTextHandler(&buf, nil), 5))

	// "łłł" is 6 bytes; a naive cut at 5 would split the third rune.
	logger.Info("test", "value", "łłł")

	output := buf.String()
	if strings.Contains(output, "�") {
		t.Errorf("output contains a broken rune: %s", output)
	}
	if !strings.Contains(output, "łł"+Ellipsis) {
		t.Errorf("expected two whole runes and the cut marker: %s", output)
	}
}

// TestTruncateHandler_NonStringAttrsUntouched tests that non-string
// attributes pass through unchanged.
func TestTruncateHandler_NonStringAttrsUntouched(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewTruncateHandler(slog.NewTextHandler(&buf, nil), 2))

	logger.Info("test", "count", 123456, "ok", true)

	output := buf.String()
	if !strings.Contains(output, "count=123456") {
		t.Errorf("expected numeric attribute intact: %s", output)
	}
	if !strings.Contains(output, "ok=true") {
		t.Errorf("expected bool attribute intact: %s", output)
	}
}

// TestTruncateHandler_Groups tests that attributes inside groups are cut.
func TestTruncateHandler_Groups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewTruncateHandler(slog.NewTextHandler(&buf, nil), 8))

	long := strings.Repeat("y", 50)
	logger.Info("test", slog.Group("page", slog.String("body", long)))

	output := buf.String()
	if strings.Contains(output, long) {
		t.Error("expected grouped value to be cut")
	}
	if !strings.Contains(output, Ellipsis) {
		t.Error("expected cut marker in grouped output")
	}
}

// TestTruncateHandler_WithAttrs tests that pre-attached attributes are cut.
func TestTruncateHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := NewTruncateHandler(slog.NewTextHandler(&buf, nil), 8)
	logger := slog.New(base.WithAttrs([]slog.Attr{
		slog.String("url", strings.Repeat("u", 60)),
	}))

	logger.Info("test")

	if !strings.Contains(buf.String(), Ellipsis) {
		t.Error("expected pre-attached value to be cut")
	}
}

// TestNewLogger tests logger construction and level selection.
func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("default level hides debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, false)

		logger.Debug("hidden")
		logger.Info("shown")

		output := buf.String()
		if strings.Contains(output, "hidden") {
			t.Error("expected debug output to be suppressed")
		}
		if !strings.Contains(output, "shown") {
			t.Error("expected info output")
		}
	})

	t.Run("verbose enables debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, true)

		logger.Debug("shown")
		if !strings.Contains(buf.String(), "shown") {
			t.Error("expected debug output in verbose mode")
		}
	})

	t.Run("json logger emits json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewJSONLogger(&buf, false)

		logger.Info("test", "key", "value")
		if !strings.Contains(buf.String(), `"key":"value"`) {
			t.Errorf("expected JSON output: %s", buf.String())
		}
	})
}
