package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/kwitek/chordcrawl/internal/model"
)

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display at the end of a run.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// topArtists limits the artist section to the most frequent names.
	// Zero hides the section.
	topArtists int
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithTopArtists sets how many of the most frequent artists to list.
func WithTopArtists(n int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.topArtists = n
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		topArtists: 10,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeCounters(&sb, report)
	w.writeTopArtists(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the summary header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Source:   %s\n", report.Source))
	sb.WriteString(fmt.Sprintf("Started:  %s\n", report.Started.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration: %s\n", report.Duration().Round(time.Millisecond)))

	if report.Partial() {
		sb.WriteString(fmt.Sprintf("Status:   ERROR - %s\n", report.Error))
	} else {
		sb.WriteString("Status:   Complete\n")
	}
	sb.WriteString("\n")
}

// writeCounters writes the run's progress counters.
func (w *SimpleWriter) writeCounters(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGES AND RECORDS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  FETCHED: %d\n", report.PagesFetched))
	sb.WriteString(fmt.Sprintf("  SKIPPED: %d\n", report.PagesSkipped))
	sb.WriteString(fmt.Sprintf("  FAILED:  %d\n", report.FailedPages))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  RECORDS: %d from %d artist(s)\n",
		len(report.Records), len(report.ArtistCounts())))
	sb.WriteString("\n")
}

// writeTopArtists writes the most frequent artists, ties broken by name.
func (w *SimpleWriter) writeTopArtists(sb *strings.Builder, report *model.CrawlReport) {
	if w.topArtists <= 0 || len(report.Records) == 0 {
		return
	}

	counts := report.ArtistCounts()
	artists := make([]string, 0, len(counts))
	for artist := range counts {
		artists = append(artists, artist)
	}
	sort.Slice(artists, func(i, j int) bool {
		if counts[artists[i]] != counts[artists[j]] {
			return counts[artists[i]] > counts[artists[j]]
		}
		return artists[i] < artists[j]
	})
	if len(artists) > w.topArtists {
		artists = artists[:w.topArtists]
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("TOP ARTISTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, artist := range artists {
		sb.WriteString(fmt.Sprintf("  [%4d] %s\n", counts[artist], artist))
	}
	sb.WriteString("\n")
}
