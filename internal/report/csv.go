package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/kwitek/chordcrawl/internal/model"
)

// csvHeader is the stable column order of the record table. Downstream
// dataset assembly keys on these names; do not reorder.
var csvHeader = []string{
	"artist", "title", "url", "version",
	"rating", "votes", "difficulty", "tonality_name", "views",
}

// CSVWriter outputs the extracted records as a CSV table, one row per
// song. This is the primary artifact of a crawl; the other writers
// summarize the run around it.
//
// Design decision: We use standard encoding/csv rather than a CSV
// library because the output is a plain rectangular table: no quoting
// rules beyond RFC 4180, no streaming schema, no type inference.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report's records in CSV format. Absent optional
// fields become empty cells, never zeros.
func (w *CSVWriter) Write(report *model.CrawlReport) (int, error) {
	counting := &countingWriter{w: w.output}
	cw := csv.NewWriter(counting)

	if err := cw.Write(csvHeader); err != nil {
		return counting.n, err
	}
	for _, rec := range report.Records {
		if err := cw.Write(recordRow(rec)); err != nil {
			return counting.n, err
		}
	}
	cw.Flush()
	return counting.n, cw.Error()
}

// recordRow renders one record in csvHeader order.
func recordRow(rec model.TabLink) []string {
	return []string{
		rec.Artist,
		rec.Title,
		rec.URL,
		strconv.Itoa(rec.Version),
		formatFloat(rec.Rating),
		formatFloat(rec.Votes),
		formatString(rec.Difficulty),
		formatString(rec.Tonality),
		formatInt(rec.Views),
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// countingWriter tracks bytes written so CSVWriter can satisfy the
// Writer interface's byte count.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
