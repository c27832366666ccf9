package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kwitek/chordcrawl/internal/model"
)

// MarkdownWriter outputs a run summary in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// lang drives artist-name ordering in the per-artist table.
	// Polish sources need Polish collation: byte order files "Łzy"
	// after "Zakopower", collation keeps it next to "L".
	lang language.Tag
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithLanguage sets the collation language for artist ordering.
func WithLanguage(tag language.Tag) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.lang = tag
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		lang:       language.English,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeRunTable(md, report)
	w.writeStatus(md, report)
	w.writeArtists(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report title.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1(cases.Title(language.English).String(report.Source) + " Crawl Report")
	md.PlainText("")
}

// writeRunTable writes the run statistics table.
func (w *MarkdownWriter) writeRunTable(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Run")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Source", report.Source},
			{"Started", report.Started.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(time.Second).String()},
			{"Pages Fetched", strconv.FormatInt(report.PagesFetched, 10)},
			{"Pages Skipped", strconv.FormatInt(report.PagesSkipped, 10)},
			{"Failed Pages", strconv.FormatInt(report.FailedPages, 10)},
			{"Records", strconv.Itoa(len(report.Records))},
		},
	})
	md.PlainText("")
}

// writeStatus writes an alert describing how the run ended.
func (w *MarkdownWriter) writeStatus(md *markdown.Markdown, report *model.CrawlReport) {
	switch {
	case report.Partial():
		md.Warningf("Crawl ended with an error: %s. Records extracted before the failure are included.", report.Error)
	case report.FailedPages > 0:
		md.Note(fmt.Sprintf("%d page(s) were abandoned after retry exhaustion.", report.FailedPages))
	default:
		md.Tip("Crawl completed without errors.")
	}
	md.PlainText("")
}

// writeArtists writes the per-artist record counts, ordered by the
// configured collation.
func (w *MarkdownWriter) writeArtists(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Artists")
	md.PlainText("")

	counts := report.ArtistCounts()
	if len(counts) == 0 {
		md.PlainText("No records extracted.")
		md.PlainText("")
		return
	}

	artists := make([]string, 0, len(counts))
	for artist := range counts {
		artists = append(artists, artist)
	}
	collate.New(w.lang).SortStrings(artists)

	rows := make([][]string, len(artists))
	for i, artist := range artists {
		rows[i] = []string{artist, strconv.Itoa(counts[artist])}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Artist", "Songs"},
		Rows:   rows,
	})
	md.PlainText("")
}
