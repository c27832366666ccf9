package model

import "time"

// CrawlReport aggregates one crawl run for output: the extracted records
// plus the run's progress counters. It is assembled by the CLI after the
// record sequence is drained and handed to the report writers.
type CrawlReport struct {
	// Source is the crawled source's name, e.g. "ultimate-guitar".
	Source string `json:"source"`

	// Started is when the crawl began.
	Started time.Time `json:"started"`

	// Finished is when the record sequence was fully drained.
	Finished time.Time `json:"finished"`

	// PagesFetched is the number of pages retrieved over the network
	// during this run.
	PagesFetched int64 `json:"pages_fetched"`

	// PagesSkipped is the number of pages served from the frontier
	// store without a fetch because a prior run processed them.
	PagesSkipped int64 `json:"pages_skipped"`

	// FailedPages is the number of pages abandoned after retry
	// exhaustion.
	FailedPages int64 `json:"failed_pages"`

	// Records are the extracted song records, in frontier insertion
	// order.
	Records []TabLink `json:"records"`

	// Error is the crawl's terminal error message, empty on success.
	// Records extracted before the failure are still present.
	Error string `json:"error,omitempty"`
}

// NewCrawlReport creates an empty report for the named source with the
// start time set to now.
func NewCrawlReport(source string) *CrawlReport {
	return &CrawlReport{
		Source:  source,
		Started: time.Now(),
	}
}

// Duration returns the wall-clock length of the run.
func (r *CrawlReport) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Partial reports whether the run ended in an error and the record set
// may be incomplete.
func (r *CrawlReport) Partial() bool {
	return r.Error != ""
}

// ArtistCounts returns the number of records per artist.
func (r *CrawlReport) ArtistCounts() map[string]int {
	counts := make(map[string]int)
	for _, rec := range r.Records {
		counts[rec.Artist]++
	}
	return counts
}
