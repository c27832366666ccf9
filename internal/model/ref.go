package model

// PageKind classifies a fetchable page in the crawl graph.
//
// Design decision: We use a string type rather than iota constants because
// the kind is persisted in the frontier database. Stable string values keep
// old databases readable after code changes and make ad hoc SQL inspection
// of a crawl easy.
type PageKind string

const (
	// ListPage is a page whose payload references further pages:
	// a directory page listing artists, or a paginated result page.
	ListPage PageKind = "list"

	// DetailPage is a page whose payload holds terminal records only.
	DetailPage PageKind = "detail"
)

// PageRef identifies one fetchable unit of the crawl.
//
// URL is the identity of the ref: the frontier store keeps at most one
// entry per URL and silently ignores duplicate inserts.
type PageRef struct {
	// URL is the absolute URL of the page.
	URL string `json:"url"`

	// Kind determines which extraction path handles the fetched body.
	Kind PageKind `json:"kind"`

	// Sequence is an optional ordinal used only for progress display.
	// It carries no correctness meaning; pages are processed in whatever
	// order the frontier hands them out.
	Sequence int `json:"sequence,omitempty"`

	// Label carries display metadata discovered alongside the ref,
	// such as the artist name found on the listing page that produced
	// it. Detail pages that do not repeat the artist in their own
	// markup stamp records with this value.
	Label string `json:"label,omitempty"`
}
