package extract

import (
	"errors"

	"github.com/kwitek/chordcrawl/internal/model"
)

// ErrMalformedPage reports that a fetched page carried no usable payload:
// the well-known container element is missing, the embedded blob does not
// decode, or the decoded payload is empty. Callers treat it as transient:
// a page whose data has not propagated upstream yet looks exactly like
// one whose layout changed, and both degrade to retry-then-fail.
var ErrMalformedPage = errors.New("malformed page")

// Classification is the result of extracting one fetched page. Exactly
// one of the two slices is populated: a list page yields Refs (further
// pages to fetch), a terminal page yields Records.
type Classification struct {
	// Refs are child pages discovered on a list page.
	Refs []model.PageRef

	// Records are terminal records extracted from the page.
	Records []model.TabLink
}

// Partition is an independently seedable subtree of a crawl, such as all
// directory pages under one alphabetic prefix. Partitions share nothing
// but the frontier store, so the orchestrator may run them in any order
// and in parallel.
type Partition struct {
	// Name identifies the partition in logs and progress output.
	Name string

	// Seeds are the root refs that start the partition's traversal.
	Seeds []model.PageRef
}
