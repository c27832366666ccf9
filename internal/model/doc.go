// Package model defines the core data structures shared across chordcrawl.
//
// This package contains the following main types:
//   - PageRef: identifies one fetchable page in the crawl graph
//   - PageKind: classifies a ref as a list page or a detail page
//   - TabLink: one extracted song record (the terminal output unit)
//   - CrawlReport: one run's records and counters, consumed by report writers
//
// Design decision: We separate models into their own package to avoid
// circular dependencies. The fetcher, extractors, frontier store, and
// orchestrator all exchange these types, so centralizing them prevents
// import cycles.
//
// The models are designed to be serializable to JSON because the frontier
// store persists each entry's extracted records as a JSON blob.
package model
