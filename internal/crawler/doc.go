// Package crawler orchestrates a full crawl of one chord source.
//
// # Architecture
//
// The package is built around the Crawler type, which ties together a
// Source (site-specific seeds and page classification), a frontier.Store
// (the durable ledger of discovered pages), and a Getter (the retrying
// HTTP fetcher). A run walks list pages to discover detail pages, walks
// detail pages to extract records, and streams every persisted record to
// the caller as a single lazy sequence.
//
// # Execution shapes
//
// Two shapes satisfy the same contract:
//
//   - Sequential (concurrency 1): the frontier is drained in two phases,
//     list pages then detail pages, claiming and committing in batches.
//     A crash loses at most one in-flight batch and a re-run over the
//     same store resumes where it left off.
//   - Bounded parallel (concurrency > 1): whole partitions run through
//     an errgroup with a worker limit. Partitions are independent, so a
//     permanent failure in one abandons that branch only.
//
// In both shapes the store arbitrates with prior runs: a page fetched by
// an earlier run over the same store is never fetched again.
//
// # Usage
//
//	store, err := frontier.Open(path, frontier.DefaultOptions())
//	...
//	c := crawler.New(source, store, client, crawler.WithConcurrency(4))
//	for record, err := range c.Crawl(ctx) {
//		if err != nil {
//			// records yielded so far remain valid
//		}
//		...
//	}
package crawler
