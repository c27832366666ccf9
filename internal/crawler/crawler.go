package crawler

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync/atomic"

	"github.com/kwitek/chordcrawl/internal/extract"
	"github.com/kwitek/chordcrawl/internal/frontier"
	"github.com/kwitek/chordcrawl/internal/model"
)

// Getter is the fetching dependency. The production implementation is
// fetcher.Client; tests substitute counters and canned bodies.
type Getter interface {
	// Do fetches url and passes the body to handle, applying the full
	// retry policy around both.
	Do(ctx context.Context, url string, handle func(body []byte) error) error
}

// Source adapts one site to the orchestrator: where its crawl starts and
// how its pages classify.
type Source interface {
	// Name identifies the source in logs, file names, and reports.
	Name() string

	// Partitions returns the independently seedable subtrees of the
	// crawl, e.g. one per alphabetic prefix.
	Partitions() []extract.Partition

	// Extract classifies one fetched page into further refs or
	// terminal records.
	Extract(ref model.PageRef, body []byte) (extract.Classification, error)
}

// ErrCrawlConsumed reports a second call to Crawl on the same Crawler.
// The record sequence is finite and non-restartable; resume by creating
// a new Crawler over the same store.
var ErrCrawlConsumed = errors.New("crawl sequence already consumed")

// Stats is a snapshot of crawl progress counters.
type Stats struct {
	// PagesFetched is the number of pages retrieved over the network.
	PagesFetched int64

	// PagesSkipped is the number of pages a prior run already
	// processed, served from the frontier store without a fetch.
	PagesSkipped int64

	// Records is the number of terminal records extracted this run.
	Records int64

	// FailedPages is the number of pages abandoned after retry
	// exhaustion.
	FailedPages int64
}

// Default orchestrator tunables.
const (
	// DefaultConcurrency is the admission limit on simultaneously
	// in-flight fetches in the bounded-parallel shape.
	DefaultConcurrency = 4

	// DefaultBatchSize is how many frontier entries the sequential
	// shape claims and commits at a time. A crash loses at most one
	// in-flight batch.
	DefaultBatchSize = 20
)

// Crawler drives one crawl run: it owns a frontier store, bounds
// concurrency, dispatches fetch+extract work, and streams the resulting
// records to the caller as a single lazy, finite, non-restartable
// sequence.
//
// Two execution shapes satisfy the same contract. With concurrency 1
// (the default) the crawler drains the frontier sequentially in two
// phases (all list discovery, then all detail fetches), committing in
// batches so the run is resumable after a crash. With concurrency above
// 1 it runs whole partitions through a bounded worker pool; partitions
// are independent, so their relative order does not matter.
type Crawler struct {
	source Source
	store  *frontier.Store
	getter Getter

	// concurrency is the admission limit on in-flight fetches.
	concurrency int

	// batchSize is the sequential shape's claim/commit batch size.
	batchSize int

	logger *slog.Logger

	// started enforces the non-restartable sequence contract.
	started atomic.Bool

	pagesFetched atomic.Int64
	pagesSkipped atomic.Int64
	records      atomic.Int64
	failedPages  atomic.Int64
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithConcurrency sets the admission limit on in-flight fetches.
// 1 selects the sequential-resumable shape.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithBatchSize sets the sequential shape's claim/commit batch size.
func WithBatchSize(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithLogger sets the logger used for crawl progress.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates a Crawler for one run of source against store.
func New(source Source, store *frontier.Store, getter Getter, opts ...Option) *Crawler {
	c := &Crawler{
		source:      source,
		store:       store,
		getter:      getter,
		concurrency: 1,
		batchSize:   DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Stats returns a snapshot of the run's progress counters.
func (c *Crawler) Stats() Stats {
	return Stats{
		PagesFetched: c.pagesFetched.Load(),
		PagesSkipped: c.pagesSkipped.Load(),
		Records:      c.records.Load(),
		FailedPages:  c.failedPages.Load(),
	}
}

// errStopStream aborts the store's result stream when the consumer
// stops ranging.
var errStopStream = errors.New("result stream stopped")

// Crawl runs the crawl and returns its records as a lazy sequence.
// The sequence yields every record persisted in the store, including
// records a prior run produced (which is what makes a resumed crawl
// complete), followed by a final error element if any branch failed
// permanently. Results already persisted stay valid even then.
//
// The sequence can be ranged once; further calls yield ErrCrawlConsumed.
func (c *Crawler) Crawl(ctx context.Context) iter.Seq2[model.TabLink, error] {
	return func(yield func(model.TabLink, error) bool) {
		if !c.started.CompareAndSwap(false, true) {
			yield(model.TabLink{}, ErrCrawlConsumed)
			return
		}

		runErr := c.run(ctx)

		streamErr := c.store.Results(ctx, func(record model.TabLink) error {
			if !yield(record, nil) {
				return errStopStream
			}
			return nil
		})
		if errors.Is(streamErr, errStopStream) {
			return
		}
		if streamErr != nil && runErr == nil {
			runErr = streamErr
		}
		if runErr != nil {
			yield(model.TabLink{}, runErr)
		}
	}
}

// run populates the frontier and processes it to completion under the
// configured shape.
func (c *Crawler) run(ctx context.Context) error {
	partitions := c.source.Partitions()

	seeds := make([]model.PageRef, 0, len(partitions))
	for _, p := range partitions {
		seeds = append(seeds, p.Seeds...)
	}
	if err := c.store.Seed(ctx, seeds); err != nil {
		return fmt.Errorf("seed frontier: %w", err)
	}

	c.logger.Info("crawl starting",
		"source", c.source.Name(),
		"partitions", len(partitions),
		"concurrency", c.concurrency,
	)

	if c.concurrency > 1 {
		return c.runParallel(ctx, partitions)
	}
	return c.runSequential(ctx)
}

// fetchExtract performs one page's fetch+extract cycle under the
// fetcher's retry policy and updates the progress counters.
func (c *Crawler) fetchExtract(ctx context.Context, ref model.PageRef) (extract.Classification, error) {
	var cls extract.Classification
	err := c.getter.Do(ctx, ref.URL, func(body []byte) error {
		out, err := c.source.Extract(ref, body)
		if err != nil {
			return err
		}
		cls = out
		return nil
	})
	if err != nil {
		c.failedPages.Add(1)
		return extract.Classification{}, err
	}
	c.pagesFetched.Add(1)
	c.records.Add(int64(len(cls.Records)))
	return cls, nil
}

// splitRefs partitions discovered refs by kind. List refs are enqueued
// before detail refs so that discovery always precedes the fetches it
// produced.
func splitRefs(refs []model.PageRef) (lists, details []model.PageRef) {
	for _, ref := range refs {
		if ref.Kind == model.ListPage {
			lists = append(lists, ref)
		} else {
			details = append(details, ref)
		}
	}
	return lists, details
}
