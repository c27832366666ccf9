package crawler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kwitek/chordcrawl/internal/extract"
	"github.com/kwitek/chordcrawl/internal/model"
)

// runParallel runs whole partitions through a bounded worker pool. The
// pool's limit is the sole throttle on in-flight fetches: a partition
// fetches one page at a time, so at most `concurrency` fetches are ever
// in flight no matter how many partitions are ready.
//
// Design decision: The group deliberately has no shared cancellation.
// A permanent failure in one partition abandons that branch only, while
// the others run to completion with their results intact. The caller's
// context still cancels everything on shutdown.
func (c *Crawler) runParallel(ctx context.Context, partitions []extract.Partition) error {
	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for _, partition := range partitions {
		g.Go(func() error {
			if err := c.runPartition(ctx, partition); err != nil {
				c.logger.Error("partition abandoned",
					"source", c.source.Name(),
					"partition", partition.Name,
					"error", err,
				)
				return fmt.Errorf("partition %s: %w", partition.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// A resumed run can hold refs that a crashed run discovered but
	// never processed, under list pages that are already complete and
	// so are skipped by the partition walk above. Drain them through
	// the frontier; on an uninterrupted run this claims nothing.
	return c.runSequential(ctx)
}

// runPartition runs one partition's traversal to completion: list
// discovery first, then every detail page the lists produced. The
// frontier store arbitrates with prior runs: pages already processed
// are skipped without a fetch, their records already persisted.
func (c *Crawler) runPartition(ctx context.Context, partition extract.Partition) error {
	lists := append([]model.PageRef(nil), partition.Seeds...)
	var details []model.PageRef

	for len(lists) > 0 {
		ref := lists[0]
		lists = lists[1:]

		cls, done, err := c.visitFetch(ctx, ref)
		if err != nil {
			return err
		}
		if done {
			continue
		}
		newLists, newDetails := splitRefs(cls.Refs)
		lists = append(lists, newLists...)
		details = append(details, newDetails...)
	}

	for _, ref := range details {
		if _, _, err := c.visitFetch(ctx, ref); err != nil {
			return err
		}
	}
	return nil
}

// visitFetch processes one ref against the store: skip if a prior run
// completed it or another worker holds the claim, otherwise fetch,
// extract, durably record the discovered refs, and complete the entry.
// The entry's result is written atomically
// in one store update; a cancelled fetch leaves it unprocessed for the
// next run.
func (c *Crawler) visitFetch(ctx context.Context, ref model.PageRef) (extract.Classification, bool, error) {
	if err := ctx.Err(); err != nil {
		return extract.Classification{}, false, err
	}

	entry, _, done, err := c.store.Visit(ctx, ref)
	if err != nil {
		return extract.Classification{}, false, fmt.Errorf("visit %s: %w", ref.URL, err)
	}
	if done {
		c.pagesSkipped.Add(1)
		return extract.Classification{}, true, nil
	}

	cls, err := c.fetchExtract(ctx, entry.Ref)
	if err != nil {
		return extract.Classification{}, false, fmt.Errorf("page %s: %w", ref.URL, err)
	}
	lists, details := splitRefs(cls.Refs)
	if err := c.store.Add(ctx, lists...); err != nil {
		return extract.Classification{}, false, fmt.Errorf("enqueue list refs from %s: %w", ref.URL, err)
	}
	if err := c.store.Add(ctx, details...); err != nil {
		return extract.Classification{}, false, fmt.Errorf("enqueue detail refs from %s: %w", ref.URL, err)
	}
	if err := c.store.Complete(ctx, entry.ID, cls.Records); err != nil {
		return extract.Classification{}, false, fmt.Errorf("complete %s: %w", ref.URL, err)
	}
	return cls, false, nil
}
