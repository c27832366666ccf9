package crawler

import (
	"context"
	"fmt"

	"github.com/kwitek/chordcrawl/internal/frontier"
	"github.com/kwitek/chordcrawl/internal/model"
)

// runSequential drains the frontier with a single worker in two phases:
// first all list-page discovery, then all detail-page extraction. Each
// batch of completions commits together, so a crash loses at most the
// in-flight batch and a re-run picks up exactly where the store left off.
func (c *Crawler) runSequential(ctx context.Context) error {
	if err := c.drainKind(ctx, model.ListPage); err != nil {
		return err
	}
	return c.drainKind(ctx, model.DetailPage)
}

// drainKind claims and processes batches of one page kind until none
// remain. Discovery during list batches feeds the frontier, so the loop
// naturally follows pagination: pages 2..N discovered on page 1 are
// claimed by a later batch of the same phase.
func (c *Crawler) drainKind(ctx context.Context, kind model.PageKind) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		entries, err := c.store.ClaimBatch(ctx, kind, c.batchSize)
		if err != nil {
			return fmt.Errorf("claim %s batch: %w", kind, err)
		}
		if len(entries) == 0 {
			return nil
		}

		completed := make([]frontier.Result, 0, len(entries))
		var failed error
		for _, entry := range entries {
			cls, err := c.fetchExtract(ctx, entry.Ref)
			if err != nil {
				// Keep what succeeded before the failure; the claim on
				// the failed entry is released on the next store open.
				failed = fmt.Errorf("page %s: %w", entry.Ref.URL, err)
				break
			}

			lists, details := splitRefs(cls.Refs)
			if err := c.store.Add(ctx, lists...); err != nil {
				return fmt.Errorf("enqueue list refs from %s: %w", entry.Ref.URL, err)
			}
			if err := c.store.Add(ctx, details...); err != nil {
				return fmt.Errorf("enqueue detail refs from %s: %w", entry.Ref.URL, err)
			}
			completed = append(completed, frontier.Result{ID: entry.ID, Records: cls.Records})
		}

		if err := c.store.CompleteBatch(ctx, completed); err != nil {
			return fmt.Errorf("commit %s batch: %w", kind, err)
		}
		c.logger.Debug("batch committed",
			"kind", kind,
			"completed", len(completed),
		)
		if failed != nil {
			return failed
		}
	}
}
