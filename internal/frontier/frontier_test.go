package frontier

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kwitek/chordcrawl/internal/model"
)

// openTestStore creates a store backed by a temp file so that reopen
// behavior can be exercised.
func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "frontier.db")
	s, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func seedRefs() []model.PageRef {
	return []model.PageRef{
		{URL: "https://example.com/bands/a.htm", Kind: model.ListPage, Sequence: 1},
		{URL: "https://example.com/bands/b.htm", Kind: model.ListPage, Sequence: 1},
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	ctx := context.Background()

	if err := s.Seed(ctx, seedRefs()); err != nil {
		t.Fatalf("first seed failed: %v", err)
	}
	total, err := s.Total(ctx)
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}

	// Seeding a non-empty store is a no-op, even with different refs.
	extra := []model.PageRef{{URL: "https://example.com/bands/c.htm", Kind: model.ListPage}}
	if err := s.Seed(ctx, extra); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	total, err = s.Total(ctx)
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if total != 2 {
		t.Errorf("total after re-seed = %d, want 2 (seed must be a no-op once non-empty)", total)
	}
}

func TestAddIgnoresDuplicateURLs(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	ctx := context.Background()

	ref := model.PageRef{URL: "https://example.com/artist/kult", Kind: model.DetailPage, Label: "Kult"}
	if err := s.Add(ctx, ref, ref); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Add(ctx, ref); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	total, err := s.Total(ctx)
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1 (duplicates silently ignored)", total)
	}
}

func TestClaimBatchHandsOutDisjointEntries(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	ctx := context.Background()

	refs := []model.PageRef{
		{URL: "https://example.com/1", Kind: model.DetailPage},
		{URL: "https://example.com/2", Kind: model.DetailPage},
		{URL: "https://example.com/3", Kind: model.DetailPage},
	}
	if err := s.Seed(ctx, refs); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	first, err := s.ClaimBatch(ctx, model.DetailPage, 2)
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	second, err := s.ClaimBatch(ctx, model.DetailPage, 2)
	if err != nil {
		t.Fatalf("second claim failed: %v", err)
	}

	if len(first) != 2 || len(second) != 1 {
		t.Fatalf("claim sizes = %d, %d; want 2, 1", len(first), len(second))
	}

	seen := map[int64]bool{}
	for _, e := range append(first, second...) {
		if seen[e.ID] {
			t.Errorf("entry %d claimed twice", e.ID)
		}
		seen[e.ID] = true
	}

	// Everything is claimed now; a further claim comes back empty.
	third, err := s.ClaimBatch(ctx, model.DetailPage, 2)
	if err != nil {
		t.Fatalf("third claim failed: %v", err)
	}
	if len(third) != 0 {
		t.Errorf("third claim returned %d entries, want 0", len(third))
	}
}

func TestClaimBatchFiltersByKind(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	ctx := context.Background()

	refs := []model.PageRef{
		{URL: "https://example.com/list", Kind: model.ListPage},
		{URL: "https://example.com/detail", Kind: model.DetailPage},
	}
	if err := s.Seed(ctx, refs); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	entries, err := s.ClaimBatch(ctx, model.ListPage, 10)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d list entries, want 1", len(entries))
	}
	if entries[0].Ref.Kind != model.ListPage {
		t.Errorf("claimed kind = %q, want %q", entries[0].Ref.Kind, model.ListPage)
	}
}

func TestCompleteIsWrittenOnce(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	ctx := context.Background()

	if err := s.Seed(ctx, []model.PageRef{{URL: "https://example.com/1", Kind: model.DetailPage}}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	entries, err := s.ClaimBatch(ctx, model.DetailPage, 1)
	if err != nil || len(entries) != 1 {
		t.Fatalf("claim failed: %v (%d entries)", err, len(entries))
	}

	original := []model.TabLink{model.NewTabLink("Kult", "Arahja", "https://example.com/arahja")}
	if err := s.Complete(ctx, entries[0].ID, original); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	// A second complete on the same row must not overwrite the result.
	if err := s.Complete(ctx, entries[0].ID, []model.TabLink{model.NewTabLink("X", "Y", "https://z")}); err != nil {
		t.Fatalf("second complete failed: %v", err)
	}

	var got []model.TabLink
	err = s.Results(ctx, func(r model.TabLink) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Arahja" {
		t.Errorf("results = %+v, want the original record only", got)
	}
}

func TestReopenResumesAndReleasesClaims(t *testing.T) {
	t.Parallel()

	s, path := openTestStore(t)
	ctx := context.Background()

	refs := []model.PageRef{
		{URL: "https://example.com/1", Kind: model.DetailPage},
		{URL: "https://example.com/2", Kind: model.DetailPage},
	}
	if err := s.Seed(ctx, refs); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	entries, err := s.ClaimBatch(ctx, model.DetailPage, 2)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	// Complete one entry, leave the other claimed, simulating a crash
	// mid-batch.
	if err := s.Complete(ctx, entries[0].ID, nil); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	reopened, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	unprocessed, err := reopened.Unprocessed(ctx)
	if err != nil {
		t.Fatalf("unprocessed failed: %v", err)
	}
	if unprocessed != 1 {
		t.Errorf("unprocessed = %d, want 1 (completed entry stays done)", unprocessed)
	}

	// The stale claim must have been released so the entry is retried.
	retried, err := reopened.ClaimBatch(ctx, model.DetailPage, 10)
	if err != nil {
		t.Fatalf("claim after reopen failed: %v", err)
	}
	if len(retried) != 1 || retried[0].ID != entries[1].ID {
		t.Errorf("claimed %+v after reopen, want the abandoned entry %d", retried, entries[1].ID)
	}
}

func TestVisit(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	ctx := context.Background()

	ref := model.PageRef{URL: "https://example.com/kult", Kind: model.DetailPage, Label: "Kult"}

	entry, records, done, err := s.Visit(ctx, ref)
	if err != nil {
		t.Fatalf("first visit failed: %v", err)
	}
	if done {
		t.Fatal("fresh entry reported as done")
	}
	if len(records) != 0 {
		t.Fatalf("fresh entry has %d records", len(records))
	}
	if entry.Ref != ref {
		t.Errorf("entry.Ref = %+v, want %+v", entry.Ref, ref)
	}

	stored := []model.TabLink{model.NewTabLink("Kult", "Arahja", "https://example.com/arahja")}
	if err := s.Complete(ctx, entry.ID, stored); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	_, records, done, err = s.Visit(ctx, ref)
	if err != nil {
		t.Fatalf("second visit failed: %v", err)
	}
	if !done {
		t.Error("completed entry not reported as done")
	}
	if len(records) != 1 || records[0].Title != "Arahja" {
		t.Errorf("records = %+v, want the stored record", records)
	}
}

func TestVisitClaimsExclusively(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	ctx := context.Background()

	ref := model.PageRef{URL: "https://example.com/kult", Kind: model.DetailPage, Label: "Kult"}

	entry, _, done, err := s.Visit(ctx, ref)
	if err != nil {
		t.Fatalf("first visit failed: %v", err)
	}
	if done {
		t.Fatal("fresh entry reported as done")
	}

	// While the first caller holds the claim, nobody else may take the
	// entry: not a second visit, not a batch claim.
	_, records, done, err := s.Visit(ctx, ref)
	if err != nil {
		t.Fatalf("second visit failed: %v", err)
	}
	if !done {
		t.Error("claimed entry handed out twice")
	}
	if len(records) != 0 {
		t.Errorf("claimed entry returned %d records, want 0", len(records))
	}

	claimed, err := s.ClaimBatch(ctx, model.DetailPage, 10)
	if err != nil {
		t.Fatalf("claim batch failed: %v", err)
	}
	if len(claimed) != 0 {
		t.Errorf("claim batch took %d entries, want 0", len(claimed))
	}

	// Completing releases the claim and makes the records replayable.
	stored := []model.TabLink{model.NewTabLink("Kult", "Arahja", "https://example.com/arahja")}
	if err := s.Complete(ctx, entry.ID, stored); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	_, records, done, err = s.Visit(ctx, ref)
	if err != nil {
		t.Fatalf("visit after complete failed: %v", err)
	}
	if !done || len(records) != 1 {
		t.Errorf("after complete: done=%v records=%+v, want done with the stored record", done, records)
	}
}

func TestResultsStreamsInInsertionOrder(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	ctx := context.Background()

	refs := []model.PageRef{
		{URL: "https://example.com/1", Kind: model.DetailPage},
		{URL: "https://example.com/2", Kind: model.DetailPage},
	}
	if err := s.Seed(ctx, refs); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	entries, err := s.ClaimBatch(ctx, model.DetailPage, 2)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	// Complete out of order; results still stream in row order.
	if err := s.Complete(ctx, entries[1].ID, []model.TabLink{model.NewTabLink("B", "Second", "https://2")}); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if err := s.Complete(ctx, entries[0].ID, []model.TabLink{model.NewTabLink("A", "First", "https://1")}); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	var titles []string
	err = s.Results(ctx, func(r model.TabLink) error {
		titles = append(titles, r.Title)
		return nil
	})
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	want := []string{"First", "Second"}
	if len(titles) != len(want) {
		t.Fatalf("got %d records, want %d", len(titles), len(want))
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("titles[%d] = %q, want %q", i, titles[i], want[i])
		}
	}
}

func TestOpenInMemory(t *testing.T) {
	t.Parallel()

	s, err := Open(InMemory, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Seed(ctx, seedRefs()); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	total, err := s.Total(ctx)
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
}

func TestOpenWithoutCreateFailsOnMissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.db")
	_, err := Open(path, Options{CreateIfNotExists: false})
	if err == nil {
		t.Fatal("want error opening a missing database with CreateIfNotExists=false")
	}
}
