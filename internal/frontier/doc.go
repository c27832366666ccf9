// Package frontier implements the persistent, resumable crawl work queue.
//
// The store keeps one SQLite row per discovered page reference, with a
// processed marker and the page's extracted result. It is the single
// source of truth for "has this URL already been handled": duplicate
// inserts are ignored, completed entries are never touched again, and
// reopening the same database resumes a prior run instead of re-fetching
// completed work.
//
// Concurrency: the store serializes all writes through a single pooled
// connection, so a batch claim is atomic and no entry is ever owned by
// two workers at once. Claims that never completed (a crashed run's
// in-flight work) are released the next time the store is opened.
package frontier
