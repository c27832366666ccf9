package frontier

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kwitek/chordcrawl/internal/model"
)

// Store is the persistent crawl frontier: a SQLite-backed ledger of every
// page reference the crawl has discovered, with a per-entry processed
// marker and the extracted result. Entries are never deleted; the store
// doubles as a deduplication ledger and a crash-recovery log. Reopening
// the same path resumes a prior run: processed entries are skipped and
// only unprocessed ones are handed out again.
//
// Design decision: One database file per source rather than one shared
// file. The sources never share URLs, and separate files let a run of one
// source be reset without touching the other.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// path is the SQLite database location, or ":memory:".
	path string
}

// InMemory is the path that opens a transient, process-lifetime store.
const InMemory = ":memory:"

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Recommended for durable
	// stores; ignored for in-memory ones.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Entry is one frontier row handed to a worker. The store owns the row;
// the worker borrows it for one fetch+extract cycle and returns it via
// Complete.
type Entry struct {
	// ID is the stable row identity used for update-in-place.
	ID int64

	// Ref identifies the page to fetch.
	Ref model.PageRef
}

// Result pairs a claimed entry with its extracted records for batched
// completion.
type Result struct {
	// ID is the entry's row identity.
	ID int64

	// Records are the entry's terminal records. May be empty: a list
	// page that only discovered further refs completes with no records.
	Records []model.TabLink
}

// Open opens or creates a frontier store at path. Pass InMemory for a
// transient store. Claims left over from a crashed run are released so
// the affected entries are retried.
func Open(path string, opts Options) (*Store, error) {
	dsn := path
	if path != InMemory {
		if !opts.CreateIfNotExists {
			if _, err := os.Stat(path); os.IsNotExist(err) {
				return nil, fmt.Errorf("frontier database not found at %s: %w", path, os.ErrNotExist)
			} else if err != nil {
				return nil, fmt.Errorf("check frontier path: %w", err)
			}
			dsn = path + "?mode=rw"
		} else {
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0750); err != nil {
					return nil, fmt.Errorf("create frontier directory: %w", err)
				}
			}
			dsn = path + "?mode=rwc"
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open frontier database: %w", err)
	}

	// SQLite supports one writer at a time; a single pooled connection
	// also makes every claim and complete mutually exclusive, which is
	// exactly the row-ownership guarantee workers rely on.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, path: path}

	ctx := context.Background()
	if opts.EnableWAL && path != InMemory {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create frontier schema: %w", err)
	}
	if err := s.releaseClaims(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("release stale claims: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the store's location.
func (s *Store) Path() string {
	return s.path
}

// createTables creates the schema if it doesn't exist.
func (s *Store) createTables(ctx context.Context) error {
	schema := `
	-- One row per discovered page reference. URL is the identity:
	-- duplicate discoveries are silently ignored on insert.
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		sequence INTEGER NOT NULL DEFAULT 0,
		label TEXT NOT NULL DEFAULT '',
		claimed INTEGER NOT NULL DEFAULT 0,
		processed INTEGER NOT NULL DEFAULT 0,
		result TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		processed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_pages_pending ON pages(processed, claimed, kind);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// releaseClaims clears claims that never completed, so a crashed run's
// in-flight entries are retried on resume.
func (s *Store) releaseClaims(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `UPDATE pages SET claimed = 0 WHERE processed = 0 AND claimed = 1`)
	return err
}

// Seed inserts the root refs, but only into an empty store. A store that
// was populated by a prior run keeps its frontier untouched, which is
// what makes re-running against the same store a resume instead of a
// restart.
func (s *Store) Seed(ctx context.Context, refs []model.PageRef) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&count); err != nil {
		return fmt.Errorf("count frontier entries: %w", err)
	}
	if count > 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO pages (url, kind, sequence, label) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare seed insert: %w", err)
	}
	defer stmt.Close()

	for _, ref := range refs {
		if _, err := stmt.ExecContext(ctx, ref.URL, string(ref.Kind), ref.Sequence, ref.Label); err != nil {
			return fmt.Errorf("seed %s: %w", ref.URL, err)
		}
	}
	return tx.Commit()
}

// Add inserts newly discovered refs. Refs whose URL is already present
// are silently ignored; that is the store's deduplication guarantee.
func (s *Store) Add(ctx context.Context, refs ...model.PageRef) error {
	if len(refs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO pages (url, kind, sequence, label) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare add insert: %w", err)
	}
	defer stmt.Close()

	for _, ref := range refs {
		if _, err := stmt.ExecContext(ctx, ref.URL, string(ref.Kind), ref.Sequence, ref.Label); err != nil {
			return fmt.Errorf("add %s: %w", ref.URL, err)
		}
	}
	return tx.Commit()
}

// ClaimBatch atomically claims up to n unprocessed, unclaimed entries of
// the given kind and returns them. Concurrent callers never receive
// overlapping entries: the claim is a single UPDATE..RETURNING statement
// over the store's single write connection. An empty result means the
// kind is drained.
func (s *Store) ClaimBatch(ctx context.Context, kind model.PageKind, n int) ([]Entry, error) {
	query := `
	UPDATE pages SET claimed = 1
	WHERE id IN (
		SELECT id FROM pages
		WHERE processed = 0 AND claimed = 0 AND kind = ?
		ORDER BY id
		LIMIT ?
	)
	RETURNING id, url, kind, sequence, label
	`
	rows, err := s.db.QueryContext(ctx, query, string(kind), n)
	if err != nil {
		return nil, fmt.Errorf("claim batch: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kindStr string
		if err := rows.Scan(&e.ID, &e.Ref.URL, &kindStr, &e.Ref.Sequence, &e.Ref.Label); err != nil {
			return nil, fmt.Errorf("scan claimed entry: %w", err)
		}
		e.Ref.Kind = model.PageKind(kindStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Visit inserts ref if it is new and claims it for the caller in one
// atomic update, so no two workers ever hold the same entry. A row the
// claim cannot take is reported done: either a prior run processed it
// (its stored records are returned for replay into the output stream)
// or another worker holds it right now and owns the fetch.
func (s *Store) Visit(ctx context.Context, ref model.PageRef) (Entry, []model.TabLink, bool, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO pages (url, kind, sequence, label) VALUES (?, ?, ?, ?)`,
		ref.URL, string(ref.Kind), ref.Sequence, ref.Label); err != nil {
		return Entry{}, nil, false, fmt.Errorf("visit insert %s: %w", ref.URL, err)
	}

	var (
		e       Entry
		kindStr string
	)
	err := s.db.QueryRowContext(ctx, `
		UPDATE pages SET claimed = 1
		WHERE url = ? AND processed = 0 AND claimed = 0
		RETURNING id, url, kind, sequence, label`,
		ref.URL).Scan(&e.ID, &e.Ref.URL, &kindStr, &e.Ref.Sequence, &e.Ref.Label)
	if err == nil {
		e.Ref.Kind = model.PageKind(kindStr)
		return e, nil, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Entry{}, nil, false, fmt.Errorf("visit claim %s: %w", ref.URL, err)
	}

	var (
		processed bool
		result    sql.NullString
	)
	if err := s.db.QueryRowContext(ctx,
		`SELECT processed, result FROM pages WHERE url = ?`,
		ref.URL).Scan(&processed, &result); err != nil {
		return Entry{}, nil, false, fmt.Errorf("visit lookup %s: %w", ref.URL, err)
	}
	if !processed {
		// Claimed by another worker; that worker owns the fetch.
		return Entry{}, nil, true, nil
	}
	records, err := decodeRecords(result)
	if err != nil {
		return Entry{}, nil, false, fmt.Errorf("visit decode %s: %w", ref.URL, err)
	}
	return Entry{}, records, true, nil
}

// Complete marks one entry processed and stores its records. The update
// is durable before the call returns, and it is written exactly once: a
// row that is already processed keeps its original result.
func (s *Store) Complete(ctx context.Context, id int64, records []model.TabLink) error {
	payload, err := encodeRecords(records)
	if err != nil {
		return fmt.Errorf("encode result for entry %d: %w", id, err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE pages
		SET processed = 1, claimed = 0, result = ?, processed_at = CURRENT_TIMESTAMP
		WHERE id = ? AND processed = 0`,
		payload, id)
	if err != nil {
		return fmt.Errorf("complete entry %d: %w", id, err)
	}
	return nil
}

// CompleteBatch marks several entries processed in one transaction. The
// sequential orchestrator commits in batches so a crash loses at most
// one in-flight batch, never the whole crawl.
func (s *Store) CompleteBatch(ctx context.Context, results []Result) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin complete transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE pages
		SET processed = 1, claimed = 0, result = ?, processed_at = CURRENT_TIMESTAMP
		WHERE id = ? AND processed = 0`)
	if err != nil {
		return fmt.Errorf("prepare complete update: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		payload, err := encodeRecords(r.Records)
		if err != nil {
			return fmt.Errorf("encode result for entry %d: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, payload, r.ID); err != nil {
			return fmt.Errorf("complete entry %d: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// Total returns the number of entries in the store.
func (s *Store) Total(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count frontier entries: %w", err)
	}
	return n, nil
}

// Unprocessed returns the number of entries still waiting for a worker.
func (s *Store) Unprocessed(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pages WHERE processed = 0`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unprocessed entries: %w", err)
	}
	return n, nil
}

// Results streams every stored record to fn in insertion order, lazily:
// rows are decoded one at a time, never loaded wholesale. A non-nil
// error from fn stops the stream and is returned.
func (s *Store) Results(ctx context.Context, fn func(model.TabLink) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT result FROM pages WHERE processed = 1 AND result IS NOT NULL ORDER BY id`)
	if err != nil {
		return fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload sql.NullString
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("scan result: %w", err)
		}
		records, err := decodeRecords(payload)
		if err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
		for _, record := range records {
			if err := fn(record); err != nil {
				return err
			}
		}
	}
	return rows.Err()
}

// encodeRecords serializes an entry's records. A nil slice encodes as an
// empty list so that "processed with no records" is distinguishable from
// "not processed" (NULL).
func encodeRecords(records []model.TabLink) (string, error) {
	if records == nil {
		records = []model.TabLink{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// decodeRecords deserializes an entry's stored records.
func decodeRecords(payload sql.NullString) ([]model.TabLink, error) {
	if !payload.Valid || payload.String == "" {
		return nil, nil
	}
	var records []model.TabLink
	if err := json.Unmarshal([]byte(payload.String), &records); err != nil {
		return nil, err
	}
	return records, nil
}
