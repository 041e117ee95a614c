package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lhu-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/lhu-dashboard-api/pkg/errors"
)

// cacheSchema is applied on every Open; each statement is a no-op once applied.
var cacheSchema = []string{
	`CREATE TABLE IF NOT EXISTS cache_entries (
		bucket TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		fetched_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		PRIMARY KEY (bucket, subject_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cache_entries_expires_at ON cache_entries (expires_at)`,
}

// SQLEntryRepository stores cache entries in a relational table (PostgreSQL or SQLite).
type SQLEntryRepository struct {
	db *sqlx.DB

	mu       sync.Mutex
	migrated bool
}

// NewSQLEntryRepository creates a new SQL backed entry repository.
func NewSQLEntryRepository(db *sqlx.DB) *SQLEntryRepository {
	return &SQLEntryRepository{db: db}
}

// Open creates the cache table and indices when missing.
func (r *SQLEntryRepository) Open(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.migrated {
		return nil
	}
	if r.db == nil {
		return errors.New("database not configured")
	}
	for _, stmt := range cacheSchema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate cache schema: %w", err)
		}
	}
	r.migrated = true
	return nil
}

// Get loads an entry by bucket and subject.
func (r *SQLEntryRepository) Get(ctx context.Context, bucket, subjectID string) (*models.CacheEntry, error) {
	query := r.db.Rebind(`SELECT bucket, subject_id, payload, fetched_at, expires_at FROM cache_entries WHERE bucket = ? AND subject_id = ?`)
	var row cacheEntryRow
	if err := r.db.GetContext(ctx, &row, query, bucket, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("get cache entry: %w", err)
	}
	entry := row.toModel()
	return &entry, nil
}

// Put upserts the entry keeping a single row per bucket/subject.
func (r *SQLEntryRepository) Put(ctx context.Context, entry models.CacheEntry) error {
	query := r.db.Rebind(`INSERT INTO cache_entries (bucket, subject_id, payload, fetched_at, expires_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (bucket, subject_id) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at, expires_at = excluded.expires_at`)
	if _, err := r.db.ExecContext(ctx, query, entry.Bucket, entry.SubjectID, string(entry.Payload), entry.FetchedAt.UTC(), entry.ExpiresAt.UTC()); err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

// Delete removes an entry by bucket and subject.
func (r *SQLEntryRepository) Delete(ctx context.Context, bucket, subjectID string) error {
	query := r.db.Rebind(`DELETE FROM cache_entries WHERE bucket = ? AND subject_id = ?`)
	if _, err := r.db.ExecContext(ctx, query, bucket, subjectID); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (r *SQLEntryRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

type cacheEntryRow struct {
	Bucket    string       `db:"bucket"`
	SubjectID string       `db:"subject_id"`
	Payload   string       `db:"payload"`
	FetchedAt sql.NullTime `db:"fetched_at"`
	ExpiresAt sql.NullTime `db:"expires_at"`
}

func (r cacheEntryRow) toModel() models.CacheEntry {
	return models.CacheEntry{
		Bucket:    r.Bucket,
		SubjectID: r.SubjectID,
		Payload:   []byte(r.Payload),
		FetchedAt: r.FetchedAt.Time,
		ExpiresAt: r.ExpiresAt.Time,
	}
}
