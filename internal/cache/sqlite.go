package cache

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/raysh454/webscrape/internal/logging"

	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteStore keeps one row per canonical URL.
type SQLiteStore struct {
	db     *sql.DB
	ttl    time.Duration
	ownsDB bool
	logger logging.Logger
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string, ttl time.Duration, logger logging.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("cache path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure cache dir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	s, err := NewSQLiteStore(db, ttl, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// NewSQLiteStore applies the schema to an already open db.
func NewSQLiteStore(db *sql.DB, ttl time.Duration, logger logging.Logger) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := applySchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, ttl: ttl, logger: logger.With(logging.Field{Key: "component", Value: "cache"})}, nil
}

func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, key, url, title, content, content_hash, status_code,
                fetched_at, expires_at, previous_content, previous_fetched_at
         FROM entries
         WHERE key = ?`, key)

	var e Entry
	var fetched, expires, prevFetched int64
	err := row.Scan(&e.ID, &e.Key, &e.URL, &e.Title, &e.Content, &e.ContentHash, &e.StatusCode,
		&fetched, &expires, &e.PreviousContent, &prevFetched)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get cache entry: %w", err)
	}
	e.FetchedAt = time.Unix(0, fetched).UTC()
	e.ExpiresAt = time.Unix(0, expires).UTC()
	if prevFetched > 0 {
		e.PreviousFetchedAt = time.Unix(0, prevFetched).UTC()
	}
	e.Expired = time.Now().After(e.ExpiresAt)
	return &e, nil
}

// Put upserts e. On conflict the stored content moves to previous_content
// and the row keeps its id.
func (s *SQLiteStore) Put(ctx context.Context, e *Entry) error {
	if err := prepare(e, s.ttl, time.Now().UTC()); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO entries (key, id, url, title, content, content_hash, status_code, fetched_at, expires_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET
             previous_content    = entries.content,
             previous_fetched_at = entries.fetched_at,
             url          = excluded.url,
             title        = excluded.title,
             content      = excluded.content,
             content_hash = excluded.content_hash,
             status_code  = excluded.status_code,
             fetched_at   = excluded.fetched_at,
             expires_at   = excluded.expires_at
         RETURNING id`,
		e.Key, e.ID, e.URL, e.Title, e.Content, e.ContentHash, e.StatusCode,
		e.FetchedAt.UnixNano(), e.ExpiresAt.UnixNano(),
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	s.logger.Debug("cache put",
		logging.Field{Key: "key", Value: e.Key},
		logging.Field{Key: "bytes", Value: len(e.Content)})
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeExpired removes entries that expired more than grace ago and returns
// how many were deleted. Recently expired entries are kept as a diff base.
func (s *SQLiteStore) PurgeExpired(ctx context.Context, grace time.Duration) (int64, error) {
	cutoff := time.Now().Add(-grace).UnixNano()
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE expires_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database when the store opened it.
func (s *SQLiteStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}
