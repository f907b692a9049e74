// Package index provides the full-text index store adapter.
// Fragments live in a single SQLite FTS5 virtual table and are ranked with bm25.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver (pure Go, FTS5 built in)

	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
	"github.com/0xcro3dile/localrag-fts/internal/domain/ports"
)

// Supported database/sql driver names.
const (
	// DriverPure is modernc.org/sqlite. It needs no cgo.
	DriverPure = "sqlite"
	// DriverCGO is github.com/mattn/go-sqlite3. Only available in builds with
	// the sqlite_fts5 tag (see CGOAvailable).
	DriverCGO = "sqlite3"
)

// ErrDriverUnavailable is returned for a driver this binary was built without.
var ErrDriverUnavailable = errors.New("sqlite driver not compiled in")

// CheckDriver validates a driver name against this build.
func CheckDriver(driver string) error {
	switch driver {
	case DriverPure:
		return nil
	case DriverCGO:
		if !CGOAvailable {
			return fmt.Errorf("%w: %q needs a build with -tags sqlite_fts5", ErrDriverUnavailable, driver)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown driver %q (want %q or %q)", ErrDriverUnavailable, driver, DriverPure, DriverCGO)
	}
}

// DefaultPath is where the index is kept when no path is configured.
const DefaultPath = "./rag.db"

// DefaultTopK is used when Search is called with k <= 0.
const DefaultTopK = 5

const schema = `
CREATE VIRTUAL TABLE IF NOT EXISTS fragments USING fts5(
	source UNINDEXED,
	content,
	tokenize = 'unicode61 remove_diacritics 2'
);
`

var _ ports.IndexStore = (*SQLiteStore)(nil)

// Options configures a SQLiteStore.
type Options struct {
	Driver    string
	Path      string
	MatchMode MatchMode
	Logger    *zap.Logger
}

// SQLiteStore implements ports.IndexStore on an FTS5 table.
// Writers are serialized; readers use the connection pool and see the last
// committed ingestion.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	mode   MatchMode
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) the index database and its schema.
func NewSQLiteStore(opts Options) (*SQLiteStore, error) {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.Driver == "" {
		opts.Driver = DriverPure
	}
	if opts.MatchMode == "" {
		opts.MatchMode = MatchAny
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if err := CheckDriver(opts.Driver); err != nil {
		return nil, err
	}

	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open(opts.Driver, dsn(opts.Driver, opts.Path))
	if err != nil {
		return nil, &entities.StorageError{Op: "open", Err: err}
	}

	store := &SQLiteStore{
		db:     db,
		path:   opts.Path,
		mode:   opts.MatchMode,
		logger: opts.Logger,
	}

	if err := store.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// dsn enables WAL and a busy timeout so searches proceed during ingestion.
func dsn(driver, path string) string {
	if driver == DriverCGO {
		return path + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// initSchema creates the FTS table. Safe to run on every start.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return &entities.StorageError{Op: "init schema", Err: err}
	}
	return nil
}

// Replace deletes all fragments and inserts the new set in one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, fragments []entities.Fragment) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &entities.StorageError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM fragments"); err != nil {
		return 0, &entities.StorageError{Op: "delete", Err: err}
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO fragments (source, content) VALUES (?, ?)")
	if err != nil {
		return 0, &entities.StorageError{Op: "prepare insert", Err: err}
	}
	defer stmt.Close()

	for _, f := range fragments {
		if _, err := stmt.ExecContext(ctx, f.Source, f.Content); err != nil {
			return 0, &entities.StorageError{Op: "insert", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &entities.StorageError{Op: "commit", Err: err}
	}

	s.logger.Debug("index replaced", zap.Int("fragments", len(fragments)))
	return len(fragments), nil
}

// Search returns up to k fragments matching query, best first.
// Equal scores keep insertion order.
func (s *SQLiteStore) Search(ctx context.Context, query string, k int) ([]entities.SearchHit, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	hits := []entities.SearchHit{}
	match := MatchExpression(query, s.mode)
	if match == "" {
		return hits, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source, content, bm25(fragments)
		FROM fragments
		WHERE fragments MATCH ?
		ORDER BY bm25(fragments), rowid
		LIMIT ?
	`, match, k)
	if err != nil {
		return nil, &entities.StorageError{Op: "search", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var hit entities.SearchHit
		var rank float64
		if err := rows.Scan(&hit.Source, &hit.Content, &rank); err != nil {
			return nil, &entities.StorageError{Op: "scan", Err: err}
		}
		// bm25 is negative; flip it so higher means more relevant.
		hit.Score = -rank
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, &entities.StorageError{Op: "search", Err: err}
	}

	s.logger.Debug("index searched",
		zap.String("match", match),
		zap.Int("k", k),
		zap.Int("hits", len(hits)),
	)
	return hits, nil
}

// Count returns the number of stored fragments.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fragments").Scan(&count); err != nil {
		return 0, &entities.StorageError{Op: "count", Err: err}
	}
	return count, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
