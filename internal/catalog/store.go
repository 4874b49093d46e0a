package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"PortfolioAnalysis/internal/model"

	_ "modernc.org/sqlite"
)

// Store mirrors the last good catalog so a restart can survive an outage of
// the remote sources.
type Store interface {
	Save(ctx context.Context, records []model.SymbolRecord) error
	Snapshot(ctx context.Context) ([]model.SymbolRecord, time.Time, error)
	Close() error
}

// NoopStore is used when no mirror path is configured.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) Save(_ context.Context, _ []model.SymbolRecord) error { return nil }
func (n *NoopStore) Snapshot(_ context.Context) ([]model.SymbolRecord, time.Time, error) {
	return nil, time.Time{}, nil
}
func (n *NoopStore) Close() error { return nil }

// SQLiteStore persists the catalog to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] catalog mirror opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS symbols (
			position    INTEGER NOT NULL,
			symbol      TEXT PRIMARY KEY,
			name        TEXT,
			asset_class TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS catalog_meta (
			id        INTEGER PRIMARY KEY CHECK (id = 1),
			loaded_at INTEGER NOT NULL,
			count     INTEGER NOT NULL
		)`,
	}
	for _, st := range stmts {
		if _, err := s.db.Exec(st); err != nil {
			return fmt.Errorf("exec %q: %w", st[:30], err)
		}
	}
	return nil
}

// Save replaces the mirrored catalog in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, records []model.SymbolRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM symbols`); err != nil {
		return fmt.Errorf("clear symbols: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO symbols (position, symbol, name, asset_class) VALUES (?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, i, r.Symbol, r.Name, string(r.AssetClass)); err != nil {
			return fmt.Errorf("insert %s: %w", r.Symbol, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO catalog_meta (id, loaded_at, count) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET loaded_at = excluded.loaded_at, count = excluded.count`,
		time.Now().Unix(), len(records)); err != nil {
		return fmt.Errorf("update meta: %w", err)
	}
	return tx.Commit()
}

// Snapshot returns the mirrored catalog in its original order, and when it
// was saved. An empty mirror returns no records and a zero time.
func (s *SQLiteStore) Snapshot(ctx context.Context) ([]model.SymbolRecord, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var loadedAt int64
	err := s.db.QueryRowContext(ctx, `SELECT loaded_at FROM catalog_meta WHERE id = 1`).Scan(&loadedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("read meta: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT symbol, name, asset_class FROM symbols ORDER BY position`)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var out []model.SymbolRecord
	for rows.Next() {
		var sym, name, class string
		if err := rows.Scan(&sym, &name, &class); err != nil {
			return nil, time.Time{}, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, model.NewSymbolRecord(sym, name, model.AssetClass(class)))
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}
	return out, time.Unix(loadedAt, 0), nil
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing catalog mirror")
	return s.db.Close()
}
