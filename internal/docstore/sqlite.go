package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	apperrors "github.com/grovetools/areatrip/errors"
	"github.com/grovetools/areatrip/internal/docstore/migrations"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists documents as JSON rows in a SQLite database.
type SQLiteStore struct {
	db    *sql.DB
	newID func() string
	mu    sync.Mutex
}

// OpenSQLite opens the database at path and applies embedded migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection serializes writers so read-merge-write updates
	// never interleave.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{db: db, newID: newID}, nil
}

func (s *SQLiteStore) NewID(collection string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newID()
}

func (s *SQLiteStore) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	if err := requireCollection(collection); err != nil {
		return "", err
	}
	raw, err := encode(data)
	if err != nil {
		return "", err
	}
	id := s.NewID(collection)
	now := time.Now().UTC().UnixMilli()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		collection, id, string(raw), now, now,
	); err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) Update(ctx context.Context, collection, id string, data map[string]interface{}) error {
	if err := requireRef(collection, id); err != nil {
		return err
	}
	patch, err := normalize(data)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.DocumentNotFound(collection, id)
	}
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	existing, err := decode([]byte(current))
	if err != nil {
		return err
	}
	raw, err := encode(merge(existing, patch))
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		string(raw), time.Now().UTC().UnixMilli(), collection, id,
	); err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	if err := requireRef(collection, id); err != nil {
		return err
	}
	raw, err := encode(data)
	if err != nil {
		return err
	}
	now := time.Now().UTC().UnixMilli()
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		collection, id, string(raw), now, now,
	); err != nil {
		return fmt.Errorf("set document: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	if err := requireRef(collection, id); err != nil {
		return Snapshot{}, err
	}
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, apperrors.DocumentNotFound(collection, id)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read document: %w", err)
	}
	doc, err := decode([]byte(raw))
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{ID: id, Data: doc}, nil
}

func (s *SQLiteStore) List(ctx context.Context, collection string) ([]Snapshot, error) {
	if err := requireCollection(collection); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE collection = ? ORDER BY id`, collection,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]Snapshot, 0)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc, err := decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, Snapshot{ID: id, Data: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
