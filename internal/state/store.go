// Package state persists per-file content signatures between builds,
// backing incremental rebuilds across process restarts. The store is
// explicit state owned by the build driver and passed in by reference,
// never a process-wide singleton.
package state

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Signature identifies one source file's content at build time.
type Signature struct {
	Path  string
	Hash  string
	MTime int64
	Size  int64
}

// Store is a SQLite-backed signature cache.
// Use ":memory:" for an in-memory database, or a file path for
// persistent storage.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the signature store at dbPath.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS signatures (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		mtime INTEGER NOT NULL,
		size INTEGER NOT NULL,
		build_id TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_signatures_build ON signatures(build_id);
	CREATE TABLE IF NOT EXISTS edges (
		page TEXT NOT NULL,
		dependency TEXT NOT NULL,
		kind TEXT NOT NULL,
		PRIMARY KEY (page, dependency)
	);
	CREATE INDEX IF NOT EXISTS idx_edges_dependency ON edges(dependency);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the stored signature for path, if any.
func (s *Store) Get(path string) (Signature, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sig Signature
	row := s.db.QueryRow(`SELECT path, hash, mtime, size FROM signatures WHERE path = ?`, path)
	switch err := row.Scan(&sig.Path, &sig.Hash, &sig.MTime, &sig.Size); err {
	case nil:
		return sig, true, nil
	case sql.ErrNoRows:
		return Signature{}, false, nil
	default:
		return Signature{}, false, fmt.Errorf("query signature: %w", err)
	}
}

// Put upserts one signature under the given build ID.
func (s *Store) Put(buildID string, sig Signature) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO signatures (path, hash, mtime, size, build_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			hash = excluded.hash,
			mtime = excluded.mtime,
			size = excluded.size,
			build_id = excluded.build_id`,
		sig.Path, sig.Hash, sig.MTime, sig.Size, buildID)
	if err != nil {
		return fmt.Errorf("store signature: %w", err)
	}
	return nil
}

// PutAll upserts a batch of signatures in one transaction.
func (s *Store) PutAll(buildID string, sigs []Signature) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO signatures (path, hash, mtime, size, build_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			hash = excluded.hash,
			mtime = excluded.mtime,
			size = excluded.size,
			build_id = excluded.build_id`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, sig := range sigs {
		if _, err := stmt.Exec(sig.Path, sig.Hash, sig.MTime, sig.Size, buildID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("store signature %s: %w", sig.Path, err)
		}
	}
	return tx.Commit()
}

// Forget drops the signature for a deleted source file.
func (s *Store) Forget(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM signatures WHERE path = ?`, path)
	return err
}

// EdgeRecord is one persisted dependency edge. Persisting edges lets a
// fresh process seed its dependency tracker and do incremental builds
// without a full warm-up pass.
type EdgeRecord struct {
	Page       string
	Dependency string
	Kind       string
}

// ReplaceEdges replaces every stored edge for page with the given set,
// mirroring the tracker's clear-then-rerecord lifecycle.
func (s *Store) ReplaceEdges(page string, edges []EdgeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM edges WHERE page = ?`, page); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear edges: %w", err)
	}
	for _, e := range edges {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO edges (page, dependency, kind) VALUES (?, ?, ?)`,
			e.Page, e.Dependency, e.Kind); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("store edge: %w", err)
		}
	}
	return tx.Commit()
}

// LoadEdges returns every persisted edge.
func (s *Store) LoadEdges() ([]EdgeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT page, dependency, kind FROM edges`)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []EdgeRecord
	for rows.Next() {
		var e EdgeRecord
		if err := rows.Scan(&e.Page, &e.Dependency, &e.Kind); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// FileSignature computes the current signature of the file at path.
func FileSignature(path string) (Signature, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Signature{}, err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- paths come from the sandboxed scan
	if err != nil {
		return Signature{}, err
	}
	sum := sha256.Sum256(data)
	return Signature{
		Path:  path,
		Hash:  hex.EncodeToString(sum[:]),
		MTime: info.ModTime().UnixNano(),
		Size:  info.Size(),
	}, nil
}

// Unchanged reports whether the file at path still matches its stored
// signature. Mtime and size short-circuit the hash comparison.
func (s *Store) Unchanged(path string) bool {
	stored, ok, err := s.Get(path)
	if err != nil || !ok {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.ModTime().UnixNano() == stored.MTime && info.Size() == stored.Size {
		return true
	}
	current, err := FileSignature(path)
	if err != nil {
		return false
	}
	return current.Hash == stored.Hash
}
