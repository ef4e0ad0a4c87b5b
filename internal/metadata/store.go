// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata persists paper metadata in SQLite or Postgres. The
// papers table records every ingested paper and its title fingerprint so
// later runs can skip known papers.
package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-agent/pkg/types"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned by Get for an unknown paper.
var ErrNotFound = errors.New("paper not found")

// Store is the paper metadata repository.
type Store struct {
	db *sqlx.DB
}

// Open connects to the configured database and creates the schema. For
// sqlite3 the parent directory of the DSN is created first.
func Open(ctx context.Context, cfg types.MetadataConfig) (*Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	dsn := cfg.DSN

	switch driver {
	case DriverSQLite:
		if dsn == "" {
			return nil, fmt.Errorf("sqlite3 metadata store needs a DSN")
		}
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_journal_mode=WAL"
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported metadata driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open connection. The caller runs Migrate if needed.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS papers (
		arxiv_id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		authors TEXT NOT NULL DEFAULT '',
		published_date TEXT NOT NULL DEFAULT '',
		pdf_path TEXT NOT NULL DEFAULT '',
		fingerprint TEXT NOT NULL DEFAULT '',
		chunks_count INTEGER NOT NULL DEFAULT 0,
		processed BOOLEAN NOT NULL DEFAULT FALSE,
		indexed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_papers_fingerprint ON papers(fingerprint) WHERE fingerprint <> ''`,
}

// Migrate creates the papers table and its indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// KnownIDs returns every stored paper identifier.
func (s *Store) KnownIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `SELECT arxiv_id FROM papers`); err != nil {
		return nil, fmt.Errorf("loading paper ids: %w", err)
	}
	return ids, nil
}

// Fingerprints returns every non-empty stored title fingerprint.
func (s *Store) Fingerprints(ctx context.Context) ([]string, error) {
	var fps []string
	if err := s.db.SelectContext(ctx, &fps, `SELECT fingerprint FROM papers WHERE fingerprint <> ''`); err != nil {
		return nil, fmt.Errorf("loading fingerprints: %w", err)
	}
	return fps, nil
}

// SavePaper inserts p. It reports false when a paper with the same
// identifier or fingerprint already exists; the stored row is left as is.
func (s *Store) SavePaper(ctx context.Context, p types.Paper) (bool, error) {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	query := s.db.Rebind(`INSERT INTO papers
		(arxiv_id, title, authors, published_date, pdf_path, fingerprint, chunks_count, processed, indexed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`)
	res, err := s.db.ExecContext(ctx, query,
		p.ArxivID, p.Title, p.Authors, p.PublishedDate, p.PDFPath, p.Fingerprint,
		p.ChunksCount, p.Processed, p.Indexed, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("saving paper %s: %w", p.ArxivID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("saving paper %s: %w", p.ArxivID, err)
	}
	return n > 0, nil
}

// Get returns the paper with the given identifier.
func (s *Store) Get(ctx context.Context, arxivID string) (types.Paper, error) {
	var p types.Paper
	query := s.db.Rebind(`SELECT arxiv_id, title, authors, published_date, pdf_path, fingerprint,
		chunks_count, processed, indexed, created_at, updated_at
		FROM papers WHERE arxiv_id = ?`)
	if err := s.db.GetContext(ctx, &p, query, arxivID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Paper{}, fmt.Errorf("%s: %w", arxivID, ErrNotFound)
		}
		return types.Paper{}, fmt.Errorf("loading paper %s: %w", arxivID, err)
	}
	return p, nil
}

// Count returns the number of stored papers.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM papers`); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}
