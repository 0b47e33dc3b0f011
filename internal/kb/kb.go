// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package kb opens, builds, and queries knowledge base artifacts.
//
// An artifact is a single SQLite file holding the manifest, the topics, the
// documents, and an FTS4 index over document titles and content. Artifacts
// are built with Create and Ingest, and opened read-only with Open.
package kb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/aikokb/internal/log"
	"github.com/pdiddy/aikokb/pkg/types"
)

// FormatVersion is the artifact schema version written by Create and
// accepted by Open. Version 2 switched the index to the unicode61 tokenizer.
const FormatVersion = 2

const defaultMaxResults = 20

var (
	ErrArtifactNotFound  = errors.New("knowledge base artifact not found")
	ErrInvalidArtifact   = errors.New("not a knowledge base artifact")
	ErrUnsupportedFormat = errors.New("unsupported artifact format version")
	ErrClosed            = errors.New("knowledge base is not open")
	ErrReadOnly          = errors.New("knowledge base is opened read-only")
	ErrEmptyQuery        = errors.New("search query has no searchable terms")
	ErrTopicNotFound     = errors.New("topic not found")
)

// KB is a handle on a knowledge base artifact. It is safe for concurrent
// use by multiple readers.
type KB struct {
	mu         sync.RWMutex
	db         *sql.DB
	path       string
	readOnly   bool
	maxResults int
}

// Open opens the artifact at cfg.ArtifactPath read-only and checks that it
// carries a supported format version.
func Open(cfg types.KnowledgeBaseConfig) (*KB, error) {
	if _, err := os.Stat(cfg.ArtifactPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, cfg.ArtifactPath)
		}
		return nil, fmt.Errorf("checking artifact %s: %w", cfg.ArtifactPath, err)
	}

	db, err := sql.Open("sqlite3", "file:"+cfg.ArtifactPath+"?mode=ro&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening artifact: %w", err)
	}

	k := newKB(db, cfg, true)
	if err := k.checkFormat(); err != nil {
		db.Close()
		return nil, err
	}

	log.Debug("opened knowledge base", "path", cfg.ArtifactPath)
	return k, nil
}

// Create opens the artifact at cfg.ArtifactPath for writing, creating the
// file and its schema if they do not exist.
func Create(cfg types.KnowledgeBaseConfig) (*KB, error) {
	db, err := sql.Open("sqlite3", cfg.ArtifactPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening artifact: %w", err)
	}
	// One writer; keeps transactions and triggers on the same connection.
	db.SetMaxOpenConns(1)

	k := newKB(db, cfg, false)
	// An existing artifact must be a supported version before any DDL runs.
	exists, err := k.hasTable("meta")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArtifact, cfg.ArtifactPath, err)
	}
	if exists {
		if err := k.checkVersion(); err != nil {
			db.Close()
			return nil, err
		}
	}
	if err := k.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	if err := k.checkFormat(); err != nil {
		db.Close()
		return nil, err
	}

	log.Debug("created knowledge base", "path", cfg.ArtifactPath)
	return k, nil
}

func newKB(db *sql.DB, cfg types.KnowledgeBaseConfig, readOnly bool) *KB {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &KB{
		db:         db,
		path:       cfg.ArtifactPath,
		readOnly:   readOnly,
		maxResults: maxResults,
	}
}

// Path returns the artifact file path.
func (k *KB) Path() string {
	return k.path
}

// Close releases the database connection. Calls after Close return ErrClosed.
func (k *KB) Close() error {
	if k == nil {
		return nil
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.db == nil {
		return nil
	}
	err := k.db.Close()
	k.db = nil
	return err
}

// conn returns the open database or ErrClosed.
func (k *KB) conn() (*sql.DB, error) {
	if k == nil {
		return nil, ErrClosed
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.db == nil {
		return nil, ErrClosed
	}
	return k.db, nil
}

// writableConn is conn for operations that modify the artifact.
func (k *KB) writableConn() (*sql.DB, error) {
	db, err := k.conn()
	if err != nil {
		return nil, err
	}
	if k.readOnly {
		return nil, ErrReadOnly
	}
	return db, nil
}

func (k *KB) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS topics (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			summary TEXT,
			position INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			topic_id TEXT NOT NULL REFERENCES topics(id),
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			tags TEXT,
			source TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_topic_id ON documents(topic_id)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			topic_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
		// FTS4 rather than FTS5: matchinfo() gives the per-column counts
		// needed for BM25 and FTS4 is compiled into the default driver build.
		// unicode61 folds case and diacritics and splits on Unicode
		// punctuation, matching queryTerms.
		`CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts4(title, content, tokenize=unicode61)`,
		`CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO documents_fts(docid, title, content) VALUES (new.rowid, new.title, new.content);
		END`,
		`CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
			DELETE FROM documents_fts WHERE docid = old.rowid;
		END`,
		`CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE ON documents BEGIN
			DELETE FROM documents_fts WHERE docid = old.rowid;
			INSERT INTO documents_fts(docid, title, content) VALUES (new.rowid, new.title, new.content);
		END`,
		`INSERT OR IGNORE INTO meta (key, value) VALUES ('format_version', '` + strconv.Itoa(FormatVersion) + `')`,
	}

	for _, stmt := range statements {
		if _, err := k.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// requiredTables are the tables every artifact carries.
var requiredTables = []string{"meta", "topics", "documents", "documents_fts", "indexing_status"}

// checkFormat verifies the format version and that every required table is
// present. Anything that is not a readable artifact is reported as
// ErrInvalidArtifact.
func (k *KB) checkFormat() error {
	if err := k.checkVersion(); err != nil {
		return err
	}
	for _, table := range requiredTables {
		ok, err := k.hasTable(table)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidArtifact, k.path, err)
		}
		if !ok {
			return fmt.Errorf("%w: %s: missing table %s", ErrInvalidArtifact, k.path, table)
		}
	}
	return nil
}

// checkVersion reads format_version from meta.
func (k *KB) checkVersion() error {
	var raw string
	err := k.db.QueryRow(`SELECT value FROM meta WHERE key = 'format_version'`).Scan(&raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArtifact, k.path, err)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: format_version %q", ErrInvalidArtifact, k.path, raw)
	}
	if v != FormatVersion {
		return fmt.Errorf("%w: %s has %d, want %d", ErrUnsupportedFormat, k.path, v, FormatVersion)
	}
	return nil
}

func (k *KB) hasTable(name string) (bool, error) {
	var count int
	err := k.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// metaValues loads all meta rows into a map.
func metaValues(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, fmt.Errorf("reading meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning meta: %w", err)
		}
		meta[key] = value
	}
	return meta, rows.Err()
}

func parseBuiltAt(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
