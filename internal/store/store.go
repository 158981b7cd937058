// Package store persists schema versions and evaluated run reports in a
// local SQLite database. The engine itself never touches storage; the
// server hands it finished reports.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"readiness/internal/engine"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrNotFound is returned when no row matches a lookup.
var ErrNotFound = errors.New("store: not found")

// Store is the SQLite-backed persistence layer.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and runs migrations.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("store: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	ddl := `
		CREATE TABLE IF NOT EXISTS assessment_schemas (
			assessment_id TEXT NOT NULL,
			version       TEXT NOT NULL,
			schema_json   TEXT NOT NULL,
			updated_at    TEXT NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY (assessment_id, version)
		);

		CREATE TABLE IF NOT EXISTS run_reports (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			token         TEXT NOT NULL,
			assessment_id TEXT NOT NULL,
			version       TEXT NOT NULL,
			report_json   TEXT NOT NULL,
			created_at    TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_reports_token ON run_reports(token, id);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// UpsertSchema stores one schema document keyed by assessment and
// version, replacing any previous copy of that version.
func (s *Store) UpsertSchema(assessmentID, version string, doc []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO assessment_schemas (assessment_id, version, schema_json, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT (assessment_id, version)
		DO UPDATE SET schema_json = excluded.schema_json, updated_at = excluded.updated_at`,
		assessmentID, version, string(doc))
	return err
}

// SchemaDocument returns the stored document for one schema version.
func (s *Store) SchemaDocument(assessmentID, version string) ([]byte, error) {
	var doc string
	err := s.db.QueryRow(`
		SELECT schema_json FROM assessment_schemas
		WHERE assessment_id = ? AND version = ?`,
		assessmentID, version).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(doc), nil
}

// SaveReport appends an evaluated report for the session token.
func (s *Store) SaveReport(token string, report *engine.Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("store: marshal report: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO run_reports (token, assessment_id, version, report_json)
		VALUES (?, ?, ?, ?)`,
		token, report.AssessmentID, report.Version, string(body))
	return err
}

// LatestReport returns the most recently saved report for the token.
func (s *Store) LatestReport(token string) (*engine.Report, error) {
	var body string
	err := s.db.QueryRow(`
		SELECT report_json FROM run_reports
		WHERE token = ? ORDER BY id DESC LIMIT 1`,
		token).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var report engine.Report
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return nil, fmt.Errorf("store: unmarshal report: %w", err)
	}
	return &report, nil
}
