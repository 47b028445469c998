// Package store keeps a local history of build outcomes in SQLite
package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/condatools/condagen/internal/utils"
	_ "modernc.org/sqlite"
)

// Build outcome values stored in the status column
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// BuildRecord is one row of build history
type BuildRecord struct {
	ID           int64
	Name         string
	Version      string
	BuildNumber  int
	BuildString  string
	Subdir       string
	RecipePath   string
	ArtifactPath string
	SHA256       string
	Size         int64
	Status       string
	StartedAt    time.Time
	DurationMS   int64
}

// Store wraps the history database
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cannot open history database: %w", err)
	}
	// The driver does not support concurrent writers
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("cannot configure history database: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot migrate history database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordBuild inserts one build outcome and returns its row id
func (s *Store) RecordBuild(rec *BuildRecord) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO builds
		(name, version, build_number, build_string, subdir, recipe_path,
		 artifact_path, sha256, size, status, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Name, rec.Version, rec.BuildNumber, rec.BuildString, rec.Subdir,
		rec.RecipePath, rec.ArtifactPath, rec.SHA256, rec.Size, rec.Status,
		rec.StartedAt.UnixMilli(), rec.DurationMS)
	if err != nil {
		return 0, fmt.Errorf("cannot record build: %w", err)
	}
	return res.LastInsertId()
}

// ListBuilds returns the most recent builds, newest first
func (s *Store) ListBuilds(limit int) ([]BuildRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT id, name, version, build_number, build_string,
		subdir, recipe_path, artifact_path, sha256, size, status, started_at, duration_ms
		FROM builds ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBuilds(rows)
}

// LatestSuccess returns the newest successful build of name, or nil
// when there is none
func (s *Store) LatestSuccess(name string) (*BuildRecord, error) {
	rows, err := s.db.Query(`SELECT id, name, version, build_number, build_string,
		subdir, recipe_path, artifact_path, sha256, size, status, started_at, duration_ms
		FROM builds WHERE name = ? AND status = ?
		ORDER BY started_at DESC, id DESC LIMIT 1`, name, StatusSuccess)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := scanBuilds(rows)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return &records[0], nil
}

func scanBuilds(rows *sql.Rows) ([]BuildRecord, error) {
	var records []BuildRecord
	for rows.Next() {
		var r BuildRecord
		var startedMS int64
		if err := rows.Scan(&r.ID, &r.Name, &r.Version, &r.BuildNumber, &r.BuildString,
			&r.Subdir, &r.RecipePath, &r.ArtifactPath, &r.SHA256, &r.Size, &r.Status,
			&startedMS, &r.DurationMS); err != nil {
			return nil, err
		}
		r.StartedAt = time.UnixMilli(startedMS)
		records = append(records, r)
	}
	return records, rows.Err()
}
