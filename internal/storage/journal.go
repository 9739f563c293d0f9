package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Export outcomes.
const (
	StatusExported = "exported"
	StatusFailed   = "failed"
)

// ExportRecord is one journal row: the outcome of exporting a single
// identifier. Registry contents are never stored.
type ExportRecord struct {
	ID         int64
	RunID      string
	Identifier string
	RegistryID int64
	Title      string
	Ref        string
	Status     string
	Stage      string
	Error      string
	CreatedAt  time.Time
}

// Journal is the SQLite-backed export history.
type Journal struct {
	db *sql.DB
}

func NewJournal(dbPath string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// RecordExport appends rec. A zero CreatedAt is set to now.
func (j *Journal) RecordExport(ctx context.Context, rec ExportRecord) error {
	if rec.Status != StatusExported && rec.Status != StatusFailed {
		return fmt.Errorf("invalid export status %q", rec.Status)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	var registryID sql.NullInt64
	if rec.RegistryID != 0 {
		registryID = sql.NullInt64{Int64: rec.RegistryID, Valid: true}
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO exports (run_id, identifier, registry_id, title, ref, status, stage, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Identifier, registryID, rec.Title, rec.Ref,
		rec.Status, rec.Stage, rec.Error, rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert export record: %w", err)
	}
	return nil
}

// RecentExports returns up to limit records, newest first.
func (j *Journal) RecentExports(ctx context.Context, limit int) ([]ExportRecord, error) {
	if limit <= 0 {
		return []ExportRecord{}, nil
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, run_id, identifier, registry_id, title, ref, status, stage, error, created_at
		FROM exports
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	out := []ExportRecord{}
	for rows.Next() {
		var (
			rec        ExportRecord
			registryID sql.NullInt64
			createdAt  string
		)
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Identifier, &registryID, &rec.Title,
			&rec.Ref, &rec.Status, &rec.Stage, &rec.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scan export record: %w", err)
		}
		rec.RegistryID = registryID.Int64
		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exports: %w", err)
	}
	return out, nil
}
