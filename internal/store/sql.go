package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"  // Postgres driver
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/soc-pilot/drc/internal/result"
)

type dialect struct {
	driver string
	schema string
	get    string
	put    string
	delete string
}

var sqliteDialect = dialect{
	driver: "sqlite",
	schema: `
	CREATE TABLE IF NOT EXISTS drc_reports (
		project_id TEXT PRIMARY KEY,
		report_id TEXT NOT NULL,
		passed BOOLEAN NOT NULL,
		report TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);`,
	get: `SELECT report FROM drc_reports WHERE project_id = ?`,
	put: `INSERT INTO drc_reports (project_id, report_id, passed, report, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			report_id = excluded.report_id,
			passed = excluded.passed,
			report = excluded.report,
			updated_at = excluded.updated_at`,
	delete: `DELETE FROM drc_reports WHERE project_id = ?`,
}

var postgresDialect = dialect{
	driver: "postgres",
	schema: `
	CREATE TABLE IF NOT EXISTS drc_reports (
		project_id TEXT PRIMARY KEY,
		report_id TEXT NOT NULL,
		passed BOOLEAN NOT NULL,
		report JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);`,
	get: `SELECT report FROM drc_reports WHERE project_id = $1`,
	put: `INSERT INTO drc_reports (project_id, report_id, passed, report, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project_id) DO UPDATE SET
			report_id = EXCLUDED.report_id,
			passed = EXCLUDED.passed,
			report = EXCLUDED.report,
			updated_at = EXCLUDED.updated_at`,
	delete: `DELETE FROM drc_reports WHERE project_id = $1`,
}

// SQLStore implements ReportStore on database/sql (SQLite or Postgres).
type SQLStore struct {
	db *sql.DB
	d  dialect
}

// NewSQLiteStore opens (or creates) a SQLite database at path and applies migrations.
func NewSQLiteStore(path string) (*SQLStore, error) {
	return openSQL(sqliteDialect, path)
}

// NewPostgresStore connects to Postgres and applies migrations.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	return openSQL(postgresDialect, dsn)
}

func openSQL(d dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if d.driver == "sqlite" {
		// SQLite allows one writer at a time.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(d.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &SQLStore{db: db, d: d}, nil
}

func (s *SQLStore) Get(ctx context.Context, projectID string) (*result.DRCResult, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, s.d.get, projectID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", projectID, err)
	}
	return decodeJSON(raw)
}

func (s *SQLStore) Put(ctx context.Context, projectID string, res *result.DRCResult) error {
	b, err := encodeJSON(res)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.d.put, projectID, res.ID, res.Passed, string(b), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put report %s: %w", projectID, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, projectID string) error {
	if _, err := s.db.ExecContext(ctx, s.d.delete, projectID); err != nil {
		return fmt.Errorf("delete report %s: %w", projectID, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
