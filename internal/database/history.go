package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/web2proposal/internal/model"
)

// FileName is the name of the history database inside its directory.
const FileName = "web2proposal.db"

var (
	// ErrRunNotFound is returned when no run matches the requested ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrAmbiguousID is returned when an ID prefix matches more than one run.
	ErrAmbiguousID = errors.New("run id prefix is ambiguous")
)

// HistoryDB stores completed runs.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per completed run, with the full run serialized as JSON
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		input_file TEXT,
		output_file TEXT,
		title TEXT,
		mode TEXT NOT NULL,
		model TEXT,
		url_count INTEGER NOT NULL DEFAULT 0,
		page_count INTEGER NOT NULL DEFAULT 0,
		fallbacks TEXT,
		run_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Pages fetched by each run, in input order
	CREATE TABLE IF NOT EXISTS run_pages (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		title TEXT,
		UNIQUE(run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_run_pages_url ON run_pages(url);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunMetadata contains summary information about a stored run.
// This is used for listing history without loading the full run.
type RunMetadata struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	InputFile  string
	OutputFile string
	Title      string
	Mode       string
	Model      string
	URLCount   int
	PageCount  int
	Fallbacks  []string
}

// SaveRun stores run, replacing any earlier copy with the same ID.
func (hdb *HistoryDB) SaveRun(ctx context.Context, run *model.Run) (err error) {
	runJSON, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to serialize run: %w", err)
	}
	fallbacksJSON, err := json.Marshal(run.FallbackStages())
	if err != nil {
		return fmt.Errorf("failed to serialize fallbacks: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
	INSERT OR REPLACE INTO runs
		(id, started_at, finished_at, input_file, output_file, title, mode, model,
		 url_count, page_count, fallbacks, run_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err = tx.ExecContext(ctx, query,
		run.ID,
		formatTimestamp(run.StartedAt),
		formatTimestamp(run.FinishedAt),
		run.InputFile,
		run.OutputFile,
		run.Title,
		run.Mode(),
		run.Model,
		len(run.URLs),
		len(run.Pages),
		string(fallbacksJSON),
		string(runJSON),
	); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM run_pages WHERE run_id = ?", run.ID); err != nil {
		return fmt.Errorf("failed to clear run pages: %w", err)
	}
	for i, p := range run.Pages {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO run_pages (run_id, position, url, title) VALUES (?, ?, ?, ?)",
			run.ID, i, p.URL, p.Title,
		); err != nil {
			return fmt.Errorf("failed to save run page: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by its full ID. Returns nil, nil when no such run exists.
func (hdb *HistoryDB) GetRun(ctx context.Context, id string) (*model.Run, error) {
	var runJSON string
	err := hdb.db.QueryRowContext(ctx, "SELECT run_json FROM runs WHERE id = ?", id).Scan(&runJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run model.Run
	if err := json.Unmarshal([]byte(runJSON), &run); err != nil {
		return nil, fmt.Errorf("failed to parse run: %w", err)
	}
	return &run, nil
}

// ResolveID expands an ID prefix to the full ID of the single run it matches.
func (hdb *HistoryDB) ResolveID(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", ErrRunNotFound
	}

	rows, err := hdb.db.QueryContext(ctx,
		"SELECT id FROM runs WHERE substr(id, 1, ?) = ? LIMIT 2",
		len(prefix), prefix,
	)
	if err != nil {
		return "", fmt.Errorf("failed to resolve run id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
	}
}

const metadataColumns = `id, started_at, finished_at, input_file, output_file, title, mode, model,
	url_count, page_count, fallbacks`

// ListRuns returns metadata for the most recent runs, newest first.
// A limit of zero or less returns all runs.
func (hdb *HistoryDB) ListRuns(ctx context.Context, limit int) ([]RunMetadata, error) {
	query := "SELECT " + metadataColumns + " FROM runs ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	return scanMetadata(rows)
}

// RunsForURL returns metadata for the runs that fetched url, newest first.
func (hdb *HistoryDB) RunsForURL(ctx context.Context, url string) ([]RunMetadata, error) {
	query := "SELECT " + metadataColumns + ` FROM runs
	WHERE id IN (SELECT run_id FROM run_pages WHERE url = ?)
	ORDER BY started_at DESC`

	rows, err := hdb.db.QueryContext(ctx, query, url)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs by url: %w", err)
	}
	defer rows.Close()

	return scanMetadata(rows)
}

// DeleteRun removes a run and its pages.
func (hdb *HistoryDB) DeleteRun(ctx context.Context, id string) error {
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM run_pages WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete run pages: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return tx.Commit()
}

func scanMetadata(rows *sql.Rows) ([]RunMetadata, error) {
	results := []RunMetadata{}
	for rows.Next() {
		var (
			meta                        RunMetadata
			startedAt                   string
			finishedAt, input, output   sql.NullString
			title, modelName, fallbacks sql.NullString
		)
		if err := rows.Scan(
			&meta.ID, &startedAt, &finishedAt, &input, &output, &title, &meta.Mode, &modelName,
			&meta.URLCount, &meta.PageCount, &fallbacks,
		); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.StartedAt = parseTimestamp(startedAt)
		meta.FinishedAt = parseTimestamp(finishedAt.String)
		meta.InputFile = input.String
		meta.OutputFile = output.String
		meta.Title = title.String
		meta.Model = modelName.String

		meta.Fallbacks = []string{}
		if fallbacks.Valid && fallbacks.String != "" {
			if err := json.Unmarshal([]byte(fallbacks.String), &meta.Fallbacks); err != nil {
				meta.Fallbacks = []string{}
			}
		}

		results = append(results, meta)
	}
	return results, rows.Err()
}

// timestampLayout sorts lexically in chronological order for UTC values.
const timestampLayout = "2006-01-02 15:04:05.000000"

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05",  // SQLite default datetime format
	"2006-01-02T15:04:05Z", // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",  // ISO 8601 without timezone
	time.RFC3339,
	time.RFC3339Nano,
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
