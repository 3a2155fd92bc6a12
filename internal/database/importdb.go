package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/harmonize-mb/harmonize/internal/model"
)

// ImportDB provides SQLite-based storage for the import history.
// It is what lets a second run of the tool skip albums that were
// already imported, and what the history command reads.
//
// Design decision: We use a single database file for all runs rather
// than per-session files. Duplicate detection is a cross-session
// question by nature.
type ImportDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ImportDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Recommended; the history
	// command may read while an import run writes.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an ImportDB in the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an
// error is returned.
func Open(dbDir string, opts Options) (*ImportDB, error) {
	dbPath := filepath.Join(dbDir, "harmonize.db")

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

	// modernc.org/sqlite DSN: mode=rw prevents creating new files,
	// mode=rwc allows creation.
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

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	idb := &ImportDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := idb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return idb, nil
}

// Close closes the database connection.
func (idb *ImportDB) Close() error {
	return idb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (idb *ImportDB) createTables() error {
	schema := `
	-- Import records store one row per processed album, with the full
	-- report as JSON alongside the columns the queries need.
	CREATE TABLE IF NOT EXISTS imports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		album_url TEXT NOT NULL,
		provider TEXT NOT NULL,
		status TEXT NOT NULL,
		release_mbid TEXT,
		error TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_imports_url ON imports(album_url);
	CREATE INDEX IF NOT EXISTS idx_imports_status ON imports(status);
	CREATE INDEX IF NOT EXISTS idx_imports_timestamp ON imports(timestamp);
	`

	_, err := idb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveImport records a settled album report.
// Re-imports of the same URL insert new rows; the history keeps every
// attempt, and the queries pick the latest.
func (idb *ImportDB) SaveImport(ctx context.Context, report *model.ImportReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO imports (album_url, provider, status, release_mbid, error, report_json)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = idb.db.ExecContext(ctx, query,
		report.AlbumURL,
		report.Provider,
		string(report.Status),
		string(report.ReleaseMBID),
		report.ErrorMessage,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save import: %w", err)
	}

	return nil
}

// FindLatestByURL returns the most recent report for an album URL, or
// nil when the URL was never processed.
func (idb *ImportDB) FindLatestByURL(ctx context.Context, albumURL string) (*model.ImportReport, error) {
	query := `
	SELECT report_json FROM imports
	WHERE album_url = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := idb.db.QueryRowContext(ctx, query, albumURL).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import: %w", err)
	}

	var report model.ImportReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// WasImported reports whether an album URL already has an import with a
// release attached (newly imported or already linked). Failed and
// skipped attempts do not count.
func (idb *ImportDB) WasImported(ctx context.Context, albumURL string) (bool, error) {
	query := `
	SELECT COUNT(*) FROM imports
	WHERE album_url = ? AND status IN (?, ?)
	`

	var count int
	err := idb.db.QueryRowContext(ctx, query, albumURL,
		string(model.StatusImported), string(model.StatusAlreadyLinked)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check import history: %w", err)
	}

	return count > 0, nil
}

// ImportRecord contains summary information about one import attempt.
// This is used for displaying the history without loading full reports.
type ImportRecord struct {
	// ID is the unique identifier of the record in the database.
	ID int64

	// AlbumURL is the processed album URL.
	AlbumURL string

	// Provider is the streaming service the URL belongs to.
	Provider string

	// Status is the attempt's final status.
	Status model.Status

	// ReleaseMBID is the MusicBrainz release, when one was attached.
	ReleaseMBID string

	// ErrorMessage is the failure reason for failed attempts.
	ErrorMessage string

	// Timestamp is when the attempt was recorded.
	Timestamp time.Time
}

// ListRecent returns the most recent import attempts, newest first.
// A limit of 0 or less returns everything.
func (idb *ImportDB) ListRecent(ctx context.Context, limit int) ([]ImportRecord, error) {
	query := `
	SELECT id, album_url, provider, status, release_mbid, error, timestamp
	FROM imports
	ORDER BY timestamp DESC, id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := idb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	defer rows.Close()

	var results []ImportRecord
	for rows.Next() {
		var rec ImportRecord
		var status, timestamp string
		var mbid, errMsg sql.NullString

		if err := rows.Scan(&rec.ID, &rec.AlbumURL, &rec.Provider, &status, &mbid, &errMsg, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan import record: %w", err)
		}

		rec.Status = model.Status(status)
		rec.ReleaseMBID = mbid.String
		rec.ErrorMessage = errMsg.String
		rec.Timestamp = parseTimestamp(timestamp)
		results = append(results, rec)
	}

	return results, rows.Err()
}

// History returns every attempt for an album URL, newest first.
func (idb *ImportDB) History(ctx context.Context, albumURL string) ([]*model.ImportReport, error) {
	query := `
	SELECT report_json FROM imports
	WHERE album_url = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := idb.db.QueryContext(ctx, query, albumURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get import history: %w", err)
	}
	defer rows.Close()

	var reports []*model.ImportReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.ImportReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite may return timestamps in different formats depending
// on configuration. If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
