package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/phishscan/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "phishscan.db"

// DefaultListLimit caps ListDetections when no limit is given.
const DefaultListLimit = 50

// checkedAtFormat is fixed-width so that string order equals time order.
const checkedAtFormat = "2006-01-02T15:04:05.000000000Z07:00"

var (
	// ErrNotFound is returned when a detection ID is not stored.
	ErrNotFound = errors.New("detection not found")

	// ErrNilDetection is returned by SaveDetection for a nil detection.
	ErrNilDetection = errors.New("detection is nil")
)

// HistoryDB stores detection reports in SQLite.
// It is safe for concurrent use.
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

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB inside dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
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
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
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
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		detection_id TEXT NOT NULL UNIQUE,
		url TEXT NOT NULL,
		domain TEXT NOT NULL DEFAULT '',
		phishing INTEGER NOT NULL,
		decided_by TEXT NOT NULL DEFAULT '',
		model_fingerprint TEXT NOT NULL DEFAULT '',
		checked_at TEXT NOT NULL,
		detection_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_detections_domain ON detections(domain);
	CREATE INDEX IF NOT EXISTS idx_detections_checked_at ON detections(checked_at);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// SaveDetection stores a detection. Saving the same detection ID again
// replaces the stored copy.
func (h *HistoryDB) SaveDetection(ctx context.Context, d *model.Detection) error {
	if d == nil {
		return ErrNilDetection
	}

	detectionJSON, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to serialize detection: %w", err)
	}

	query := `
	INSERT INTO detections (detection_id, url, domain, phishing, decided_by, model_fingerprint, checked_at, detection_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(detection_id) DO UPDATE SET
		url = excluded.url,
		domain = excluded.domain,
		phishing = excluded.phishing,
		decided_by = excluded.decided_by,
		model_fingerprint = excluded.model_fingerprint,
		checked_at = excluded.checked_at,
		detection_json = excluded.detection_json
	`

	_, err = h.db.ExecContext(ctx, query,
		d.ID,
		d.URL,
		d.Domain,
		d.Phishing,
		string(d.DecidedBy),
		d.ModelFingerprint,
		d.DateChecked.UTC().Format(checkedAtFormat),
		string(detectionJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save detection: %w", err)
	}
	return nil
}

// GetDetection retrieves a detection by its ID.
// It returns ErrNotFound when no detection has that ID.
func (h *HistoryDB) GetDetection(ctx context.Context, id string) (*model.Detection, error) {
	query := `SELECT detection_json FROM detections WHERE detection_id = ?`

	var detectionJSON string
	err := h.db.QueryRowContext(ctx, query, id).Scan(&detectionJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get detection: %w", err)
	}

	var d model.Detection
	if err := json.Unmarshal([]byte(detectionJSON), &d); err != nil {
		return nil, fmt.Errorf("failed to parse detection: %w", err)
	}
	return &d, nil
}

// ListFilter narrows ListDetections.
type ListFilter struct {
	// Domain keeps detections whose canonical domain matches exactly.
	Domain string

	// PhishingOnly keeps detections with a phishing verdict.
	PhishingOnly bool

	// Limit caps the number of results. Zero means DefaultListLimit.
	Limit int
}

// ListDetections returns stored detections, newest first.
// Malformed rows are skipped.
func (h *HistoryDB) ListDetections(ctx context.Context, filter ListFilter) ([]*model.Detection, error) {
	var (
		where []string
		args  []any
	)
	if filter.Domain != "" {
		where = append(where, "domain = ?")
		args = append(args, filter.Domain)
	}
	if filter.PhishingOnly {
		where = append(where, "phishing = 1")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := "SELECT detection_json FROM detections"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY checked_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	defer rows.Close()

	var detections []*model.Detection
	for rows.Next() {
		var detectionJSON string
		if err := rows.Scan(&detectionJSON); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}

		var d model.Detection
		if err := json.Unmarshal([]byte(detectionJSON), &d); err != nil {
			continue
		}
		detections = append(detections, &d)
	}
	return detections, rows.Err()
}

// DomainStat summarizes the stored checks for one canonical domain.
type DomainStat struct {
	// Domain is the canonical domain.
	Domain string `json:"domain"`

	// Checks is the number of stored detections.
	Checks int `json:"checks"`

	// Phishing is the number of stored detections with a phishing verdict.
	Phishing int `json:"phishing"`

	// LastChecked is the time of the newest stored detection.
	LastChecked time.Time `json:"last_checked"`
}

// Domains returns per-domain statistics ordered by domain name.
// Detections without a canonical domain are omitted.
func (h *HistoryDB) Domains(ctx context.Context) ([]DomainStat, error) {
	query := `
	SELECT domain, COUNT(*), SUM(phishing), MAX(checked_at)
	FROM detections
	WHERE domain != ''
	GROUP BY domain
	ORDER BY domain
	`

	rows, err := h.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	var stats []DomainStat
	for rows.Next() {
		var (
			s         DomainStat
			timestamp string
		)
		if err := rows.Scan(&s.Domain, &s.Checks, &s.Phishing, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		s.LastChecked = parseTimestamp(timestamp)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05", // ISO 8601 without timezone
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
