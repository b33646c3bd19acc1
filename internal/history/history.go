package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Conversion outcomes recorded in the journal.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	source      TEXT    NOT NULL,
	output      TEXT    NOT NULL DEFAULT '',
	target      TEXT    NOT NULL,
	status      TEXT    NOT NULL,
	error       TEXT    NOT NULL DEFAULT '',
	packets     INTEGER NOT NULL DEFAULT 0,
	renamed     TEXT    NOT NULL DEFAULT '',
	duration_ns INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversions_created_at ON conversions(created_at);
`

// History is a SQLite journal of bundle conversions
type History struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Entry is one journaled conversion.
type Entry struct {
	ID        int64
	Source    string
	Output    string
	Target    string
	Status    string
	Error     string
	Packets   int
	Renamed   string // new name of the streaming audio packet
	Duration  time.Duration
	CreatedAt time.Time
}

// Options configures journal creation and connection behavior
type Options struct {
	// Path to the SQLite database file
	Path string

	// WALMode enables Write-Ahead Logging so parallel conversions can record
	// while the journal is being read
	WALMode bool

	// BusyTimeout sets the timeout for locked database operations
	BusyTimeout time.Duration
}

// DefaultOptions returns sensible default options for the journal
func DefaultOptions(path string) *Options {
	return &Options{
		Path:        path,
		WALMode:     true,
		BusyTimeout: 30 * time.Second,
	}
}

// Open opens the journal, creating the file and its schema if needed.
func Open(ctx context.Context, options *Options) (*History, error) {
	if options == nil {
		return nil, fmt.Errorf("history options cannot be nil")
	}
	if options.Path == "" {
		return nil, fmt.Errorf("history path cannot be empty")
	}

	if err := ensureDirectory(options.Path); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", buildConnectionString(options))
	if err != nil {
		return nil, fmt.Errorf("opening history %s: %w", options.Path, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("testing history connection: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}

	return &History{db: db, path: options.Path, now: time.Now}, nil
}

// Path returns the journal file path.
func (h *History) Path() string {
	return h.path
}

// Close closes the database connection
func (h *History) Close() error {
	if h.db == nil {
		return nil
	}

	err := h.db.Close()
	h.db = nil

	if err != nil {
		return fmt.Errorf("closing history connection: %w", err)
	}
	return nil
}

// Record appends e to the journal and returns its id. A zero CreatedAt is
// replaced by the current time.
func (h *History) Record(ctx context.Context, e Entry) (int64, error) {
	if h.db == nil {
		return 0, fmt.Errorf("history connection is closed")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = h.now()
	}

	res, err := h.db.ExecContext(ctx,
		`INSERT INTO conversions (source, output, target, status, error, packets, renamed, duration_ns, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Source, e.Output, e.Target, e.Status, e.Error, e.Packets, e.Renamed,
		int64(e.Duration), e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("recording conversion: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading conversion id: %w", err)
	}
	return id, nil
}

// List returns the most recent entries, newest first. A limit of zero or
// less returns every entry.
func (h *History) List(ctx context.Context, limit int) ([]Entry, error) {
	if h.db == nil {
		return nil, fmt.Errorf("history connection is closed")
	}

	query := `SELECT id, source, output, target, status, error, packets, renamed, duration_ns, created_at
		FROM conversions ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing conversions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			durationNs int64
			createdAt  int64
		)
		if err := rows.Scan(&e.ID, &e.Source, &e.Output, &e.Target, &e.Status, &e.Error,
			&e.Packets, &e.Renamed, &durationNs, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning conversion: %w", err)
		}
		e.Duration = time.Duration(durationNs)
		e.CreatedAt = time.Unix(0, createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversions: %w", err)
	}
	return entries, nil
}

// buildConnectionString constructs the SQLite connection string with pragmas
func buildConnectionString(options *Options) string {
	var pragmas []string

	if options.WALMode {
		pragmas = append(pragmas, "_journal_mode=WAL")
	}

	if options.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("_busy_timeout=%d", int(options.BusyTimeout.Milliseconds())))
	}

	pragmas = append(pragmas, "_synchronous=NORMAL")

	return "file:" + options.Path + "?" + strings.Join(pragmas, "&")
}

// ensureDirectory creates the directory for the database file if it doesn't exist
func ensureDirectory(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
