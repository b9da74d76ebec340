package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/umoja-health/tracksync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/umoja-health/tracksync/internal/core/domain"
	"github.com/umoja-health/tracksync/internal/core/ports/driven"
)

// Ensure Ledger implements the interface.
var _ driven.Ledger = (*Ledger)(nil)

// Ledger is the durable SQLite-backed sync ledger. Every mutating call
// commits before returning, so a crash after a successful call never
// loses that update.
type Ledger struct {
	db   *sql.DB
	path string
}

// NewLedger opens (or creates) the ledger database in the given data
// directory. If dataDir is empty, defaults to ~/.tracksync/data.
func NewLedger(dataDir string) (*Ledger, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tracksync", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "ledger.db")

	// WAL keeps reads cheap while the single writer commits after
	// every delivery.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	l := &Ledger{db: db, path: dbPath}

	if err := l.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return l, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.path
}

// IsSynced reports whether an entry exists for the report.
func (l *Ledger) IsSynced(ctx context.Context, docID string) (bool, error) {
	var n int
	row := l.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM synced_documents WHERE doc_id = ?", docID)
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("checking sync state: %w", err)
	}
	return n > 0, nil
}

// MarkSynced records a completed fan-out. A repeat call overwrites.
func (l *Ledger) MarkSynced(ctx context.Context, entry domain.LedgerEntry) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO synced_documents (doc_id, delivered_at, destinations, event_count, outcome)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			delivered_at = excluded.delivered_at,
			destinations = excluded.destinations,
			event_count = excluded.event_count,
			outcome = excluded.outcome
	`, entry.DocID, entry.DeliveredAt.UTC(), strings.Join(entry.Destinations, ","),
		entry.EventCount, entry.Outcome)

	if err != nil {
		return fmt.Errorf("marking synced: %w", err)
	}
	return nil
}

// Entry retrieves the ledger entry for a report.
func (l *Ledger) Entry(ctx context.Context, docID string) (*domain.LedgerEntry, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT doc_id, delivered_at, destinations, event_count, outcome
		FROM synced_documents WHERE doc_id = ?
	`, docID)

	var entry domain.LedgerEntry
	var destinations string
	if err := row.Scan(&entry.DocID, &entry.DeliveredAt, &destinations,
		&entry.EventCount, &entry.Outcome); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning ledger entry: %w", err)
	}

	if destinations != "" {
		entry.Destinations = strings.Split(destinations, ",")
	}

	return &entry, nil
}

// Cursor returns the last committed log position.
func (l *Ledger) Cursor(ctx context.Context) (string, error) {
	var seq string
	row := l.db.QueryRowContext(ctx, "SELECT last_seq FROM sync_state WHERE id = 1")
	if err := row.Scan(&seq); err != nil {
		return "", fmt.Errorf("reading cursor: %w", err)
	}
	return seq, nil
}

// SetCursor persists a new log position.
func (l *Ledger) SetCursor(ctx context.Context, seq string) error {
	_, err := l.db.ExecContext(ctx,
		"UPDATE sync_state SET last_seq = ?, last_sync = ? WHERE id = 1",
		seq, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("setting cursor: %w", err)
	}
	return nil
}

// Stats summarises ledger state.
func (l *Ledger) Stats(ctx context.Context) (*domain.SyncStats, error) {
	stats := &domain.SyncStats{}

	row := l.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM synced_documents")
	if err := row.Scan(&stats.TotalSynced); err != nil {
		return nil, fmt.Errorf("counting entries: %w", err)
	}

	var lastSync sql.NullTime
	row = l.db.QueryRowContext(ctx, "SELECT last_seq, last_sync FROM sync_state WHERE id = 1")
	if err := row.Scan(&stats.LastSeq, &lastSync); err != nil {
		return nil, fmt.Errorf("reading sync state: %w", err)
	}
	if lastSync.Valid {
		stats.LastSyncTime = lastSync.Time
	}

	return stats, nil
}

// migrate runs all pending migrations.
func (l *Ledger) migrate(fsys embed.FS) error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := l.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "0001_ledger.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := l.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := l.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
