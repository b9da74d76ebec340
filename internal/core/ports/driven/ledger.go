package driven

import (
	"context"

	"github.com/umoja-health/tracksync/internal/core/domain"
)

// Ledger is the durable idempotency record of delivered reports plus
// the single live-tail cursor. Every mutating call persists fully
// before returning; a crash immediately after a successful call never
// loses that update. The ledger is single-writer (the orchestrator).
type Ledger interface {
	// IsSynced reports whether a ledger entry exists for the report.
	IsSynced(ctx context.Context, docID string) (bool, error)

	// MarkSynced records a completed fan-out. A second call for the
	// same ID overwrites; callers gate on IsSynced first.
	MarkSynced(ctx context.Context, entry domain.LedgerEntry) error

	// Cursor returns the last committed log position, or "" when no
	// position has been committed yet.
	Cursor(ctx context.Context) (string, error)

	// SetCursor persists a new log position. Only the tailing phase
	// calls this, and only after a report's full fan-out succeeded.
	SetCursor(ctx context.Context, seq string) error

	// Stats summarises ledger state.
	Stats(ctx context.Context) (*domain.SyncStats, error)

	// Close releases the underlying store.
	Close() error
}
