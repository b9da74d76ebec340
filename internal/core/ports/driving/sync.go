package driving

import (
	"context"
	"time"

	"github.com/umoja-health/tracksync/internal/core/domain"
)

// Phase is the orchestrator's lifecycle phase.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseBackfilling Phase = "backfilling"
	PhaseTailing     Phase = "tailing"
)

// Status is the read-only operator view of the pipeline.
type Status struct {
	Phase        Phase
	TotalSynced  int
	LastSyncTime time.Time
	Cursor       string
}

// BackfillSummary counts the outcome of one backfill pass.
type BackfillSummary struct {
	Processed int
	Skipped   int
	Failed    int
}

// Syncer drives the mirror pipeline.
type Syncer interface {
	// Initialize loads ledger state and establishes connectivity.
	// A change source failure is fatal; a sink failure is logged and
	// deferred to the first delivery.
	Initialize(ctx context.Context) error

	// Backfill drains up to limit historical reports of one form,
	// without advancing the cursor.
	Backfill(ctx context.Context, form domain.Form, limit int) (*BackfillSummary, error)

	// Tail consumes the live feed from the stored cursor until ctx is
	// cancelled. Returns nil on cooperative shutdown.
	Tail(ctx context.Context) error

	// Run performs Initialize, a backfill over every mirrored form,
	// then tails until ctx is cancelled.
	Run(ctx context.Context) error

	// Status reports the current phase and ledger stats.
	Status(ctx context.Context) (*Status, error)
}
