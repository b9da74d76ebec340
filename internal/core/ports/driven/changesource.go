package driven

import (
	"context"

	"github.com/umoja-health/tracksync/internal/core/domain"
)

// Change is one report observed on the live change feed together with
// the log position to commit after the report's fan-out is delivered.
type Change struct {
	Report domain.Report
	Seq    string
}

// ChangeSource yields reports from an append-only, sequence-ordered
// record log. Tombstoned entries are excluded before reaching the core.
type ChangeSource interface {
	// Ping verifies connectivity. A failing change source is fatal at
	// startup: no tailing is possible without it.
	Ping(ctx context.Context) error

	// FetchBatch returns up to limit historical reports of the given
	// form, in log order. Used by backfill; positions on the returned
	// reports are not cursor-committable.
	FetchBatch(ctx context.Context, form domain.Form, limit int) ([]domain.Report, error)

	// Subscribe opens a live feed starting strictly after since,
	// filtered to mirrored forms. The change channel closes when ctx is
	// cancelled. Connection-level failures surface on the error channel
	// and terminate the feed.
	Subscribe(ctx context.Context, since string) (<-chan Change, <-chan error)
}
