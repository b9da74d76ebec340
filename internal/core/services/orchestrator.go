package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/umoja-health/tracksync/internal/core/domain"
	"github.com/umoja-health/tracksync/internal/core/ports/driven"
	"github.com/umoja-health/tracksync/internal/core/ports/driving"
	"github.com/umoja-health/tracksync/internal/mapping"
)

// Ensure Orchestrator implements the interface.
var _ driving.Syncer = (*Orchestrator)(nil)

// Orchestrator coordinates the mirror pipeline: backfill of historical
// reports, then live tailing of the change feed. One report at a time,
// fully delivered and recorded before the next is touched.
type Orchestrator struct {
	source driven.ChangeSource
	sink   driven.DeliverySink
	ledger driven.Ledger

	routeCtx   mapping.Context
	pace       time.Duration
	batchLimit int
	logger     *zap.Logger

	mu          sync.RWMutex
	phase       driving.Phase
	initialized bool

	// now is swappable for tests.
	now func() time.Time
}

// NewOrchestrator creates a pipeline orchestrator. All dependencies
// are required; pace may be zero to disable backfill pacing and
// batchLimit zero to use the default batch size.
func NewOrchestrator(
	source driven.ChangeSource,
	sink driven.DeliverySink,
	ledger driven.Ledger,
	routeCtx mapping.Context,
	pace time.Duration,
	batchLimit int,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		source:     source,
		sink:       sink,
		ledger:     ledger,
		routeCtx:   routeCtx,
		pace:       pace,
		batchLimit: batchLimit,
		logger:     logger,
		phase:      driving.PhaseIdle,
		now:        time.Now,
	}
}

// Initialize verifies connectivity and ledger state. The change source
// must be reachable; an unreachable sink only degrades startup, since
// delivery failures are detected per event anyway.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	if err := o.source.Ping(ctx); err != nil {
		return fmt.Errorf("change source unreachable: %w", err)
	}

	if err := o.sink.Ping(ctx); err != nil {
		o.logger.Warn("delivery sink unreachable at startup, deferring to first delivery",
			zap.Error(err))
	}

	cursor, err := o.ledger.Cursor(ctx)
	if err != nil {
		return fmt.Errorf("reading cursor: %w", err)
	}

	runID := uuid.NewString()

	o.mu.Lock()
	o.initialized = true
	o.logger = o.logger.With(zap.String("run_id", runID))
	o.mu.Unlock()

	o.logger.Info("pipeline initialized", zap.String("cursor", cursor))
	return nil
}

// Backfill drains up to limit historical reports of one form. Already
// synced reports are skipped via the ledger; the cursor is never
// touched here. Deliveries are paced to protect small instances.
func (o *Orchestrator) Backfill(ctx context.Context, form domain.Form, limit int) (*driving.BackfillSummary, error) {
	if err := o.requireInitialized(); err != nil {
		return nil, err
	}
	if err := o.enterPhase(driving.PhaseBackfilling); err != nil {
		return nil, err
	}
	defer o.leavePhase()

	reports, err := o.source.FetchBatch(ctx, form, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching %s batch: %w", form, err)
	}

	o.logger.Info("backfill batch fetched",
		zap.String("form", string(form)),
		zap.Int("count", len(reports)))

	limiter := rate.NewLimiter(rate.Inf, 1)
	if o.pace > 0 {
		limiter = rate.NewLimiter(rate.Every(o.pace), 1)
	}

	summary := &driving.BackfillSummary{}
	for i := range reports {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		delivered, err := o.deliverReport(ctx, &reports[i])
		switch {
		case err != nil:
			summary.Failed++
			o.logger.Error("backfill delivery failed",
				zap.String("doc_id", reports[i].ID),
				zap.Error(err))
		case delivered:
			summary.Processed++
			if err := limiter.Wait(ctx); err != nil {
				return summary, err
			}
		default:
			summary.Skipped++
		}
	}

	o.logger.Info("backfill pass complete",
		zap.String("form", string(form)),
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))

	return summary, nil
}

// Tail consumes the live change feed from the stored cursor. The
// cursor advances only after a report's full fan-out succeeded and its
// ledger entry is written. A delivery failure is contained to its
// report: the change is skipped and tailing continues. Only feed
// failures end the loop. Returns nil on cooperative shutdown.
func (o *Orchestrator) Tail(ctx context.Context) error {
	if err := o.requireInitialized(); err != nil {
		return err
	}
	if err := o.enterPhase(driving.PhaseTailing); err != nil {
		return err
	}
	defer o.leavePhase()

	since, err := o.ledger.Cursor(ctx)
	if err != nil {
		return fmt.Errorf("reading cursor: %w", err)
	}

	o.logger.Info("tailing change feed", zap.String("since", since))
	changes, errs := o.source.Subscribe(ctx, since)

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-errs:
			return fmt.Errorf("change feed failed: %w", err)

		case change, ok := <-changes:
			if !ok {
				// The adapter may close the change channel right after
				// queueing a connection error; drain it so the failure
				// reaches the process boundary instead of vanishing.
				select {
				case err := <-errs:
					return fmt.Errorf("change feed failed: %w", err)
				default:
				}
				return nil
			}

			if _, err := o.deliverReport(ctx, &change.Report); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				// A failed report is skipped: no ledger entry, no
				// cursor advance for it. The missing entry keeps it
				// eligible for a later backfill pass.
				o.logger.Error("delivery failed, skipping report",
					zap.String("doc_id", change.Report.ID),
					zap.String("seq", change.Seq),
					zap.Error(err))
				continue
			}

			if err := o.ledger.SetCursor(ctx, change.Seq); err != nil {
				// The ledger entry is already durable, so the report
				// cannot be re-delivered; the stale cursor only causes
				// a harmless re-read after restart.
				o.logger.Warn("cursor write failed",
					zap.String("seq", change.Seq),
					zap.Error(err))
			}
		}
	}
}

// Run executes the full pipeline: initialize, backfill every mirrored
// form, then tail until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.Initialize(ctx); err != nil {
		return err
	}

	for _, form := range domain.KnownForms {
		if _, err := o.Backfill(ctx, form, o.backfillLimit()); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("backfill %s: %w", form, err)
		}
	}

	return o.Tail(ctx)
}

// Status reports the current phase and ledger stats.
func (o *Orchestrator) Status(ctx context.Context) (*driving.Status, error) {
	stats, err := o.ledger.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading ledger stats: %w", err)
	}

	o.mu.RLock()
	phase := o.phase
	o.mu.RUnlock()

	return &driving.Status{
		Phase:        phase,
		TotalSynced:  stats.TotalSynced,
		LastSyncTime: stats.LastSyncTime,
		Cursor:       stats.LastSeq,
	}, nil
}

// deliverReport runs the per-report sequence: idempotency check, route,
// sequential event delivery, then the ledger write. Returns true when
// events were delivered, false when the report was skipped. On a
// delivery failure mid fan-out nothing is recorded and already sent
// events are left in place; the sink's create-or-update import makes
// the eventual retry of the whole fan-out safe.
func (o *Orchestrator) deliverReport(ctx context.Context, report *domain.Report) (bool, error) {
	synced, err := o.ledger.IsSynced(ctx, report.ID)
	if err != nil {
		return false, fmt.Errorf("ledger check: %w", err)
	}
	if synced {
		o.logger.Debug("already synced, skipping", zap.String("doc_id", report.ID))
		return false, nil
	}

	events, skipReason := mapping.Route(report, o.routeCtx)
	if len(events) == 0 {
		o.logger.Debug("no events for report",
			zap.String("doc_id", report.ID),
			zap.String("reason", skipReason))
		return false, nil
	}

	entry := domain.LedgerEntry{
		DocID:       report.ID,
		DeliveredAt: o.now().UTC(),
		EventCount:  len(events),
	}

	for i := range events {
		outcome, err := o.sink.Deliver(ctx, events[i])
		if err != nil {
			return false, fmt.Errorf("event %d/%d to %s: %w",
				i+1, len(events), events[i].Destination(), err)
		}
		entry.Destinations = append(entry.Destinations, events[i].Destination())
		entry.Outcome = outcome.Status
	}

	if err := o.ledger.MarkSynced(ctx, entry); err != nil {
		return false, fmt.Errorf("recording delivery of %s: %w", report.ID, err)
	}

	o.logger.Info("report delivered",
		zap.String("doc_id", report.ID),
		zap.String("form", string(report.Form)),
		zap.Int("events", len(events)),
		zap.Strings("destinations", entry.Destinations))

	return true, nil
}

func (o *Orchestrator) requireInitialized() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if !o.initialized {
		return domain.ErrNotInitialized
	}
	return nil
}

// enterPhase transitions from idle; only one phase runs at a time.
func (o *Orchestrator) enterPhase(phase driving.Phase) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != driving.PhaseIdle {
		return fmt.Errorf("%w: currently %s", domain.ErrSyncInProgress, o.phase)
	}
	o.phase = phase
	return nil
}

func (o *Orchestrator) leavePhase() {
	o.mu.Lock()
	o.phase = driving.PhaseIdle
	o.mu.Unlock()
}

func (o *Orchestrator) backfillLimit() int {
	if o.batchLimit > 0 {
		return o.batchLimit
	}
	return 100
}
