package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umoja-health/tracksync/internal/core/domain"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewLedger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestNewLedger_CreatesDatabase(t *testing.T) {
	l := newTestLedger(t)
	assert.NotEmpty(t, l.Path())
}

func TestLedger_IsSynced_Unknown(t *testing.T) {
	l := newTestLedger(t)

	synced, err := l.IsSynced(context.Background(), "doc-1")

	require.NoError(t, err)
	assert.False(t, synced)
}

func TestLedger_MarkSynced_RoundTrip(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	delivered := time.Date(2024, 3, 2, 10, 15, 0, 0, time.UTC)
	entry := domain.LedgerEntry{
		DocID:        "doc-1",
		DeliveredAt:  delivered,
		Destinations: []string{"ahx6MVXyFZZ/mVaStage0001", "ahx6MVXyFZZ/pVaStage0001"},
		EventCount:   2,
		Outcome:      "OK",
	}
	require.NoError(t, l.MarkSynced(ctx, entry))

	synced, err := l.IsSynced(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, synced)

	got, err := l.Entry(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.DocID)
	assert.Equal(t, entry.Destinations, got.Destinations)
	assert.Equal(t, 2, got.EventCount)
	assert.Equal(t, "OK", got.Outcome)
	assert.Equal(t, delivered.Unix(), got.DeliveredAt.Unix())
}

func TestLedger_Entry_NotFound(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Entry(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedger_MarkSynced_Overwrites(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.MarkSynced(ctx, domain.LedgerEntry{
		DocID: "doc-1", DeliveredAt: time.Now(), EventCount: 1, Outcome: "OK",
	}))
	require.NoError(t, l.MarkSynced(ctx, domain.LedgerEntry{
		DocID: "doc-1", DeliveredAt: time.Now(), EventCount: 2, Outcome: "WARNING",
	}))

	got, err := l.Entry(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.EventCount)
	assert.Equal(t, "WARNING", got.Outcome)
}

func TestLedger_Cursor_InitiallyEmpty(t *testing.T) {
	l := newTestLedger(t)

	cur, err := l.Cursor(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "", cur)
}

func TestLedger_SetCursor_RoundTrip(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.SetCursor(ctx, "128-g1AAAAB"))

	cur, err := l.Cursor(ctx)
	require.NoError(t, err)
	assert.Equal(t, "128-g1AAAAB", cur)
}

func TestLedger_Stats(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.MarkSynced(ctx, domain.LedgerEntry{DocID: "a", DeliveredAt: time.Now()}))
	require.NoError(t, l.MarkSynced(ctx, domain.LedgerEntry{DocID: "b", DeliveredAt: time.Now()}))
	require.NoError(t, l.SetCursor(ctx, "9-seq"))

	stats, err := l.Stats(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSynced)
	assert.Equal(t, "9-seq", stats.LastSeq)
	assert.False(t, stats.LastSyncTime.IsZero())
}

func TestLedger_StateSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	l, err := NewLedger(dir)
	require.NoError(t, err)
	require.NoError(t, l.MarkSynced(ctx, domain.LedgerEntry{
		DocID: "doc-1", DeliveredAt: time.Now(), EventCount: 1, Outcome: "OK",
	}))
	require.NoError(t, l.SetCursor(ctx, "55-abc"))
	require.NoError(t, l.Close())

	// Reopen against the same directory, as a restarted process would.
	reopened, err := NewLedger(dir)
	require.NoError(t, err)
	defer reopened.Close()

	synced, err := reopened.IsSynced(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, synced)

	cur, err := reopened.Cursor(ctx)
	require.NoError(t, err)
	assert.Equal(t, "55-abc", cur)

	stats, err := reopened.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalSynced)
}

func TestLedger_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	l, err := NewLedger(dir)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	// A second open must not re-run or fail migrations.
	l2, err := NewLedger(dir)
	require.NoError(t, err)
	assert.NoError(t, l2.Close())
}
