package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umoja-health/tracksync/internal/core/domain"
	"github.com/umoja-health/tracksync/internal/core/ports/driving"
)

// mockSyncer implements driving.Syncer for command tests.
type mockSyncer struct {
	initErr     error
	backfillErr error
	runErr      error

	backfilledForms []domain.Form
	summary         driving.BackfillSummary
	status          driving.Status
}

func (m *mockSyncer) Initialize(context.Context) error { return m.initErr }

func (m *mockSyncer) Backfill(_ context.Context, form domain.Form, _ int) (*driving.BackfillSummary, error) {
	if m.backfillErr != nil {
		return nil, m.backfillErr
	}
	m.backfilledForms = append(m.backfilledForms, form)
	s := m.summary
	return &s, nil
}

func (m *mockSyncer) Tail(context.Context) error { return nil }

func (m *mockSyncer) Run(context.Context) error { return m.runErr }

func (m *mockSyncer) Status(context.Context) (*driving.Status, error) {
	s := m.status
	return &s, nil
}

func execute(t *testing.T, mock driving.Syncer, args ...string) (string, error) {
	t.Helper()
	old := syncer
	syncer = mock
	t.Cleanup(func() { syncer = old })

	backfillForm = ""
	backfillLimit = 100

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	originalVersion := version
	version = "test-1.0.0"
	defer func() { version = originalVersion }()

	out, err := execute(t, &mockSyncer{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tracksync version test-1.0.0")
}

func TestBackfillCmd_AllForms(t *testing.T) {
	mock := &mockSyncer{summary: driving.BackfillSummary{Processed: 3, Skipped: 1}}

	out, err := execute(t, mock, "backfill")
	require.NoError(t, err)

	assert.Equal(t, domain.KnownForms, mock.backfilledForms)
	assert.Contains(t, out, "3 delivered, 1 skipped, 0 failed")
}

func TestBackfillCmd_SingleForm(t *testing.T) {
	mock := &mockSyncer{}

	_, err := execute(t, mock, "backfill", "--form", "death_review")
	require.NoError(t, err)

	assert.Equal(t, []domain.Form{domain.FormDeathReview}, mock.backfilledForms)
}

func TestBackfillCmd_UnknownFormRejected(t *testing.T) {
	mock := &mockSyncer{}

	_, err := execute(t, mock, "backfill", "--form", "pregnancy")
	require.Error(t, err)
	assert.Empty(t, mock.backfilledForms)
}

func TestBackfillCmd_InitializeFailureStops(t *testing.T) {
	mock := &mockSyncer{initErr: errors.New("source unreachable")}

	_, err := execute(t, mock, "backfill")
	require.Error(t, err)
	assert.Empty(t, mock.backfilledForms)
}

func TestStatusCmd(t *testing.T) {
	mock := &mockSyncer{status: driving.Status{
		Phase:        driving.PhaseIdle,
		TotalSynced:  42,
		Cursor:       "12-abc",
		LastSyncTime: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}}

	out, err := execute(t, mock, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Phase:        idle")
	assert.Contains(t, out, "Total synced: 42")
	assert.Contains(t, out, "Cursor:       12-abc")
	assert.Contains(t, out, "2024-06-01T10:00:00Z")
}

func TestStatusCmd_EmptyCursor(t *testing.T) {
	mock := &mockSyncer{}

	out, err := execute(t, mock, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "(none)")
	assert.Contains(t, out, "never")
}

func TestRunCmd(t *testing.T) {
	out, err := execute(t, &mockSyncer{}, "run")
	require.NoError(t, err)
	assert.Contains(t, out, "Pipeline stopped.")
}

func TestRunCmd_PipelineFailure(t *testing.T) {
	mock := &mockSyncer{runErr: errors.New("change feed failed")}

	_, err := execute(t, mock, "run")
	require.Error(t, err)
}
