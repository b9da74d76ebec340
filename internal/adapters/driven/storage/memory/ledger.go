// Package memory provides in-memory store implementations used by
// tests and by dry runs that must not touch durable state.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/umoja-health/tracksync/internal/core/domain"
	"github.com/umoja-health/tracksync/internal/core/ports/driven"
)

// Ensure Ledger implements the interface.
var _ driven.Ledger = (*Ledger)(nil)

// Ledger is an in-memory implementation of driven.Ledger.
type Ledger struct {
	mu           sync.RWMutex
	entries      map[string]domain.LedgerEntry
	cursor       string
	lastSyncTime time.Time
}

// NewLedger creates a new in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{
		entries: make(map[string]domain.LedgerEntry),
	}
}

// IsSynced reports whether an entry exists for the report.
func (l *Ledger) IsSynced(_ context.Context, docID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[docID]
	return ok, nil
}

// MarkSynced records a completed fan-out. A repeat call overwrites.
func (l *Ledger) MarkSynced(_ context.Context, entry domain.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[entry.DocID] = entry
	return nil
}

// Cursor returns the last committed log position.
func (l *Ledger) Cursor(_ context.Context) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cursor, nil
}

// SetCursor persists a new log position.
func (l *Ledger) SetCursor(_ context.Context, seq string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cursor = seq
	l.lastSyncTime = time.Now()
	return nil
}

// Stats summarises ledger state.
func (l *Ledger) Stats(_ context.Context) (*domain.SyncStats, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &domain.SyncStats{
		TotalSynced:  len(l.entries),
		LastSeq:      l.cursor,
		LastSyncTime: l.lastSyncTime,
	}, nil
}

// Entry returns a copy of the stored entry, for test assertions.
func (l *Ledger) Entry(docID string) (domain.LedgerEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[docID]
	return e, ok
}

// Close is a no-op for the in-memory ledger.
func (l *Ledger) Close() error {
	return nil
}
