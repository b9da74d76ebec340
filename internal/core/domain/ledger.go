package domain

import "time"

// LedgerEntry records that every event derived from a report has been
// durably accepted by the delivery sink. Keyed by report ID and written
// once per ID in normal operation; re-delivery is prevented by the
// "already synced" check, not by upsert semantics.
type LedgerEntry struct {
	// DocID is the source report identifier.
	DocID string

	// DeliveredAt is when the full fan-out completed.
	DeliveredAt time.Time

	// Destinations lists the program/stage pairs the events went to.
	Destinations []string

	// EventCount is the number of events produced for the report.
	EventCount int

	// Outcome is an opaque delivery-outcome token from the sink.
	Outcome string
}

// SyncStats summarises ledger state for the status surface.
type SyncStats struct {
	// TotalSynced is the count of ledger entries.
	TotalSynced int

	// LastSeq is the last committed live-tail cursor position.
	LastSeq string

	// LastSyncTime is when the cursor last advanced.
	LastSyncTime time.Time
}
