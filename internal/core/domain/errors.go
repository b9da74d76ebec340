package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotInitialized indicates the orchestrator was used before
	// Initialize completed successfully.
	ErrNotInitialized = errors.New("service not initialized")

	// ErrSourceUnavailable indicates the change source cannot be
	// reached. Fatal at startup: no tailing is possible without it.
	ErrSourceUnavailable = errors.New("change source unavailable")

	// ErrSinkUnavailable indicates the delivery sink cannot be reached.
	// Non-fatal at startup; delivery failures surface per-event later.
	ErrSinkUnavailable = errors.New("delivery sink unavailable")

	// ErrSyncInProgress indicates a sync run is already active.
	ErrSyncInProgress = errors.New("sync in progress")
)
