// Package driven defines the outbound ports consumed by the core:
// the change source, the delivery sink and the sync ledger.
// Adapters under internal/adapters/driven implement these interfaces.
package driven
