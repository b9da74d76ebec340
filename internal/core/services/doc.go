// Package services implements the driving port interfaces.
// The orchestrator holds the pipeline's delivery and cursor rules and
// coordinates calls to driven ports (adapters).
package services
