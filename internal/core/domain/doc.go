// Package domain contains the core types shared across the sync pipeline:
// source reports, tracker events, ledger entries and domain errors.
// Types here carry no behaviour beyond simple accessors and are free of
// adapter concerns.
package domain
