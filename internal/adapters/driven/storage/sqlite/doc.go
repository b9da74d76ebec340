// Package sqlite provides the durable ledger store backed by a single
// SQLite database file with embedded schema migrations.
package sqlite
