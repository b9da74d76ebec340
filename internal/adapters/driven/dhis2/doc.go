// Package dhis2 implements the delivery sink port against the DHIS2
// tracker import API. Events are posted one at a time with synchronous
// import so acceptance can be confirmed before the ledger is written.
package dhis2
