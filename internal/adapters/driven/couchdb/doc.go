// Package couchdb implements the change source port against a CouchDB
// database in the CHT layout: historical batches come from the
// medic-client/reports_by_form view, live changes from the _changes
// feed in longpoll mode.
package couchdb
