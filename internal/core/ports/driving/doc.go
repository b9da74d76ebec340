// Package driving defines the inbound ports through which operators
// drive the sync pipeline (the CLI adapter is the only driver today).
package driving
