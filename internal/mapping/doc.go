// Package mapping transforms source reports into tracker events.
//
// Routing is pure and deterministic: the same report and context always
// produce the same events, in the same field order. Each form owns its
// mapping table and normaliser set; the verbal autopsy form fans out
// into independent maternal and perinatal branches based on computed
// eligibility.
package mapping
