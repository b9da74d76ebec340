package domain

import (
	"strconv"
	"time"
)

// Geopoint is a latitude/longitude pair captured on a report.
type Geopoint struct {
	Latitude  float64
	Longitude float64
}

// Report represents a source document observed in the record log.
// It is immutable once observed.
type Report struct {
	// ID is the opaque, stable document identifier.
	ID string

	// Form discriminates the transformation rule set.
	Form Form

	// Fields holds the raw form fields. Values are untyped: strings,
	// numbers and nested maps (e.g. the "group_review" section).
	Fields map[string]any

	// Geolocation is the capture location, if recorded.
	Geolocation *Geopoint

	// ReportedAt is when the report was submitted, if recorded.
	ReportedAt time.Time

	// Seq is the log position assigned by the change source at append
	// time. Empty for reports fetched via a historical batch query.
	Seq string
}

// Field returns the top-level field value as a string, or "" if the
// field is absent, empty or not a scalar.
func (r *Report) Field(name string) string {
	return stringValue(r.Fields[name])
}

// ReviewField returns a field from the nested "group_review" section
// as a string, or "" if absent.
func (r *Report) ReviewField(name string) string {
	review, ok := r.Fields["group_review"].(map[string]any)
	if !ok {
		return ""
	}
	return stringValue(review[name])
}

// stringValue renders a scalar field value as text. Numbers keep their
// shortest decimal representation; everything else non-string is dropped.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return trimFloat(val)
	case int:
		return trimFloat(float64(val))
	case int64:
		return trimFloat(float64(val))
	default:
		return ""
	}
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
