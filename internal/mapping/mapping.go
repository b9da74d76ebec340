package mapping

import (
	"time"

	"github.com/umoja-health/tracksync/internal/core/domain"
)

// Destination is a tracker program + stage pair.
type Destination struct {
	Program      string
	ProgramStage string
}

// Context carries the routing configuration: destination identifiers
// per form branch and the fallback organisation unit used when a report
// does not carry its own tracker-assigned unit.
type Context struct {
	DefaultOrgUnit string
	DeathReview    Destination
	MaternalVA     Destination
	PerinatalVA    Destination
}

// fieldScope selects where a mapped field is read from on the report.
type fieldScope int

const (
	scopeFields fieldScope = iota
	scopeReview
)

// fieldMapping binds one source field to a target data element, with an
// optional per-field normaliser.
type fieldMapping struct {
	source      string
	dataElement string
	scope       fieldScope
	normalize   func(string) string
}

// Route transforms a report into zero or more tracker events.
//
// Pure and deterministic. Unknown forms and ineligible reports return
// an empty slice together with a human-readable skip reason; they are
// never errors.
func Route(doc *domain.Report, rctx Context) ([]domain.TrackerEvent, string) {
	switch doc.Form {
	case domain.FormDeathReview:
		return []domain.TrackerEvent{deathReviewEvent(doc, rctx)}, ""
	case domain.FormVerbalAutopsy:
		return routeVerbalAutopsy(doc, rctx)
	default:
		return nil, "unknown form " + string(doc.Form)
	}
}

// applyTable maps report fields through a mapping table in declared
// order. A field is emitted only when its source value is present and
// non-empty after normalisation; absent optionals are omitted entirely.
func applyTable(doc *domain.Report, table []fieldMapping) []domain.DataValue {
	values := make([]domain.DataValue, 0, len(table))
	for _, m := range table {
		var raw string
		switch m.scope {
		case scopeReview:
			raw = doc.ReviewField(m.source)
		default:
			raw = doc.Field(m.source)
		}
		if raw == "" {
			continue
		}
		if m.normalize != nil {
			raw = m.normalize(raw)
		}
		if raw == "" {
			continue
		}
		values = append(values, domain.DataValue{DataElement: m.dataElement, Value: raw})
	}
	return values
}

// occurredAt resolves the event timestamp: the report's date of death
// when present, else its submission time. Either way the value is a
// full ISO 8601 date-time.
func occurredAt(doc *domain.Report) string {
	if d := doc.Field("date_of_death"); d != "" {
		return normalizeDateTime(d)
	}
	if !doc.ReportedAt.IsZero() {
		return doc.ReportedAt.UTC().Format("2006-01-02T15:04:05.000Z")
	}
	return ""
}

// reportDate renders the submission date in date-only form for the
// "form completed on" data element.
func reportDate(doc *domain.Report) string {
	if doc.ReportedAt.IsZero() {
		return ""
	}
	return doc.ReportedAt.UTC().Format(time.DateOnly)
}

// orgUnit prefers the report's tracker-assigned unit over the context
// fallback. First wins when both are present.
func orgUnit(doc *domain.Report, rctx Context) string {
	if u := doc.Field("chu_tracker_id"); u != "" {
		return u
	}
	return rctx.DefaultOrgUnit
}

// storedBy identifies the reporting health volunteer, with the
// integration identity as fallback.
func storedBy(doc *domain.Report) string {
	if name := doc.Field("chv_name"); name != "" {
		return name
	}
	return "medic-integration"
}

// coordinate converts the report geolocation, when present.
func coordinate(doc *domain.Report) *domain.Coordinate {
	g := doc.Geolocation
	if g == nil || g.Latitude == 0 && g.Longitude == 0 {
		return nil
	}
	return &domain.Coordinate{Latitude: g.Latitude, Longitude: g.Longitude}
}

// newEvent assembles the common event envelope for one destination.
// The event hint is a deterministic key derived from the document ID,
// sent to the sink for idempotency only; ledger correctness never
// depends on it.
func newEvent(doc *domain.Report, rctx Context, dest Destination, hint string, values []domain.DataValue) domain.TrackerEvent {
	return domain.TrackerEvent{
		Event:        hint,
		Program:      dest.Program,
		ProgramStage: dest.ProgramStage,
		OrgUnit:      orgUnit(doc, rctx),
		OccurredAt:   occurredAt(doc),
		Status:       domain.EventStatus,
		StoredBy:     storedBy(doc),
		DataValues:   values,
		Coordinate:   coordinate(doc),
	}
}
