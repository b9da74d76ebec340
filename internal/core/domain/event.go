package domain

// EventStatus is the lifecycle status stamped on outgoing events.
// Mirrored reports are always complete by the time they are observed.
const EventStatus = "COMPLETED"

// DataValue is a single (data element, value) pair on a tracker event.
// Values are always transmitted as text.
type DataValue struct {
	DataElement string `json:"dataElement"`
	Value       string `json:"value"`
}

// TrackerEvent is the outgoing event shape accepted by the delivery
// sink. One report can produce zero, one or two events depending on
// form and eligibility. Events are constructed fresh per delivery
// attempt and never persisted independently of their ledger entry.
type TrackerEvent struct {
	// Event is an optional deterministic idempotency hint derived from
	// the source report ID. Identity assignment remains the sink's
	// responsibility; the ledger never relies on this value.
	Event string `json:"event,omitempty"`

	Program      string `json:"program"`
	ProgramStage string `json:"programStage"`
	OrgUnit      string `json:"orgUnit"`

	// OccurredAt is a full ISO 8601 date-time.
	OccurredAt string `json:"occurredAt"`

	Status   string `json:"status"`
	StoredBy string `json:"storedBy"`

	// DataValues are emitted in mapping-table order; data elements are
	// unique within one event.
	DataValues []DataValue `json:"dataValues"`

	Coordinate *Coordinate `json:"coordinate,omitempty"`
}

// Coordinate is the wire form of a report geolocation.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Destination returns the program + stage pair identifying where this
// event is delivered.
func (e *TrackerEvent) Destination() string {
	return e.Program + "/" + e.ProgramStage
}
