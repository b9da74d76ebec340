package dhis2

import "fmt"

// Conflict is one rejected object in a tracker import report.
type Conflict struct {
	Object string `json:"object"`
	Value  string `json:"value"`
}

// ImportError is a structured rejection from the tracker API. The
// caller logs the conflict list verbatim; no conflict is interpreted
// or retried here.
type ImportError struct {
	HTTPStatus int
	Status     string
	Message    string
	Conflicts  []Conflict
}

func (e *ImportError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("tracker import rejected (%d %s): %s", e.HTTPStatus, e.Status, e.Message)
	}
	return fmt.Sprintf("tracker import rejected (%d %s)", e.HTTPStatus, e.Status)
}
