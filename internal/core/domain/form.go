package domain

// Form identifies the report form type, which selects the transformation
// rule set applied to a report.
type Form string

const (
	// FormDeathReview is the community maternal death notification form.
	FormDeathReview Form = "death_review"

	// FormVerbalAutopsy is the CHA verbal autopsy form.
	FormVerbalAutopsy Form = "cha_verbal_autopsy"
)

// KnownForms lists every form the pipeline mirrors, in backfill order.
var KnownForms = []Form{FormDeathReview, FormVerbalAutopsy}

// ParseForm returns the Form matching the given name, or false if the
// name is not a mirrored form.
func ParseForm(name string) (Form, bool) {
	for _, f := range KnownForms {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

// Known reports whether the form is one the pipeline mirrors.
// Reports with unknown forms are ignored, not errored.
func (f Form) Known() bool {
	_, ok := ParseForm(string(f))
	return ok
}
