package mapping

import "github.com/umoja-health/tracksync/internal/core/domain"

// reporterCadreElement receives the fixed reporter role when the form
// does not carry one.
const reporterCadreElement = "AjxNcaMDxdW" // C-MDN_Form Completed by (Cadre)

// reportDateElement receives the submission date, date-only.
const reportDateElement = "QGS1ZOw97zV" // C-MDN_Form Completed by (Date)

// deathReviewTable maps death review fields onto the community maternal
// death notification (C-MDN) stage data elements.
var deathReviewTable = []fieldMapping{
	// Patient demographics
	{source: "patient_age_in_years", dataElement: "SjKctl9bPGk"},                              // C-MDN_Age(Yrs)
	{source: "date_of_death", dataElement: "nOBOcP6XxzQ", normalize: normalizeDateTime},       // C-MDN_Date and time of Death

	// Maternal review section
	{source: "pregnant_at_death", dataElement: "J6aK3hgLN2q", scope: scopeReview, normalize: capitalizeFirst},        // C-MDN_Was the woman pregnant at the time of death?
	{source: "gavida_pregnancy", dataElement: "rSPuQwsFMN1", scope: scopeReview},                                     // C-MDN_Gravida
	{source: "parity_pregnancy", dataElement: "kzoFlZlVU18", scope: scopeReview},                                     // C-MDN_Parity
	{source: "weeks_pregnant", dataElement: "PTSRgVFkCDa", scope: scopeReview},                                       // C-MDN_How many weeks pregnant?
	{source: "days_since_childbirth", dataElement: "S8z0bxQaNqx", scope: scopeReview},                                // C-MDN_Days since childbirth
	{source: "hours_days_since", dataElement: "MvLTyFSCPgN", scope: scopeReview},                                     // C-MDN_Hours/days since childbirth/abortion/ectopic pregnancy
	{source: "marriage_status_maternal", dataElement: "vr9N7az7jCT", scope: scopeReview, normalize: capitalizeFirst}, // C-MDN_Marital status?
	{source: "educational_level_maternal", dataElement: "kdpNkAdLGwE", scope: scopeReview, normalize: normalizeEducation}, // C-MDN_Education level
	{source: "mother_occupation_maternal", dataElement: "hqP4OGUgLxu", scope: scopeReview, normalize: normalizeOccupation}, // C-MDN_Occupation?
	{source: "nationality", dataElement: "QtP5E8twVr3", scope: scopeReview, normalize: normalizeNationality},         // C-MDN_Nationality

	// Location
	{source: "chu_name", dataElement: "ZZ0TDz8rqes"},       // C-MDN_CHU Name
	{source: "chu_code_disp", dataElement: "yXRsh8aPlbs"},  // C-MDN_MCUL Code
	{source: "household_name", dataElement: "zwYtA5MEuoS"}, // C-MDN_Household No

	// Reporter
	{source: "chv_name", dataElement: "XuUjeqMdP1z"},  // C-MDN_Form Completed by (Name)
	{source: "chv_phone", dataElement: "wNIB1Wfqzvy"}, // C-MDN_Form Completed by (Telephone)
}

// deathReviewEvent builds the single C-MDN event for a death review.
func deathReviewEvent(doc *domain.Report, rctx Context) domain.TrackerEvent {
	values := applyTable(doc, deathReviewTable)

	// Reporter cadre defaults to CHA; the form has no cadre field.
	values = append(values, domain.DataValue{DataElement: reporterCadreElement, Value: "CHA"})

	if d := reportDate(doc); d != "" {
		values = append(values, domain.DataValue{DataElement: reportDateElement, Value: d})
	}

	return newEvent(doc, rctx, rctx.DeathReview, "medic-"+doc.ID, values)
}
