package mapping

import (
	"strconv"

	"github.com/umoja-health/tracksync/internal/core/domain"
)

// Eligibility thresholds in days, against the approximate age formula.
const (
	perinatalMaxAgeDays = 28
	maternalMinAgeDays  = 10 * daysPerYear
	maternalMaxAgeDays  = 49 * daysPerYear
)

// maternalVATable maps verbal autopsy fields onto the maternal death
// surveillance VA stage.
var maternalVATable = []fieldMapping{
	{source: "patient_age_in_years", dataElement: "Xk1qJHVmbN3"},                        // MDSR-VA_Age (years)
	{source: "patient_sex", dataElement: "cWz8qYfDmK2", normalize: capitalizeFirst},     // MDSR-VA_Sex
	{source: "date_of_death", dataElement: "tGpRw4vyNQ8", normalize: normalizeDateTime}, // MDSR-VA_Date of death

	{source: "pregnant_at_death", dataElement: "bHJfVm2ZqLc", scope: scopeReview, normalize: capitalizeFirst},       // MDSR-VA_Pregnant at time of death
	{source: "weeks_pregnant", dataElement: "eRtYn6sWvP4", scope: scopeReview},                                      // MDSR-VA_Weeks pregnant
	{source: "place_of_death", dataElement: "mQsXc8KfJd5", scope: scopeReview, normalize: capitalizeFirst},          // MDSR-VA_Place of death
	{source: "probable_cause_of_death", dataElement: "uVbNh3TgRw7", scope: scopeReview},                             // MDSR-VA_Probable cause of death
	{source: "mother_occupation_maternal", dataElement: "jKpLm9XsDf6", scope: scopeReview, normalize: normalizeOccupation}, // MDSR-VA_Occupation

	{source: "chv_name", dataElement: "pWdRt2YvBn8"},  // MDSR-VA_Form Completed by (Name)
	{source: "chv_phone", dataElement: "gHsJk5MqXc9"}, // MDSR-VA_Form Completed by (Telephone)
}

// perinatalVATable maps verbal autopsy fields onto the perinatal death
// surveillance VA stage.
var perinatalVATable = []fieldMapping{
	{source: "patient_age_in_days", dataElement: "rNfGw7BtMk4"},                         // PDSR-VA_Age (days)
	{source: "patient_sex", dataElement: "vXcZq3LpHd2", normalize: capitalizeFirst},     // PDSR-VA_Sex
	{source: "date_of_death", dataElement: "yTmKf8WsQb6", normalize: normalizeDateTime}, // PDSR-VA_Date of death
	{source: "date_of_birth", dataElement: "kBvPn4JrXt5", normalize: normalizeDateTime}, // PDSR-VA_Date of birth

	{source: "place_of_death", dataElement: "wQgHs6DfVm3", scope: scopeReview, normalize: capitalizeFirst}, // PDSR-VA_Place of death
	{source: "probable_cause_of_death", dataElement: "zLtRc9KwNh7", scope: scopeReview},                    // PDSR-VA_Probable cause of death
	{source: "birth_weight_grams", dataElement: "fJdXm2QbPs8", scope: scopeReview},                         // PDSR-VA_Birth weight (g)
	{source: "mother_age_in_years", dataElement: "hVwTn5GcRk3", scope: scopeReview},                        // PDSR-VA_Mother's age (years)

	{source: "chv_name", dataElement: "sMfQb7ZtLw4"},  // PDSR-VA_Form Completed by (Name)
	{source: "chv_phone", dataElement: "dKrVx3HnJp6"}, // PDSR-VA_Form Completed by (Telephone)
}

// routeVerbalAutopsy evaluates both eligibility predicates and emits
// one event per satisfied branch. The predicates are independent:
// inconsistent source data can legitimately satisfy both.
func routeVerbalAutopsy(doc *domain.Report, rctx Context) ([]domain.TrackerEvent, string) {
	age, hasAge := ageInDays(doc)
	sex := normalizeSex(doc.Field("patient_sex"))

	var events []domain.TrackerEvent

	if hasAge && sex == "female" && age >= maternalMinAgeDays && age <= maternalMaxAgeDays {
		events = append(events, newEvent(doc, rctx, rctx.MaternalVA,
			"medic-"+doc.ID+"-maternal", applyTable(doc, maternalVATable)))
	}

	if perinatalEligible(doc, age, hasAge) {
		events = append(events, newEvent(doc, rctx, rctx.PerinatalVA,
			"medic-"+doc.ID+"-perinatal", applyTable(doc, perinatalVATable)))
	}

	if len(events) == 0 {
		return nil, vaSkipReason(age, hasAge, sex)
	}
	return events, ""
}

// perinatalEligible is satisfied by the derived age, or by an explicit
// upstream age-in-days flag when the app has already classified the
// patient as a neonate. The flag is honoured even when it contradicts
// the stated age fields.
func perinatalEligible(doc *domain.Report, age int, hasAge bool) bool {
	if hasAge && age <= perinatalMaxAgeDays {
		return true
	}
	if raw := doc.Field("age_in_days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n <= perinatalMaxAgeDays {
			return true
		}
	}
	return false
}

func vaSkipReason(age int, hasAge bool, sex string) string {
	if !hasAge {
		return "verbal autopsy has no age fields"
	}
	return "verbal autopsy not eligible for any branch (age " +
		strconv.Itoa(age) + " days, sex " + orUnknown(sex) + ")"
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
