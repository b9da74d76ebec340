package mapping

import (
	"strconv"
	"strings"

	"github.com/umoja-health/tracksync/internal/core/domain"
)

// Age formula constants. The 365/30-day approximation is deliberate:
// downstream eligibility thresholds were tuned against it, so it must
// not be replaced with calendar-accurate arithmetic.
const (
	daysPerYear  = 365
	daysPerMonth = 30
)

// capitalizeFirst title-cases a free-text value: first letter upper,
// rest lower ("farmer" -> "Farmer", "SINGLE" -> "Single").
func capitalizeFirst(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// normalizeDateTime coerces a date-only value to a full midnight-UTC
// date-time. Values already carrying a time component pass through
// unchanged. Applied uniformly to every date field across forms.
func normalizeDateTime(s string) string {
	if s == "" || strings.Contains(s, "T") {
		return s
	}
	return s + "T00:00:00.000Z"
}

// Controlled vocabularies. Free text is lower-cased and looked up; the
// canonical display form replaces it. Unmapped values fall back per
// table rather than being rejected.

var educationVocab = map[string]string{
	"post-secondary": "Higher than secondary",
	"none":           "None",
	"primary":        "Primary",
	"secondary":      "Secondary",
}

var occupationVocab = map[string]string{
	"employed":      "Employed",
	"self-employed": "Self-employed",
	"not employed":  "Not employed",
	"unemployed":    "Not employed",
}

var nationalityVocab = map[string]string{
	"kenyan": "Kenyan",
	"other":  "Other",
}

func normalizeEducation(s string) string {
	if v, ok := educationVocab[strings.ToLower(s)]; ok {
		return v
	}
	return s
}

func normalizeOccupation(s string) string {
	if v, ok := occupationVocab[strings.ToLower(s)]; ok {
		return v
	}
	return capitalizeFirst(s)
}

func normalizeNationality(s string) string {
	if v, ok := nationalityVocab[strings.ToLower(s)]; ok {
		return v
	}
	return "Kenyan"
}

// normalizeSex canonicalises a sex value to "female" or "male", or ""
// when unrecognised.
func normalizeSex(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f", "female":
		return "female"
	case "m", "male":
		return "male"
	default:
		return ""
	}
}

// ageInDays derives an approximate age from the report's three
// independent age fields: years*365 + months*30 + days. Returns false
// when none of the three fields is present, so that an absent age is
// never mistaken for a newborn.
func ageInDays(doc *domain.Report) (int, bool) {
	parts := []struct {
		field  string
		factor int
	}{
		{"patient_age_in_years", daysPerYear},
		{"patient_age_in_months", daysPerMonth},
		{"patient_age_in_days", 1},
	}

	var total int
	var present bool
	for _, p := range parts {
		raw := doc.Field(p.field)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		present = true
		total += n * p.factor
	}
	return total, present
}
