package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReport_Field_String(t *testing.T) {
	r := &Report{Fields: map[string]any{"patient_name": "Jane"}}
	assert.Equal(t, "Jane", r.Field("patient_name"))
}

func TestReport_Field_Missing(t *testing.T) {
	r := &Report{Fields: map[string]any{}}
	assert.Equal(t, "", r.Field("patient_name"))
}

func TestReport_Field_NilFields(t *testing.T) {
	r := &Report{}
	assert.Equal(t, "", r.Field("anything"))
}

func TestReport_Field_WholeNumber(t *testing.T) {
	// JSON decoding yields float64 for numbers; whole values must not
	// pick up a decimal point.
	r := &Report{Fields: map[string]any{"patient_age_in_years": float64(34)}}
	assert.Equal(t, "34", r.Field("patient_age_in_years"))
}

func TestReport_Field_FractionalNumber(t *testing.T) {
	r := &Report{Fields: map[string]any{"weight": 3.5}}
	assert.Equal(t, "3.5", r.Field("weight"))
}

func TestReport_Field_NonScalar(t *testing.T) {
	r := &Report{Fields: map[string]any{"group_review": map[string]any{"a": "b"}}}
	assert.Equal(t, "", r.Field("group_review"))
}

func TestReport_ReviewField(t *testing.T) {
	r := &Report{Fields: map[string]any{
		"group_review": map[string]any{"pregnant_at_death": "yes"},
	}}
	assert.Equal(t, "yes", r.ReviewField("pregnant_at_death"))
}

func TestReport_ReviewField_NoReviewSection(t *testing.T) {
	r := &Report{Fields: map[string]any{"patient_name": "Jane"}}
	assert.Equal(t, "", r.ReviewField("pregnant_at_death"))
}

func TestParseForm(t *testing.T) {
	f, ok := ParseForm("death_review")
	assert.True(t, ok)
	assert.Equal(t, FormDeathReview, f)

	f, ok = ParseForm("cha_verbal_autopsy")
	assert.True(t, ok)
	assert.Equal(t, FormVerbalAutopsy, f)

	_, ok = ParseForm("pregnancy_visit")
	assert.False(t, ok)
}

func TestForm_Known(t *testing.T) {
	assert.True(t, FormDeathReview.Known())
	assert.True(t, FormVerbalAutopsy.Known())
	assert.False(t, Form("delivery_report").Known())
	assert.False(t, Form("").Known())
}

func TestTrackerEvent_Destination(t *testing.T) {
	ev := &TrackerEvent{Program: "vUgGotMTazy", ProgramStage: "CJrEOnZXWPn"}
	assert.Equal(t, "vUgGotMTazy/CJrEOnZXWPn", ev.Destination())
}
