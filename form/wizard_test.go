package form

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formwise/formwise/model"
	"github.com/formwise/formwise/schema"
)

func testDefinition() model.FormDefinition {
	fields := []model.FormField{
		{ID: "name", Label: "Name", Type: "text", Required: true},
		{ID: "age", Label: "Age", Type: "number"},
		{ID: "scenario", Label: "Scenario", Type: "radio", Required: true,
			Options: []string{"Home", "Office", "Other (please specify)"}},
		{ID: "scenario_other_specify", Label: "Scenario - Other", Type: "text"},
		{ID: "channels", Label: "Channels", Type: "checkbox", Required: true,
			Options: []string{"Email", "Phone"}},
		{ID: "subscribe", Label: "Subscribe", Type: "checkbox", Required: true},
	}
	def := model.FormDefinition{
		FormTitle:       "Customer Survey",
		FormDescription: "A few questions",
		Fields:          fields,
	}
	return schema.Normalize(def)
}

func fillValid(t *testing.T, w *Wizard) {
	t.Helper()
	require.NoError(t, w.SetValue("name", "Ada"))
	require.NoError(t, w.SetValue("scenario", "Home"))
	require.NoError(t, w.SetValue("channels", map[string]bool{"Email": true}))
	require.NoError(t, w.SetValue("subscribe", true))
}

func TestWizardRoundTrip(t *testing.T) {
	w := NewWizard(testDefinition())
	fillValid(t, w)

	require.NoError(t, w.Review())
	assert.Equal(t, StepReview, w.Step())

	now := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	record, err := w.Confirm(now)
	require.NoError(t, err)
	assert.Equal(t, StepComplete, w.Step())

	assert.Equal(t, "Customer Survey", record.FormTitle)
	assert.Equal(t, now, record.SubmittedAt)
	assert.Equal(t, "Customer Survey", record.DataSchema.FormTitle)

	// formData keys are exactly the non-hidden field ids: the untouched
	// other-specify field stays hidden and is excluded
	wantKeys := []string{"name", "age", "scenario", "channels", "subscribe"}
	assert.Len(t, record.FormData, len(wantKeys))
	for _, key := range wantKeys {
		assert.Contains(t, record.FormData, key)
	}
	assert.NotContains(t, record.FormData, "scenario_other_specify")

	assert.Equal(t, "Ada", record.FormData["name"])
	assert.Equal(t, "", record.FormData["age"])
	assert.Equal(t, "Home", record.FormData["scenario"])
	assert.Equal(t, map[string]any{"Email": true, "Phone": false}, record.FormData["channels"])
	assert.Equal(t, true, record.FormData["subscribe"])
}

func TestOtherSpecifyRevealIncluded(t *testing.T) {
	w := NewWizard(testDefinition())
	fillValid(t, w)

	require.NoError(t, w.SetValue("scenario", "Other (please specify)"))
	assert.False(t, w.Hidden("scenario_other_specify"))
	require.NoError(t, w.SetValue("scenario_other_specify", "on the train"))

	require.NoError(t, w.Review())
	record, err := w.Confirm(time.Now())
	require.NoError(t, err)
	assert.Equal(t, "on the train", record.FormData["scenario_other_specify"])
}

func TestOtherSpecifyToggleIdempotent(t *testing.T) {
	w := NewWizard(testDefinition())

	// initial state
	assert.True(t, w.Hidden("scenario_other_specify"))
	assert.Nil(t, w.Value("scenario_other_specify"))
	assert.Empty(t, w.Err("scenario_other_specify"))

	// toggle on: revealed and required
	require.NoError(t, w.SetValue("scenario", "Other (please specify)"))
	assert.False(t, w.Hidden("scenario_other_specify"))
	require.NoError(t, w.SetValue("scenario_other_specify", ""))
	assert.NotEmpty(t, w.Err("scenario_other_specify"))

	// toggle off: back to hidden, not required, empty, no error
	require.NoError(t, w.SetValue("scenario", "Home"))
	assert.True(t, w.Hidden("scenario_other_specify"))
	assert.Nil(t, w.Value("scenario_other_specify"))
	assert.Empty(t, w.Err("scenario_other_specify"))
}

func TestHiddenSpecifyFieldDoesNotBlockReview(t *testing.T) {
	w := NewWizard(testDefinition())
	fillValid(t, w)

	// the hidden other-specify field has no value, yet validation passes
	require.NoError(t, w.Review())
}

func TestRevealedSpecifyFieldBlocksReview(t *testing.T) {
	w := NewWizard(testDefinition())
	fillValid(t, w)
	require.NoError(t, w.SetValue("scenario", "Other (please specify)"))

	assert.ErrorIs(t, w.Review(), ErrInvalidFields)
	assert.Equal(t, StepFill, w.Step())
}

func TestValidationRules(t *testing.T) {
	tests := []struct {
		name    string
		fieldID string
		value   any
		valid   bool
	}{
		{"required text filled", "name", "Ada", true},
		{"required text whitespace", "name", "   ", false},
		{"required radio picked", "scenario", "Home", true},
		{"required radio empty", "scenario", "", false},
		{"required group one checked", "channels", map[string]bool{"Phone": true}, true},
		{"required group none checked", "channels", map[string]bool{"Email": false}, false},
		{"required single checkbox true", "subscribe", true, true},
		{"required single checkbox false", "subscribe", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWizard(testDefinition())
			require.NoError(t, w.SetValue(tt.fieldID, tt.value))
			if tt.valid {
				assert.Empty(t, w.Err(tt.fieldID))
			} else {
				assert.NotEmpty(t, w.Err(tt.fieldID))
			}
		})
	}
}

func TestOptionalFieldMayStayEmpty(t *testing.T) {
	w := NewWizard(testDefinition())
	fillValid(t, w)
	require.NoError(t, w.SetValue("age", ""))
	require.NoError(t, w.Review())
}

func TestTransitionGuards(t *testing.T) {
	w := NewWizard(testDefinition())

	// review is guarded by validation
	assert.ErrorIs(t, w.Review(), ErrInvalidFields)

	// edit and confirm need the review step
	assert.ErrorIs(t, w.Edit(), ErrNotReviewStep)
	_, err := w.Confirm(time.Now())
	assert.ErrorIs(t, err, ErrNotReviewStep)

	fillValid(t, w)
	require.NoError(t, w.Review())

	// answers are frozen outside the fill step
	assert.ErrorIs(t, w.SetValue("name", "Grace"), ErrNotFillStep)

	// edit returns to fill without losing values
	require.NoError(t, w.Edit())
	assert.Equal(t, "Ada", w.Value("name"))
	require.NoError(t, w.SetValue("name", "Grace"))
	require.NoError(t, w.Review())

	_, err = w.Confirm(time.Now())
	require.NoError(t, err)

	// no transitions out of complete
	assert.ErrorIs(t, w.Edit(), ErrNotReviewStep)
	assert.ErrorIs(t, w.Review(), ErrNotFillStep)
}

func TestReviewRows(t *testing.T) {
	w := NewWizard(testDefinition())
	require.NoError(t, w.SetValue("name", "Ada"))
	require.NoError(t, w.SetValue("scenario", "Office"))
	require.NoError(t, w.SetValue("channels", map[string]bool{"Email": true, "Phone": true}))
	require.NoError(t, w.SetValue("subscribe", false))

	rows := w.ReviewRows()
	require.Len(t, rows, 5) // hidden other-specify omitted

	byLabel := map[string]string{}
	for _, row := range rows {
		byLabel[row.Label] = row.Answer
	}

	assert.Equal(t, "Ada", byLabel["Name"])
	assert.Equal(t, "(Not answered)", byLabel["Age"])
	assert.Equal(t, "Office", byLabel["Scenario"])
	assert.Equal(t, "Email, Phone", byLabel["Channels"])
	assert.Equal(t, "No", byLabel["Subscribe"])
}

func TestReviewRowsEmptyGroup(t *testing.T) {
	w := NewWizard(testDefinition())
	require.NoError(t, w.SetValue("channels", map[string]bool{}))

	for _, row := range w.ReviewRows() {
		if row.Label == "Channels" {
			assert.Equal(t, "(No option selected)", row.Answer)
			return
		}
	}
	t.Fatal("channels row not found")
}

func TestSetValueRejectsUnknownAndHiddenFields(t *testing.T) {
	w := NewWizard(testDefinition())

	assert.Error(t, w.SetValue("nope", "x"))
	assert.Error(t, w.SetValue("scenario_other_specify", "hidden right now"))
}
