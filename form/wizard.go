package form

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/formwise/formwise/model"
	"github.com/formwise/formwise/schema"
)

// Step is the wizard position. Transitions only ever move between adjacent
// steps: fill to review is guarded by full validation, review back to fill
// and review to complete are unconditional.
type Step int

const (
	StepFill Step = iota
	StepReview
	StepComplete
)

func (s Step) String() string {
	switch s {
	case StepReview:
		return "review"
	case StepComplete:
		return "complete"
	default:
		return "fill"
	}
}

const (
	notAnsweredText      = "(Not answered)"
	noOptionSelectedText = "(No option selected)"
)

var (
	ErrNotFillStep   = errors.New("form: answers can only change during the fill step")
	ErrNotReviewStep = errors.New("form: transition requires the review step")
	ErrInvalidFields = errors.New("form: required fields are missing answers")
)

// Wizard drives one interactive form session independently of any rendering
// environment. The generated document embeds a script with the same rules;
// this implementation is the one the tests exercise.
type Wizard struct {
	def    model.FormDefinition
	links  []schema.SpecifyLink
	target map[string]bool

	step   Step
	values map[string]any
	hidden map[string]bool
	errs   map[string]string
}

func NewWizard(def model.FormDefinition) *Wizard {
	links := schema.SpecifyLinks(def.Fields)
	targets := schema.TargetIDs(links)

	hidden := make(map[string]bool, len(targets))
	for id := range targets {
		hidden[id] = true
	}

	return &Wizard{
		def:    def,
		links:  links,
		target: targets,
		step:   StepFill,
		values: map[string]any{},
		hidden: hidden,
		errs:   map[string]string{},
	}
}

func (w *Wizard) Step() Step { return w.step }

func (w *Wizard) Hidden(fieldID string) bool { return w.hidden[fieldID] }

func (w *Wizard) Value(fieldID string) any { return w.values[fieldID] }

// Err returns the current validation message for a field, empty when the
// field is valid or not yet validated.
func (w *Wizard) Err(fieldID string) string { return w.errs[fieldID] }

// SetValue records an answer and re-evaluates the field plus any
// other-specify targets its options control, mirroring input/change
// handling in the rendered document.
func (w *Wizard) SetValue(fieldID string, value any) error {
	if w.step != StepFill {
		return ErrNotFillStep
	}
	field, ok := w.fieldByID(fieldID)
	if !ok {
		return fmt.Errorf("form: unknown field %q", fieldID)
	}
	if w.hidden[fieldID] {
		return fmt.Errorf("form: field %q is hidden", fieldID)
	}

	w.values[fieldID] = value
	w.refreshSpecifyTargets()
	w.validateField(field)
	return nil
}

// refreshSpecifyTargets recomputes visibility for every other-specify
// target. Hiding a target clears its value and error so toggling an
// "other" option on and off leaves no trace.
func (w *Wizard) refreshSpecifyTargets() {
	visible := map[string]bool{}
	for _, l := range w.links {
		if w.optionSelected(l.FieldID, l.Option) {
			visible[l.TargetID] = true
		}
	}
	for id := range w.target {
		if visible[id] {
			w.hidden[id] = false
			continue
		}
		if !w.hidden[id] {
			delete(w.values, id)
			delete(w.errs, id)
		}
		w.hidden[id] = true
	}
}

func (w *Wizard) optionSelected(fieldID, option string) bool {
	switch v := w.values[fieldID].(type) {
	case string:
		return v == option
	case map[string]bool:
		return v[option]
	case map[string]any:
		b, ok := v[option].(bool)
		return ok && b
	default:
		return false
	}
}

// required reports whether the field must have an answer right now. An
// other-specify target is never independently required: its status derives
// entirely from visibility.
func (w *Wizard) required(f model.FormField) bool {
	if w.target[f.ID] {
		return !w.hidden[f.ID]
	}
	return f.Required
}

func (w *Wizard) validateField(f model.FormField) bool {
	if w.hidden[f.ID] {
		delete(w.errs, f.ID)
		return true
	}
	if !w.required(f) {
		delete(w.errs, f.ID)
		return true
	}

	value := w.values[f.ID]
	valid := true
	switch {
	case f.Type == "checkbox" && f.HasOptions():
		valid = anyChecked(value)
		if !valid {
			w.errs[f.ID] = f.Label + " requires at least one selection."
		}
	case f.Type == "checkbox":
		b, _ := value.(bool)
		valid = b
		if !valid {
			w.errs[f.ID] = f.Label + " is required."
		}
	default:
		s, _ := value.(string)
		valid = strings.TrimSpace(s) != ""
		if !valid {
			w.errs[f.ID] = f.Label + " is required."
		}
	}
	if valid {
		delete(w.errs, f.ID)
	}
	return valid
}

func anyChecked(value any) bool {
	switch v := value.(type) {
	case map[string]bool:
		for _, b := range v {
			if b {
				return true
			}
		}
	case map[string]any:
		for _, raw := range v {
			if b, ok := raw.(bool); ok && b {
				return true
			}
		}
	}
	return false
}

// Validate runs every field through the same rules the review transition
// uses, returning false when any visible required field lacks an answer.
func (w *Wizard) Validate() bool {
	allValid := true
	for _, f := range w.def.Fields {
		if !w.validateField(f) {
			allValid = false
		}
	}
	return allValid
}

// Review transitions fill to review, guarded by full validation.
func (w *Wizard) Review() error {
	if w.step != StepFill {
		return ErrNotFillStep
	}
	if !w.Validate() {
		return ErrInvalidFields
	}
	w.step = StepReview
	return nil
}

// Edit returns to the fill step without discarding entered values.
func (w *Wizard) Edit() error {
	if w.step != StepReview {
		return ErrNotReviewStep
	}
	w.step = StepFill
	return nil
}

// ReviewRow is one label/answer pair of the read-only review listing.
type ReviewRow struct {
	Label  string
	Answer string
}

// ReviewRows renders the human-readable answer listing: booleans as Yes/No,
// checkbox groups as a comma-joined selection, anything empty as an
// explicit placeholder. Hidden fields are omitted.
func (w *Wizard) ReviewRows() []ReviewRow {
	rows := make([]ReviewRow, 0, len(w.def.Fields))
	for _, f := range w.def.Fields {
		if w.hidden[f.ID] {
			continue
		}
		rows = append(rows, ReviewRow{Label: f.Label, Answer: w.displayAnswer(f)})
	}
	return rows
}

func (w *Wizard) displayAnswer(f model.FormField) string {
	value := w.values[f.ID]
	if b, ok := value.(bool); ok {
		if b {
			return "Yes"
		}
		return "No"
	}
	if f.Type == "checkbox" && f.HasOptions() {
		var selected []string
		for _, opt := range f.Options {
			if w.optionSelected(f.ID, opt) {
				selected = append(selected, opt)
			}
		}
		if len(selected) == 0 {
			return noOptionSelectedText
		}
		return strings.Join(selected, ", ")
	}
	if value == nil {
		return notAnsweredText
	}
	s := fmt.Sprint(value)
	if strings.TrimSpace(s) == "" {
		return notAnsweredText
	}
	return s
}

// Confirm freezes the collected answers into a submission record stamped
// with now. Only reachable from the review step; afterwards the wizard is
// complete and no answer can change.
func (w *Wizard) Confirm(now time.Time) (model.SubmissionRecord, error) {
	if w.step != StepReview {
		return model.SubmissionRecord{}, ErrNotReviewStep
	}
	w.step = StepComplete

	return model.SubmissionRecord{
		FormTitle:       w.def.FormTitle,
		FormDescription: w.def.FormDescription,
		SubmittedAt:     now,
		DataSchema:      w.def.DataSchema,
		FormData:        w.FormData(),
	}, nil
}

// FormData collects the current answers keyed by field id. Hidden
// other-specify fields are excluded entirely. Choice groups normalize to a
// full option-to-boolean mapping, single checkboxes to a boolean, and
// everything else to its entered value.
func (w *Wizard) FormData() map[string]any {
	data := make(map[string]any, len(w.def.Fields))
	for _, f := range w.def.Fields {
		if w.hidden[f.ID] {
			continue
		}
		switch {
		case f.Type == "checkbox" && f.HasOptions():
			group := make(map[string]any, len(f.Options))
			for _, opt := range f.Options {
				group[opt] = w.optionSelected(f.ID, opt)
			}
			data[f.ID] = group
		case f.Type == "checkbox":
			b, _ := w.values[f.ID].(bool)
			data[f.ID] = b
		case f.Type == "radio":
			if s, ok := w.values[f.ID].(string); ok && s != "" {
				data[f.ID] = s
			} else {
				data[f.ID] = nil
			}
		default:
			if v, ok := w.values[f.ID]; ok {
				data[f.ID] = v
			} else {
				data[f.ID] = ""
			}
		}
	}
	return data
}

func (w *Wizard) fieldByID(id string) (model.FormField, bool) {
	for _, f := range w.def.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return model.FormField{}, false
}
