package model

import (
	"strings"
	"time"
)

// OtherSpecifySuffix marks conditional free-text fields attached to an
// "Other" option of a sibling choice field.
const OtherSpecifySuffix = "_other_specify"

const DefaultSchemaVersion = "1.0.0"

type FormField struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     string   `json:"type"` // text, textarea, number, date, radio, checkbox, select
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
}

func (f FormField) IsOtherSpecify() bool {
	return strings.HasSuffix(f.ID, OtherSpecifySuffix)
}

// HasOptions reports whether the field renders as a group of choices.
func (f FormField) HasOptions() bool {
	return len(f.Options) > 0
}

type DataSchemaField struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Type         string   `json:"type"` // string, number, boolean, date, object_of_booleans, array_of_strings
	AnalysisHint string   `json:"analysisHint,omitempty"`
	Options      []string `json:"options,omitempty"`
}

type DataSchema struct {
	SchemaVersion   string            `json:"schemaVersion"`
	FormTitle       string            `json:"formTitle"`
	FormDescription string            `json:"formDescription,omitempty"`
	Fields          []DataSchemaField `json:"fields"`
}

// FormDefinition is the full output of questionnaire extraction: everything
// needed to render one interactive document and later analyze its data.
type FormDefinition struct {
	FormTitle       string      `json:"formTitle"`
	FormDescription string      `json:"formDescription"`
	Fields          []FormField `json:"fields"`
	DataSchema      DataSchema  `json:"dataSchema"`
}

// SubmissionRecord is one completed instance of a generated form. Uploaded
// files carry everything but ID, which is assigned on ingestion.
type SubmissionRecord struct {
	ID              string         `json:"id,omitempty"`
	FormTitle       string         `json:"formTitle"`
	FormDescription string         `json:"formDescription,omitempty"`
	SubmittedAt     time.Time      `json:"submittedAt"`
	DataSchema      DataSchema     `json:"dataSchema"`
	FormData        map[string]any `json:"formData"`
}

// FieldKind is the closed set of aggregation behaviors. It replaces ad-hoc
// string comparisons on type/analysisHint: classification happens once, and
// the aggregator switches exhaustively over the result.
type FieldKind int

const (
	KindText FieldKind = iota // raw response list
	KindCheckboxGroup
	KindCategorical
	KindNumerical
	KindBoolean
)

func (k FieldKind) String() string {
	switch k {
	case KindCheckboxGroup:
		return "checkbox_group"
	case KindCategorical:
		return "categorical"
	case KindNumerical:
		return "numerical"
	case KindBoolean:
		return "boolean"
	default:
		return "text"
	}
}

// Kind classifies the field. The checks run in priority order, first match
// wins; anything unrecognized falls back to KindText.
func (f DataSchemaField) Kind() FieldKind {
	switch {
	case f.Type == "object_of_booleans" && len(f.Options) > 0:
		return KindCheckboxGroup
	case len(f.Options) > 0 && (f.AnalysisHint == "categorical" || f.Type == "radio" || f.Type == "select"):
		return KindCategorical
	case f.Type == "number" || f.AnalysisHint == "numerical":
		return KindNumerical
	case f.Type == "boolean" || (f.Type == "checkbox" && len(f.Options) == 0):
		return KindBoolean
	default:
		return KindText
	}
}
