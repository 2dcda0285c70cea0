// Package schema enforces the contract between form fields and the data
// schema the dashboard aggregates against: every form field must have a
// matching data schema entry before anything downstream runs.
package schema

import (
	"strings"

	"github.com/formwise/formwise/log"
	"github.com/formwise/formwise/model"
)

const (
	FallbackTitle = "Untitled Form"

	parseFailureTitle       = "Error: Form Parsing Failed"
	parseFailureDescription = "The questionnaire could not be processed."
)

// defaultSchemaField maps a form field to its analysis-oriented counterpart
// when the extraction step omitted one.
func defaultSchemaField(f model.FormField) model.DataSchemaField {
	ds := model.DataSchemaField{
		ID:           f.ID,
		Label:        f.Label,
		Type:         "string",
		AnalysisHint: "text_summary",
	}
	switch {
	case f.Type == "number":
		ds.Type, ds.AnalysisHint = "number", "numerical"
	case f.Type == "date":
		ds.Type, ds.AnalysisHint = "date", "date_trend"
	case f.Type == "checkbox" && !f.HasOptions():
		ds.Type, ds.AnalysisHint = "boolean", "boolean_summary"
	case f.Type == "checkbox" && f.HasOptions():
		ds.Type, ds.AnalysisHint = "object_of_booleans", "multi_select_categorical"
		ds.Options = f.Options
	case f.Type == "radio" || f.Type == "select":
		ds.Type, ds.AnalysisHint = "string", "categorical"
		ds.Options = f.Options
	}
	return ds
}

// EnsureCoverage returns dataSchema extended with a synthesized entry for
// every form field it does not cover. A schema that already covers all
// fields comes back unchanged. Gaps are a defect of the extraction step, so
// each one is logged; the caller never sees an error.
func EnsureCoverage(fields []model.FormField, dataSchema model.DataSchema) model.DataSchema {
	covered := make(map[string]bool, len(dataSchema.Fields))
	for _, f := range dataSchema.Fields {
		covered[f.ID] = true
	}

	for _, f := range fields {
		if covered[f.ID] {
			continue
		}
		log.Warnf("schema.coverage_gap: no data schema entry for field %q, synthesizing default", f.ID)
		dataSchema.Fields = append(dataSchema.Fields, defaultSchemaField(f))
		covered[f.ID] = true
	}

	if dataSchema.FormTitle == "" {
		dataSchema.FormTitle = FallbackTitle
	}
	if dataSchema.SchemaVersion == "" {
		dataSchema.SchemaVersion = model.DefaultSchemaVersion
	}
	return dataSchema
}

// Normalize repairs an extraction result so downstream consumers always see
// a non-empty title and a data schema covering every form field. A missing
// data schema is synthesized wholesale rather than failing the pipeline.
func Normalize(def model.FormDefinition) model.FormDefinition {
	if def.FormTitle == "" {
		log.Warn("schema.normalize: extraction returned no form title, using fallback")
		def.FormTitle = FallbackTitle
	}

	def.DataSchema.FormTitle = def.FormTitle
	def.DataSchema.FormDescription = def.FormDescription
	def.DataSchema = EnsureCoverage(def.Fields, def.DataSchema)
	return def
}

// ParseFailure is the definition handed out when extraction returns nothing
// usable: structurally valid, recognizably an error state, and safe for
// every downstream consumer.
func ParseFailure() model.FormDefinition {
	return model.FormDefinition{
		FormTitle:       parseFailureTitle,
		FormDescription: parseFailureDescription,
		Fields:          []model.FormField{},
		DataSchema: model.DataSchema{
			SchemaVersion:   model.DefaultSchemaVersion,
			FormTitle:       parseFailureTitle,
			FormDescription: parseFailureDescription,
			Fields:          []model.DataSchemaField{},
		},
	}
}

// SpecifyLink is a first-class "other, please specify" relationship: when
// Option of field FieldID is selected, the field TargetID becomes visible
// and required.
type SpecifyLink struct {
	FieldID  string
	Option   string
	TargetID string
}

// isOtherOption matches the option texts questionnaires use for a
// free-form "other" choice.
func isOtherOption(option string) bool {
	lower := strings.ToLower(option)
	return strings.HasPrefix(lower, "other") || strings.HasPrefix(lower, "其他")
}

// SpecifyLinks resolves the other-specify relationships of a field list up
// front, at schema-construction time. A link only exists when the target
// field is actually present, so consumers need no further checks.
func SpecifyLinks(fields []model.FormField) []SpecifyLink {
	present := make(map[string]bool, len(fields))
	for _, f := range fields {
		present[f.ID] = true
	}

	var links []SpecifyLink
	for _, f := range fields {
		if f.Type != "radio" && !(f.Type == "checkbox" && f.HasOptions()) && f.Type != "select" {
			continue
		}
		target := f.ID + model.OtherSpecifySuffix
		if !present[target] {
			continue
		}
		for _, opt := range f.Options {
			if isOtherOption(opt) {
				links = append(links, SpecifyLink{FieldID: f.ID, Option: opt, TargetID: target})
			}
		}
	}
	return links
}

// TargetIDs returns the set of field ids that are conditionally shown by
// some link in links.
func TargetIDs(links []SpecifyLink) map[string]bool {
	targets := make(map[string]bool, len(links))
	for _, l := range links {
		targets[l.TargetID] = true
	}
	return targets
}
