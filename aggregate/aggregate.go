// Package aggregate computes per-field statistics over a set of submission
// records sharing one data schema. It performs no I/O: the result is a pure
// function of the schema and the submissions.
package aggregate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/formwise/formwise/model"
)

// OtherBucket accumulates categorical answers that match none of the
// declared options.
const OtherBucket = "Other / Unlisted"

// FieldResult carries the computed statistics for one data schema field.
// Which of the optional groups is populated depends on the field kind:
// distribution for choice-like fields, the numeric summary for numbers,
// responses for everything text-like.
type FieldResult struct {
	FieldID      string   `json:"fieldId"`
	Label        string   `json:"label"`
	Count        int      `json:"count"`
	AnalysisHint string   `json:"analysisHint,omitempty"`
	Type         string   `json:"type,omitempty"`
	Options      []string `json:"options,omitempty"`

	Distribution *Distribution `json:"distribution,omitempty"`

	Sum     *float64 `json:"sum,omitempty"`
	Average *float64 `json:"average,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`

	Responses       []any `json:"responses,omitempty"`
	UniqueResponses *int  `json:"uniqueResponses,omitempty"`
}

// Aggregate computes one FieldResult per schema field, in schema field
// order. A value counts as valid when it is neither nil nor the empty
// string; a boolean false and a numeric zero are both valid answers.
func Aggregate(dataSchema model.DataSchema, submissions []model.SubmissionRecord) []FieldResult {
	results := make([]FieldResult, 0, len(dataSchema.Fields))
	for _, field := range dataSchema.Fields {
		results = append(results, aggregateField(field, submissions))
	}
	return results
}

func aggregateField(field model.DataSchemaField, submissions []model.SubmissionRecord) FieldResult {
	values := collectValid(field.ID, submissions)

	result := FieldResult{
		FieldID:      field.ID,
		Label:        field.Label,
		Count:        len(values),
		AnalysisHint: field.AnalysisHint,
		Type:         field.Type,
		Options:      field.Options,
	}

	switch field.Kind() {
	case model.KindCheckboxGroup:
		result.Distribution = tallyCheckboxGroup(field.Options, values)
	case model.KindCategorical:
		result.Distribution = tallyCategorical(field.Options, values)
	case model.KindNumerical:
		result.Sum, result.Average, result.Min, result.Max = summarizeNumbers(values)
	case model.KindBoolean:
		result.Distribution = tallyBooleans(values)
	case model.KindText:
		result.Responses = values
		unique := countDistinct(values)
		result.UniqueResponses = &unique
	}
	return result
}

func collectValid(fieldID string, submissions []model.SubmissionRecord) []any {
	values := make([]any, 0, len(submissions))
	for _, sub := range submissions {
		v, ok := sub.FormData[fieldID]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && s == "" {
			continue
		}
		values = append(values, v)
	}
	return values
}

// tallyCheckboxGroup counts, per declared option, how many submissions
// checked it. Unrecognized option keys in a value are ignored.
func tallyCheckboxGroup(options []string, values []any) *Distribution {
	dist := NewDistribution(options...)
	for _, v := range values {
		checked, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for _, opt := range options {
			if b, isBool := checked[opt].(bool); isBool && b {
				dist.Increment(opt)
			}
		}
	}
	return dist
}

// tallyCategorical buckets each value by its string form; values matching
// no declared option accumulate under OtherBucket.
func tallyCategorical(options []string, values []any) *Distribution {
	dist := NewDistribution(options...)
	for _, v := range values {
		key := stringForm(v)
		if dist.Has(key) {
			dist.Increment(key)
		} else {
			dist.Increment(OtherBucket)
		}
	}
	return dist
}

func tallyBooleans(values []any) *Distribution {
	dist := NewDistribution("Yes", "No")
	for _, v := range values {
		switch v {
		case true:
			dist.Increment("Yes")
		case false:
			dist.Increment("No")
		}
	}
	return dist
}

// summarizeNumbers computes sum/average/min/max over the coercible subset
// of values. Non-coercible values stay in the field's count but contribute
// nothing here; with no coercible value at all, no summary is produced.
func summarizeNumbers(values []any) (sum, avg, min, max *float64) {
	var numbers []float64
	for _, v := range values {
		if n, ok := coerceNumber(v); ok {
			numbers = append(numbers, n)
		}
	}
	if len(numbers) == 0 {
		return nil, nil, nil, nil
	}

	var s float64
	lo, hi := numbers[0], numbers[0]
	for _, n := range numbers {
		s += n
		if n < lo {
			lo = n
		}
		if n > hi {
			hi = n
		}
	}
	a := s / float64(len(numbers))
	return &s, &a, &lo, &hi
}

func coerceNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func countDistinct(values []any) int {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		seen[stringForm(v)] = true
	}
	return len(seen)
}

func stringForm(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
