// Package ai holds the boundary to the external language-model
// collaborators: questionnaire extraction and result summarization. Both
// are opaque request/response calls; everything on this side is plain
// serialization.
package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/formwise/formwise/model"
)

// Parser extracts a form definition from a data-URI-encoded questionnaire
// document.
type Parser interface {
	ParseQuestionnaire(ctx context.Context, questionnaireDataURI string) (model.FormDefinition, error)
}

// Summarizer produces a natural-language summary of aggregated form
// results.
type Summarizer interface {
	SummarizeResults(ctx context.Context, req SummaryRequest) (string, error)
}

// SummaryRequest is the literal payload handed to the summarization
// collaborator: JSON-serialized schema and results, plus optional free-text
// instructions the consumer prioritizes when present.
type SummaryRequest struct {
	FormResults        string `json:"formResults"`
	FormSchema         string `json:"formSchema"`
	CustomInstructions string `json:"customInstructions,omitempty"`
}

// BuildSummaryRequest serializes a data schema and the answers of one or
// more submissions. A single submission serializes as one object, several
// as an array; no transformation beyond that happens here.
func BuildSummaryRequest(dataSchema model.DataSchema, submissions []model.SubmissionRecord, customInstructions string) (SummaryRequest, error) {
	if len(submissions) == 0 {
		return SummaryRequest{}, errors.New("ai: no submissions to summarize")
	}

	var results any
	if len(submissions) == 1 {
		results = submissions[0].FormData
	} else {
		all := make([]map[string]any, len(submissions))
		for i, sub := range submissions {
			all[i] = sub.FormData
		}
		results = all
	}

	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return SummaryRequest{}, fmt.Errorf("ai.summary_request.results: %w", err)
	}
	schemaJSON, err := json.Marshal(dataSchema)
	if err != nil {
		return SummaryRequest{}, fmt.Errorf("ai.summary_request.schema: %w", err)
	}

	return SummaryRequest{
		FormResults:        string(resultsJSON),
		FormSchema:         string(schemaJSON),
		CustomInstructions: customInstructions,
	}, nil
}

// decodeDataURI splits a "data:<mime>;base64,<payload>" URI into its MIME
// type and decoded bytes.
func decodeDataURI(uri string) (mimeType string, data []byte, err error) {
	const prefix = "data:"
	if !strings.HasPrefix(uri, prefix) {
		return "", nil, errors.New("ai: not a data URI")
	}
	meta, payload, found := strings.Cut(uri[len(prefix):], ",")
	if !found {
		return "", nil, errors.New("ai: data URI has no payload")
	}
	mimeType, encoding, _ := strings.Cut(meta, ";")
	if encoding != "base64" {
		return "", nil, fmt.Errorf("ai: unsupported data URI encoding %q", encoding)
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("ai: decode data URI payload: %w", err)
	}
	return mimeType, data, nil
}
