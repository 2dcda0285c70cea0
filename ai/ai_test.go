package ai

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formwise/formwise/model"
)

func testSchema() model.DataSchema {
	return model.DataSchema{
		SchemaVersion: "1.0.0",
		FormTitle:     "Survey",
		Fields: []model.DataSchemaField{
			{ID: "q1", Label: "Q1", Type: "string", AnalysisHint: "text_summary"},
		},
	}
}

func testSubmission(answer string) model.SubmissionRecord {
	return model.SubmissionRecord{
		FormTitle:   "Survey",
		SubmittedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		DataSchema:  testSchema(),
		FormData:    map[string]any{"q1": answer},
	}
}

func TestBuildSummaryRequestSingleSubmission(t *testing.T) {
	req, err := BuildSummaryRequest(testSchema(), []model.SubmissionRecord{testSubmission("yes")}, "")
	require.NoError(t, err)

	// one submission serializes as a single object
	var single map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.FormResults), &single))
	assert.Equal(t, "yes", single["q1"])

	var schemaBack model.DataSchema
	require.NoError(t, json.Unmarshal([]byte(req.FormSchema), &schemaBack))
	assert.Equal(t, "Survey", schemaBack.FormTitle)
}

func TestBuildSummaryRequestMultipleSubmissions(t *testing.T) {
	subs := []model.SubmissionRecord{testSubmission("yes"), testSubmission("no")}
	req, err := BuildSummaryRequest(testSchema(), subs, "focus on sentiment")
	require.NoError(t, err)

	var many []map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.FormResults), &many))
	require.Len(t, many, 2)
	assert.Equal(t, "no", many[1]["q1"])
	assert.Equal(t, "focus on sentiment", req.CustomInstructions)
}

func TestBuildSummaryRequestNoSubmissions(t *testing.T) {
	_, err := BuildSummaryRequest(testSchema(), nil, "")
	assert.Error(t, err)
}

func TestSummaryRequestOmitsBlankInstructions(t *testing.T) {
	req, err := BuildSummaryRequest(testSchema(), []model.SubmissionRecord{testSubmission("x")}, "")
	require.NoError(t, err)

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "customInstructions")
}

func TestDecodeDataURI(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("hello questionnaire"))

	mimeType, data, err := decodeDataURI("data:text/plain;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mimeType)
	assert.Equal(t, []byte("hello questionnaire"), data)
}

func TestDecodeDataURIErrors(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{"not a data URI", "https://example.com/doc.pdf"},
		{"no payload", "data:text/plain;base64"},
		{"unsupported encoding", "data:text/plain;utf8,hello"},
		{"broken base64", "data:text/plain;base64,%%%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := decodeDataURI(tt.uri)
			assert.Error(t, err)
		})
	}
}
