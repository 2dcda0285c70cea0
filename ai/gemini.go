package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/formwise/formwise/log"
	"github.com/formwise/formwise/model"
	"github.com/formwise/formwise/schema"
)

const DefaultModel = "gemini-2.5-flash"

const parseInstructions = `You are an expert form builder and data architect.
Analyze the attached questionnaire document and output a single valid JSON object with exactly these keys:

- "formTitle": the questionnaire's main title (mandatory; invent a sensible one like "Untitled Questionnaire" if none is visible).
- "formDescription": a concise summary of the questionnaire's purpose.
- "fields": an ordered array of form fields, each with:
    "id" (unique snake_case identifier), "label" (the question text),
    "type" (one of: text, textarea, number, date, radio, checkbox, select),
    "options" (array of strings, only for radio / checkbox groups / select),
    "required" (boolean).
  Break matrix or multi-part questions into one field per row or part.
  When an option is "Other" / "其他" with a blank to specify, also emit a
  separate text field whose id is "{parent_field_id}_other_specify" with
  required set to false.
- "dataSchema": {"schemaVersion": "1.0.0", "formTitle", "formDescription",
  "fields": one entry per form field with identical "id" and "label",
  "type" (string, number, boolean, date, object_of_booleans for checkbox
  groups, array_of_strings), "analysisHint" (categorical, numerical,
  text_summary, boolean_summary, multi_select_categorical, date_trend) and
  "options" matching the form field's options for categorical kinds}.

Output only the JSON object.`

const summaryTemplate = `You are an expert data analyst summarizing form results.
%s
Form Schema:
%s

Form Results (a single JSON object for one submission, or an array for several):
%s

Provide a concise plain-text summary of the key trends and insights.
Report answer distributions for multiple-choice questions, averages and
ranges for numerical ones, and common themes for open text. Write the
summary in the same language as the questionnaire.`

// Gemini implements Parser and Summarizer against the Google GenAI API.
// Each call is a single in-flight request with no retry.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ai: missing Gemini API key")
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("ai: create Gemini client: %w", err)
	}
	return &Gemini{client: client, model: modelName}, nil
}

func (g *Gemini) ParseQuestionnaire(ctx context.Context, questionnaireDataURI string) (model.FormDefinition, error) {
	mimeType, payload, err := decodeDataURI(questionnaireDataURI)
	if err != nil {
		return model.FormDefinition{}, err
	}

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(payload, mimeType),
		genai.NewPartFromText(parseInstructions),
	}, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.2),
		TopP:             genai.Ptr[float32](0.8),
	})
	if err != nil {
		return model.FormDefinition{}, fmt.Errorf("ai: questionnaire extraction: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		log.Warn("ai.parse: model returned no content, using parse-failure definition")
		return schema.ParseFailure(), nil
	}

	var def model.FormDefinition
	if err := json.Unmarshal([]byte(text), &def); err != nil {
		log.Warnf("ai.parse: model output is not the expected JSON shape: %s", err)
		return schema.ParseFailure(), nil
	}
	return def, nil
}

func (g *Gemini) SummarizeResults(ctx context.Context, req SummaryRequest) (string, error) {
	instructions := ""
	if req.CustomInstructions != "" {
		instructions = "The user asked specifically:\n" + req.CustomInstructions + "\nPrioritize these instructions.\n"
	}
	prompt := fmt.Sprintf(summaryTemplate, instructions, req.FormSchema, req.FormResults)

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.4),
		TopP:        genai.Ptr[float32](0.85),
	})
	if err != nil {
		return "", fmt.Errorf("ai: result summarization: %w", err)
	}

	summary := strings.TrimSpace(resp.Text())
	if summary == "" {
		return "", fmt.Errorf("ai: summarization returned no content")
	}
	return summary, nil
}
