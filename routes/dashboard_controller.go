package routes

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/formwise/formwise/aggregate"
	"github.com/formwise/formwise/ai"
	"github.com/formwise/formwise/app"
	"github.com/formwise/formwise/httpx"
	"github.com/formwise/formwise/log"
	"github.com/formwise/formwise/model"
)

const maxUploadBytes = 32 << 20

// Mutating handlers rewrite the collection wholesale from a fresh Load, so
// their load-modify-save sequences must not interleave.
var collectionMu sync.Mutex

type uploadError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// UploadSubmissions ingests a batch of exported submission files. Each file
// is parsed and checked on its own: a malformed file is rejected with a
// per-file reason and never affects the rest of the batch.
func UploadSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		err := r.ParseMultipartForm(maxUploadBytes)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_multipart")
			return
		}

		files := r.MultipartForm.File["files"]
		if len(files) == 0 {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.upload_submissions", "no files uploaded")
			return
		}

		accepted := []model.SubmissionRecord{}
		uploadErrors := []uploadError{}
		for _, header := range files {
			sub, err := readSubmissionFile(header.Filename, func() (io.ReadCloser, error) { return header.Open() })
			if err != nil {
				log.Debugf("upload.reject (%s): %s", header.Filename, err)
				uploadErrors = append(uploadErrors, uploadError{File: header.Filename, Error: err.Error()})
				continue
			}
			accepted = append(accepted, sub)
		}

		if len(accepted) > 0 {
			collectionMu.Lock()
			defer collectionMu.Unlock()

			submissions, err := app.Load(r.Context())
			if err != nil {
				httpx.LogInternalError(w, "db.load_submissions", err)
				return
			}
			submissions = append(submissions, accepted...)
			if err := app.SaveAll(r.Context(), submissions); err != nil {
				httpx.LogInternalError(w, "db.save_submissions", err)
				return
			}
		}

		render.JSON(w, r, map[string]any{
			"added":  len(accepted),
			"total":  len(files),
			"errors": uploadErrors,
		})
	}
}

func readSubmissionFile(name string, open func() (io.ReadCloser, error)) (model.SubmissionRecord, error) {
	f, err := open()
	if err != nil {
		return model.SubmissionRecord{}, fmt.Errorf("read failed: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return model.SubmissionRecord{}, fmt.Errorf("read failed: %w", err)
	}

	var sub model.SubmissionRecord
	if err := json.Unmarshal(content, &sub); err != nil {
		return model.SubmissionRecord{}, fmt.Errorf("not valid JSON: %w", err)
	}

	switch {
	case sub.FormTitle == "":
		return model.SubmissionRecord{}, fmt.Errorf("missing formTitle")
	case sub.DataSchema.Fields == nil:
		return model.SubmissionRecord{}, fmt.Errorf("missing dataSchema.fields")
	case sub.FormData == nil:
		return model.SubmissionRecord{}, fmt.Errorf("missing formData")
	case sub.SubmittedAt.IsZero():
		return model.SubmissionRecord{}, fmt.Errorf("missing submittedAt")
	}

	// ids are assigned on ingestion, whatever the file carried
	sub.ID = fmt.Sprintf("%s_%d_%s", sub.FormTitle, sub.SubmittedAt.UnixMilli(), uuid.NewString()[:8])
	return sub, nil
}

type formSummary struct {
	FormTitle   string `json:"formTitle"`
	Submissions int    `json:"submissions"`
}

// ListForms returns the distinct uploaded form titles with their submission
// counts, in first-seen order.
func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		submissions, err := app.Load(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.load_submissions", err)
			return
		}

		index := map[string]int{}
		forms := []formSummary{}
		for _, sub := range submissions {
			if i, seen := index[sub.FormTitle]; seen {
				forms[i].Submissions++
				continue
			}
			index[sub.FormTitle] = len(forms)
			forms = append(forms, formSummary{FormTitle: sub.FormTitle, Submissions: 1})
		}

		render.JSON(w, r, map[string]any{
			"forms": forms,
		})
	}
}

func GetFormSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		title, ok := titleParam(w, r)
		if !ok {
			return
		}

		filtered, err := loadFormSubmissions(app, r, w, title)
		if filtered == nil || err != nil {
			return
		}

		render.JSON(w, r, map[string]any{
			"formTitle":   title,
			"submissions": filtered,
		})
	}
}

// GetFormResults aggregates every submission of a form against the data
// schema of its first record.
func GetFormResults(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		title, ok := titleParam(w, r)
		if !ok {
			return
		}

		filtered, err := loadFormSubmissions(app, r, w, title)
		if filtered == nil || err != nil {
			return
		}

		dataSchema := filtered[0].DataSchema
		results := aggregate.Aggregate(dataSchema, filtered)

		render.JSON(w, r, map[string]any{
			"formTitle":   title,
			"submissions": len(filtered),
			"results":     results,
		})
	}
}

type summaryRequestBody struct {
	CustomInstructions string `json:"customInstructions"`
}

// SummarizeFormResults packages the form's schema and answers for the
// summarization collaborator. A failure leaves stored data untouched and is
// retryable by calling again.
func SummarizeFormResults(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		title, ok := titleParam(w, r)
		if !ok {
			return
		}

		body := summaryRequestBody{}
		if r.Body != nil && r.ContentLength != 0 {
			if err := render.DecodeJSON(r.Body, &body); err != nil {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
				return
			}
		}

		filtered, err := loadFormSubmissions(app, r, w, title)
		if filtered == nil || err != nil {
			return
		}

		req, err := ai.BuildSummaryRequest(filtered[0].DataSchema, filtered, strings.TrimSpace(body.CustomInstructions))
		if err != nil {
			httpx.LogInternalError(w, "ai.build_summary_request", err)
			return
		}

		summary, err := app.Summarizer.SummarizeResults(r.Context(), req)
		if err != nil {
			log.Errorf("ai.summarize_results: %s", err)
			http.Error(w, "summary generation failed", http.StatusBadGateway)
			return
		}

		render.JSON(w, r, map[string]any{
			"summary": summary,
		})
	}
}

// DeleteFormData removes every submission of one form and rewrites the
// remaining collection wholesale.
func DeleteFormData(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		title, ok := titleParam(w, r)
		if !ok {
			return
		}

		collectionMu.Lock()
		defer collectionMu.Unlock()

		submissions, err := app.Load(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.load_submissions", err)
			return
		}

		remaining := submissions[:0]
		deleted := 0
		for _, sub := range submissions {
			if sub.FormTitle == title {
				deleted++
				continue
			}
			remaining = append(remaining, sub)
		}
		if deleted == 0 {
			httpx.LogNotFound(w, "delete_form_data", title)
			return
		}

		if err := app.SaveAll(r.Context(), remaining); err != nil {
			httpx.LogInternalError(w, "db.save_submissions", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"deleted": deleted,
		})
	}
}

func titleParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	title, err := url.PathUnescape(chi.URLParam(r, "title"))
	if err != nil || title == "" {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.title")
		return "", false
	}
	return title, true
}

// loadFormSubmissions loads the records for one form title, writing the
// error response itself when loading fails or the title is unknown.
func loadFormSubmissions(app app.App, r *http.Request, w http.ResponseWriter, title string) ([]model.SubmissionRecord, error) {
	submissions, err := app.Load(r.Context())
	if err != nil {
		httpx.LogInternalError(w, "db.load_submissions", err)
		return nil, err
	}

	filtered := []model.SubmissionRecord{}
	for _, sub := range submissions {
		if sub.FormTitle == title {
			filtered = append(filtered, sub)
		}
	}
	if len(filtered) == 0 {
		httpx.LogNotFound(w, "get_form_submissions", title)
		return nil, nil
	}
	return filtered, nil
}
