package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/formwise/formwise/app"
	"github.com/formwise/formwise/form"
	"github.com/formwise/formwise/httpx"
	"github.com/formwise/formwise/log"
	"github.com/formwise/formwise/model"
	"github.com/formwise/formwise/schema"
)

type parseQuestionnaireRequest struct {
	QuestionnaireDataURI string `json:"questionnaireDataUri"`
}

// ParseQuestionnaire hands the uploaded document to the extraction
// collaborator and returns a normalized form definition: non-empty title,
// every form field covered by the data schema.
func ParseQuestionnaire(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := parseQuestionnaireRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil || req.QuestionnaireDataURI == "" {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		def, err := app.Parser.ParseQuestionnaire(r.Context(), req.QuestionnaireDataURI)
		if err != nil {
			log.Errorf("ai.parse_questionnaire: %s", err)
			http.Error(w, "questionnaire extraction failed", http.StatusBadGateway)
			return
		}

		render.JSON(w, r, schema.Normalize(def))
	}
}

// RenderFormDocument turns a form definition into the standalone
// interactive HTML document, served as a download.
func RenderFormDocument(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		def := model.FormDefinition{}
		err := render.DecodeJSON(r.Body, &def)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if len(def.Fields) == 0 {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.render_form", "form definition has no fields")
			return
		}

		def = schema.Normalize(def)
		document, err := form.Generate(def)
		if err != nil {
			httpx.LogInternalError(w, "form.generate", err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(form.DownloadFilename(def.FormTitle)))
		w.Write(document)
	}
}
