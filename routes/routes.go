package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/formwise/formwise/app"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	// questionnaire to form
	api.Post("/questionnaires", ParseQuestionnaire(app))
	api.Post("/forms/html", RenderFormDocument(app))

	// investigator dashboard
	api.Post("/submissions", UploadSubmissions(app))
	api.Get("/forms", ListForms(app))
	api.Get("/forms/{title}/submissions", GetFormSubmissions(app))
	api.Get("/forms/{title}/results", GetFormResults(app))
	api.Post("/forms/{title}/summary", SummarizeFormResults(app))
	api.Delete("/forms/{title}", DeleteFormData(app))

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}
