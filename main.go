package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/formwise/formwise/ai"
	"github.com/formwise/formwise/app"
	"github.com/formwise/formwise/config"
	"github.com/formwise/formwise/database"
	"github.com/formwise/formwise/log"
	"github.com/formwise/formwise/routes"
	"github.com/formwise/formwise/store"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	gemini, err := ai.NewGemini(context.Background(), cfg.GeminiKey, cfg.GeminiModel)
	if err != nil {
		log.Fatal("main.ai:", err)
	}

	app := app.App{
		Repository: store.NewSQLiteRepository(db),
		Parser:     gemini,
		Summarizer: gemini,
		Config:     cfg,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
