package app

import (
	"github.com/formwise/formwise/ai"
	"github.com/formwise/formwise/config"
	"github.com/formwise/formwise/store"
)

type App struct {
	store.Repository
	Parser     ai.Parser
	Summarizer ai.Summarizer
	config.Config
}
