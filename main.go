package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	orchestratorx "github.com/chanakan-p/donna-agent/agent/agents/orchestrator"
	reasonerx "github.com/chanakan-p/donna-agent/agent/agents/reasoner"
	contactsx "github.com/chanakan-p/donna-agent/agent/contacts"
	contractx "github.com/chanakan-p/donna-agent/agent/contract"
	executorx "github.com/chanakan-p/donna-agent/agent/executor"
	llmx "github.com/chanakan-p/donna-agent/agent/llm"
	statex "github.com/chanakan-p/donna-agent/agent/state"
	toolx "github.com/chanakan-p/donna-agent/agent/tool"
	configx "github.com/chanakan-p/donna-agent/pkg/config"
	googleauthx "github.com/chanakan-p/donna-agent/pkg/googleauth"
	_ "github.com/chanakan-p/donna-agent/pkg/logger/autoload"
	serverx "github.com/chanakan-p/donna-agent/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	googleCfg := configx.MustNew[googleauthx.Config]("GOOGLE")
	googleClient, err := googleauthx.NewClient(*googleCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("google auth client")
	}

	registry := toolx.NewRegistry()
	gmail := toolx.NewGmailClient(googleClient)
	if err := gmail.RegisterTools(registry); err != nil {
		log.Fatal().Err(err).Msg("register gmail tools")
	}
	calendar := toolx.NewCalendarClient(googleClient)
	if err := calendar.RegisterTools(registry); err != nil {
		log.Fatal().Err(err).Msg("register calendar tools")
	}

	contactsCfg := configx.MustNew[contactsx.Config]("CONTACTS")
	var directory contractx.ContactDirectory = contactsx.NoDirectory{}
	if contactsCfg.DSN != "" {
		dir, err := contactsx.NewDirectory(*contactsCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("contacts directory")
		}
		defer dir.Close()
		directory = dir
	} else {
		log.Info().Msg("no contacts dsn configured, recipient lookups will miss")
	}

	llmCfg := configx.MustNew[llmx.Config]("OPENAI")
	models, err := reasonerx.NewRegistry(ctx, *llmCfg, registry.Catalogue(), directory)
	if err != nil {
		log.Fatal().Err(err).Msg("model registry")
	}

	executor, err := executorx.New(registry)
	if err != nil {
		log.Fatal().Err(err).Msg("tool executor")
	}

	store := statex.NewInMemoryStore()

	agent, err := orchestratorx.New(store, models, executor)
	if err != nil {
		log.Fatal().Err(err).Msg("orchestrator")
	}

	serverCfg := configx.MustNew[serverx.Config]("SERVER")
	srv, err := serverx.New(*serverCfg, agent, googleClient)
	if err != nil {
		log.Fatal().Err(err).Msg("http server")
	}

	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
	log.Info().Msg("shutdown complete")
}
