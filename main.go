package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aniketh-deriv/smith-pm/internal/agent"
	"github.com/aniketh-deriv/smith-pm/internal/config"
	"github.com/aniketh-deriv/smith-pm/internal/feedback"
	"github.com/aniketh-deriv/smith-pm/internal/llm"
	"github.com/aniketh-deriv/smith-pm/internal/logger"
	"github.com/aniketh-deriv/smith-pm/internal/memory"
	"github.com/aniketh-deriv/smith-pm/internal/prefs"
	"github.com/aniketh-deriv/smith-pm/internal/router"
	"github.com/aniketh-deriv/smith-pm/internal/slackbot"
)

const configFile = "config.yaml"

func main() {
	// .env is optional outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("failed to load environment configuration")
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output); err != nil {
		logger.Error().Err(err).Msg("failed to initialize logger")
		os.Exit(1)
	}

	yamlCfg, err := config.LoadYAML(configFile)
	if err != nil {
		logger.Error().Err(err).Str("file", configFile).Msg("failed to load roster configuration")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store memory.Store
	if cfg.Redis.URL != "" {
		redisStore, err := memory.NewRedisStore(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("failed to connect to Redis")
			os.Exit(1)
		}
		defer redisStore.Close()
		store = redisStore
	} else {
		logger.Warn().Msg("REDIS_URL not set, running with in-memory store")
		store = memory.NewInMemoryStore()
	}

	gen, err := llm.NewGenerator(ctx, cfg.Model)
	if err != nil {
		logger.Error().Err(err).Str("provider", cfg.Model.Provider).Msg("failed to build generator")
		os.Exit(1)
	}

	chatModel, err := llm.NewChatModel(ctx, cfg.Model)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build extraction model")
		os.Exit(1)
	}
	extractor, err := prefs.NewExtractor(ctx, chatModel, cfg.Model.Timeout)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build preference extractor")
		os.Exit(1)
	}

	extra := make([]agent.Definition, 0, len(yamlCfg.Agents))
	for _, entry := range yamlCfg.Agents {
		extra = append(extra, agent.Definition{
			Name:         entry.Name,
			Description:  entry.Description,
			Instructions: entry.Instructions,
		})
	}
	roster, err := agent.LoadRoster(ctx, store, extra)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load agent roster")
		os.Exit(1)
	}

	var approver router.Approver
	if yamlCfg.Router.AutoApprove {
		approver = router.AutoApprover{}
	}

	rt, err := router.New(store, gen, agent.NewModelSelector(gen, roster),
		extractor, prefs.NewWriter(store), approver, roster,
		router.Config{
			MaxTurns:         yamlCfg.Router.MaxTurns,
			SessionCacheSize: yamlCfg.Router.SessionCacheSize,
			FallbackReply:    yamlCfg.Router.FallbackReply,
		})
	if err != nil {
		logger.Error().Err(err).Msg("failed to build router")
		os.Exit(1)
	}

	bot, err := slackbot.New(cfg.Slack, rt, feedback.New(store, gen), yamlCfg.Slack.AllowedBotIDs)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start Slack bot")
		os.Exit(1)
	}

	logger.Info().
		Str("provider", cfg.Model.Provider).
		Int("agents", len(roster)).
		Msg("starting smith-pm")

	if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("slack bot stopped")
		os.Exit(1)
	}
}
