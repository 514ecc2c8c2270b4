package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sandevgo/pulsebot/internal/config"
	"github.com/sandevgo/pulsebot/internal/core"
	"github.com/sandevgo/pulsebot/internal/providers/llm"
	"github.com/sandevgo/pulsebot/internal/service/agent"
	"github.com/sandevgo/pulsebot/internal/service/command"
	"github.com/sandevgo/pulsebot/internal/service/session"
	"github.com/sandevgo/pulsebot/internal/storage/sqlite"
	"github.com/sandevgo/pulsebot/internal/transport/telegram"
	"github.com/sandevgo/pulsebot/pkg/log"
	"github.com/sandevgo/pulsebot/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	err := initEnv(ctx, config.GetRuntimePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	llmCfg := config.NewLLMConfig(ctx)

	// 2. Storage
	db, turnsRepo, contextsRepo, err := initStorage(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	// 3. AI Provider
	aiProvider, err := llm.NewProvider(ctx, llmCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}

	// 4. Session lifecycle
	distiller := session.NewDistiller(turnsRepo, contextsRepo, aiProvider, appCfg.ContextWordTarget)
	resolver := session.NewResolver(turnsRepo, distiller, appCfg.SessionTTL())

	// 5. Commands
	router := command.NewRouter(llmCfg, aiProvider, turnsRepo, distiller)

	// 6. Agent Service
	ag := agent.NewAgent(
		loadProfile(ctx, appCfg),
		turnsRepo,
		contextsRepo,
		aiProvider,
		resolver,
		router,
		appCfg.ContextWindowSize,
	)

	// 7. Transports
	transports, err := initTransports(ctx, appCfg, ag)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transports")
	}
	services = append(services, transports...)

	return services
}

func initStorage(ctx context.Context, cfg *config.AppConfig) (*sql.DB, core.TurnsRepository, core.UserContextRepository, error) {
	db, err := sqlite.NewDB(ctx, cfg.GetDatabasePath())
	if err != nil {
		return nil, nil, nil, err
	}
	return db, sqlite.NewTurnsRepo(db), sqlite.NewUserContextRepo(db), nil
}

// loadProfile reads the persona instructions from the runtime path. A missing
// SYSTEM.md is fine, the bot just runs without a persona.
func loadProfile(ctx context.Context, cfg *config.AppConfig) core.BotProfile {
	profile := core.BotProfile{
		Name:             core.PulseName,
		ConclusionPrefix: cfg.ConclusionPrefix,
	}

	data, err := os.ReadFile(cfg.GetInstructionsPath())
	if err != nil {
		if !os.IsNotExist(err) {
			log.FromCtx(ctx).Warn().Err(err).Msg("failed to read instructions file")
		}
		return profile
	}

	profile.Instructions = strings.TrimSpace(string(data))
	return profile
}

func initTransports(ctx context.Context, cfg *config.AppConfig, ag *agent.Agent) ([]srv.Service, error) {
	var services []srv.Service

	// Telegram Bot
	if cfg.EnableTelegram {
		tgCfg := config.NewTelegramConfig(ctx)
		bot, err := telegram.NewBot(ctx, tgCfg, cfg, ag)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	return services, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
