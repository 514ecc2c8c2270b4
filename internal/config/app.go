package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/sandevgo/pulsebot/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"PULSE_RUNTIME_PATH" envDefault:".pulsebot"`
	AccountID   string `env:"ACCOUNT_ID" envDefault:"default"`
	BotID       string `env:"BOT_ID" envDefault:"pulse"`

	// Transport Flags
	EnableTelegram bool `env:"ENABLE_TELEGRAM" envDefault:"true"`

	// Context Management
	ContextWindowSize int `env:"CONTEXT_WINDOW_SIZE" envDefault:"30"`

	// Session rollover: inactivity threshold before a new session starts.
	SessionTTLHours int `env:"SESSION_TTL_HOURS" envDefault:"24"`

	// Distillation: soft word target for the persisted user context.
	ContextWordTarget int `env:"CONTEXT_WORD_TARGET" envDefault:"500"`

	// Command grammar: the conclusion prefix is a deployment choice
	// (TG_CONCLUSION here, CONCLUSION in older deployments). Only the
	// configured one is recognized.
	ConclusionPrefix string `env:"CONCLUSION_PREFIX" envDefault:"TG_CONCLUSION"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetInstructionsPath() string {
	return filepath.Join(c.RuntimePath, "SYSTEM.md")
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "pulsebot.db")
}

func (c AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}
