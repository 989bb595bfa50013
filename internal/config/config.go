package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds bootstrap configuration shared across services. Gameplay tunables
// (pairing probability, timeouts, prompts) live in the settings store instead
// so admin changes apply without a restart.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"imposterchat"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres Postgres
	Redis    Redis
	AI       AI
}

// Postgres captures connection info for the stats database. Optional: when
// Host is empty, guess results are not persisted.
type Postgres struct {
	Host     string `env:"PG_HOST"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER"`
	Password string `env:"PG_PASSWORD"`
	Database string `env:"PG_DATABASE"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis backs the live settings store. Optional: when Addr is empty, settings
// stay in-process only.
type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// AI holds bootstrap credentials per provider. These seed the settings store
// defaults; the admin surface can replace them at runtime.
type AI struct {
	Provider string `env:"AI_PROVIDER" envDefault:"gemini"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL string `env:"OPENAI_API_BASE_URL" envDefault:"https://api.openai.com/v1"`

	XAIAPIKey  string `env:"XAI_API_KEY"`
	XAIModel   string `env:"XAI_MODEL" envDefault:"grok-1.5-flash"`
	XAIBaseURL string `env:"XAI_API_BASE_URL" envDefault:"https://api.x.ai/v1"`

	HTTPTimeout time.Duration `env:"AI_HTTP_TIMEOUT" envDefault:"15s"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
