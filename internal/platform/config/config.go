package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"aquajudge"`
	HTTPPort    string `env:"HTTP_PORT"    envDefault:"8080"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	AppEnv      string `env:"APP_ENV"      envDefault:"dev"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`
	SentryDSN   string `env:"SENTRY_DSN"`
	Release     string `env:"RELEASE"`

	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB"          envDefault:"0"`
	ResultsCacheTTL time.Duration `env:"RESULTS_CACHE_TTL" envDefault:"24h"`

	JWTSecret string `env:"JWT_SECRET"`

	TelegramBotToken       string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramAnnounceChatID int64  `env:"TELEGRAM_ANNOUNCE_CHAT_ID"`

	WorkerPollInterval    time.Duration `env:"WORKER_POLL_INTERVAL"    envDefault:"5s"`
	OutboxBatchSize       int           `env:"OUTBOX_BATCH_SIZE"       envDefault:"100"`
	AutoCloseRegistration bool          `env:"AUTO_CLOSE_REGISTRATION" envDefault:"false"`
	RunMigrations         bool          `env:"RUN_MIGRATIONS"          envDefault:"true"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.ServiceName = strings.TrimSpace(cfg.ServiceName)
	cfg.PostgresDSN = strings.TrimSpace(cfg.PostgresDSN)
	if cfg.WorkerPollInterval <= 0 {
		cfg.WorkerPollInterval = 5 * time.Second
	}
	return cfg, nil
}

// IsProd reports whether the process runs with production defaults.
func (c Config) IsProd() bool {
	return strings.EqualFold(c.AppEnv, "prod")
}
