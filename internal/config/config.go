package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	HTTPPort        string        `env:"HTTP_PORT" env-default:"8080"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	LogLevel        string        `env:"LOG_LEVEL" env-default:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`

	AzureOrganization string        `env:"AZURE_ORGANIZATION" env-default:"podtech-io"`
	AzureProject      string        `env:"AZURE_PROJECT" env-default:"LifeSafety.ai"`
	AzurePAT          string        `env:"AZURE_DEVOPS_PAT_TOKEN"`
	CacheTTL          time.Duration `env:"CACHE_TTL" env-default:"5m"`
}

// Load reads configuration from the environment. An empty DATABASE_URL selects
// the in-memory storage variant; an empty AZURE_DEVOPS_PAT_TOKEN makes sync
// seed demo data instead of calling the remote platform.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	return cfg, nil
}
