package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Addr                string        `env:"RMG_ADDR" envDefault:"127.0.0.1:8080"`
	APIBaseURL          string        `env:"RMG_API_BASE_URL" envDefault:"https://rickandmortyapi.com/api"`
	HTTPTimeout         time.Duration `env:"RMG_HTTP_TIMEOUT" envDefault:"15s"`
	MaxConcurrentImages int           `env:"RMG_MAX_CONCURRENT_IMAGES" envDefault:"4"`
	PrefetchImages      bool          `env:"RMG_PREFETCH_IMAGES" envDefault:"false"`
	LogLevel            string        `env:"RMG_LOG_LEVEL" envDefault:"info"`
}

// Load lit la configuration depuis l'environnement; rien n'est persisté.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing env variables: %w", err)
	}
	if cfg.MaxConcurrentImages <= 0 {
		return Config{}, fmt.Errorf("RMG_MAX_CONCURRENT_IMAGES must be > 0, got %d", cfg.MaxConcurrentImages)
	}
	if cfg.HTTPTimeout <= 0 {
		return Config{}, fmt.Errorf("RMG_HTTP_TIMEOUT must be > 0, got %s", cfg.HTTPTimeout)
	}
	return cfg, nil
}
