package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	ToxiproxyURL    string `env:"TOXIPROXY_URL" envDefault:"http://localhost:8474"`
	ProxyListenHost string `env:"PROXY_LISTEN_HOST" envDefault:"0.0.0.0"`
	ProxyPublicHost string `env:"PROXY_PUBLIC_HOST" envDefault:"host.docker.internal"`
	ProxyBasePort   int    `env:"PROXY_BASE_PORT" envDefault:"26000"`

	StagingDirectory string        `env:"STAGING_DIRECTORY"`
	JobRetention     time.Duration `env:"JOB_RETENTION" envDefault:"1h"`
}

func LoadConfig() (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.JobRetention <= 0 {
		return nil, fmt.Errorf("JOB_RETENTION must be positive, got %s", cfg.JobRetention)
	}

	return cfg, nil
}
