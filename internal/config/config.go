// Package config loads the application configuration from defaults, an
// optional YAML file, and environment variables, in increasing precedence.
package config

import (
	"os"
	"runtime"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	Environment string `env:"ENV" yaml:"environment"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" yaml:"port"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" yaml:"read_timeout"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" yaml:"write_timeout"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" yaml:"idle_timeout"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout"`
	} `yaml:"http"`
	Logging struct {
		Level  string `env:"LOG_LEVEL" yaml:"level"`
		Format string `env:"LOG_FORMAT" yaml:"format"`
		Output string `env:"LOG_OUTPUT" yaml:"output"`
	} `yaml:"logging"`
	Search struct {
		// Workers is the parallel worker count; 0 selects GOMAXPROCS.
		Workers int `env:"SEARCH_WORKERS" yaml:"workers"`
		// TimeUnit is the snapshot interval of timed searches.
		TimeUnit time.Duration `env:"SEARCH_TIME_UNIT" yaml:"time_unit"`
		// MaxTimeUnits caps the time budget a request may ask for.
		MaxTimeUnits int `env:"SEARCH_MAX_TIME_UNITS" yaml:"max_time_units"`
		// RestartBase is the initial run length of the VAL restart schedule.
		RestartBase int `env:"SEARCH_RESTART_BASE" yaml:"restart_base"`
	} `yaml:"search"`
}

// Default returns the configuration defaults.
func Default() *Config {
	cfg := &Config{Environment: "development"}
	cfg.HTTP.Port = 8080
	cfg.HTTP.ReadTimeout = 30 * time.Second
	cfg.HTTP.WriteTimeout = 30 * time.Second
	cfg.HTTP.IdleTimeout = 120 * time.Second
	cfg.HTTP.ShutdownTimeout = 30 * time.Second
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"
	cfg.Logging.Output = "stderr"
	cfg.Search.Workers = 0
	cfg.Search.TimeUnit = time.Second
	cfg.Search.MaxTimeUnits = 600
	cfg.Search.RestartBase = 1000
	return cfg
}

// Load builds the configuration: defaults first, then the YAML file named
// by KILN_CONFIG when set, then environment variables on top.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("KILN_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}
	if cfg.Search.Workers <= 0 {
		cfg.Search.Workers = runtime.GOMAXPROCS(0)
	}

	return cfg, nil
}
