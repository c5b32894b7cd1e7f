// Package config defines the environment configuration and the YAML run
// manifest that together describe one quality-control batch.
package config

import (
	"github.com/caarlos0/env/v11"
)

// EnvConfig holds runtime overrides read from the environment. Values here
// win over the manifest so operators can tune a run without editing it.
type EnvConfig struct {
	// Workers overrides the subject worker-pool size; 0 leaves the manifest
	// value in effect.
	Workers int `env:"QC_WORKERS" envDefault:"0"`

	// LogLevel sets the zerolog global level.
	LogLevel string `env:"QC_LOG_LEVEL" envDefault:"info"`
}

// LoadEnv parses the environment configuration.
func LoadEnv() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
