// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable name declared in `env` tags.
const EnvPrefix = "DUSKROLL_"

// ParseEnv loads configuration from DUSKROLL_-prefixed environment variables.
//
// Field tags name the variable without the prefix, so `env:"HTTP_ADDR"` reads
// DUSKROLL_HTTP_ADDR.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
