// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Environ is the part of the process environment scenenav reads.
type Environ struct {
	// ConfigPath names the config file when --config is not given.
	ConfigPath string `env:"SCENENAV_CONFIG"`

	// OTelEndpoint, when set, enables trace export over OTLP/HTTP.
	OTelEndpoint string `env:"SCENENAV_OTEL_ENDPOINT"`

	// LogLevel is debug, info, warn, or error.
	LogLevel string `env:"SCENENAV_LOG_LEVEL" envDefault:"info"`
}

// LoadEnviron parses Environ from the process environment.
func LoadEnviron() (Environ, error) {
	var environ Environ
	if err := env.Parse(&environ); err != nil {
		return Environ{}, fmt.Errorf("parse env: %w", err)
	}
	return environ, nil
}
