// Package logging builds the shared zap logger for the service.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New constructs a logger for the given mode ("development" uses the
// console preset, anything else the production JSON preset). The returned
// AtomicLevel stays live, so the level can be adjusted at runtime, e.g.
// when the config file changes.
func New(mode, level string) (*zap.Logger, zap.AtomicLevel, error) {
	var cfg zap.Config
	if mode == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, zap.AtomicLevel{}, fmt.Errorf("parsing log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(parsed)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("building logger: %w", err)
	}
	return logger, cfg.Level, nil
}
