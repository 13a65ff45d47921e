// Package logging builds the application logger and scrubs credentials
// from values that end up in log lines.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds a zap logger for the given environment. "local" and "dev" get
// the human-readable development config; everything else logs structured
// JSON at info level.
func New(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	switch env {
	case "local", "dev", "development":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
