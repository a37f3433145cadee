// Package logging builds the zap logger used by the service.
package logging

import (
	"strings"

	"go.uber.org/zap"
)

// New returns a production (JSON) logger for "prod"/"production" and a
// development (console) logger otherwise.
func New(mode string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}

// Install builds a logger for mode and makes it the zap global. The returned
// func flushes and restores the previous globals.
func Install(mode string) (func(), error) {
	logger, err := New(mode)
	if err != nil {
		return nil, err
	}
	restore := zap.ReplaceGlobals(logger)
	return func() {
		_ = logger.Sync()
		restore()
	}, nil
}
