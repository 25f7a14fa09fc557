// Package observability holds the service's zap logging setup and HTTP
// request logging.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/fitquest/internal/config"
)

// NewLogger builds the process logger. "json" yields sampled production
// output for log shippers; "console" yields colourised, unsampled output
// for local runs.
//
// Precondition: cfg has passed config validation.
// Postcondition: Returns a logger whose core drops entries below cfg.Level, or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	zc, err := baseConfig(cfg.Format)
	if err != nil {
		return nil, err
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	logger, err := zc.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

func baseConfig(format string) (zap.Config, error) {
	switch format {
	case "json":
		return zap.NewProductionConfig(), nil
	case "console":
		zc := zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.Sampling = nil
		return zc, nil
	default:
		return zap.Config{}, fmt.Errorf("log format %q: want json or console", format)
	}
}

// ForService tags every entry with the deployment's name and environment.
func ForService(logger *zap.Logger, s config.ServerConfig) *zap.Logger {
	return logger.Named(s.Name).With(zap.String("env", s.Environment))
}
