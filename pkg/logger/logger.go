package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the service logger. Production JSON output by default, console
// output with debug level when verbose.
func New(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewProduction()
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	return cfg.Build()
}
