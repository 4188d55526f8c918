// Package logging builds the zap logger shared by the chaosfire command.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects the encoder.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// New returns a logger at the given level. An unparsable level falls back to
// info; json uses the production encoder, anything else the development one.
func New(level string, format Format) (*zap.Logger, error) {
	var cfg zap.Config
	if Format(strings.ToLower(string(format))) == FormatJSON {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// FailureLogger reports failed requests through zap.
type FailureLogger struct {
	logger *zap.Logger
}

// NewFailureLogger wraps logger. A nil logger discards everything.
func NewFailureLogger(logger *zap.Logger) *FailureLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FailureLogger{logger: logger}
}

// LogFailure logs err at warn level.
func (l *FailureLogger) LogFailure(err error) {
	if err == nil {
		return
	}
	l.logger.Warn("request failed", zap.Error(err))
}
