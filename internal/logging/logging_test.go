package logging_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/torosent/chaosfire/internal/logging"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level  string
		format logging.Format
		debug  bool
	}{
		{level: "debug", format: logging.FormatConsole, debug: true},
		{level: "info", format: logging.FormatJSON, debug: false},
		{level: "bogus", format: "", debug: false},
	}
	for _, tt := range tests {
		logger, err := logging.New(tt.level, tt.format)
		require.NoError(t, err)
		assert.Equal(t, tt.debug, logger.Core().Enabled(zapcore.DebugLevel), "level %q", tt.level)
	}
}

func TestFailureLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	fl := logging.NewFailureLogger(zap.New(core))

	fl.LogFailure(nil)
	fl.LogFailure(errors.New("connection refused"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "request failed", entry.Message)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "connection refused", entry.ContextMap()["error"])

	// nil logger must be usable
	logging.NewFailureLogger(nil).LogFailure(errors.New("ignored"))
}
