package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"classifier-service/internal/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LogConfig
		enabled zapcore.Level
		skipped zapcore.Level
	}{
		{"json info", config.LogConfig{Level: "info", Format: "json"}, zapcore.InfoLevel, zapcore.DebugLevel},
		{"console debug", config.LogConfig{Level: "debug", Format: "console"}, zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"invalid level falls back to info", config.LogConfig{Level: "invalid", Format: "json"}, zapcore.InfoLevel, zapcore.DebugLevel},
		{"error level", config.LogConfig{Level: "error", Format: "json"}, zapcore.ErrorLevel, zapcore.WarnLevel},
		{"warn level", config.LogConfig{Level: "warn", Format: "console"}, zapcore.WarnLevel, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			logger, err := NewLogger(&cfg)

			assert.NoError(t, err)
			assert.NotNil(t, logger)
			assert.True(t, logger.Core().Enabled(tt.enabled))
			assert.False(t, logger.Core().Enabled(tt.skipped))
		})
	}
}
