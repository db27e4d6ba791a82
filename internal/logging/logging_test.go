package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected zapcore.Level
		wantErr  bool
	}{
		{"debug", "debug", zapcore.DebugLevel, false},
		{"info", "info", zapcore.InfoLevel, false},
		{"warn", "warn", zapcore.WarnLevel, false},
		{"warning alias", "warning", zapcore.WarnLevel, false},
		{"error", "error", zapcore.ErrorLevel, false},
		{"fatal", "fatal", zapcore.FatalLevel, false},
		{"mixed case", "INFO", zapcore.InfoLevel, false},
		{"unknown", "verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := parseLogLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestInitializeLoggerRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, InitializeLogger("verbose"))
}

func TestInitializeFileLogger(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, InitializeFileLogger("debug", dir))

	L.Info("capture layer test line")
	_ = L.Sync()

	content, err := os.ReadFile(filepath.Join(dir, "capture.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "capture layer test line")
}
