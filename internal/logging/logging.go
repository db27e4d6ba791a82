package logging

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// L is the default logger of the application
	L *zap.Logger
)

func init() {
	// Initialize with default production logger
	// This will be replaced when InitializeLogger is called
	L, _ = zap.NewProduction(zap.WithCaller(false))
}

// InitializeLogger configures the logger with the specified log level
func InitializeLogger(logLevel string) error {
	level, err := parseLogLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", logLevel, err)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.DisableCaller = true

	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	L = logger
	return nil
}

// InitializeFileLogger configures the logger to append JSON lines to a
// rotated capture.log inside the session directory, leaving the proxied
// process's own stdout and stderr untouched.
func InitializeFileLogger(logLevel, sessionDir string) error {
	level, err := parseLogLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", logLevel, err)
	}

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(sessionDir, "capture.log"),
		MaxSize:    50, // megabytes
		MaxBackups: 3,
		MaxAge:     7, // days
	})

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		w,
		zap.NewAtomicLevelAt(level),
	)

	L = zap.New(core)
	return nil
}

// parseLogLevel converts string log level to zapcore.Level
func parseLogLevel(logLevel string) (zapcore.Level, error) {
	switch strings.ToLower(logLevel) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("supported levels are: debug, info, warn, error, fatal")
	}
}
