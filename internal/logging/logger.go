// Package logging builds the zap loggers used across the pipeline.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFileName is the debug log written under the logs directory.
const LogFileName = "pipeline.log"

// Options control logger construction.
type Options struct {
	// Level is the console level: debug, info, warn, error.
	Level string
	// Dir, when set, adds a JSON file core at debug level.
	Dir string
}

// New returns a logger writing human-readable lines to stderr at the
// configured level and, if opts.Dir is set, everything at debug level to
// Dir/pipeline.log. The returned cleanup flushes the logger and closes the
// log file; it is never nil.
func New(opts Options) (*zap.Logger, func(), error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), level),
	}

	closeFile := func() {}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
		sink, closeSink, err := zap.Open(filepath.Join(opts.Dir, LogFileName))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		closeFile = closeSink
		fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEncoder, sink, zapcore.DebugLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	cleanup := func() {
		_ = logger.Sync()
		closeFile()
	}
	return logger, cleanup, nil
}
