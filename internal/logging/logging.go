package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction.
type Options struct {
	// Level can be raised or lowered after construction. Zero means info.
	Level zap.AtomicLevel
	// JSON switches from console to JSON encoding.
	JSON bool
}

// New creates a structured logger writing to stderr so command output on
// stdout stays machine-readable.
func New(opts Options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	if opts.JSON {
		cfg.Encoding = "json"
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.StacktraceKey = "stacktrace"
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	cfg.Sampling = nil

	if opts.Level != (zap.AtomicLevel{}) {
		cfg.Level = opts.Level
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
