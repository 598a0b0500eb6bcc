// Package logging builds the zap logger used by the CLI.
//
// Logs always go to stderr in console encoding so that "-" outputs on
// stdout stay machine-readable. The default level is warn; debug switches
// to zap's development config.
package logging

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	// Debug enables debug level, caller info and stack traces on warn.
	Debug bool
	// Quiet raises the level to error.
	Quiet bool
	// Tracing lowers the level to info so span logs are shown.
	Tracing bool
}

// New builds a console logger writing to stderr.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.Debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(level(opts))
		cfg.Sampling = nil
		cfg.EncoderConfig.TimeKey = ""
	}
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger, nil
}

// NewWriter builds the same console logger on an arbitrary writer.
func NewWriter(w io.Writer, opts Options) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		level(opts),
	)
	return zap.New(core)
}

func level(opts Options) zapcore.Level {
	switch {
	case opts.Debug:
		return zapcore.DebugLevel
	case opts.Tracing:
		return zapcore.InfoLevel
	case opts.Quiet:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}
