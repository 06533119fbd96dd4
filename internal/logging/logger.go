package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hpungsan/smartgallery/internal/config"
)

// Options configures logger construction.
type Options struct {
	Level       string
	Format      string
	Development bool

	// OutputPaths defaults to stderr. Stdout is reserved for command output and MCP stdio.
	OutputPaths      []string
	ErrorOutputPaths []string
}

// New builds a zap logger for the given options.
// Unknown levels fall back to info; unknown formats fall back to console.
func New(opts Options) (*zap.Logger, error) {
	level := parseLevel(opts.Level)

	encoding := "console"
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		encoding = "json"
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeDuration = zapcore.StringDurationEncoder
	if encoding == "console" {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	outputs := opts.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}
	errOutputs := opts.ErrorOutputPaths
	if len(errOutputs) == 0 {
		errOutputs = []string{"stderr"}
	}

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       opts.Development,
		DisableCaller:     level > zapcore.DebugLevel,
		DisableStacktrace: !opts.Development,
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       outputs,
		ErrorOutputPaths:  errOutputs,
	}
	return cfg.Build()
}

// NewFromConfig builds a logger from application config.
func NewFromConfig(cfg *config.Config) (*zap.Logger, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return New(Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
}

func parseLevel(raw string) zapcore.Level {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}
