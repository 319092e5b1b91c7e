// Package logging builds the zap logger the commands share.
package logging

import (
  "fmt"
  "io"
  "strings"
  "time"

  "go.uber.org/zap"
  "go.uber.org/zap/zapcore"
)

// NewLogger configures a zap logger. An unknown level falls back to info;
// format is "console" or "json".
func NewLogger(level, format string) (*zap.Logger, error) {
  var lvl zapcore.Level
  if err := lvl.Set(strings.ToLower(strings.TrimSpace(level))); err != nil {
    lvl = zapcore.InfoLevel
  }

  switch format {
  case "", "console":
    format = "console"
  case "json":
  default:
    return nil, fmt.Errorf("logging: unknown format %q", format)
  }

  cfg := zap.Config{
    Level:            zap.NewAtomicLevelAt(lvl),
    Development:      false,
    Encoding:         format,
    EncoderConfig:    encoderConfig(format),
    OutputPaths:      []string{"stderr"},
    ErrorOutputPaths: []string{"stderr"},
  }

  return cfg.Build()
}

func encoderConfig(format string) zapcore.EncoderConfig {
  enc := zapcore.EncoderConfig{
    TimeKey:        "ts",
    LevelKey:       "level",
    NameKey:        "logger",
    CallerKey:      "caller",
    MessageKey:     "msg",
    StacktraceKey:  "stack",
    LineEnding:     zapcore.DefaultLineEnding,
    EncodeLevel:    zapcore.LowercaseLevelEncoder,
    EncodeTime:     func(t time.Time, enc zapcore.PrimitiveArrayEncoder) { enc.AppendString(t.UTC().Format(time.RFC3339Nano)) },
    EncodeDuration: zapcore.StringDurationEncoder,
    EncodeCaller:   zapcore.ShortCallerEncoder,
  }
  if format == "console" {
    enc.EncodeLevel = zapcore.CapitalLevelEncoder
    enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
  }
  return enc
}

// Close closes c and logs the outcome, a failure at warn level.
func Close(logger *zap.Logger, what string, c io.Closer) {
  if err := c.Close(); err != nil {
    logger.Warn("close failed", zap.String("resource", what), zap.Error(err))
    return
  }
  logger.Debug("closed", zap.String("resource", what))
}
