package util

import (
	"os"
	"time"

	prettyconsole "github.com/thessem/zap-prettyconsole"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// clockEncoder encodes time as HH:MM:SS for compact console output
func clockEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05"))
}

// NewLogger creates a zap logger writing to stdout.
// json - if true logs are in json format
// level - minimum level to emit
func NewLogger(json bool, level zapcore.Level) *zap.Logger {
	return NewLoggerWithOutput(json, level, os.Stdout)
}

// NewLoggerWithOutput creates a zap logger with a custom output writer.
// The console form uses prettyconsole for readable key=value output.
func NewLoggerWithOutput(json bool, level zapcore.Level, output zapcore.WriteSyncer) *zap.Logger {
	if json {
		econf := zapcore.EncoderConfig{
			MessageKey:     "msg",
			LevelKey:       "level",
			TimeKey:        "time",
			NameKey:        "logger",
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		}
		return zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(econf), output, level))
	}

	pcfg := prettyconsole.NewEncoderConfig()
	pcfg.EncodeTime = clockEncoder
	return zap.New(zapcore.NewCore(prettyconsole.NewEncoder(pcfg), output, level))
}
