// Copyright 2025 The Frey Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log provides leveled structured logging on top of zap. Log entries
// carry free-form key value context, e.g.
//
//	log.Info("Creating device", "name", name, "role", role)
package log

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/freyproject/clabseed/pkg/private/serrors"
)

// Level is the log level type.
type Level = zapcore.Level

// Supported log levels.
const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	ErrorLevel = zapcore.ErrorLevel
)

// Logger describes the logger interface.
type Logger interface {
	New(ctx ...interface{}) Logger
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Enabled(lvl Level) bool
}

// Config configures the logging subsystem.
type Config struct {
	// Console is the configuration for the console logging.
	Console ConsoleConfig
}

// ConsoleConfig configures the log output to stderr.
type ConsoleConfig struct {
	// Level of console logging (defaults to info).
	Level string
	// Format of the console logging, "human" or "json" (defaults to human).
	Format string
	// DisableCaller stops annotating logs with the calling function's file
	// name and line number.
	DisableCaller bool
}

func (c ConsoleConfig) level() (zapcore.Level, error) {
	lvl := c.Level
	if lvl == "" {
		lvl = "info"
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(lvl))); err != nil {
		return 0, serrors.New("unsupported log level", "level", c.Level)
	}
	return level, nil
}

func (c ConsoleConfig) encoder() (string, zapcore.EncoderConfig, error) {
	switch c.Format {
	case "", "human":
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return "console", cfg, nil
	case "json":
		return "json", zap.NewProductionEncoderConfig(), nil
	default:
		return "", zapcore.EncoderConfig{},
			serrors.New("unsupported log format", "format", c.Format)
	}
}

// Setup configures the logging subsystem. It must be called before the root
// logger is used.
func Setup(cfg Config) error {
	level, err := cfg.Console.level()
	if err != nil {
		return err
	}
	encoding, encoderCfg, err := cfg.Console.encoder()
	if err != nil {
		return err
	}
	zCfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		DisableCaller:     cfg.Console.DisableCaller,
		DisableStacktrace: true,
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	zLogger, err := zCfg.Build()
	if err != nil {
		return serrors.Wrap("creating logger", err)
	}
	zap.ReplaceGlobals(zLogger)
	return nil
}

// HandlePanic catches panics and logs them before exiting with a non-zero
// exit code. It should be deferred at the start of every goroutine.
func HandlePanic() {
	if msg := recover(); msg != nil {
		zap.L().Error("Panic", zap.Any("msg", msg), zap.Stack("stacktrace"))
		zap.L().Sync()
		fmt.Fprintln(os.Stderr, "Exiting due to panic")
		os.Exit(255)
	}
}

// Flush writes the logs to the underlying buffer.
func Flush() {
	_ = zap.L().Sync()
}

// New creates a logger with the given context, derived from the root logger.
func New(ctx ...interface{}) Logger {
	return &logger{logger: zap.L().With(convertCtx(ctx)...)}
}

// Root returns the root logger. It's guaranteed to never return nil.
func Root() Logger {
	return &logger{logger: zap.L()}
}

// Debug logs at debug level, on the root logger.
func Debug(msg string, ctx ...interface{}) {
	Root().Debug(msg, ctx...)
}

// Info logs at info level, on the root logger.
func Info(msg string, ctx ...interface{}) {
	Root().Info(msg, ctx...)
}

// Error logs at error level, on the root logger.
func Error(msg string, ctx ...interface{}) {
	Root().Error(msg, ctx...)
}

type logger struct {
	logger *zap.Logger
}

func (l *logger) New(ctx ...interface{}) Logger {
	return &logger{logger: l.logger.With(convertCtx(ctx)...)}
}

func (l *logger) Debug(msg string, ctx ...interface{}) {
	l.logger.Debug(msg, convertCtx(ctx)...)
}

func (l *logger) Info(msg string, ctx ...interface{}) {
	l.logger.Info(msg, convertCtx(ctx)...)
}

func (l *logger) Error(msg string, ctx ...interface{}) {
	l.logger.Error(msg, convertCtx(ctx)...)
}

func (l *logger) Enabled(lvl Level) bool {
	return l.logger.Core().Enabled(lvl)
}

func convertCtx(ctx []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(ctx)/2)
	for i := 0; i+1 < len(ctx); i += 2 {
		fields = append(fields, zap.Any(ctx[i].(string), ctx[i+1]))
	}
	return fields
}
