// Package logger wraps zap with context-scoped fields, mirroring the
// logging convention used throughout the surrounding judge platform.
package logger

import (
	"context"
	"fmt"
	"os"
	"time"

	"judgecore/pkg/contextkey"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger *Logger

// Logger wraps zap logger with context support.
type Logger struct {
	zap   *zap.Logger
	level zapcore.Level
}

// Config holds logger configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	OutputPath string // file path or "stdout"
	ErrorPath  string // error log file path or "stderr"
	Component  string // component name, e.g. "judgecore"
}

// Init initializes the global logger.
func Init(cfg Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	globalLogger = l
	return nil
}

// New creates a standalone logger instance.
func New(cfg Config) (*Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     rfc3339TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	writeSyncer, err := openSink(cfg.OutputPath, os.Stdout)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, writeSyncer, level)

	options := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Component != "" {
		options = append(options, zap.Fields(zap.String("component", cfg.Component)))
	}

	return &Logger{zap: zap.New(core, options...), level: level}, nil
}

func openSink(path string, fallback *os.File) (zapcore.WriteSyncer, error) {
	switch path {
	case "", "stdout":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	default:
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		return zapcore.AddSync(file), nil
	}
}

func rfc3339TimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format(time.RFC3339))
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// WithContext extracts run-scoped fields from ctx and returns a scoped logger.
func (l *Logger) WithContext(ctx context.Context) *zap.Logger {
	return l.zap.With(fieldsFromContext(ctx)...)
}

// Raw returns the underlying zap logger, unscoped.
func (l *Logger) Raw() *zap.Logger {
	return l.zap
}

func fieldsFromContext(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if runID := ctx.Value(contextkey.RunID); runID != nil {
		fields = append(fields, zap.String("run_id", fmt.Sprint(runID)))
	}
	if jobID := ctx.Value(contextkey.TestJob); jobID != nil {
		fields = append(fields, zap.String("job_id", fmt.Sprint(jobID)))
	}
	return fields
}

// Global returns the package-level logger, or a no-op discard logger if Init
// was never called.
func Global() *Logger {
	if globalLogger == nil {
		return &Logger{zap: zap.NewNop()}
	}
	return globalLogger
}

func Debug(ctx context.Context, msg string, fields ...zap.Field) { Global().WithContext(ctx).Debug(msg, fields...) }
func Info(ctx context.Context, msg string, fields ...zap.Field)  { Global().WithContext(ctx).Info(msg, fields...) }
func Warn(ctx context.Context, msg string, fields ...zap.Field)  { Global().WithContext(ctx).Warn(msg, fields...) }
func Error(ctx context.Context, msg string, fields ...zap.Field) { Global().WithContext(ctx).Error(msg, fields...) }

// Sync flushes the global logger.
func Sync() error {
	if globalLogger == nil {
		return nil
	}
	return globalLogger.Sync()
}
