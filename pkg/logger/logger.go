// Package logger wraps zap with request-scoped fields carried in a context.
package logger

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var (
	mu            sync.RWMutex
	defaultLogger *zap.Logger
)

// Init builds the process logger. format is "json" or "console".
func Init(level, format string) error {
	var cfg zap.Config
	if strings.ToLower(format) == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// Set replaces the process logger. Tests use it with zap.NewNop or zaptest.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Default returns the process logger, falling back to a no-op logger.
func Default() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if defaultLogger == nil {
		return zap.NewNop()
	}
	return defaultLogger
}

// WithRequestID stores the request id used by FromContext.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// FromContext returns the process logger annotated with the request id.
func FromContext(ctx context.Context) *zap.Logger {
	l := Default()
	if id := RequestID(ctx); id != "" {
		l = l.With(zap.String("request_id", id))
	}
	return l
}

// Sync flushes buffered entries.
func Sync() {
	_ = Default().Sync()
}
