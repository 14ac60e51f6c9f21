package log

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerKeyT string

const loggerKey loggerKeyT = "zap_logger"

var (
	defaultLogger *zap.Logger
	defaultMu     sync.RWMutex
)

func init() {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	defaultLogger = l
}

// SetDefault replaces the logger returned by Logger for contexts that do not
// carry their own
func SetDefault(l *zap.Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// Logger returns the logger attached to ctx, or the default logger
func Logger(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// WithLogger returns a context carrying the given logger
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// With returns a context whose logger carries the given fields
func With(ctx context.Context, fields ...zap.Field) context.Context {
	return WithLogger(ctx, Logger(ctx).With(fields...))
}

// Fatal logs the message with the default logger and exits
func Fatal(msg string, fields ...zap.Field) {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	l.Fatal(msg, fields...)
}
