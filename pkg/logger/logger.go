package logger

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const traceIDKey contextKey = "trace_id"

var log = zap.NewNop()

// Init builds the global JSON logger. format "console" switches to the
// human readable encoder for local development.
func Init(level, format string) error {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "log_level"
	cfg.EncoderConfig.StacktraceKey = ""
	cfg.OutputPaths = []string{"stdout"}
	if strings.EqualFold(format, "console") || strings.EqualFold(format, "text") {
		cfg.Encoding = "console"
	}

	built, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	log = built
	return nil
}

// Set replaces the global logger, mostly for tests.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	log = l
}

func L() *zap.Logger {
	return log
}

func Sync() {
	_ = log.Sync()
}

func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// GetTraceID retrieves trace_id from context, returns empty string if missing
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

// WithTraceID returns a new context with the given trace ID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func withTrace(ctx context.Context, fields []zap.Field) []zap.Field {
	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	return fields
}

// CONTEXT-AWARE LOGGING //

func CtxInfo(ctx context.Context, msg string, fields ...zap.Field) {
	log.Info(msg, withTrace(ctx, fields)...)
}

func CtxDebug(ctx context.Context, msg string, fields ...zap.Field) {
	log.Debug(msg, withTrace(ctx, fields)...)
}

func CtxWarn(ctx context.Context, msg string, fields ...zap.Field) {
	log.Warn(msg, withTrace(ctx, fields)...)
}

func CtxError(ctx context.Context, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	log.Error(msg, withTrace(ctx, fields)...)
}

// NON-CONTEXT LOGGING //

func Info(msg string, fields ...zap.Field) {
	log.Info(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	log.Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	log.Warn(msg, fields...)
}

func Error(msg string, err error, fields ...zap.Field) {
	log.Error(msg, append(fields, zap.Error(err))...)
}

func Fatal(msg string, err error, fields ...zap.Field) {
	log.Fatal(msg, append(fields, zap.Error(err))...)
}
