// Package logs is the process-wide structured logger. It keeps the
// package-level call surface (logs.Info, logs.Error, ...) the rest of
// the tree uses, backed by zap instead of the standard library's log.Logger.
package logs

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	sugar  = mustBuild(LevelInfo)
	fields []zap.Field
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func mustBuild(level Level) *zap.SugaredLogger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.Lock(os.Stdout),
		toZapLevel(level),
	)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

func toZapLevel(l Level) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLevel adjusts the process-wide minimum log level.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	sugar = mustBuild(l).With(toArgs(fields)...)
}

// WithFields returns no value; it mutates the package logger's default
// fields (node id, role) so every subsequent call carries them.
func WithFields(kv ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			fields = append(fields, zap.Any(key, kv[i+1]))
		}
	}
	sugar = sugar.With(kv...)
}

func toArgs(f []zap.Field) []interface{} {
	out := make([]interface{}, len(f))
	for i, v := range f {
		out[i] = v
	}
	return out
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Debug(format string, v ...interface{}) { current().Debugf(format, v...) }
func Info(format string, v ...interface{})  { current().Infof(format, v...) }
func Warn(format string, v ...interface{})  { current().Warnf(format, v...) }
func Error(format string, v ...interface{}) { current().Errorf(format, v...) }

// Sync flushes any buffered log entries; call on process shutdown.
func Sync() error {
	return current().Sync()
}
