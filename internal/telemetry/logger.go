package telemetry

import (
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes structured events. A nil *Logger discards everything.
type Logger struct {
	z *zap.Logger
}

// NewLogger logs JSON lines to path. An empty path discards output. dev
// switches to zap's development encoder at debug level.
func NewLogger(path string, dev bool) (*Logger, error) {
	if path == "" {
		return Nop(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	cfg.DisableStacktrace = !dev
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{z: z}, nil
}

// FromZap wraps an existing zap logger, mostly for tests using zaptest/observer.
func FromZap(z *zap.Logger) *Logger {
	return &Logger{z: z}
}

func Nop() *Logger {
	return &Logger{z: zap.NewNop()}
}

func (l *Logger) Debug(msg string, fields map[string]any) {
	l.log(zapcore.DebugLevel, msg, fields)
}

func (l *Logger) Info(msg string, fields map[string]any) {
	l.log(zapcore.InfoLevel, msg, fields)
}

func (l *Logger) Warn(msg string, fields map[string]any) {
	l.log(zapcore.WarnLevel, msg, fields)
}

func (l *Logger) Error(msg string, fields map[string]any) {
	l.log(zapcore.ErrorLevel, msg, fields)
}

// With returns a logger that stamps fields on every entry.
func (l *Logger) With(fields map[string]any) *Logger {
	if l == nil || l.z == nil {
		return l
	}
	return &Logger{z: l.z.With(toFields(fields)...)}
}

func (l *Logger) log(level zapcore.Level, msg string, fields map[string]any) {
	if l == nil || l.z == nil {
		return
	}
	if ce := l.z.Check(level, msg); ce != nil {
		ce.Write(toFields(fields)...)
	}
}

func (l *Logger) Close() error {
	if l == nil || l.z == nil {
		return nil
	}
	_ = l.z.Sync()
	return nil
}

func toFields(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}
