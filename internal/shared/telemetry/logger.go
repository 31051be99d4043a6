package telemetry

import (
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	loggerOnce sync.Once
	logger     *zap.Logger
)

// stdout resolves os.Stdout on every write so redirection after startup is honoured.
type stdout struct{}

func (stdout) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdout) Sync() error                 { return nil }

func base() *zap.Logger {
	loggerOnce.Do(func() {
		encCfg := zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			MessageKey:     "msg",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     utcRFC3339,
			EncodeDuration: zapcore.MillisDurationEncoder,
		}
		core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), stdout{}, zapcore.InfoLevel)
		logger = zap.New(core)
	})
	return logger
}

func utcRFC3339(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(time.RFC3339))
}

// Logger exposes the underlying zap logger for components that want typed fields.
func Logger() *zap.Logger {
	return base()
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	base().Info(msg, toZap(fields)...)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	base().Warn(msg, toZap(fields)...)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	base().Error(msg, toZap(fields)...)
}

func toZap(fields map[string]any) []zap.Field {
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
