package log

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging interface shared by every Guardian component.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)

	// Error logs at ErrorLevel. err may be nil.
	Error(err error, msg string, keysAndValues ...any)

	// WithName appends a dot-separated name segment, e.g. "guardian.fleet".
	WithName(name string) Logger

	WithValues(keysAndValues ...any) Logger

	// Logr exposes the same core as a logr.Logger so it can travel in a
	// context.Context into per-unit tasks.
	Logr() logr.Logger

	// Sync flushes buffered entries.
	Sync() error
}

var _ Logger = (*zapLogger)(nil)

type zapLogger struct {
	core *zap.Logger
}

// NewLogger builds a Logger from opts. A nil opts uses NewOptions.
func NewLogger(opts *Options) Logger {
	core, err := build(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to build zap logger: %v", err))
	}
	return &zapLogger{core: core}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger {
	return &zapLogger{core: zap.NewNop()}
}

func build(opts *Options) (*zap.Logger, error) {
	if opts == nil {
		opts = NewOptions()
	}

	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	outputs := opts.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		DisableCaller:     opts.DisableCaller,
		DisableStacktrace: level > zapcore.DebugLevel,
		Encoding:          opts.Format,
		EncoderConfig:     encoderConfig(opts),
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
	}

	core, err := cfg.Build(zap.AddCallerSkip(opts.CallerSkip))
	if err != nil {
		return nil, err
	}
	if opts.Name != "" {
		core = core.Named(opts.Name)
	}
	return core, nil
}

func encoderConfig(opts *Options) zapcore.EncoderConfig {
	enc := zapcore.EncoderConfig{
		MessageKey:    "message",
		LevelKey:      "level",
		TimeKey:       "timestamp",
		NameKey:       "logger",
		CallerKey:     "caller",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
		// Intervals, cooldowns and ETAs are logged in milliseconds.
		EncodeDuration: func(d time.Duration, pae zapcore.PrimitiveArrayEncoder) {
			pae.AppendFloat64(float64(d) / float64(time.Millisecond))
		},
	}
	if opts.Format == "console" && opts.EnableColor {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return enc
}

func (z *zapLogger) Debug(msg string, keysAndValues ...any) {
	z.core.Debug(msg, toFields(keysAndValues...)...)
}

func (z *zapLogger) Info(msg string, keysAndValues ...any) {
	z.core.Info(msg, toFields(keysAndValues...)...)
}

func (z *zapLogger) Warn(msg string, keysAndValues ...any) {
	z.core.Warn(msg, toFields(keysAndValues...)...)
}

func (z *zapLogger) Error(err error, msg string, keysAndValues ...any) {
	fields := toFields(keysAndValues...)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	z.core.Error(msg, fields...)
}

func (z *zapLogger) WithName(name string) Logger {
	return &zapLogger{core: z.core.Named(name)}
}

func (z *zapLogger) WithValues(keysAndValues ...any) Logger {
	return &zapLogger{core: z.core.With(toFields(keysAndValues...)...)}
}

func (z *zapLogger) Logr() logr.Logger {
	return zapr.NewLogger(z.core)
}

func (z *zapLogger) Sync() error {
	return z.core.Sync()
}

var (
	mu  sync.RWMutex
	std = NewNopLogger()
	// pkg is std with one more frame skipped for the package-level helpers.
	pkg = NewNopLogger()
)

// Init installs the process-wide logger. Later calls replace it.
func Init(opts *Options) {
	l := NewLogger(opts).(*zapLogger)
	mu.Lock()
	defer mu.Unlock()
	std = l
	pkg = &zapLogger{core: l.core.WithOptions(zap.AddCallerSkip(1))}
}

// Std returns the process-wide logger.
func Std() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

func helper() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return pkg
}

func Debug(msg string, keysAndValues ...any)            { helper().Debug(msg, keysAndValues...) }
func Info(msg string, keysAndValues ...any)             { helper().Info(msg, keysAndValues...) }
func Warn(msg string, keysAndValues ...any)             { helper().Warn(msg, keysAndValues...) }
func Error(err error, msg string, keysAndValues ...any) { helper().Error(err, msg, keysAndValues...) }
func WithName(name string) Logger                       { return Std().WithName(name) }
func WithValues(keysAndValues ...any) Logger            { return Std().WithValues(keysAndValues...) }
func Logr() logr.Logger                                 { return Std().Logr() }
func Sync() error                                       { return Std().Sync() }
