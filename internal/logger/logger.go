// Package logger wraps zap with a small module-tagged logging interface.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the logging surface used across clientdash. Every entry carries
// the emitting module and an optional details map.
type Logger interface {
	Debug(module, message string, details map[string]any)
	Info(module, message string, details map[string]any)
	Warn(module, message string, details map[string]any)
	Error(module, message string, details map[string]any)
	Sync() error
}

// Options configures NewZapLogger.
type Options struct {
	// FilePath enables a rotated JSON log file when non-empty.
	FilePath string

	// Level is the minimum console level: debug, info, warn or error.
	Level string

	// JSON switches the console encoder from human-readable to JSON.
	JSON bool

	// Console is where console entries go. Defaults to stderr so that
	// command output on stdout stays machine-readable.
	Console io.Writer

	// Rotation limits for the log file. Zero values use 10MB, 5 backups
	// and 30 days.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ZapLogger implements Logger on top of a zap core tee.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger builds a logger writing to the console and, if configured, to
// a lumberjack-rotated file.
func NewZapLogger(opts Options) *ZapLogger {
	level := zap.InfoLevel
	if opts.Level != "" {
		if l, err := zapcore.ParseLevel(opts.Level); err == nil {
			level = l
		}
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var consoleEncoder zapcore.Encoder
	if opts.JSON {
		consoleEncoder = zapcore.NewJSONEncoder(fileEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		consoleEncoder = zapcore.NewConsoleEncoder(cfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(zapcore.AddSync(console)), level),
	}

	if opts.FilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 30),
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncoderConfig()),
			zapcore.AddSync(rotator),
			zap.InfoLevel,
		))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return &ZapLogger{logger: l}
}

// NewNop returns a logger that discards everything.
func NewNop() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop()}
}

// FromZap adapts an existing zap logger.
func FromZap(l *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: l.WithOptions(zap.AddCallerSkip(1))}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.MessageKey = "message"
	cfg.LevelKey = "level"
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

func (l *ZapLogger) Debug(module, message string, details map[string]any) {
	l.logger.Debug(message, fields(module, details)...)
}

func (l *ZapLogger) Info(module, message string, details map[string]any) {
	l.logger.Info(message, fields(module, details)...)
}

func (l *ZapLogger) Warn(module, message string, details map[string]any) {
	l.logger.Warn(message, fields(module, details)...)
}

func (l *ZapLogger) Error(module, message string, details map[string]any) {
	fs := fields(module, details)
	if err, ok := details["error"].(error); ok {
		fs = append(fs, zap.Error(err))
	}
	l.logger.Error(message, fs...)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

func fields(module string, details map[string]any) []zap.Field {
	fs := []zap.Field{zap.String("module", module)}
	if len(details) > 0 {
		fs = append(fs, zap.Any("details", details))
	}
	return fs
}
