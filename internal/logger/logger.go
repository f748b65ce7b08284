// Package logger provides notefs's severity logger: a slog.Logger
// wired to either the text or JSON handler, with a runtime-adjustable
// level and optional rotation to a file via lumberjack.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Severity levels, in addition to slog's built-in Debug/Info/Warn/Error:
// Trace is finer than Debug, and Off silences everything.
const (
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
	LevelOff   slog.Level = 16
)

// Severity names as accepted in configuration.
const (
	Trace   = "TRACE"
	Debug   = "DEBUG"
	Info    = "INFO"
	Warning = "WARNING"
	Error   = "ERROR"
	Off     = "OFF"
)

var (
	mu            sync.Mutex
	programLevel  = new(slog.LevelVar)
	defaultLogger = slog.New(newHandler(os.Stderr, programLevel, "json"))
	rotator       *lumberjack.Logger
)

// Config selects the logger's destination, format and severity.
type Config struct {
	FilePath string
	Format   string // "text" or "json"
	Severity string
	MaxSizeMB       int
	BackupFileCount int
	Compress        bool
}

// Init (re)configures the package-level logger. An empty FilePath logs
// to stderr; otherwise output rotates through lumberjack.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	var w io.Writer = os.Stderr
	if cfg.FilePath != "" {
		rotator = &lumberjack.Logger{
			Filename: cfg.FilePath,
			MaxSize:  cfg.MaxSizeMB,
			MaxBackups: cfg.BackupFileCount,
			Compress:   cfg.Compress,
		}
		w = rotator
	}

	setLevel(cfg.Severity)
	format := cfg.Format
	if format == "" {
		format = "json"
	}
	defaultLogger = slog.New(newHandler(w, programLevel, format))
	return nil
}

func setLevel(severity string) {
	switch strings.ToUpper(severity) {
	case Trace:
		programLevel.Set(LevelTrace)
	case Debug:
		programLevel.Set(LevelDebug)
	case Info:
		programLevel.Set(LevelInfo)
	case Warning:
		programLevel.Set(LevelWarn)
	case Error:
		programLevel.Set(LevelError)
	case Off:
		programLevel.Set(LevelOff)
	default:
		programLevel.Set(LevelInfo)
	}
}

// handler renders severity under the key "severity" rather than
// slog's default "level", matching the text some callers grep for in
// production logs.
type handler struct {
	slog.Handler
}

func newHandler(w io.Writer, level slog.Leveler, format string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				a.Key = "severity"
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(levelName(lvl))
				}
			}
			return a
		},
	}
	if strings.EqualFold(format, "text") {
		return &handler{slog.NewTextHandler(w, opts)}
	}
	return &handler{slog.NewJSONHandler(w, opts)}
}

func levelName(l slog.Level) string {
	switch {
	case l <= LevelTrace:
		return Trace
	case l < LevelInfo:
		return Debug
	case l < LevelWarn:
		return Info
	case l < LevelError:
		return Warning
	default:
		return Error
	}
}

func log(ctx context.Context, level slog.Level, format string, args ...interface{}) {
	mu.Lock()
	l := defaultLogger
	mu.Unlock()
	if !l.Enabled(ctx, level) {
		return
	}
	l.Log(ctx, level, fmt.Sprintf(format, args...))
}

func Tracef(format string, args ...interface{}) { log(context.Background(), LevelTrace, format, args...) }
func Debugf(format string, args ...interface{}) { log(context.Background(), LevelDebug, format, args...) }
func Infof(format string, args ...interface{})  { log(context.Background(), LevelInfo, format, args...) }
func Warnf(format string, args ...interface{})  { log(context.Background(), LevelWarn, format, args...) }
func Errorf(format string, args ...interface{}) { log(context.Background(), LevelError, format, args...) }
