// Package logger configures process-wide logging.
//
// Init installs a colored slog handler (tint) as the default logger, which also
// routes the standard "log" package through it. InfoLogger, WarnLogger and
// ErrorLogger are *log.Logger views on the same handler for call sites that
// prefer Printf-style logging.
//
// Environment variables:
//
//	LOG_LEVEL: debug, info, warn, error (default: info)
package logger

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

var (
	InfoLogger  = log.New(os.Stderr, "INFO ", log.LstdFlags)
	WarnLogger  = log.New(os.Stderr, "WARN ", log.LstdFlags)
	ErrorLogger = log.New(os.Stderr, "ERROR ", log.LstdFlags)
)

// Init configures logging at the level taken from LOG_LEVEL.
func Init() {
	InitWithWriter(os.Stderr, levelFromEnv())
}

// InitWithWriter configures logging to w at the given level.
func InitWithWriter(w io.Writer, level slog.Level) {
	handler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    !isTerminal(w),
	})
	slog.SetDefault(slog.New(handler))

	InfoLogger = slog.NewLogLogger(handler, slog.LevelInfo)
	WarnLogger = slog.NewLogLogger(handler, slog.LevelWarn)
	ErrorLogger = slog.NewLogLogger(handler, slog.LevelError)
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
