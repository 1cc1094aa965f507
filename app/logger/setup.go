package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// New returns the application logger for mode. APP_ENV, when set, wins over
// mode. Development (or an empty mode) gets colored debug output with source
// positions; anything else gets JSON at info level.
func New(mode string, w io.Writer) *slog.Logger {
	if env := os.Getenv("APP_ENV"); env != "" {
		mode = env
	}

	if isDevelopment(mode) {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func isDevelopment(mode string) bool {
	switch strings.ToLower(mode) {
	case "", "dev", "development", "local":
		return true
	}
	return false
}
