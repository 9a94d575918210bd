package logging

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
)

const (
	EnvLevel = "METRICQUERY_LOG_LEVEL"
	EnvJSON  = "METRICQUERY_LOG_JSON"
)

type Options struct {
	Level string
	JSON  bool

	// Output defaults to stderr.
	Output io.Writer
}

var def atomic.Value

func init() {
	Configure(Options{})
}

func Configure(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	cfg := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(out, cfg)
	} else {
		h = slog.NewTextHandler(out, cfg)
	}
	def.Store(slog.New(h))
}

// ParseLevel maps debug, warn and error to their slog levels; anything else
// is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

func L() *slog.Logger {
	l, _ := def.Load().(*slog.Logger)
	return l
}

// With returns the process logger scoped to a component.
func With(component string) *slog.Logger {
	return L().With("component", component)
}

func InitFromEnv() {
	json := false
	if b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvJSON))); err == nil {
		json = b
	}
	Configure(Options{Level: os.Getenv(EnvLevel), JSON: json})
}
