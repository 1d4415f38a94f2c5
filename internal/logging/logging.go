package logging

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
)

type Options struct {
	Level string
	JSON  bool
}

var def atomic.Value

func init() {
	cfg := &slog.HandlerOptions{Level: slog.LevelInfo}
	h := slog.NewJSONHandler(os.Stderr, cfg)
	def.Store(slog.New(h))
}

func Configure(opts Options) {
	lvl := parseLevel(opts.Level)
	cfg := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(os.Stderr, cfg)
	} else {
		h = slog.NewTextHandler(os.Stderr, cfg)
	}
	def.Store(slog.New(h))
}

func parseLevel(s string) slog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
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

// WithRecord returns the default logger scoped to one Kafka record, so
// every line about a message carries the same routing context.
func WithRecord(topic string, partition int32, offset int64) *slog.Logger {
	return L().With("topic", topic, "partition", partition, "offset", offset)
}

// InitFromEnv configures the default logger from STENCIL_LOG_LEVEL and
// STENCIL_LOG_JSON. JSON output is the default so deployments feed log
// pipelines without extra flags.
func InitFromEnv() {
	lvl := os.Getenv("STENCIL_LOG_LEVEL")
	jsonStr := os.Getenv("STENCIL_LOG_JSON")
	json := true
	if b, err := strconv.ParseBool(strings.TrimSpace(jsonStr)); err == nil {
		json = b
	}
	Configure(Options{Level: lvl, JSON: json})
}
