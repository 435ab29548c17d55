// Package logging sets up log/slog for the daemon: one logger per module,
// each with its own level, writing to stderr and to the systemd journal when
// one is running.
//
// Stdout is left alone because simulation mode uses it as the serial line.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config selects the global level, the output format and per-module levels.
type Config struct {
	Level   string            `toml:"level" yaml:"level"`
	Format  string            `toml:"format" yaml:"format"`
	Modules map[string]string `toml:"modules" yaml:"modules"`
}

var (
	mu      sync.Mutex
	current Config
	levels  = make(map[string]*slog.LevelVar)
	loggers = make(map[string]*slog.Logger)
)

var output io.Writer = os.Stderr

var journalOn = IsJournalAvailable

// Initialize applies cfg. Loggers handed out earlier pick up the new levels;
// their handlers are rebuilt so a format change takes effect too.
func Initialize(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	current = cfg
	for module, lv := range levels {
		lv.Set(levelFor(module))
		loggers[module] = slog.New(newHandler(cfg.Format, lv)).With("module", module)
	}

	global := &slog.LevelVar{}
	global.Set(parseLevel(cfg.Level, slog.LevelInfo))
	slog.SetDefault(slog.New(newHandler(cfg.Format, global)))
}

// GetLogger returns the logger for module, creating it on first use.
func GetLogger(module string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[module]; ok {
		return l
	}
	lv := &slog.LevelVar{}
	lv.Set(levelFor(module))
	l := slog.New(newHandler(current.Format, lv)).With("module", module)
	levels[module] = lv
	loggers[module] = l
	return l
}

// SetOutput redirects the text/json output. Loggers created afterwards, and
// all loggers after the next Initialize, write to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func levelFor(module string) slog.Level {
	global := parseLevel(current.Level, slog.LevelInfo)
	if s, ok := current.Modules[module]; ok {
		return parseLevel(s, global)
	}
	return global
}

func newHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(output, opts)
	} else {
		h = slog.NewTextHandler(output, opts)
	}
	if journalOn() {
		return NewMultiHandler(h, NewJournalHandler(level))
	}
	return h
}

// parseLevel converts a level name, falling back to def for unknown names.
func parseLevel(s string, def slog.Level) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return def
}
