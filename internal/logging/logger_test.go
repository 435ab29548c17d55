package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func reset(t *testing.T, buf *bytes.Buffer) {
	t.Helper()
	mu.Lock()
	levels = make(map[string]*slog.LevelVar)
	loggers = make(map[string]*slog.Logger)
	current = Config{}
	output = buf
	journalOn = func() bool { return false }
	mu.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	var buf bytes.Buffer
	reset(t, &buf)

	Initialize(Config{
		Level:   "info",
		Format:  "text",
		Modules: map[string]string{"mqtt": "debug", "web": "warn"},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
	}{
		{"mqtt", true, true},
		{"web", false, false},
		{"loop", false, true},
	}
	for _, tt := range tests {
		h := GetLogger(tt.module).Handler()
		if got := h.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
			t.Errorf("%s debug: got %v, want %v", tt.module, got, tt.wantDebug)
		}
		if got := h.Enabled(context.Background(), slog.LevelInfo); got != tt.wantInfo {
			t.Errorf("%s info: got %v, want %v", tt.module, got, tt.wantInfo)
		}
	}
}

func TestInitializeUpdatesExistingLoggers(t *testing.T) {
	var buf bytes.Buffer
	reset(t, &buf)

	before := GetLogger("gpio")
	if before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should be off by default")
	}

	Initialize(Config{Level: "debug"})

	if !GetLogger("gpio").Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be on after Initialize")
	}
}

func TestJSONFormatAndModuleAttr(t *testing.T) {
	var buf bytes.Buffer
	reset(t, &buf)
	Initialize(Config{Level: "info", Format: "json"})

	GetLogger("serial").Info("opened", "port", "/dev/ttyUSB0")

	out := buf.String()
	if !strings.Contains(out, `"module":"serial"`) || !strings.Contains(out, `"port":"/dev/ttyUSB0"`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("WARNING", slog.LevelInfo) != slog.LevelWarn {
		t.Error("WARNING should parse as warn")
	}
	if parseLevel("verbose", slog.LevelError) != slog.LevelError {
		t.Error("unknown level should fall back to default")
	}
}

type failingHandler struct{}

func (failingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("journal down") }
func (f failingHandler) WithAttrs([]slog.Attr) slog.Handler      { return f }
func (f failingHandler) WithGroup(string) slog.Handler           { return f }

func TestMultiHandlerWritesPastFailure(t *testing.T) {
	var warnBuf, debugBuf bytes.Buffer
	warn := slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})
	debug := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	m := NewMultiHandler(failingHandler{}, warn, debug).WithAttrs([]slog.Attr{slog.String("module", "mqtt")})

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "connected", 0)
	if err := m.Handle(context.Background(), r); err == nil {
		t.Error("expected the failing handler's error")
	}
	if warnBuf.Len() != 0 {
		t.Errorf("warn handler should skip info records: %s", warnBuf.String())
	}
	if !strings.Contains(debugBuf.String(), "module=mqtt") {
		t.Errorf("debug handler missed the record: %q", debugBuf.String())
	}
}
