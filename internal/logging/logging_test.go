package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWithSinkFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithSink(zapcore.AddSync(&buf), zapcore.InfoLevel)

	log.Debug("hidden")
	log.Info("rewrote file", zap.String("path", "a.html"), zap.Int("tokens", 2))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug entry should be filtered, got %q", out)
	}
	for _, want := range []string{"INFO", "rewrote file", "a.html"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output %q", want, out)
		}
	}
}

func TestNewUnknownLevelFallsBackToWarn(t *testing.T) {
	log := New("chatty")
	if log.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled for an unknown level")
	}
	if !log.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled for an unknown level")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l := zap.NewExample()
	if OrNop(l) != l {
		t.Error("OrNop should return the given logger")
	}
}
