package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Handler: slog.NewTextHandler(&buf, nil), Component: ComponentStorage})

	l.Info("saved", FieldProfile, "Casa")
	out := buf.String()
	if !strings.Contains(out, "component=storage") || !strings.Contains(out, "profile=Casa") {
		t.Fatalf("unexpected log line: %s", out)
	}

	buf.Reset()
	l.WithComponent(ComponentHTTP).With(FieldRequestID, "req_1").Warn("slow")
	out = buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=http") {
		t.Fatalf("component should appear once: %s", out)
	}
	if !strings.Contains(out, "request_id=req_1") {
		t.Fatalf("missing request id: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromContext(t *testing.T) {
	l := Discard().WithComponent(ComponentWorker)
	ctx := WithLogger(context.Background(), l)
	if got := FromContext(ctx); got.Component() != ComponentWorker {
		t.Fatalf("expected worker logger, got %q", got.Component())
	}
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Fatalf("expected fallback logger, got %q", got.Component())
	}
}

func TestFieldsBuilder(t *testing.T) {
	f := NewFields().
		WithProfile("Casa").
		WithEntry("income", 3, 10.5).
		WithPeriod(2024, 3).
		WithError(nil)
	if f[FieldProfile] != "Casa" || f[FieldEntryID] != int64(3) || f[FieldMonth] != 3 {
		t.Fatalf("unexpected fields: %v", f)
	}
	if _, ok := f[FieldError]; ok {
		t.Fatalf("nil error should not be recorded")
	}
	if len(f.ToSlice()) != len(f)*2 {
		t.Fatalf("slice length mismatch")
	}
}
