package logger

import (
	"context"
	"testing"
)

func TestNewZapLogger(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"json info", Config{Level: InfoLevel, Format: JSONFormat}},
		{"text debug", Config{Level: DebugLevel, Format: TextFormat}},
		{"unknown level falls back", Config{Level: "bogus", Format: JSONFormat}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log, err := NewZapLogger(tc.cfg)
			if err != nil {
				t.Fatalf("NewZapLogger: %v", err)
			}
			log.Debug("debug", "k", "v")
			log.Info("info", "k", "v")
			log.With("component", "test").Warn("warn")
		})
	}
}

func TestWithContextRequestID(t *testing.T) {
	log, err := NewZapLogger(DefaultConfig())
	if err != nil {
		t.Fatalf("NewZapLogger: %v", err)
	}

	ctx := ContextWithRequestID(context.Background(), "req-123")
	child := log.WithContext(ctx)
	if child == nil {
		t.Fatal("expected child logger")
	}

	// No request ID present: the same logger comes back.
	if got := log.WithContext(context.Background()); got != Logger(log) {
		t.Fatal("expected identical logger when context carries no request ID")
	}
}

func TestParseLogLevel(t *testing.T) {
	if lvl, err := ParseLogLevel("warning"); err != nil || lvl != WarnLevel {
		t.Fatalf("ParseLogLevel(warning) = %v, %v", lvl, err)
	}
	if _, err := ParseLogLevel("nope"); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestParseLogFormat(t *testing.T) {
	if f, err := ParseLogFormat("console"); err != nil || f != TextFormat {
		t.Fatalf("ParseLogFormat(console) = %v, %v", f, err)
	}
	if _, err := ParseLogFormat("nope"); err == nil {
		t.Fatal("expected error for invalid format")
	}
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	log.Debug("d")
	log.Info("i")
	log.Warn("w")
	log.Error("e")
	if log.With("k", "v") == nil || log.WithContext(context.Background()) == nil {
		t.Fatal("nop logger must return usable children")
	}
}
