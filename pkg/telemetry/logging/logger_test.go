package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T, cfg Config) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg.Writer = &buf
	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return logger, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid JSON config", config: Config{Level: "info", Format: "json", RedactPII: true}},
		{name: "valid text config", config: Config{Level: "debug", Format: "text"}},
		{name: "valid console config", config: Config{Level: "WARN", Format: "console"}},
		{name: "empty config", config: Config{}},
		{name: "invalid log level", config: Config{Level: "invalid"}, wantErr: true},
		{name: "invalid format", config: Config{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Writer = &bytes.Buffer{}
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "warn"})

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected info to be filtered, got %q", buf.String())
	}

	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("Expected warn to be logged, got %q", buf.String())
	}
}

func TestLogger_ContextFields(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "info"})

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithUser(ctx, "user-9")
	ctx = WithTier(ctx, "pro")
	ctx = WithCategory(ctx, "generate")

	logger.InfoContext(ctx, "checked", "remaining", 4)

	entry := decodeLine(t, buf)
	want := map[string]any{
		"request_id": "req-1",
		"user_id":    "user-9",
		"tier":       "pro",
		"category":   "generate",
		"remaining":  float64(4),
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("Expected %s=%v, got %v", k, v, entry[k])
		}
	}
}

func TestLogger_Redaction(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "info", RedactPII: true})

	logger.Info("auth",
		"header", "Bearer abc.def.ghi",
		"api_key", "pp_live_123456",
		"email", "jane@example.com",
	)

	out := buf.String()
	for _, leaked := range []string{"abc.def.ghi", "pp_live_123456", "jane@"} {
		if strings.Contains(out, leaked) {
			t.Errorf("Expected %q to be redacted, got %s", leaked, out)
		}
	}

	entry := decodeLine(t, buf)
	if entry["api_key"] != "pp_l***" {
		t.Errorf("Expected api_key prefix kept, got %v", entry["api_key"])
	}
	if entry["email"] != "***@example.com" {
		t.Errorf("Expected email domain kept, got %v", entry["email"])
	}
}

func TestLogger_RedactionInWith(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "info", RedactPII: true})

	logger.With("token", "super-secret-token").Info("scoped")

	if strings.Contains(buf.String(), "super-secret-token") {
		t.Errorf("Expected With attrs to be redacted, got %s", buf.String())
	}
}

func TestLogger_NoRedaction(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "info"})

	logger.Info("raw", "email", "jane@example.com")

	if !strings.Contains(buf.String(), "jane@example.com") {
		t.Errorf("Expected raw value without redaction, got %s", buf.String())
	}
}

func TestLogger_TextFormat(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "info", Format: "text"})

	logger.Info("hello", "k", "v")

	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "k=v") {
		t.Errorf("Unexpected text output %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		err  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"Warning", slog.LevelWarn, false},
		{"ERROR", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("parseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}
