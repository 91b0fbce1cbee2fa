package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"none", LevelNone},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	handler := middleware.RequestID(RequestLogging(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ContextRequestLogger(r.Context()) == slog.Default() {
			t.Errorf("expected a request logger in the context")
		}
		ContextWithLogAttrs(r.Context(), slog.String("ticket", "abc-123"))
		w.WriteHeader(http.StatusNotFound)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/x", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a single JSON log entry, got %q: %v", buf.String(), err)
	}

	if entry["msg"] != "Request completed" || entry["level"] != "WARN" {
		t.Errorf("unexpected entry %v", entry)
	}
	if entry["status"] != float64(http.StatusNotFound) || entry["ticket"] != "abc-123" {
		t.Errorf("expected status and added attributes, got %v", entry)
	}
	if entry["request_id"] == "" || entry["path"] != "/api/v1/events/x" {
		t.Errorf("expected request attributes, got %v", entry)
	}
}

func TestContextHelpersOutsideRequest(t *testing.T) {
	ctx := context.Background()
	ContextWithLogAttrs(ctx, slog.String("ignored", "yes"))

	if ContextRequestLogger(ctx) != slog.Default() {
		t.Errorf("expected the default logger outside a request")
	}
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo, "prod").Info("issued", slog.String("ticket", "abc-123"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("prod logs should be JSON: %v (%s)", err, buf.String())
	}
	if entry["ticket"] != "abc-123" {
		t.Errorf("unexpected entry %v", entry)
	}

	buf.Reset()
	NewLogger(&buf, slog.LevelWarn, "dev").Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at warn level, got %q", buf.String())
	}
}
