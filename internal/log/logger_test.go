package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"

	"easyfinances/internal/core"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Component: ComponentApp, Output: &buf}).
		WithComponent(ComponentNotifications)

	logger.Info("marked as paid", FieldTransactionID, 42)

	out := buf.String()
	if !strings.Contains(out, "component=notifications") {
		t.Errorf("missing component in %q", out)
	}
	if !strings.Contains(out, "transaction_id=42") {
		t.Errorf("missing field in %q", out)
	}
}

func TestWithTransactionFields(t *testing.T) {
	parent := int64(3)
	f := NewFields().WithTransaction(core.Transaction{
		ID:     9,
		Amount: core.MoneyFromCents(1234),
		Date:   core.NewDate(2024, 3, 1),
		Kind:   core.Expense,
		Parent: &parent,
	})
	if f[FieldAmountCents] != int64(1234) || f[FieldSeriesID] != int64(3) || f[FieldDate] != "2024-03-01" {
		t.Errorf("unexpected fields %v", f)
	}
}

func TestMiddlewareAttachesRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Component: ComponentHTTP, Output: &buf})

	var seen *Logger
	h := middleware.RequestID(Middleware(base)(AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/home", nil))

	if seen == nil || seen == base {
		t.Fatalf("request logger not derived from base")
	}
	out := buf.String()
	if !strings.Contains(out, "request_id=") || !strings.Contains(out, "status_code=418") {
		t.Errorf("access log missing fields: %q", out)
	}
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("4xx should log at warn: %q", out)
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Errorf("FromContext fallback = %+v", l)
	}
}
