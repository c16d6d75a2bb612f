package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newBufferLogger(component string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: slog.LevelDebug, Component: component, Writer: &buf}), &buf
}

func TestLoggerCarriesComponent(t *testing.T) {
	logger, buf := newBufferLogger(ComponentImport)
	logger.Info("parsed", FieldImported, 4)

	out := buf.String()
	if !strings.Contains(out, "component=import") {
		t.Errorf("missing component in %q", out)
	}
	if !strings.Contains(out, "imported=4") {
		t.Errorf("missing field in %q", out)
	}
}

func TestWithComponentReplacesComponent(t *testing.T) {
	logger, buf := newBufferLogger(ComponentHTTP)
	logger.WithComponent(ComponentWorker).Info("hello")

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=worker") {
		t.Errorf("expected a single worker component, got %q", out)
	}
	if logger.WithComponent(ComponentWorker).Component() != ComponentWorker {
		t.Error("Component() not updated")
	}
}

func TestFromContext(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != ComponentApp {
		t.Fatalf("expected default app logger, got %+v", l)
	}

	logger, _ := newBufferLogger(ComponentHTTP)
	ctx := NewContext(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("logger not retrieved from context")
	}
}

func TestMiddlewareChain(t *testing.T) {
	logger, buf := newBufferLogger(ComponentHTTP)

	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/apartments", nil))

	if !strings.Contains(buf.String(), "request_id=req_1") {
		t.Errorf("request id missing from %q", buf.String())
	}
}

func TestStructuredLogger(t *testing.T) {
	logger, buf := newBufferLogger(ComponentHTTP)
	sl := NewStructuredLogger(logger)
	ctx := context.Background()
	r := httptest.NewRequest(http.MethodPost, "/api/apartments/a1/import?x=1", nil)

	sl.LogHTTPEnd(ctx, r, "req_2", "10.0.0.1", http.StatusNotFound, 15*time.Millisecond)
	if out := buf.String(); !strings.Contains(out, "level=WARN") || !strings.Contains(out, "status_code=404") {
		t.Errorf("unexpected 4xx line %q", out)
	}

	buf.Reset()
	sl.LogHTTPEnd(ctx, r, "req_2", "10.0.0.1", http.StatusInternalServerError, time.Millisecond)
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("5xx should log at error: %q", buf.String())
	}

	buf.Reset()
	sl.LogImport(ctx, "a1", "upload", 4, []string{"Парно"}, []int{2023, 2024})
	if out := buf.String(); !strings.Contains(out, "imported=4") || !strings.Contains(out, "apartment_id=a1") {
		t.Errorf("unexpected import line %q", out)
	}

	buf.Reset()
	sl.LogError(ctx, "Export failed", errors.New("boom"), OpExport, NewFields().WithApartmentYear("a1", 2024))
	if out := buf.String(); !strings.Contains(out, "error=boom") || !strings.Contains(out, "year=2024") {
		t.Errorf("unexpected error line %q", out)
	}
}
