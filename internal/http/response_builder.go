// Package http serves the razhodi JSON API.
//
// This file implements a small builder for JSON responses and the mapping
// from service errors to status codes.

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"

	"razhodi/internal/core"
	applog "razhodi/internal/log"
	"razhodi/internal/services"
	"razhodi/internal/sheets"
)

var (
	// errBadRequest marks input the handler could not read at all.
	errBadRequest = errors.New("bad request")
	// errTooLarge marks uploads over the configured limit.
	errTooLarge = errors.New("upload too large")
)

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body. A nil body writes none.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil || b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n"))
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal server error")
}

func ServiceUnavailableError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, message)
}

// TooManyRequestsError tells the client when to retry.
func TooManyRequestsError(retryAfter time.Duration) *JSONResponseBuilder {
	secs := int(retryAfter.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").
		Header("Retry-After", strconv.Itoa(secs))
}

// NoContent is the response of writes with nothing to return.
func NoContent() *JSONResponseBuilder {
	return NewJSONResponse().Status(http.StatusNoContent)
}

// errorResponse maps err to the response the client sees. The second result
// is the error type to log; internal errors are the only ones reported.
func errorResponse(err error) (*JSONResponseBuilder, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return BadRequestError(err.Error()), applog.ErrorTypeValidation
	case errors.Is(err, errTooLarge):
		return ErrorResponse(http.StatusRequestEntityTooLarge, err.Error()), applog.ErrorTypeValidation
	case errors.Is(err, sheets.ErrSheetNotFound):
		return NotFoundError("sheet not found"), applog.ErrorTypeNotFound
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError("not found"), applog.ErrorTypeNotFound
	case core.IsValidationError(err):
		return UnprocessableEntityError(err.Error()), applog.ErrorTypeValidation
	case errors.Is(err, services.ErrSheetsDisabled):
		return ServiceUnavailableError(err.Error()), applog.ErrorTypeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return InternalServerError(), applog.ErrorTypeTimeout
	default:
		return InternalServerError(), applog.ErrorTypeInternal
	}
}

// writeError answers with the status matching err. Server-side failures are
// logged with their cause and sent to Sentry; the client only gets a generic
// message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	resp, errorType := errorResponse(err)
	ctx := r.Context()

	if resp.statusCode >= 500 && resp.statusCode != http.StatusServiceUnavailable {
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Request failed", err, operation,
			applog.NewFields().WithErrorType(errorType))
		reportError(ctx, err, operation)
	} else {
		applog.FromContext(ctx).DebugContext(ctx, "Request rejected",
			applog.FieldOperation, operation,
			applog.FieldErrorType, errorType,
			applog.FieldError, err.Error())
	}
	resp.Write(w)
}

func reportError(ctx context.Context, err error, operation string) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag(applog.FieldOperation, operation)
		hub.CaptureException(err)
	})
}
