// Package http provides the JSON API server and its handlers.
//
// This file implements a small builder for JSON responses and the mapping
// from service errors to HTTP status codes.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/ai"
	"fintrack/internal/charts"
	"fintrack/internal/core"
	"fintrack/internal/importer"
	applog "fintrack/internal/log"
)

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode  int
	headers     map[string]string
	payload     any
	body        []byte
	contentType string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets a value to be encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.payload = v
	b.body = nil
	return b
}

// Bytes sets a raw body with its content type.
func (b *ResponseBuilder) Bytes(contentType string, content []byte) *ResponseBuilder {
	b.contentType = contentType
	b.body = content
	b.payload = nil
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if b.payload == nil {
		if b.contentType != "" {
			w.Header().Set("Content-Type", b.contentType)
		}
		w.WriteHeader(b.statusCode)
		if len(b.body) > 0 {
			_, _ = w.Write(b.body)
		}
		return
	}

	data, err := json.Marshal(b.payload)
	if err != nil {
		slog.Error("Failed to encode response", applog.FieldComponent, applog.ComponentHTTP, applog.FieldError, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(data, '\n'))
}

type errorBody struct {
	Error string `json:"error"`

	// Rows lists per-line import rejections.
	Rows []string `json:"rows,omitempty"`
}

// ErrorResponse writes {"error": message} with the given status.
func ErrorResponse(w http.ResponseWriter, status int, message string) {
	NewResponse().Status(status).JSON(errorBody{Error: message}).Write(w)
}

// writeError maps err to a status and writes it. Server-side failures are
// logged and their detail is not exposed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	message := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		fields := applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", "", "")
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, applog.OpRead, fields)
		message = http.StatusText(status)
	}
	if status == http.StatusServiceUnavailable {
		slog.WarnContext(r.Context(), "AI request failed",
			applog.FieldComponent, applog.ComponentHTTP,
			"path", r.URL.Path,
			applog.FieldError, err)
	}
	ErrorResponse(w, status, message)
}

func statusForError(err error) int {
	var parseErr *core.ParseError
	var rowErr importer.RowError
	switch {
	case errors.Is(err, core.ErrMissingUser),
		errors.Is(err, ai.ErrEmptyQuestion),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound),
		errors.Is(err, charts.ErrNoData):
		return http.StatusNotFound
	case errors.As(err, &parseErr),
		errors.As(err, &rowErr),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidCategory),
		errors.Is(err, core.ErrNegativeAmount),
		errors.Is(err, core.ErrAmountTooLarge),
		errors.Is(err, core.ErrDescriptionTooLong),
		errors.Is(err, importer.ErrEmptyFile),
		errors.Is(err, importer.ErrMissingColumn),
		errors.Is(err, importer.ErrNoTransactions),
		errors.Is(err, ai.ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ai.ErrUnavailable),
		errors.Is(err, ai.ErrEmptyResponse),
		errors.Is(err, ai.ErrGeneration):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
