package main

import (
	"encoding/json"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/myrjola/faqforge/internal/ai"
	"github.com/myrjola/faqforge/internal/contexthelpers"
	"github.com/myrjola/faqforge/internal/errors"
	"log/slog"
	"net/http"
)

const maxBodyBytes = 10 << 20

// errorBody is the JSON document of every failed API request.
type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
	TraceID string `json:"traceId"`
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "marshal response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (app *application) writeError(w http.ResponseWriter, r *http.Request, status int, message, code string, err error) {
	body := errorBody{
		Error:   message,
		Code:    code,
		Details: "",
		TraceID: contexthelpers.TraceID(r.Context()),
	}
	if app.diagnostics && err != nil {
		body.Details = err.Error()
	}
	app.writeJSON(w, r, status, body)
}

// serverError logs the full error and answers with a generic 500.
func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	app.writeError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), "internal",
		err)
}

// clientError answers with a 400 validation error carrying message.
func (app *application) clientError(w http.ResponseWriter, r *http.Request, message string, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelDebug, message,
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	app.writeError(w, r, http.StatusBadRequest, message, ai.ErrorCode(ai.ErrValidation), err)
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.logger.LogAttrs(r.Context(), slog.LevelDebug, "not found", slog.String("uri", r.URL.RequestURI()))
	app.writeError(w, r, http.StatusNotFound, http.StatusText(http.StatusNotFound), "not_found", nil)
}

// fail maps a pipeline error to its status. failure is the message shown when the provider call failed.
func (app *application) fail(w http.ResponseWriter, r *http.Request, err error, failure string) {
	code := ai.ErrorCode(err)
	var (
		status  int
		message string
	)
	switch {
	case errors.Is(err, ai.ErrValidation):
		status, message = http.StatusBadRequest, "Invalid request."
	case errors.Is(err, ai.ErrProviderUnavailable):
		status, message = http.StatusBadRequest, "Provider not configured."
	case errors.Is(err, ai.ErrAnalysisUnavailable):
		status, message = http.StatusBadRequest, "Analysis service unavailable."
	case errors.Is(err, ai.ErrInvalidResponseFormat):
		status, message = http.StatusInternalServerError, failure+" Invalid response format."
	case errors.Is(err, ai.ErrUpstreamCallFailed):
		status, message = http.StatusInternalServerError, failure
	default:
		app.serverError(w, r, err)
		return
	}

	level := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	app.logger.LogAttrs(r.Context(), level, message, slog.String("method", r.Method),
		slog.String("uri", r.URL.RequestURI()), errors.SlogError(err))
	app.writeError(w, r, status, message, code, err)
}

// decode reads the JSON body into dst and validates it. It answers the request with a 400 and returns false when
// the body is unusable. message is shown for validation failures.
func (app *application) decode(w http.ResponseWriter, r *http.Request, dst any, message string) bool {
	return app.decodeJSON(w, r, dst) && app.validBody(w, r, dst, message)
}

func (app *application) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		app.clientError(w, r, "Invalid JSON body.", errors.Wrap(err, "decode body"))
		return false
	}
	return true
}

func (app *application) validBody(w http.ResponseWriter, r *http.Request, dst any, message string) bool {
	err := app.validate.Struct(dst)
	if err == nil {
		return true
	}
	var validationErrors validator.ValidationErrors
	attrs := []slog.Attr{}
	if errors.As(err, &validationErrors) {
		for _, fe := range validationErrors {
			attrs = append(attrs, slog.String(fe.Namespace(), fe.Tag()))
		}
	}
	app.clientError(w, r, message, errors.Wrap(fmt.Errorf("%w: %w", ai.ErrValidation, err), "validate body", attrs...))
	return false
}
