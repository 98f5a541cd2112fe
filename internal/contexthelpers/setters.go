package contexthelpers

import (
	"context"
	"github.com/google/uuid"
	"net/http"
)

// SetTraceID assigns a fresh trace id to the request. An incoming X-Request-Id header is honoured
// so that the client can correlate its own logs.
func SetTraceID(r *http.Request) *http.Request {
	traceID := r.Header.Get("X-Request-Id")
	if _, err := uuid.Parse(traceID); err != nil {
		traceID = uuid.NewString()
	}
	ctx := context.WithValue(r.Context(), traceIDContextKey, traceID)
	return r.WithContext(ctx)
}

