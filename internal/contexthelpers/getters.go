package contexthelpers

import (
	"context"
)

// TraceID returns the request trace id or the empty string outside a request.
func TraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(traceIDContextKey).(string)
	if !ok {
		return ""
	}

	return traceID
}

