package contexthelpers

type contextKey string

const traceIDContextKey = contextKey("traceID")
