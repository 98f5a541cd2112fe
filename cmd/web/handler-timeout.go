package main

import (
	"net/http"
)

const timeoutBody = `{"error":"The request took too long to complete","code":"timeout"}`

// timeout responds with a 503 Service Unavailable JSON error when the handler does not meet the request deadline.
//
// The deadline also cancels the request context, which aborts the provider calls still in flight. The server's
// write timeout is kept longer so that the timeout handler has a chance to respond before the connection closes.
func (app *application) timeout(next http.Handler) http.Handler {
	h := http.TimeoutHandler(next, app.requestTimeout, timeoutBody)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Handlers overwrite this on success. It only sticks to the timeout body.
		w.Header().Set("Content-Type", "application/json")
		h.ServeHTTP(w, r)
	})
}
