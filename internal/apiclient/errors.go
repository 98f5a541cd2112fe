package apiclient

import (
	"fmt"
	"github.com/myrjola/faqforge/internal/ai"
	"net/http"
)

// Error is a non-2xx answer from the server.
type Error struct {
	Status  int
	Code    string
	Message string
	// Details is only sent by servers running in diagnostics mode.
	Details string
	TraceID string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("server responded %d: %s", e.Status, e.Message)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// Unwrap exposes the domain error so that callers can match it with errors.Is.
func (e *Error) Unwrap() error {
	if err := ai.ErrorFromCode(e.Code); err != nil {
		return err
	}
	switch {
	case e.Status == http.StatusBadRequest:
		return ai.ErrValidation
	case e.Status >= http.StatusInternalServerError:
		return ai.ErrUpstreamCallFailed
	default:
		return nil
	}
}
