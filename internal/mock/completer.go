package mock

import (
	"context"
	"github.com/myrjola/faqforge/internal/ai"
)

var _ ai.Completer = (*Completer)(nil)

// Completer is a mock implementation of ai.Completer.
type Completer struct {
	CompleteFn func(ctx context.Context, req ai.CompletionRequest) (string, error)
}

func (c *Completer) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	return c.CompleteFn(ctx, req)
}

// Answer returns a completer that always answers text.
func Answer(text string) *Completer {
	return &Completer{
		CompleteFn: func(_ context.Context, _ ai.CompletionRequest) (string, error) {
			return text, nil
		},
	}
}

// Fail returns a completer that always fails with err.
func Fail(err error) *Completer {
	return &Completer{
		CompleteFn: func(_ context.Context, _ ai.CompletionRequest) (string, error) {
			return "", err
		},
	}
}
