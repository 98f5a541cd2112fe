package ai

import "github.com/myrjola/faqforge/internal/errors"

var (
	// ErrValidation means the caller supplied a missing or malformed argument.
	ErrValidation = errors.NewSentinel("validation error")
	// ErrProviderUnavailable means the requested provider has no configured credentials.
	ErrProviderUnavailable = errors.NewSentinel("provider unavailable")
	// ErrAnalysisUnavailable means the designated analysis provider has no configured credentials.
	ErrAnalysisUnavailable = errors.NewSentinel("analysis unavailable")
	// ErrUpstreamCallFailed means the provider call itself failed. The upstream error is wrapped alongside.
	ErrUpstreamCallFailed = errors.NewSentinel("upstream call failed")
	// ErrInvalidResponseFormat means the provider answered with text of the wrong shape.
	ErrInvalidResponseFormat = errors.NewSentinel("invalid response format")
)

var codes = []struct {
	code string
	err  error
}{
	{"validation", ErrValidation},
	{"provider_unavailable", ErrProviderUnavailable},
	{"analysis_unavailable", ErrAnalysisUnavailable},
	{"upstream_call_failed", ErrUpstreamCallFailed},
	{"invalid_response_format", ErrInvalidResponseFormat},
}

// ErrorCode returns the wire name of the domain error in err's chain, or an empty string when there is none.
func ErrorCode(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

// ErrorFromCode is the inverse of ErrorCode. It returns nil for unknown codes.
func ErrorFromCode(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
