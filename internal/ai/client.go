package ai

import (
	"context"
	"fmt"
	"github.com/myrjola/faqforge/internal/errors"
	"log/slog"
	"strings"
	"time"
)

// Backend is a configured provider: the completer that reaches it and the model used when a call names none.
type Backend struct {
	Completer    Completer
	DefaultModel string
}

// Client dispatches prompts to the configured providers.
type Client struct {
	backends map[ProviderID]Backend
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates a client over the given backends. A zero timeout leaves provider calls unbounded.
func New(backends map[ProviderID]Backend, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		backends: backends,
		timeout:  timeout,
		logger:   logger,
	}
}

// ProviderConfig holds the credentials and endpoint of one provider. An empty APIKey leaves it unconfigured.
type ProviderConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
}

// Config configures every supported provider.
type Config struct {
	OpenAI    ProviderConfig
	Anthropic ProviderConfig
	Google    ProviderConfig
	Timeout   time.Duration
}

// anthropicMaxTokens is required by the Anthropic API, which has no default output limit.
const anthropicMaxTokens = 1500

// NewFromConfig creates the real backends for every provider that has credentials.
func NewFromConfig(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	backends := make(map[ProviderID]Backend)
	if cfg.OpenAI.APIKey != "" {
		backends[OpenAI] = Backend{
			Completer:    NewOpenAICompleter(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, 0),
			DefaultModel: cfg.OpenAI.DefaultModel,
		}
	}
	if cfg.Anthropic.APIKey != "" {
		backends[Anthropic] = Backend{
			Completer:    NewOpenAICompleter(cfg.Anthropic.APIKey, cfg.Anthropic.BaseURL, anthropicMaxTokens),
			DefaultModel: cfg.Anthropic.DefaultModel,
		}
	}
	if cfg.Google.APIKey != "" {
		gemini, err := NewGeminiCompleter(ctx, cfg.Google.APIKey, cfg.Google.BaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "new gemini completer")
		}
		backends[Google] = Backend{
			Completer:    gemini,
			DefaultModel: cfg.Google.DefaultModel,
		}
	}
	for _, p := range Catalog() {
		_, ok := backends[p]
		logger.LogAttrs(ctx, slog.LevelInfo, "provider registration",
			slog.String("provider", string(p)), slog.Bool("configured", ok))
	}
	return New(backends, cfg.Timeout, logger), nil
}

// Providers lists the configured providers in catalog order.
func (c *Client) Providers() []ProviderID {
	providers := make([]ProviderID, 0, len(c.backends))
	for _, p := range Catalog() {
		if _, ok := c.backends[p]; ok {
			providers = append(providers, p)
		}
	}
	return providers
}

// Configured reports whether the provider has credentials.
func (c *Client) Configured(id ProviderID) bool {
	_, ok := c.backends[id]
	return ok
}

type callOptions struct {
	model       string
	maxTokens   int
	temperature *float32
}

// Option adjusts a single call.
type Option func(*callOptions)

// WithModel overrides the provider's default model. An empty model keeps the default.
func WithModel(model string) Option {
	return func(o *callOptions) {
		if model != "" {
			o.model = model
		}
	}
}

// WithMaxTokens limits the length of the answer.
func WithMaxTokens(n int) Option {
	return func(o *callOptions) {
		o.maxTokens = n
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(o *callOptions) {
		o.temperature = &t
	}
}

// Text sends prompt to the provider and returns the answer as is.
func (c *Client) Text(ctx context.Context, id ProviderID, prompt string, opts ...Option) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.Wrap(ErrValidation, "empty prompt")
	}
	if id.SettingsKey() == "" {
		return "", errors.Wrap(ErrValidation, "unsupported provider", slog.String("provider", string(id)))
	}
	backend, ok := c.backends[id]
	if !ok {
		return "", errors.Wrap(ErrProviderUnavailable, "provider not configured", slog.String("provider", string(id)))
	}
	o := callOptions{model: backend.DefaultModel, maxTokens: 0, temperature: nil}
	for _, opt := range opts {
		opt(&o)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := backend.Completer.Complete(ctx, CompletionRequest{
		Model:       o.model,
		Prompt:      prompt,
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	})
	attrs := []slog.Attr{
		slog.String("provider", string(id)),
		slog.String("model", o.model),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		return "", errors.Wrap(fmt.Errorf("%w: %w", ErrUpstreamCallFailed, err), "complete", attrs...)
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "provider call completed", attrs...)
	return answer, nil
}

// Lines returns the non-blank lines of the answer, trimmed.
func (c *Client) Lines(ctx context.Context, id ProviderID, prompt string, opts ...Option) ([]string, error) {
	answer, err := c.Text(ctx, id, prompt, opts...)
	if err != nil {
		return nil, err
	}
	return SplitLines(answer), nil
}

// Strings expects the answer to be a JSON array of strings.
func (c *Client) Strings(ctx context.Context, id ProviderID, prompt string, opts ...Option) ([]string, error) {
	answer, err := c.Text(ctx, id, prompt, opts...)
	if err != nil {
		return nil, err
	}
	result, err := ParseStrings(answer)
	if err != nil {
		return nil, errors.Wrap(err, "parse strings", slog.String("provider", string(id)))
	}
	return result, nil
}

// Groups expects the answer to be a JSON array of question groups.
func (c *Client) Groups(ctx context.Context, id ProviderID, prompt string, opts ...Option) ([]Group, error) {
	answer, err := c.Text(ctx, id, prompt, opts...)
	if err != nil {
		return nil, err
	}
	groups, err := ParseGroups(answer)
	if err != nil {
		return nil, errors.Wrap(err, "parse groups", slog.String("provider", string(id)))
	}
	return groups, nil
}
