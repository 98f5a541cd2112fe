package ai

import (
	"context"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
	"log/slog"
)

// CompletionRequest is a single prompt sent to a backend.
type CompletionRequest struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature *float32
}

// Completer sends a prompt to one LLM backend and returns the raw text answer.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

var (
	_ Completer = (*OpenAICompleter)(nil)
	_ Completer = (*GeminiCompleter)(nil)
)

// OpenAICompleter talks to chat-completion style APIs. Anthropic exposes the same wire format, so it is served
// by this completer with a different base URL.
type OpenAICompleter struct {
	client           *openai.Client
	defaultMaxTokens int
}

// NewOpenAICompleter creates a completer for the chat completions API at baseURL.
//
// defaultMaxTokens is sent when the request does not set MaxTokens. Zero leaves the limit to the API.
func NewOpenAICompleter(apiKey, baseURL string, defaultMaxTokens int) *OpenAICompleter {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAICompleter{
		client:           openai.NewClientWithConfig(config),
		defaultMaxTokens: defaultMaxTokens,
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.defaultMaxTokens
	}
	completionRequest := openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
		Model:     req.Model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}
	if req.Temperature != nil {
		completionRequest.Temperature = *req.Temperature
	}
	completion, err := c.client.CreateChatCompletion(ctx, completionRequest)
	if err != nil {
		return "", errors.Wrap(err, "create chat completion", slog.String("model", req.Model))
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("chat completion without choices", slog.String("model", req.Model))
	}
	return completion.Choices[0].Message.Content, nil
}

// GeminiCompleter talks to the Google generative content API.
type GeminiCompleter struct {
	client *genai.Client
}

// NewGeminiCompleter creates a completer backed by the Gemini API. An empty baseURL uses the public endpoint.
func NewGeminiCompleter(ctx context.Context, apiKey, baseURL string) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{ //nolint:exhaustruct // this is better for readability
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL}, //nolint:exhaustruct // defaults are fine
	})
	if err != nil {
		return nil, errors.Wrap(err, "new genai client")
	}
	return &GeminiCompleter{client: client}, nil
}

func (c *GeminiCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	config := &genai.GenerateContentConfig{ //nolint:exhaustruct // this is better for readability
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens) //nolint:gosec // token limits are small
	}
	result, err := c.client.Models.GenerateContent(ctx, req.Model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: req.Prompt}},
		}},
		config,
	)
	if err != nil {
		return "", errors.Wrap(err, "generate content", slog.String("model", req.Model))
	}
	if result == nil {
		return "", errors.New("generate content returned nil result", slog.String("model", req.Model))
	}
	return result.Text(), nil
}
