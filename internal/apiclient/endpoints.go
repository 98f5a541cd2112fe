package apiclient

import (
	"context"
	"github.com/myrjola/faqforge/internal/ai"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/fanout"
	"github.com/myrjola/faqforge/internal/models"
	"github.com/myrjola/faqforge/internal/prompts"
	"io"
	"log/slog"
	"net/http"
)

var _ fanout.Generator = (*Client)(nil)

// Providers lists the configured providers and the designated analysis provider.
func (c *Client) Providers(ctx context.Context) ([]ai.ProviderID, ai.ProviderID, error) {
	var resp struct {
		Providers        []ai.ProviderID `json:"providers"`
		AnalysisProvider ai.ProviderID   `json:"analysisProvider"`
	}
	if err := c.getJSON(ctx, "/api/providers", &resp); err != nil {
		return nil, "", errors.Wrap(err, "get providers")
	}
	return resp.Providers, resp.AnalysisProvider, nil
}

// GenerateQuestions asks a single provider for questions about the topic in the given category. An empty model
// uses the server's default for the provider.
func (c *Client) GenerateQuestions(
	ctx context.Context,
	topic string,
	provider ai.ProviderID,
	category prompts.Category,
	model string,
) ([]string, error) {
	req := struct {
		Keywords []string `json:"keywords"`
		Provider string   `json:"provider"`
		Category string   `json:"category"`
		Model    string   `json:"model,omitempty"`
	}{
		Keywords: []string{topic},
		Provider: string(provider),
		Category: string(category),
		Model:    model,
	}
	var resp struct {
		Questions []models.Question `json:"questions"`
	}
	if err := c.postJSON(ctx, "/api/generateQuestions", req, &resp); err != nil {
		return nil, errors.Wrap(err, "generate questions",
			slog.String("topic", topic), slog.String("provider", string(provider)))
	}
	texts := make([]string, len(resp.Questions))
	for i, q := range resp.Questions {
		texts[i] = q.Question
	}
	return texts, nil
}

// SmartSort groups near-duplicate questions with the analysis provider.
func (c *Client) SmartSort(ctx context.Context, questions []models.Question, model string) ([]models.Question, error) {
	req := struct {
		Questions []models.Question `json:"questions"`
		Model     string            `json:"model,omitempty"`
	}{Questions: nonNil(questions), Model: model}
	var resp struct {
		Questions []models.Question `json:"questions"`
	}
	if err := c.postJSON(ctx, "/api/smartSort", req, &resp); err != nil {
		return nil, errors.Wrap(err, "smart sort")
	}
	return nonNil(resp.Questions), nil
}

// GenerateFAQ combines the questions into FAQs. The server keeps the result in the session for ExportFAQ.
func (c *Client) GenerateFAQ(ctx context.Context, questions []models.Question) ([]models.FAQ, error) {
	req := struct {
		Questions []models.Question `json:"questions"`
	}{Questions: nonNil(questions)}
	var resp struct {
		FAQs []models.FAQ `json:"faqs"`
	}
	if err := c.postJSON(ctx, "/api/generateFAQ", req, &resp); err != nil {
		return nil, errors.Wrap(err, "generate faq")
	}
	return nonNil(resp.FAQs), nil
}

// ExportFAQ copies the JSONL export of the session's FAQs to w.
func (c *Client) ExportFAQ(ctx context.Context, w io.Writer) error {
	resp, err := c.do(ctx, http.MethodGet, "/api/exportFAQ", nil)
	if err != nil {
		return errors.Wrap(err, "export faq")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if _, err = io.Copy(w, resp.Body); err != nil {
		return errors.Wrap(err, "copy export")
	}
	return nil
}

// GenerateSmartTags extracts normalized tags from text, preferring the existing ones.
func (c *Client) GenerateSmartTags(ctx context.Context, text string, existing []string, model string) ([]string, error) {
	req := struct {
		Text         string   `json:"text"`
		ExistingTags []string `json:"existingTags,omitempty"`
		Model        string   `json:"model,omitempty"`
	}{Text: text, ExistingTags: existing, Model: model}
	var resp struct {
		Tags []string `json:"tags"`
	}
	if err := c.postJSON(ctx, "/api/generateSmartTags", req, &resp); err != nil {
		return nil, errors.Wrap(err, "generate smart tags")
	}
	return nonNil(resp.Tags), nil
}

// GenerateTopicVariations asks for related topics.
func (c *Client) GenerateTopicVariations(ctx context.Context, topic, model string) ([]string, error) {
	req := struct {
		Topic string `json:"topic"`
		Model string `json:"model,omitempty"`
	}{Topic: topic, Model: model}
	var resp struct {
		Variations []string `json:"variations"`
	}
	if err := c.postJSON(ctx, "/api/generateTopicVariations", req, &resp); err != nil {
		return nil, errors.Wrap(err, "generate topic variations", slog.String("topic", topic))
	}
	return nonNil(resp.Variations), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
