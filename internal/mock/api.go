package mock

import (
	"context"
	"github.com/myrjola/faqforge/internal/ai"
	"github.com/myrjola/faqforge/internal/models"
	"github.com/myrjola/faqforge/internal/prompts"
	"github.com/myrjola/faqforge/internal/workbench"
	"io"
)

var _ workbench.API = (*API)(nil)

// API is a mock implementation of workbench.API.
type API struct {
	GenerateQuestionsFn func(ctx context.Context, topic string, provider ai.ProviderID, category prompts.Category,
		model string) ([]string, error)
	ProvidersFn               func(ctx context.Context) ([]ai.ProviderID, ai.ProviderID, error)
	SmartSortFn               func(ctx context.Context, questions []models.Question, model string) ([]models.Question, error)
	GenerateFAQFn             func(ctx context.Context, questions []models.Question) ([]models.FAQ, error)
	ExportFAQFn               func(ctx context.Context, w io.Writer) error
	GenerateSmartTagsFn       func(ctx context.Context, text string, existing []string, model string) ([]string, error)
	GenerateTopicVariationsFn func(ctx context.Context, topic, model string) ([]string, error)
}

func (a *API) GenerateQuestions(ctx context.Context, topic string, provider ai.ProviderID,
	category prompts.Category, model string) ([]string, error) {
	return a.GenerateQuestionsFn(ctx, topic, provider, category, model)
}

func (a *API) Providers(ctx context.Context) ([]ai.ProviderID, ai.ProviderID, error) {
	return a.ProvidersFn(ctx)
}

func (a *API) SmartSort(ctx context.Context, questions []models.Question, model string) ([]models.Question, error) {
	return a.SmartSortFn(ctx, questions, model)
}

func (a *API) GenerateFAQ(ctx context.Context, questions []models.Question) ([]models.FAQ, error) {
	return a.GenerateFAQFn(ctx, questions)
}

func (a *API) ExportFAQ(ctx context.Context, w io.Writer) error {
	return a.ExportFAQFn(ctx, w)
}

func (a *API) GenerateSmartTags(ctx context.Context, text string, existing []string, model string) ([]string, error) {
	return a.GenerateSmartTagsFn(ctx, text, existing, model)
}

func (a *API) GenerateTopicVariations(ctx context.Context, topic, model string) ([]string, error) {
	return a.GenerateTopicVariationsFn(ctx, topic, model)
}
