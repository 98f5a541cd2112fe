package mock

import (
	"context"
	"github.com/myrjola/faqforge/internal/ai"
	"github.com/myrjola/faqforge/internal/fanout"
	"github.com/myrjola/faqforge/internal/prompts"
)

var _ fanout.Generator = (*Generator)(nil)

// Generator is a mock implementation of fanout.Generator.
type Generator struct {
	GenerateQuestionsFn func(ctx context.Context, topic string, provider ai.ProviderID, category prompts.Category,
		model string) ([]string, error)
}

func (g *Generator) GenerateQuestions(ctx context.Context, topic string, provider ai.ProviderID,
	category prompts.Category, model string) ([]string, error) {
	return g.GenerateQuestionsFn(ctx, topic, provider, category, model)
}
