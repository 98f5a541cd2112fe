// Package grouping collapses near-duplicate questions using the analysis provider.
package grouping

import (
	"cmp"
	"context"
	"github.com/myrjola/faqforge/internal/ai"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/models"
	"github.com/myrjola/faqforge/internal/prompts"
	"log/slog"
	"slices"
)

const maxTokens = 1500

type analyzer interface {
	Configured(id ai.ProviderID) bool
	Groups(ctx context.Context, id ai.ProviderID, prompt string, opts ...ai.Option) ([]ai.Group, error)
}

// Engine runs the smart sort against a single designated analysis provider.
type Engine struct {
	client   analyzer
	provider ai.ProviderID
	logger   *slog.Logger
}

func NewEngine(client analyzer, provider ai.ProviderID, logger *slog.Logger) *Engine {
	return &Engine{
		client:   client,
		provider: provider,
		logger:   logger,
	}
}

// SmartSort asks the analysis provider to group similar questions and returns the reconciled list.
//
// An empty list is returned as is without contacting the provider. Any parse failure fails the whole sort.
func (e *Engine) SmartSort(ctx context.Context, questions []models.Question, model string) ([]models.Question, error) {
	if len(questions) == 0 {
		return []models.Question{}, nil
	}
	if !e.client.Configured(e.provider) {
		return nil, errors.Wrap(ai.ErrAnalysisUnavailable, "smart sort", slog.String("provider", string(e.provider)))
	}

	texts := make([]string, len(questions))
	for i, q := range questions {
		texts[i] = q.Question
	}
	groups, err := e.client.Groups(ctx, e.provider, prompts.Grouping(texts),
		ai.WithModel(model), ai.WithMaxTokens(maxTokens))
	if err != nil {
		return nil, errors.Wrap(err, "analyze questions")
	}

	sorted := Reconcile(questions, groups)
	e.logger.LogAttrs(ctx, slog.LevelDebug, "smart sort done",
		slog.Int("originals", len(questions)),
		slog.Int("groups", len(groups)),
		slog.Int("result", len(sorted)))
	return sorted, nil
}

// Reconcile applies the provider's groups to the questions.
//
// A group's representative is the question whose text equals selectedQuestion, or failing that the first question
// whose text is among the group's similar questions. Each representative is emitted once with the group attached,
// and its similar questions are dropped. Unresolvable groups are ignored. Questions no group claims are kept. The
// result is stably sorted by topic, then category.
func Reconcile(questions []models.Question, groups []ai.Group) []models.Question {
	result := make([]models.Question, 0, len(questions))
	consumed := make(map[string]struct{})

	for _, g := range groups {
		i := slices.IndexFunc(questions, func(q models.Question) bool { return q.Question == g.SelectedQuestion })
		if i == -1 {
			i = slices.IndexFunc(questions, func(q models.Question) bool {
				return slices.Contains(g.SimilarQuestions, q.Question)
			})
		}
		if i == -1 {
			continue
		}
		selected := questions[i]
		if _, ok := consumed[selected.Question]; ok {
			continue
		}
		selected.GroupInfo = &models.GroupInfo{
			SimilarQuestions: slices.Clone(g.SimilarQuestions),
			Explanation:      g.Explanation,
		}
		result = append(result, selected)
		consumed[selected.Question] = struct{}{}
		for _, similar := range g.SimilarQuestions {
			consumed[similar] = struct{}{}
		}
	}

	for _, q := range questions {
		if _, ok := consumed[q.Question]; !ok {
			result = append(result, q)
		}
	}

	slices.SortStableFunc(result, func(a, b models.Question) int {
		return cmp.Or(cmp.Compare(a.Topic, b.Topic), cmp.Compare(a.Category, b.Category))
	})
	return result
}
