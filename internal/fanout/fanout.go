// Package fanout generates questions for every eligible topic across providers and categories.
//
// Topics are processed one after another. Within a topic every provider and category pair is requested
// concurrently, and the topic is marked used once all of its requests have settled.
package fanout

import (
	"context"
	"github.com/myrjola/faqforge/internal/ai"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/models"
	"github.com/myrjola/faqforge/internal/prompts"
	"github.com/myrjola/faqforge/internal/state"
	"golang.org/x/sync/errgroup"
	"log/slog"
	"strings"
	"sync"
)

var (
	ErrNoEligibleTopics = errors.NewSentinel("no eligible topics")
	ErrNoProviders      = errors.NewSentinel("no providers")
)

// Generator requests questions about a topic from one provider.
type Generator interface {
	GenerateQuestions(ctx context.Context, topic string, provider ai.ProviderID, category prompts.Category,
		model string) ([]string, error)
}

// Store receives the generated questions.
type Store interface {
	EligibleTopics() []string
	NextQuestionID() int
	AppendQuestions(ctx context.Context, questions []models.Question) error
	MarkUsed(ctx context.Context, topic string) error
}

// Batch selects what a run requests for each topic.
type Batch struct {
	Providers  []ai.ProviderID
	Categories []prompts.Category
	// Models returns the model to request from a provider. state.Disabled skips the provider. Nil means the
	// provider's default model.
	Models func(ai.ProviderID) string
}

// Failure is a single failed request.
type Failure struct {
	Topic    string
	Provider ai.ProviderID
	Category prompts.Category
	Err      error
}

// Report summarizes a run.
type Report struct {
	Topics int
	Added  int
	Errors int
	// Failures is only filled in diagnostics mode.
	Failures []Failure
}

type Options struct {
	// Diagnostics keeps every failure in the report.
	Diagnostics bool
	// Limit caps the in-flight requests per topic. Zero runs the whole cross product at once.
	Limit int
}

type Orchestrator struct {
	generator Generator
	store     Store
	logger    *slog.Logger
	options   Options
}

func NewOrchestrator(generator Generator, store Store, logger *slog.Logger, options Options) *Orchestrator {
	return &Orchestrator{
		generator: generator,
		store:     store,
		logger:    logger,
		options:   options,
	}
}

// Run processes every eligible topic.
//
// Individual request failures are counted and never abort the run. Run fails only when persisting results fails or
// ctx is cancelled, in which case the report covers the work done so far.
func (o *Orchestrator) Run(ctx context.Context, batch Batch) (Report, error) {
	report := Report{Topics: 0, Added: 0, Errors: 0, Failures: nil}
	if len(batch.Providers) == 0 {
		return report, errors.Wrap(ErrNoProviders, "run")
	}
	topics := o.store.EligibleTopics()
	if len(topics) == 0 {
		return report, errors.Wrap(ErrNoEligibleTopics, "run")
	}
	categories := batch.Categories
	if len(categories) == 0 {
		categories = prompts.DefaultCategories()
	}

	nextID := o.store.NextQuestionID()
	for _, topic := range topics {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, "run cancelled", slog.String("topic", topic))
		}
		var (
			mu         sync.Mutex
			persistErr error
			g          errgroup.Group
		)
		if o.options.Limit > 0 {
			g.SetLimit(o.options.Limit)
		}
		for _, provider := range batch.Providers {
			model := ""
			if batch.Models != nil {
				model = batch.Models(provider)
			}
			if model == state.Disabled {
				o.logger.LogAttrs(ctx, slog.LevelDebug, "provider disabled for generation",
					slog.String("provider", string(provider)))
				continue
			}
			for _, category := range categories {
				g.Go(func() error {
					lines, err := o.generator.GenerateQuestions(ctx, topic, provider, category, model)

					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						report.Errors++
						o.logger.LogAttrs(ctx, slog.LevelWarn, "question generation failed",
							slog.String("topic", topic),
							slog.String("provider", string(provider)),
							slog.String("category", string(category)),
							errors.SlogError(err))
						if o.options.Diagnostics {
							report.Failures = append(report.Failures,
								Failure{Topic: topic, Provider: provider, Category: category, Err: err})
						}
						return nil
					}

					questions := make([]models.Question, 0, len(lines))
					for _, line := range lines {
						if line = strings.TrimSpace(line); line == "" {
							continue
						}
						questions = append(questions, models.Question{
							ID:        nextID,
							Topic:     topic,
							Source:    string(provider),
							Category:  string(category),
							Question:  line,
							GroupInfo: nil,
						})
						nextID++
					}
					if err = o.store.AppendQuestions(ctx, questions); err != nil {
						if persistErr == nil {
							persistErr = err
						}
						return nil
					}
					report.Added += len(questions)
					return nil
				})
			}
		}
		_ = g.Wait()

		if persistErr != nil {
			return report, errors.Wrap(persistErr, "persist questions", slog.String("topic", topic))
		}
		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, "run cancelled", slog.String("topic", topic))
		}
		if err := o.store.MarkUsed(ctx, topic); err != nil {
			return report, errors.Wrap(err, "mark used", slog.String("topic", topic))
		}
		report.Topics++
		o.logger.LogAttrs(ctx, slog.LevelInfo, "topic done", slog.String("topic", topic),
			slog.Int("added", report.Added), slog.Int("errors", report.Errors))
	}
	return report, nil
}
