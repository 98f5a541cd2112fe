// Package workbench implements the client workflows on top of the local state store and the API server.
package workbench

import (
	"context"
	"github.com/myrjola/faqforge/internal/ai"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/fanout"
	"github.com/myrjola/faqforge/internal/models"
	"github.com/myrjola/faqforge/internal/prompts"
	"github.com/myrjola/faqforge/internal/state"
	"golang.org/x/time/rate"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// API is the server surface the workflows need. *apiclient.Client implements it.
type API interface {
	fanout.Generator
	Providers(ctx context.Context) ([]ai.ProviderID, ai.ProviderID, error)
	SmartSort(ctx context.Context, questions []models.Question, model string) ([]models.Question, error)
	GenerateFAQ(ctx context.Context, questions []models.Question) ([]models.FAQ, error)
	ExportFAQ(ctx context.Context, w io.Writer) error
	GenerateSmartTags(ctx context.Context, text string, existing []string, model string) ([]string, error)
	GenerateTopicVariations(ctx context.Context, topic, model string) ([]string, error)
}

type Options struct {
	// Diagnostics keeps per-failure detail in fan-out reports.
	Diagnostics bool
	// Limit caps in-flight generation requests per topic. Zero means no cap.
	Limit int
	// TagPause is the minimum gap between tag requests during backfill. Zero means no pacing.
	TagPause time.Duration
}

type Workbench struct {
	api     API
	store   *state.Store
	logger  *slog.Logger
	options Options
}

func New(api API, store *state.Store, logger *slog.Logger, options Options) *Workbench {
	return &Workbench{
		api:     api,
		store:   store,
		logger:  logger,
		options: options,
	}
}

// analysisModel resolves the model selected for step on the server's analysis provider.
func (w *Workbench) analysisModel(ctx context.Context, step state.Step) (string, error) {
	_, analysis, err := w.api.Providers(ctx)
	if err != nil {
		return "", errors.Wrap(err, "get providers")
	}
	return w.store.Settings().Model(step, analysis), nil
}

// tags fetches tags for text. Failures are logged and yield no tags so that they never block the caller.
func (w *Workbench) tags(ctx context.Context, text string, existing []string, model string) []string {
	if model == state.Disabled {
		return []string{}
	}
	tags, err := w.api.GenerateSmartTags(ctx, text, existing, model)
	if err != nil {
		w.logger.LogAttrs(ctx, slog.LevelWarn, "smart tags failed", slog.String("text", text),
			errors.SlogError(err))
		return []string{}
	}
	return tags
}

// AddTopic adds a manual topic tagged with the current tag set in mind.
func (w *Workbench) AddTopic(ctx context.Context, value string) (models.Topic, error) {
	topic := models.NewTopic(strings.TrimSpace(value))
	if topic.Value == "" {
		return models.Topic{}, errors.Wrap(models.ErrInvalidTopic, "blank topic")
	}
	if w.store.HasTopic(topic.Value) {
		return models.Topic{}, errors.Wrap(state.ErrDuplicateTopic, "add topic", slog.String("topic", topic.Value))
	}
	model, err := w.analysisModel(ctx, state.StepSmartTags)
	if err != nil {
		w.logger.LogAttrs(ctx, slog.LevelWarn, "adding topic without tags", errors.SlogError(err))
		model = state.Disabled
	}
	topic.SmartTags = w.tags(ctx, topic.Value, w.store.AllTags(), model)
	if err = w.store.AddTopic(ctx, topic); err != nil {
		return models.Topic{}, errors.Wrap(err, "add topic")
	}
	return topic, nil
}

// SpawnVariations adds every new variation of parent as a child topic and returns the added topics.
func (w *Workbench) SpawnVariations(ctx context.Context, parent string) ([]models.Topic, error) {
	if !w.store.HasTopic(parent) {
		return nil, errors.Wrap(state.ErrTopicNotFound, "spawn variations", slog.String("topic", parent))
	}
	model, err := w.analysisModel(ctx, state.StepTopicVariations)
	if err != nil {
		return nil, err
	}
	if model == state.Disabled {
		return nil, errors.Wrap(ai.ErrAnalysisUnavailable, "topic variations disabled")
	}
	variations, err := w.api.GenerateTopicVariations(ctx, parent, model)
	if err != nil {
		return nil, errors.Wrap(err, "generate variations", slog.String("topic", parent))
	}
	tagModel, tagErr := w.analysisModel(ctx, state.StepSmartTags)
	if tagErr != nil {
		tagModel = state.Disabled
	}

	added := []models.Topic{}
	for _, value := range variations {
		if w.store.HasTopic(value) {
			continue
		}
		topic := models.NewVariation(value, parent)
		topic.SmartTags = w.tags(ctx, value, nil, tagModel)
		if err = w.store.AddTopic(ctx, topic); err != nil {
			if errors.Is(err, state.ErrDuplicateTopic) || errors.Is(err, models.ErrInvalidTopic) {
				continue
			}
			return added, errors.Wrap(err, "add variation", slog.String("topic", value))
		}
		added = append(added, topic)
	}
	w.logger.LogAttrs(ctx, slog.LevelInfo, "variations spawned", slog.String("parent", parent),
		slog.Int("returned", len(variations)), slog.Int("added", len(added)))
	return added, nil
}

// TagReport summarizes a tag backfill.
type TagReport struct {
	Tagged int
	Failed int
}

// GenerateMissingTags tags every untagged topic, one request at a time. Tags found earlier in the run are offered
// for reuse to later requests. A failed topic is skipped.
func (w *Workbench) GenerateMissingTags(ctx context.Context) (TagReport, error) {
	report := TagReport{Tagged: 0, Failed: 0}
	pending := w.store.TopicsWithoutTags()
	if len(pending) == 0 {
		return report, nil
	}
	model, err := w.analysisModel(ctx, state.StepSmartTags)
	if err != nil {
		return report, err
	}
	if model == state.Disabled {
		return report, errors.Wrap(ai.ErrAnalysisUnavailable, "smart tags disabled")
	}

	limit := rate.Inf
	if w.options.TagPause > 0 {
		limit = rate.Every(w.options.TagPause)
	}
	limiter := rate.NewLimiter(limit, 1)
	existing := w.store.AllTags()
	for _, topic := range pending {
		if err = limiter.Wait(ctx); err != nil {
			return report, errors.Wrap(err, "wait for rate limiter")
		}
		var tags []string
		if tags, err = w.api.GenerateSmartTags(ctx, topic, existing, model); err != nil {
			report.Failed++
			w.logger.LogAttrs(ctx, slog.LevelWarn, "tagging topic failed", slog.String("topic", topic),
				errors.SlogError(err))
			continue
		}
		if err = w.store.SetTopicTags(ctx, topic, tags); err != nil {
			return report, errors.Wrap(err, "set topic tags", slog.String("topic", topic))
		}
		existing = w.store.AllTags()
		report.Tagged++
	}
	return report, nil
}

// GenerateQuestions fans out over every eligible topic.
//
// The providers are those the server has configured, narrowed to only when it is non-empty. Categories default to
// the five base categories.
func (w *Workbench) GenerateQuestions(
	ctx context.Context,
	only []ai.ProviderID,
	categories []prompts.Category,
) (fanout.Report, error) {
	for _, c := range categories {
		if !prompts.Known(c) {
			return fanout.Report{}, errors.Wrap(ai.ErrValidation, "unknown category", slog.String("category", string(c)))
		}
	}
	configured, _, err := w.api.Providers(ctx)
	if err != nil {
		return fanout.Report{}, errors.Wrap(err, "get providers")
	}
	providers := configured
	if len(only) > 0 {
		providers = slices.DeleteFunc(slices.Clone(configured), func(p ai.ProviderID) bool {
			return !slices.Contains(only, p)
		})
	}
	settings := w.store.Settings()
	orchestrator := fanout.NewOrchestrator(w.api, w.store, w.logger, fanout.Options{
		Diagnostics: w.options.Diagnostics,
		Limit:       w.options.Limit,
	})
	report, err := orchestrator.Run(ctx, fanout.Batch{
		Providers:  providers,
		Categories: categories,
		Models: func(p ai.ProviderID) string {
			return settings.Model(state.StepGenerateQuestions, p)
		},
	})
	if err != nil {
		return report, errors.Wrap(err, "fan out")
	}
	return report, nil
}

// SmartSort replaces the stored questions with the grouped list. The stored list is left untouched on failure.
func (w *Workbench) SmartSort(ctx context.Context) ([]models.Question, error) {
	model, err := w.analysisModel(ctx, state.StepSmartSort)
	if err != nil {
		return nil, err
	}
	if model == state.Disabled {
		return nil, errors.Wrap(ai.ErrAnalysisUnavailable, "smart sort disabled")
	}
	sorted, err := w.api.SmartSort(ctx, w.store.Questions(), model)
	if err != nil {
		return nil, errors.Wrap(err, "smart sort")
	}
	if err = w.store.ReplaceQuestions(ctx, sorted); err != nil {
		return nil, errors.Wrap(err, "replace questions")
	}
	return sorted, nil
}

// GenerateFAQ combines the stored questions into FAQs and replaces the stored FAQs with them.
func (w *Workbench) GenerateFAQ(ctx context.Context) ([]models.FAQ, error) {
	questions := w.store.Questions()
	if len(questions) == 0 {
		return nil, errors.Wrap(ai.ErrValidation, "no questions to combine")
	}
	faqs, err := w.api.GenerateFAQ(ctx, questions)
	if err != nil {
		return nil, errors.Wrap(err, "generate faq")
	}
	if err = w.store.ReplaceFAQs(ctx, faqs); err != nil {
		return nil, errors.Wrap(err, "replace faqs")
	}
	return faqs, nil
}

// ExportFAQ writes the server's JSONL export of the FAQs generated in this session.
func (w *Workbench) ExportFAQ(ctx context.Context, out io.Writer) error {
	if err := w.api.ExportFAQ(ctx, out); err != nil {
		return errors.Wrap(err, "export faq")
	}
	return nil
}
