package state

import (
	"context"
	"github.com/myrjola/faqforge/internal/ai"
	"github.com/myrjola/faqforge/internal/errors"
	"log/slog"
	"slices"
)

// Step is a pipeline step with its own model selection.
type Step string

const (
	StepGenerateQuestions Step = "generateQuestions"
	StepSmartSort         Step = "smartSort"
	StepGenerateFAQ       Step = "generateFAQ"
	StepSmartTags         Step = "smartTags"
	StepTopicVariations   Step = "topicVariations"
)

// Disabled excludes a provider from a step.
const Disabled = "disabled"

var ErrUnknownSetting = errors.NewSentinel("unknown setting")

// Steps lists the configurable steps in pipeline order.
func Steps() []Step {
	return []Step{StepGenerateQuestions, StepSmartSort, StepGenerateFAQ, StepSmartTags, StepTopicVariations}
}

// ParseStep validates a step name.
func ParseStep(s string) (Step, error) {
	if step := Step(s); slices.Contains(Steps(), step) {
		return step, nil
	}
	return "", errors.Wrap(ErrUnknownSetting, "unknown step", slog.String("step", s))
}

var allowedModels = map[ai.ProviderID][]string{
	ai.OpenAI:    {"gpt-4", "gpt-4-turbo", "gpt-4o"},
	ai.Anthropic: {"claude-3-opus-20240229", "claude-3-sonnet-20240229", "claude-3-5-sonnet-20240620"},
	ai.Google:    {"gemini-pro", "gemini-1.5-pro", "gemini-ultra"},
}

// AllowedModels lists the selectable models of a provider, Disabled first.
func AllowedModels(provider ai.ProviderID) []string {
	return append([]string{Disabled}, allowedModels[provider]...)
}

// StepModels selects a model per provider for one step.
type StepModels struct {
	OpenAI    string `json:"openai"`
	Anthropic string `json:"anthropic"`
	Google    string `json:"google"`
}

// ModelSettings is the model selection of every step. Persisted values override the defaults field by field. Keys
// outside this schema and models outside AllowedModels are ignored.
type ModelSettings struct {
	GenerateQuestions StepModels `json:"generateQuestions"`
	SmartSort         StepModels `json:"smartSort"`
	GenerateFAQ       StepModels `json:"generateFAQ"`
	SmartTags         StepModels `json:"smartTags"`
	TopicVariations   StepModels `json:"topicVariations"`
}

// Defaults returns the settings of a fresh store.
func Defaults() ModelSettings {
	return ModelSettings{
		GenerateQuestions: StepModels{OpenAI: "gpt-4", Anthropic: "claude-3-opus-20240229", Google: "gemini-pro"},
		SmartSort:         StepModels{OpenAI: Disabled, Anthropic: "claude-3-opus-20240229", Google: Disabled},
		GenerateFAQ:       StepModels{OpenAI: "gpt-4", Anthropic: "claude-3-opus-20240229", Google: "gemini-pro"},
		SmartTags:         StepModels{OpenAI: Disabled, Anthropic: "claude-3-opus-20240229", Google: Disabled},
		TopicVariations:   StepModels{OpenAI: Disabled, Anthropic: "claude-3-5-sonnet-20240620", Google: Disabled},
	}
}

func (s *ModelSettings) step(step Step) *StepModels {
	switch step {
	case StepGenerateQuestions:
		return &s.GenerateQuestions
	case StepSmartSort:
		return &s.SmartSort
	case StepGenerateFAQ:
		return &s.GenerateFAQ
	case StepSmartTags:
		return &s.SmartTags
	case StepTopicVariations:
		return &s.TopicVariations
	default:
		return nil
	}
}

func (m *StepModels) field(provider ai.ProviderID) *string {
	switch provider {
	case ai.OpenAI:
		return &m.OpenAI
	case ai.Anthropic:
		return &m.Anthropic
	case ai.Google:
		return &m.Google
	default:
		return nil
	}
}

// Model returns the model selected for the provider at step. Unknown steps and providers read as Disabled.
func (s ModelSettings) Model(step Step, provider ai.ProviderID) string {
	models := s.step(step)
	if models == nil {
		return Disabled
	}
	model := models.field(provider)
	if model == nil {
		return Disabled
	}
	return *model
}

// fillBlanks restores default values for fields left empty by a persisted document, and for models that are no
// longer allowed.
func (s *ModelSettings) fillBlanks(ctx context.Context, logger *slog.Logger) {
	defaults := Defaults()
	for _, step := range Steps() {
		for _, p := range ai.Catalog() {
			field := s.step(step).field(p)
			if *field != "" && !slices.Contains(AllowedModels(p), *field) {
				logger.LogAttrs(ctx, slog.LevelWarn, "resetting model that is no longer allowed",
					slog.String("step", string(step)), slog.String("provider", string(p)), slog.String("model", *field))
				*field = ""
			}
			if *field == "" {
				*field = *defaults.step(step).field(p)
			}
		}
	}
}

// Set selects model for provider at step. The model must be one of AllowedModels.
func (s *ModelSettings) Set(step Step, provider ai.ProviderID, model string) error {
	models := s.step(step)
	if models == nil {
		return errors.Wrap(ErrUnknownSetting, "unknown step", slog.String("step", string(step)))
	}
	field := models.field(provider)
	if field == nil {
		return errors.Wrap(ErrUnknownSetting, "unknown provider", slog.String("provider", string(provider)))
	}
	if !slices.Contains(AllowedModels(provider), model) {
		return errors.Wrap(ErrUnknownSetting, "model not allowed",
			slog.String("provider", string(provider)), slog.String("model", model))
	}
	*field = model
	return nil
}
