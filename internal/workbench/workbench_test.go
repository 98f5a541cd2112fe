package workbench_test

import (
	"bytes"
	"context"
	"github.com/myrjola/faqforge/internal/ai"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/mock"
	"github.com/myrjola/faqforge/internal/models"
	"github.com/myrjola/faqforge/internal/prompts"
	"github.com/myrjola/faqforge/internal/state"
	"github.com/myrjola/faqforge/internal/testhelpers"
	"github.com/myrjola/faqforge/internal/workbench"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"sync"
	"testing"
)

func newAPI() *mock.API {
	return &mock.API{
		GenerateQuestionsFn: func(_ context.Context, _ string, _ ai.ProviderID, _ prompts.Category,
			_ string) ([]string, error) {
			return []string{}, nil
		},
		ProvidersFn: func(_ context.Context) ([]ai.ProviderID, ai.ProviderID, error) {
			return []ai.ProviderID{ai.OpenAI, ai.Anthropic, ai.Google}, ai.Anthropic, nil
		},
		SmartSortFn: func(_ context.Context, questions []models.Question, _ string) ([]models.Question, error) {
			return questions, nil
		},
		GenerateFAQFn: func(_ context.Context, _ []models.Question) ([]models.FAQ, error) {
			return []models.FAQ{}, nil
		},
		ExportFAQFn: func(_ context.Context, _ io.Writer) error {
			return nil
		},
		GenerateSmartTagsFn: func(_ context.Context, _ string, _ []string, _ string) ([]string, error) {
			return []string{}, nil
		},
		GenerateTopicVariationsFn: func(_ context.Context, _, _ string) ([]string, error) {
			return []string{}, nil
		},
	}
}

func newWorkbench(t *testing.T, api workbench.API) (*workbench.Workbench, *state.Store) {
	t.Helper()
	logger := testhelpers.NewLogger(io.Discard)
	store, err := state.Open(t.Context(), state.NewMemoryKV(), logger)
	require.NoError(t, err)
	return workbench.New(api, store, logger, workbench.Options{Diagnostics: true, Limit: 0, TagPause: 0}), store
}

func TestWorkbench_AddTopic(t *testing.T) {
	ctx := t.Context()
	api := newAPI()
	var gotExisting [][]string
	api.GenerateSmartTagsFn = func(_ context.Context, text string, existing []string, model string) ([]string, error) {
		assert.Equal(t, "claude-3-opus-20240229", model)
		gotExisting = append(gotExisting, existing)
		if text == "composting" {
			return nil, errors.Wrap(ai.ErrUpstreamCallFailed, "boom")
		}
		return []string{"garden", "urban space"}, nil
	}
	wb, store := newWorkbench(t, api)

	topic, err := wb.AddTopic(ctx, "  urban gardening ")
	require.NoError(t, err)
	require.Equal(t, "urban gardening", topic.Value)
	require.Equal(t, []string{"garden", "urban_space"}, store.Topics()[0].SmartTags)

	// A tag failure does not block the add.
	topic, err = wb.AddTopic(ctx, "composting")
	require.NoError(t, err)
	require.Empty(t, topic.SmartTags)
	require.True(t, store.HasTopic("composting"))
	require.Equal(t, [][]string{{}, {"garden", "urban_space"}}, gotExisting)

	_, err = wb.AddTopic(ctx, "composting")
	require.ErrorIs(t, err, state.ErrDuplicateTopic)
	_, err = wb.AddTopic(ctx, "   ")
	require.ErrorIs(t, err, models.ErrInvalidTopic)
}

func TestWorkbench_SpawnVariations(t *testing.T) {
	ctx := t.Context()
	api := newAPI()
	api.GenerateTopicVariationsFn = func(_ context.Context, topic, model string) ([]string, error) {
		assert.Equal(t, "urban gardening", topic)
		assert.Equal(t, "claude-3-5-sonnet-20240620", model)
		return []string{"balcony gardening", "urban gardening", "rooftop farming"}, nil
	}
	api.GenerateSmartTagsFn = func(_ context.Context, text string, existing []string, _ string) ([]string, error) {
		assert.Nil(t, existing)
		if text == "rooftop farming" {
			return nil, errors.Wrap(ai.ErrInvalidResponseFormat, "bad tags")
		}
		return []string{"balcony"}, nil
	}
	wb, store := newWorkbench(t, api)
	require.NoError(t, store.AddTopic(ctx, models.NewTopic("urban gardening")))

	added, err := wb.SpawnVariations(ctx, "urban gardening")
	require.NoError(t, err)
	require.Len(t, added, 2)

	topics := store.Topics()
	require.Len(t, topics, 3)
	require.Equal(t, "balcony gardening", topics[1].Value)
	require.Equal(t, models.OriginVariation, topics[1].Origin)
	require.NotNil(t, topics[1].ParentTopic)
	require.Equal(t, "urban gardening", *topics[1].ParentTopic)
	require.Equal(t, []string{"balcony"}, topics[1].SmartTags)
	require.Equal(t, "rooftop farming", topics[2].Value)
	require.Empty(t, topics[2].SmartTags)

	_, err = wb.SpawnVariations(ctx, "unknown")
	require.ErrorIs(t, err, state.ErrTopicNotFound)
}

func TestWorkbench_SpawnVariationsDisabled(t *testing.T) {
	ctx := t.Context()
	api := newAPI()
	api.GenerateTopicVariationsFn = func(_ context.Context, _, _ string) ([]string, error) {
		t.Error("variations requested while disabled")
		return nil, nil
	}
	wb, store := newWorkbench(t, api)
	require.NoError(t, store.AddTopic(ctx, models.NewTopic("urban gardening")))
	require.NoError(t, store.SetModel(ctx, "topicVariations", "anthropic", state.Disabled))

	_, err := wb.SpawnVariations(ctx, "urban gardening")
	require.ErrorIs(t, err, ai.ErrAnalysisUnavailable)
}

func TestWorkbench_GenerateMissingTags(t *testing.T) {
	ctx := t.Context()
	api := newAPI()
	var calls []string
	api.GenerateSmartTagsFn = func(_ context.Context, text string, existing []string, _ string) ([]string, error) {
		calls = append(calls, text)
		switch text {
		case "b":
			return nil, errors.Wrap(ai.ErrUpstreamCallFailed, "boom")
		case "c":
			assert.Equal(t, []string{"kept", "first"}, existing)
			return []string{"third"}, nil
		default:
			assert.Equal(t, []string{"kept"}, existing)
			return []string{"first"}, nil
		}
	}
	wb, store := newWorkbench(t, api)
	tagged := models.NewTopic("tagged")
	tagged.SmartTags = []string{"kept"}
	for _, topic := range []models.Topic{tagged, models.NewTopic("a"), models.NewTopic("b"), models.NewTopic("c")} {
		require.NoError(t, store.AddTopic(ctx, topic))
	}

	report, err := wb.GenerateMissingTags(ctx)
	require.NoError(t, err)
	require.Equal(t, workbench.TagReport{Tagged: 2, Failed: 1}, report)
	require.Equal(t, []string{"a", "b", "c"}, calls)
	require.Equal(t, []string{"b"}, store.TopicsWithoutTags())
}

func TestWorkbench_GenerateQuestions(t *testing.T) {
	ctx := t.Context()
	api := newAPI()
	var (
		mu        sync.Mutex
		providers = map[ai.ProviderID]int{}
	)
	api.ProvidersFn = func(_ context.Context) ([]ai.ProviderID, ai.ProviderID, error) {
		return []ai.ProviderID{ai.OpenAI, ai.Anthropic}, ai.Anthropic, nil
	}
	api.GenerateQuestionsFn = func(_ context.Context, topic string, provider ai.ProviderID,
		category prompts.Category, model string) ([]string, error) {
		mu.Lock()
		defer mu.Unlock()
		providers[provider]++
		assert.Equal(t, "claude-3-opus-20240229", model)
		return []string{topic + " " + string(category) + "?"}, nil
	}
	wb, store := newWorkbench(t, api)
	require.NoError(t, store.AddTopic(ctx, models.NewTopic("testing")))

	// Google is requested but not configured on the server.
	report, err := wb.GenerateQuestions(ctx, []ai.ProviderID{ai.Anthropic, ai.Google},
		[]prompts.Category{prompts.Technical})
	require.NoError(t, err)
	require.Equal(t, 1, report.Topics)
	require.Equal(t, 1, report.Added)
	require.Equal(t, map[ai.ProviderID]int{ai.Anthropic: 1}, providers)
	require.True(t, store.IsUsed("testing"))

	_, err = wb.GenerateQuestions(ctx, nil, []prompts.Category{"Unknown Questions"})
	require.ErrorIs(t, err, ai.ErrValidation)
}

func TestWorkbench_SmartSort(t *testing.T) {
	ctx := t.Context()
	api := newAPI()
	wb, store := newWorkbench(t, api)
	original := []models.Question{
		{ID: 1, Topic: "b", Source: "GPT-4", Category: "Common Questions", Question: "Q1", GroupInfo: nil},
		{ID: 2, Topic: "a", Source: "GPT-4", Category: "Common Questions", Question: "Q2", GroupInfo: nil},
	}
	require.NoError(t, store.AppendQuestions(ctx, original))

	t.Run("failure keeps the questions", func(t *testing.T) {
		api.SmartSortFn = func(_ context.Context, _ []models.Question, _ string) ([]models.Question, error) {
			return nil, errors.Wrap(ai.ErrInvalidResponseFormat, "not json")
		}
		_, err := wb.SmartSort(ctx)
		require.ErrorIs(t, err, ai.ErrInvalidResponseFormat)
		require.Equal(t, original, store.Questions())
	})

	t.Run("success replaces the questions", func(t *testing.T) {
		api.SmartSortFn = func(_ context.Context, questions []models.Question, model string) ([]models.Question, error) {
			assert.Equal(t, "claude-3-opus-20240229", model)
			return []models.Question{questions[1], questions[0]}, nil
		}
		sorted, err := wb.SmartSort(ctx)
		require.NoError(t, err)
		require.Equal(t, []models.Question{original[1], original[0]}, sorted)
		require.Equal(t, sorted, store.Questions())
	})

	t.Run("disabled analysis model", func(t *testing.T) {
		require.NoError(t, store.SetModel(ctx, "smartSort", "anthropic", state.Disabled))
		api.SmartSortFn = func(_ context.Context, _ []models.Question, _ string) ([]models.Question, error) {
			t.Error("smart sort requested while disabled")
			return nil, nil
		}
		_, err := wb.SmartSort(ctx)
		require.ErrorIs(t, err, ai.ErrAnalysisUnavailable)
	})
}

func TestWorkbench_GenerateAndExportFAQ(t *testing.T) {
	ctx := t.Context()
	api := newAPI()
	wb, store := newWorkbench(t, api)

	_, err := wb.GenerateFAQ(ctx)
	require.ErrorIs(t, err, ai.ErrValidation)

	require.NoError(t, store.AppendQuestions(ctx, []models.Question{
		{ID: 1, Topic: "t", Source: "GPT-4", Category: "Common Questions", Question: "Why?", GroupInfo: nil},
	}))
	_, err = store.AddManualFAQ(ctx, "old", "Old?", "Stale.")
	require.NoError(t, err)
	api.GenerateFAQFn = func(_ context.Context, questions []models.Question) ([]models.FAQ, error) {
		require.Len(t, questions, 1)
		return []models.FAQ{{ID: 1, Topic: "t", Question: "Why?", Answer: "Combined answer: x"}}, nil
	}
	api.ExportFAQFn = func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `{"prompt":"Why?","completion":"Combined answer: x"}`)
		return err
	}

	faqs, err := wb.GenerateFAQ(ctx)
	require.NoError(t, err)
	require.Equal(t, faqs, store.FAQs())

	var buf bytes.Buffer
	require.NoError(t, wb.ExportFAQ(ctx, &buf))
	require.JSONEq(t, `{"prompt":"Why?","completion":"Combined answer: x"}`, buf.String())
}
