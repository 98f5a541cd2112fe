package grouping_test

import (
	"context"
	"github.com/myrjola/faqforge/internal/ai"
	"github.com/myrjola/faqforge/internal/grouping"
	"github.com/myrjola/faqforge/internal/mock"
	"github.com/myrjola/faqforge/internal/models"
	"github.com/myrjola/faqforge/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"io"
	"strings"
	"testing"
)

func question(id int, topic, category, text string) models.Question {
	return models.Question{ID: id, Topic: topic, Source: "GPT-4", Category: category, Question: text, GroupInfo: nil}
}

func texts(questions []models.Question) []string {
	result := make([]string, len(questions))
	for i, q := range questions {
		result[i] = q.Question
	}
	return result
}

func TestReconcile(t *testing.T) {
	q1 := question(1, "X", "Common Questions", "Q1")
	q2 := question(2, "X", "Common Questions", "Q2")
	q3 := question(3, "X", "Common Questions", "Q3")

	t.Run("collapses a group into its representative", func(t *testing.T) {
		got := grouping.Reconcile([]models.Question{q1, q2, q3}, []ai.Group{
			{SelectedQuestion: "Q1", SimilarQuestions: []string{"Q2"}, Explanation: "same"},
		})
		require.Equal(t, []string{"Q1", "Q3"}, texts(got))
		require.Equal(t, &models.GroupInfo{SimilarQuestions: []string{"Q2"}, Explanation: "same"}, got[0].GroupInfo)
		require.Nil(t, got[1].GroupInfo)
	})

	t.Run("drops groups that match nothing", func(t *testing.T) {
		got := grouping.Reconcile([]models.Question{q1, q2}, []ai.Group{
			{SelectedQuestion: "Q9", SimilarQuestions: []string{"Q8"}, Explanation: "hallucinated"},
		})
		require.Equal(t, []models.Question{q1, q2}, got)
	})

	t.Run("a question claimed twice is emitted once", func(t *testing.T) {
		got := grouping.Reconcile([]models.Question{q1, q2, q3}, []ai.Group{
			{SelectedQuestion: "Q1", SimilarQuestions: []string{"Q2"}, Explanation: "first"},
			{SelectedQuestion: "Q2", SimilarQuestions: []string{"Q3"}, Explanation: "second"},
		})
		require.Equal(t, []string{"Q1", "Q3"}, texts(got))
		require.Equal(t, "first", got[0].GroupInfo.Explanation)
	})

	t.Run("falls back to a similar question when the selected text drifted", func(t *testing.T) {
		got := grouping.Reconcile([]models.Question{q1, q2, q3}, []ai.Group{
			{SelectedQuestion: "Q2?", SimilarQuestions: []string{"Q3", "Q2"}, Explanation: "drift"},
		})
		require.Equal(t, []string{"Q2", "Q1"}, texts(got))
		require.Equal(t, 2, got[0].ID)
		require.Equal(t, "drift", got[0].GroupInfo.Explanation)
	})

	t.Run("sorts by topic then category keeping order within ties", func(t *testing.T) {
		input := []models.Question{
			question(1, "b", "Technical Questions", "B-T"),
			question(2, "a", "Technical Questions", "A-T1"),
			question(3, "a", "Common Questions", "A-C"),
			question(4, "a", "Technical Questions", "A-T2"),
		}
		got := grouping.Reconcile(input, nil)
		require.Equal(t, []string{"A-C", "A-T1", "A-T2", "B-T"}, texts(got))
	})
}

func TestEngine_SmartSort(t *testing.T) {
	ctx := context.Background()
	logger := testhelpers.NewLogger(io.Discard)
	questions := []models.Question{
		question(1, "X", "Common Questions", "Q1"),
		question(2, "X", "Common Questions", "Q2"),
		question(3, "X", "Common Questions", "Q3"),
	}

	t.Run("sorts through the analysis provider", func(t *testing.T) {
		var prompt string
		completer := &mock.Completer{
			CompleteFn: func(_ context.Context, req ai.CompletionRequest) (string, error) {
				prompt = req.Prompt
				require.Equal(t, "claude-3-opus-20240229", req.Model)
				require.Equal(t, 1500, req.MaxTokens)
				return `[{"selectedQuestion":"Q1","similarQuestions":["Q2"],"explanation":"same"}]`, nil
			},
		}
		client := ai.New(map[ai.ProviderID]ai.Backend{ai.Anthropic: {Completer: completer, DefaultModel: "claude"}}, 0,
			logger)
		engine := grouping.NewEngine(client, ai.Anthropic, logger)

		got, err := engine.SmartSort(ctx, questions, "claude-3-opus-20240229")
		require.NoError(t, err)
		require.Equal(t, []string{"Q1", "Q3"}, texts(got))
		require.True(t, strings.HasSuffix(prompt, "\"Q1\"\n\"Q2\"\n\"Q3\""))
	})

	t.Run("empty input makes no call", func(t *testing.T) {
		client := ai.New(map[ai.ProviderID]ai.Backend{}, 0, logger)
		engine := grouping.NewEngine(client, ai.Anthropic, logger)
		got, err := engine.SmartSort(ctx, nil, "")
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("analysis provider missing", func(t *testing.T) {
		client := ai.New(map[ai.ProviderID]ai.Backend{ai.OpenAI: {Completer: mock.Answer("[]"), DefaultModel: "gpt-4"}}, 0,
			logger)
		engine := grouping.NewEngine(client, ai.Anthropic, logger)
		_, err := engine.SmartSort(ctx, questions, "")
		require.ErrorIs(t, err, ai.ErrAnalysisUnavailable)
	})

	t.Run("malformed answer fails the whole sort", func(t *testing.T) {
		client := ai.New(map[ai.ProviderID]ai.Backend{
			ai.Anthropic: {Completer: mock.Answer(`[{"selectedQuestion":"Q1"}, {"similarQuestions":["Q2"]}]`),
				DefaultModel: "claude"},
		}, 0, logger)
		engine := grouping.NewEngine(client, ai.Anthropic, logger)
		got, err := engine.SmartSort(ctx, questions, "")
		require.ErrorIs(t, err, ai.ErrInvalidResponseFormat)
		require.Nil(t, got)
	})
}
