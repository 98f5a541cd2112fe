package main

import (
	"bytes"
	"context"
	"github.com/myrjola/faqforge/internal/ai"
	"github.com/myrjola/faqforge/internal/mock"
	"github.com/myrjola/faqforge/internal/models"
	"github.com/myrjola/faqforge/internal/prompts"
	"github.com/myrjola/faqforge/internal/state"
	"github.com/myrjola/faqforge/internal/testhelpers"
	"github.com/myrjola/faqforge/internal/workbench"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newAPI() *mock.API {
	return &mock.API{
		GenerateQuestionsFn: func(_ context.Context, topic string, provider ai.ProviderID, category prompts.Category,
			_ string) ([]string, error) {
			return []string{string(provider) + " asks about " + topic + " in " + string(category) + "?"}, nil
		},
		ProvidersFn: func(_ context.Context) ([]ai.ProviderID, ai.ProviderID, error) {
			return []ai.ProviderID{ai.OpenAI, ai.Anthropic}, ai.Anthropic, nil
		},
		SmartSortFn: func(_ context.Context, questions []models.Question, _ string) ([]models.Question, error) {
			return questions[:1], nil
		},
		GenerateFAQFn: func(_ context.Context, questions []models.Question) ([]models.FAQ, error) {
			faqs := make([]models.FAQ, len(questions))
			for i, q := range questions {
				faqs[i] = models.FAQ{ID: q.ID, Topic: q.Topic, Question: q.Question, Answer: "Because."}
			}
			return faqs, nil
		},
		ExportFAQFn: func(_ context.Context, w io.Writer) error {
			_, err := io.WriteString(w, `{"prompt":"Q","completion":"A"}`)
			return err
		},
		GenerateSmartTagsFn: func(_ context.Context, text string, _ []string, _ string) ([]string, error) {
			return []string{strings.ReplaceAll(text, " ", "-")}, nil
		},
		GenerateTopicVariationsFn: func(_ context.Context, topic, _ string) ([]string, error) {
			return []string{topic + " basics", topic + " advanced"}, nil
		},
	}
}

type harness struct {
	t     *testing.T
	store *state.Store
	api   *mock.API
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := testhelpers.NewLogger(io.Discard)
	store, err := state.Open(t.Context(), state.NewMemoryKV(), logger)
	require.NoError(t, err)
	return &harness{t: t, store: store, api: newAPI()}
}

// run executes the command line and returns its output.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	logger := testhelpers.NewLogger(io.Discard)
	c := &cli{
		open: func(_ context.Context) (*session, error) {
			return &session{
				store:       h.store,
				bench:       workbench.New(h.api, h.store, logger, workbench.Options{Diagnostics: true, Limit: 0, TagPause: 0}),
				api:         h.api,
				diagnostics: true,
				close:       nil,
			}, nil
		},
		session: nil,
	}
	root := newRootCmd(c)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(h.t.Context())
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, strings.Join(args, " "))
	return out
}

func TestTopics(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("topics", "add", "urban gardening", "composting")
	assert.Contains(t, out, `Added "urban gardening" [urban-gardening]`)
	require.True(t, h.store.HasTopic("composting"))

	_, err := h.run("topics", "add", "composting")
	require.ErrorIs(t, err, state.ErrDuplicateTopic)

	out = h.mustRun("topics", "vary", "composting")
	assert.Contains(t, out, "2 variations added.")
	require.True(t, h.store.HasTopic("composting basics"))

	h.mustRun("topics", "deactivate", "composting")
	assert.False(t, h.store.IsActive("composting"))
	h.mustRun("topics", "activate", "composting")
	assert.True(t, h.store.IsActive("composting"))

	out = h.mustRun("topics", "list")
	assert.Contains(t, out, "variation of composting")
	assert.Contains(t, out, "composting-basics")

	out = h.mustRun("topics", "remove-tag", "composting")
	assert.Contains(t, out, "Removed from 1 topics.")
	out = h.mustRun("topics", "tag-missing")
	assert.Contains(t, out, "1 topics tagged, 0 failed.")

	h.mustRun("topics", "delete", "composting")
	assert.False(t, h.store.HasTopic("composting"))
	_, err = h.run("topics", "delete", "composting")
	require.ErrorIs(t, err, state.ErrTopicNotFound)
}

func TestTopics_ExportImport(t *testing.T) {
	source := newHarness(t)
	source.mustRun("topics", "add", "go", "rust")
	path := filepath.Join(t.TempDir(), "topics.json")
	source.mustRun("topics", "export", "--out", path)

	target := newHarness(t)
	target.mustRun("topics", "add", "go")
	out := target.mustRun("topics", "import", path)
	assert.Contains(t, out, "1 topics imported.")
	assert.True(t, target.store.HasTopic("rust"))
}

func TestQuestions(t *testing.T) {
	h := newHarness(t)
	h.mustRun("topics", "add", "go")

	out := h.mustRun("questions", "generate", "--provider", "GPT-4", "--category", "Technical Questions")
	assert.Contains(t, out, "1 questions generated for 1 topics.")
	questions := h.store.Questions()
	require.Len(t, questions, 1)
	assert.Equal(t, "GPT-4 asks about go in Technical Questions?", questions[0].Question)
	assert.True(t, h.store.IsUsed("go"))

	_, err := h.run("questions", "generate")
	require.Error(t, err, "every topic is used")

	_, err = h.run("questions", "generate", "--provider", "Llama")
	require.Error(t, err)

	out = h.mustRun("questions", "add", "--topic", "go", "Is Go fun?")
	assert.Contains(t, out, "Added question 2.")

	out = h.mustRun("questions", "list")
	assert.Contains(t, out, "Is Go fun?")
	assert.Contains(t, out, models.SourceManual)

	out = h.mustRun("questions", "sort")
	assert.Contains(t, out, "2 questions sorted into 1.")

	_, err = h.run("questions", "delete", "one")
	require.ErrorIs(t, err, ErrInvalidID)
	out = h.mustRun("questions", "delete", "1")
	assert.Contains(t, out, "1 questions deleted.")
	assert.Empty(t, h.store.Questions())
}

func TestQuestions_FailureReport(t *testing.T) {
	h := newHarness(t)
	h.api.GenerateQuestionsFn = func(_ context.Context, _ string, provider ai.ProviderID, _ prompts.Category,
		_ string) ([]string, error) {
		if provider == ai.Anthropic {
			return nil, ai.ErrUpstreamCallFailed
		}
		return []string{"Why?"}, nil
	}
	h.mustRun("topics", "add", "go")

	out := h.mustRun("questions", "generate", "--category", "Common Questions")
	assert.Contains(t, out, "1 questions generated for 1 topics.")
	assert.Contains(t, out, "1 requests failed.")
	assert.Contains(t, out, "go / Claude / Common Questions")
}

func TestFAQ(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("faq", "generate")
	require.ErrorIs(t, err, ai.ErrValidation, "no questions yet")

	h.mustRun("questions", "add", "--topic", "go", "Why Go?")
	out := h.mustRun("faq", "generate")
	assert.Contains(t, out, "1 FAQs generated.")

	out = h.mustRun("faq", "add", "--topic", "go", "Who?", "Gophers.")
	assert.Contains(t, out, "Added FAQ 2.")
	out = h.mustRun("faq", "list")
	assert.Contains(t, out, "Who?")
	assert.Contains(t, out, "Because.")

	path := filepath.Join(t.TempDir(), "faq.jsonl")
	h.mustRun("faq", "export", "--out", path)
	exported, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"prompt":"Q","completion":"A"}`, string(exported))

	out = h.mustRun("faq", "export", "--out", "-")
	assert.JSONEq(t, `{"prompt":"Q","completion":"A"}`, out)

	out = h.mustRun("faq", "delete", "1", "2")
	assert.Contains(t, out, "2 FAQs deleted.")
}

func TestSettings(t *testing.T) {
	h := newHarness(t)

	h.mustRun("settings", "set", "smartSort", "Claude", "claude-3-5-sonnet-20240620")
	assert.Equal(t, "claude-3-5-sonnet-20240620", h.store.Settings().Model(state.StepSmartSort, ai.Anthropic))

	_, err := h.run("settings", "set", "smartSort", "Claude", "gpt-4")
	require.ErrorIs(t, err, state.ErrUnknownSetting)
	_, err = h.run("settings", "set", "cooking", "Claude", state.Disabled)
	require.ErrorIs(t, err, state.ErrUnknownSetting)

	out := h.mustRun("settings", "show")
	assert.Contains(t, out, "claude-3-5-sonnet-20240620")
}

func TestProviders(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("providers")
	assert.Equal(t, "GPT-4\nClaude (analysis)\n", out)

	h.api.ProvidersFn = func(_ context.Context) ([]ai.ProviderID, ai.ProviderID, error) {
		return []ai.ProviderID{ai.OpenAI}, ai.Anthropic, nil
	}
	out = h.mustRun("providers")
	assert.Contains(t, out, "Analysis provider Claude is not configured.")
}

func TestHelpDoesNotOpenSession(t *testing.T) {
	c := &cli{
		open: func(_ context.Context) (*session, error) {
			t.Fatal("session opened")
			return nil, nil //nolint:nilnil // unreachable
		},
		session: nil,
	}
	root := newRootCmd(c)
	root.SetOut(io.Discard)
	root.SetArgs([]string{"--help"})
	require.NoError(t, root.ExecuteContext(t.Context()))
	require.NoError(t, c.close(t.Context()))
}
