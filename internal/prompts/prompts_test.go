package prompts_test

import (
	"github.com/myrjola/faqforge/internal/prompts"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestForCategory(t *testing.T) {
	got, ok := prompts.ForCategory("sourdough", prompts.Common)
	require.True(t, ok)
	require.Equal(t, `Return a list of 5 questions that are frequently asked about the topic "sourdough". `+
		`Reply only with the questions, one per line, without numbering or formatting.`, got)

	for _, c := range append(prompts.DefaultCategories(), prompts.ExtendedCategories()...) {
		require.True(t, prompts.Known(c), c)
		p, known := prompts.ForCategory("sourdough", c)
		require.True(t, known, c)
		require.Contains(t, p, `"sourdough"`)
		require.True(t, strings.HasSuffix(p, "one per line, without numbering or formatting."), c)
	}

	_, ok = prompts.ForCategory("sourdough", "Spicy Questions")
	require.False(t, ok)
	require.False(t, prompts.Known("Spicy Questions"))
}

func TestCatalog(t *testing.T) {
	require.Len(t, prompts.DefaultCategories(), 5)
	require.Len(t, prompts.ExtendedCategories(), 10)
	require.Equal(t, prompts.Category("Unasked but Interesting"), prompts.DefaultCategories()[4])
}

func TestSmartTags(t *testing.T) {
	withoutExisting := prompts.SmartTags("impact of the keto diet", nil)
	require.Contains(t, withoutExisting, `Text to analyze: "impact of the keto diet"`)
	require.NotContains(t, withoutExisting, "existing tags:")

	withExisting := prompts.SmartTags("impact of the keto diet", []string{"diet", "mental_health"})
	require.Contains(t, withExisting, `Here are the existing tags: ["diet","mental_health"]`)
	require.Contains(t, withExisting, "All lowercase")
}

func TestGrouping(t *testing.T) {
	got := prompts.Grouping([]string{"What is Go?", "Why Go?"})
	require.True(t, strings.HasSuffix(got, "Questions to analyze:\n\"What is Go?\"\n\"Why Go?\""))
	require.Contains(t, got, `"selectedQuestion"`)
}

func TestTopicVariations(t *testing.T) {
	got := prompts.TopicVariations("urban gardening")
	require.Contains(t, got, `Topic: "urban gardening"`)
	require.Contains(t, got, "JSON array")
}
