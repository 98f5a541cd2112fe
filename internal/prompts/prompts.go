// Package prompts builds the provider prompts for every pipeline step.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category is a question archetype.
type Category string

const (
	Common             Category = "Common Questions"
	Technical          Category = "Technical Questions"
	InDepth            Category = "In-Depth Questions"
	Creative           Category = "Creative Questions"
	UnaskedInteresting Category = "Unasked but Interesting"

	Comparative          Category = "Comparative Questions"
	SocietalImpact       Category = "Societal Impact Questions"
	FuturePerspective    Category = "Future Perspective Questions"
	PracticalApplication Category = "Practical Application Questions"
	HistoricalContext    Category = "Historical Context Questions"
	EthicsResponsibility Category = "Ethics and Responsibility Questions"
	CurrentTrends        Category = "Current Trends Questions"
	ChallengesSolutions  Category = "Challenges and Solutions Questions"
	Innovation           Category = "Innovation Questions"
	PersonalExperience   Category = "Personal Experience Questions"
)

const lineFormat = "Reply only with the questions, one per line, without numbering or formatting."

var categoryTemplates = map[Category]string{
	Common:             `Return a list of 5 questions that are frequently asked about the topic "%s".`,
	Technical:          `Return a list of 5 technical questions on the topic "%s".`,
	InDepth:            `Return a list of 5 questions that allow deeper understanding of the topic "%s".`,
	Creative:           `Return a list of 5 original or offbeat questions about the topic "%s".`,
	UnaskedInteresting: `Return a list of 5 questions that are rarely asked but should be about the topic "%s".`,

	Comparative:          `Return a list of 5 questions that compare different aspects of "%s" with other fields or alternatives.`,
	SocietalImpact:       `Return a list of 5 questions about the impact of "%s" on society, culture and communities.`,
	FuturePerspective:    `Return a list of 5 questions about the future evolution and outlook of "%s" in the next 5 to 10 years.`,
	PracticalApplication: `Return a list of 5 questions about the practical application and implementation of "%s" in different contexts.`,
	HistoricalContext:    `Return a list of 5 questions about the history, origin and evolution of "%s".`,
	EthicsResponsibility: `Return a list of 5 questions about the ethical implications and responsibilities related to "%s".`,
	CurrentTrends:        `Return a list of 5 questions about current trends and recent developments concerning "%s".`,
	ChallengesSolutions:  `Return a list of 5 questions about the main challenges and potential solutions related to "%s".`,
	Innovation:           `Return a list of 5 questions about innovations and advances in the field of "%s".`,
	PersonalExperience:   `Return a list of 5 questions about people's personal experience with "%s".`,
}

// DefaultCategories returns the archetypes a generation batch covers unless told otherwise.
func DefaultCategories() []Category {
	return []Category{Common, Technical, InDepth, Creative, UnaskedInteresting}
}

// ExtendedCategories returns the optional archetypes.
func ExtendedCategories() []Category {
	return []Category{
		Comparative, SocietalImpact, FuturePerspective, PracticalApplication, HistoricalContext,
		EthicsResponsibility, CurrentTrends, ChallengesSolutions, Innovation, PersonalExperience,
	}
}

// Known reports whether c is in the catalog.
func Known(c Category) bool {
	_, ok := categoryTemplates[c]
	return ok
}

// ForCategory builds the question generation prompt. It returns false for categories outside the catalog.
func ForCategory(topic string, category Category) (string, bool) {
	template, ok := categoryTemplates[category]
	if !ok {
		return "", false
	}
	return fmt.Sprintf(template, topic) + " " + lineFormat, true
}

const smartTagsTemplate = `Analyze this text and extract 1 to 3 relevant tags that represent the key concepts.
IMPORTANT RULES for tags:
1. Always use the singular form (example: "vegetable" not "vegetables")
2. For multi-word expressions, use underscores (example: "data_base")
3. No spaces, no accents, no special characters
4. All lowercase
5. Keep it simple and generic
6. Prefer existing tags

Example 1: "tips for getting toddlers to eat vegetables" -> ["tip", "vegetable", "child"]
Example 2: "impact of the keto diet on mental health" -> ["diet", "keto", "mental_health"]
Example 3: "the different types of SQL databases" -> ["data_base", "sql"]

Text to analyze: "%s"%s

IMPORTANT: Reply ONLY with a JSON array containing the tags, nothing else.
Expected format: ["tag1", "tag2", "tag3"]`

// SmartTags builds the tag extraction prompt. Existing tags are offered for reuse when there are any.
func SmartTags(text string, existingTags []string) string {
	var existing string
	if len(existingTags) > 0 {
		encoded, _ := json.Marshal(existingTags) //nolint:errchkjson // a string slice always encodes
		existing = "\nHere are the existing tags: " + string(encoded) +
			"\nIf you see tags that match the text well, use them. Otherwise, you can create new ones."
	}
	return fmt.Sprintf(smartTagsTemplate, text, existing)
}

const groupingTemplate = `Analyze this list of questions and group those that are similar or deal with the same topic.
For each group, choose the most complete and relevant question.
Reply only with a JSON array containing the grouped questions, using this structure:
[{
    "selectedQuestion": "The chosen question",
    "similarQuestions": ["Similar question 1", "Similar question 2"],
    "explanation": "Brief explanation of the grouping"
}]

Questions to analyze:
`

// Grouping builds the near-duplicate analysis prompt listing every question on its own quoted line.
func Grouping(questions []string) string {
	var b strings.Builder
	b.WriteString(groupingTemplate)
	for i, q := range questions {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(`"` + q + `"`)
	}
	return b.String()
}

const variationsTemplate = `You are an expert in content generation and SEO.
I'll give you a topic and you need to generate 3 to 5 relevant variations or related topics.
These variations should be related subjects or specific aspects of the main topic.

Topic: "%s"

Specific instructions:
1. Variations should be in English
2. Each variation must be relevant and add value
3. Avoid repetitions and too similar variations
4. Variations should be natural and commonly searched
5. Keep a consistent format (no random capitals, consistent punctuation)

IMPORTANT: Reply ONLY with a JSON array containing the variations, nothing else.
Expected format: ["variation1", "variation2", "variation3"]`

// TopicVariations builds the prompt asking for related topics.
func TopicVariations(topic string) string {
	return fmt.Sprintf(variationsTemplate, topic)
}
