package ai

import (
	"encoding/json"
	"fmt"
	"github.com/myrjola/faqforge/internal/errors"
	"log/slog"
	"strings"
)

// Group is one cluster of near-duplicate questions returned by the analysis provider.
type Group struct {
	SelectedQuestion string
	SimilarQuestions []string
	Explanation      string
}

// SplitLines splits a line-oriented answer into trimmed, non-blank lines.
func SplitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// unfence removes surrounding whitespace and a single surrounding markdown code fence.
func unfence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 { //nolint:mnd // two fences
		return text
	}
	inner := strings.TrimSuffix(text[3:], "```")
	// Drop the info string such as "json" on the opening fence line.
	if newline := strings.IndexByte(inner, '\n'); newline != -1 {
		inner = inner[newline+1:]
	} else {
		return text
	}
	return strings.TrimSpace(inner)
}

func invalidFormat(reason string, raw string) error {
	const maxRawLength = 500
	if len(raw) > maxRawLength {
		raw = raw[:maxRawLength] + "…"
	}
	return errors.Wrap(ErrInvalidResponseFormat, reason, slog.String("raw", raw))
}

// ParseStrings strictly parses a JSON array of non-blank strings.
//
// The strings are trimmed and deduplicated keeping the first occurrence. Anything else, including a non-array
// document or a non-string or blank element, is an ErrInvalidResponseFormat.
func ParseStrings(text string) ([]string, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(unfence(text)), &elements); err != nil || elements == nil {
		return nil, invalidFormat("expected JSON array", text)
	}
	result := make([]string, 0, len(elements))
	seen := make(map[string]struct{}, len(elements))
	for i, element := range elements {
		var s string
		if err := json.Unmarshal(element, &s); err != nil {
			return nil, invalidFormat(fmt.Sprintf("element %d is not a string", i), text)
		}
		if s = strings.TrimSpace(s); s == "" {
			return nil, invalidFormat(fmt.Sprintf("element %d is blank", i), text)
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		result = append(result, s)
	}
	return result, nil
}

type wireGroup struct {
	SelectedQuestion *string  `json:"selectedQuestion"`
	SimilarQuestions []string `json:"similarQuestions"`
	Explanation      string   `json:"explanation"`
}

// ParseGroups strictly parses the grouping answer, a JSON array of
// {selectedQuestion, similarQuestions[], explanation} objects.
//
// A missing similarQuestions list is read as empty. A missing selectedQuestion, or a field of the wrong type, is an
// ErrInvalidResponseFormat.
func ParseGroups(text string) ([]Group, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(unfence(text)), &elements); err != nil || elements == nil {
		return nil, invalidFormat("expected JSON array", text)
	}
	groups := make([]Group, 0, len(elements))
	for i, element := range elements {
		var g wireGroup
		if err := json.Unmarshal(element, &g); err != nil {
			return nil, invalidFormat(fmt.Sprintf("group %d has the wrong shape", i), text)
		}
		if g.SelectedQuestion == nil {
			return nil, invalidFormat(fmt.Sprintf("group %d has no selectedQuestion", i), text)
		}
		similar := g.SimilarQuestions
		if similar == nil {
			similar = []string{}
		}
		groups = append(groups, Group{
			SelectedQuestion: *g.SelectedQuestion,
			SimilarQuestions: similar,
			Explanation:      g.Explanation,
		})
	}
	return groups, nil
}
