// Package faq turns curated questions into FAQ entries and exports them for fine-tuning.
package faq

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/myrjola/faqforge/internal/ai"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/models"
	"io"
	"log/slog"
	"strings"
)

// ErrNothingToExport is a validation error, so callers can treat it like any other bad request.
var ErrNothingToExport = fmt.Errorf("%w: no FAQ generated to export", ai.ErrValidation)

// Combine builds one FAQ entry per question with an answer that merges a fragment per provider.
//
// Each entry keeps the id, topic and question of its source question.
func Combine(questions []models.Question, providers []ai.ProviderID) []models.FAQ {
	faqs := make([]models.FAQ, 0, len(questions))
	for _, q := range questions {
		fragments := make([]string, 0, len(providers))
		for _, p := range providers {
			fragments = append(fragments, fmt.Sprintf(`Answer from %s for "%s"`, p, q.Question))
		}
		faqs = append(faqs, models.FAQ{
			ID:       q.ID,
			Topic:    q.Topic,
			Question: q.Question,
			Answer:   "Combined answer: " + strings.Join(fragments, " | "),
		})
	}
	return faqs
}

type record struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// WriteJSONL writes one {"prompt","completion"} object per FAQ, separated by newlines without a trailing one.
func WriteJSONL(w io.Writer, faqs []models.FAQ) error {
	if len(faqs) == 0 {
		return errors.Wrap(ErrNothingToExport, "write jsonl")
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, f := range faqs {
		if err := enc.Encode(record{Prompt: f.Question, Completion: f.Answer}); err != nil {
			return errors.Wrap(err, "encode record", slog.Int("id", f.ID))
		}
	}
	// Encode terminates every record with a newline.
	buf.Truncate(buf.Len() - 1)
	if _, err := buf.WriteTo(w); err != nil {
		return errors.Wrap(err, "write records")
	}
	return nil
}
