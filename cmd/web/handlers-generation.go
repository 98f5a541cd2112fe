package main

import (
	"bytes"
	"github.com/myrjola/faqforge/internal/ai"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/faq"
	"github.com/myrjola/faqforge/internal/models"
	"github.com/myrjola/faqforge/internal/prompts"
	"log/slog"
	"net/http"
)

const generationTemperature = 0.7

type generateQuestionsRequest struct {
	Keywords []string `json:"keywords" validate:"required,min=1,dive,notblank"`
	// Topics is accepted as an alias of Keywords.
	Topics   []string `json:"topics" validate:"-"`
	Provider string   `json:"provider" validate:"required,notblank"`
	Category string   `json:"category" validate:"required,notblank"`
	Model    string   `json:"model"`
}

// questionResponse repeats the topic under the keyword name for clients of the keyword era.
type questionResponse struct {
	Keyword string `json:"keyword"`
	models.Question
}

func (app *application) generateQuestions(w http.ResponseWriter, r *http.Request) {
	var req generateQuestionsRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	req.Keywords = append(req.Keywords, req.Topics...)
	if !app.validBody(w, r, &req, "Please provide a list of topics, a provider and a category.") {
		return
	}
	provider, err := ai.ParseProvider(req.Provider)
	if err != nil {
		app.clientError(w, r, "Unsupported provider.", err)
		return
	}
	if !app.ai.Configured(provider) {
		app.fail(w, r, errors.Wrap(ai.ErrProviderUnavailable, "generate questions",
			slog.String("provider", string(provider))), "")
		return
	}
	category := prompts.Category(req.Category)
	if !prompts.Known(category) {
		app.clientError(w, r, "Unknown category.",
			errors.Wrap(ai.ErrValidation, "unknown category", slog.String("category", req.Category)))
		return
	}

	questions := []models.Question{}
	for _, topic := range req.Keywords {
		prompt, _ := prompts.ForCategory(topic, category)
		lines, lineErr := app.ai.Lines(r.Context(), provider, prompt,
			ai.WithModel(req.Model), ai.WithTemperature(generationTemperature))
		if lineErr != nil {
			app.fail(w, r, errors.Wrap(lineErr, "generate questions", slog.String("topic", topic)),
				"Error generating questions.")
			return
		}
		for _, line := range lines {
			questions = append(questions, models.Question{
				ID:        0,
				Topic:     topic,
				Source:    string(provider),
				Category:  string(category),
				Question:  line,
				GroupInfo: nil,
			})
		}
	}
	app.cacheQuestions(r, questions)

	resp := make([]questionResponse, len(questions))
	for i, q := range questions {
		resp[i] = questionResponse{Keyword: q.Topic, Question: q}
	}
	app.writeJSON(w, r, http.StatusOK, map[string]any{"questions": resp})
}

type questionsRequest struct {
	Questions []models.Question `json:"questions" validate:"required,dive"`
	Model     string            `json:"model"`
}

func (app *application) smartSort(w http.ResponseWriter, r *http.Request) {
	var req questionsRequest
	if !app.decode(w, r, &req, "Please provide a list of questions.") {
		return
	}
	sorted, err := app.grouping.SmartSort(r.Context(), req.Questions, req.Model)
	if err != nil {
		app.fail(w, r, err, "Error during smart sort.")
		return
	}
	app.cacheQuestions(r, sorted)
	app.writeJSON(w, r, http.StatusOK, map[string]any{"questions": sorted})
}

func (app *application) generateFAQ(w http.ResponseWriter, r *http.Request) {
	var req questionsRequest
	if !app.decode(w, r, &req, "Please provide a list of questions.") {
		return
	}
	if len(req.Questions) == 0 {
		app.clientError(w, r, "Please provide a list of questions.",
			errors.Wrap(ai.ErrValidation, "empty questions"))
		return
	}
	faqs := faq.Combine(req.Questions, app.ai.Providers())
	app.cacheFAQs(r, faqs)
	app.writeJSON(w, r, http.StatusOK, map[string]any{"faqs": faqs})
}

func (app *application) exportFAQ(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := faq.WriteJSONL(&buf, app.cachedFAQs(r)); err != nil {
		if errors.Is(err, faq.ErrNothingToExport) {
			app.clientError(w, r, "No FAQ generated to export.", err)
			return
		}
		app.serverError(w, r, errors.Wrap(err, "write jsonl"))
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=faq.jsonl")
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
