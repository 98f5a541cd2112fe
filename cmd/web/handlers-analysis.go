package main

import (
	"github.com/myrjola/faqforge/internal/ai"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/prompts"
	"log/slog"
	"net/http"
)

const (
	tagsMaxTokens         = 150
	tagsTemperature       = 0.3
	variationsMaxTokens   = 500
	variationsTemperature = 0.7
)

func (app *application) providers(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusOK, map[string]any{
		"providers":        app.ai.Providers(),
		"analysisProvider": app.analysis,
	})
}

// requireAnalysis reports ErrAnalysisUnavailable when the analysis provider has no credentials.
func (app *application) requireAnalysis(step string) error {
	if app.ai.Configured(app.analysis) {
		return nil
	}
	return errors.Wrap(ai.ErrAnalysisUnavailable, step, slog.String("provider", string(app.analysis)))
}

type smartTagsRequest struct {
	Text         string   `json:"text" validate:"required,notblank"`
	ExistingTags []string `json:"existingTags"`
	Model        string   `json:"model"`
}

func (app *application) generateSmartTags(w http.ResponseWriter, r *http.Request) {
	var req smartTagsRequest
	if !app.decode(w, r, &req, "Please provide text to analyze.") {
		return
	}
	if err := app.requireAnalysis("generate smart tags"); err != nil {
		app.fail(w, r, err, "")
		return
	}
	tags, err := app.ai.Strings(r.Context(), app.analysis, prompts.SmartTags(req.Text, req.ExistingTags),
		ai.WithModel(req.Model), ai.WithMaxTokens(tagsMaxTokens), ai.WithTemperature(tagsTemperature))
	if err != nil {
		app.fail(w, r, errors.Wrap(err, "generate smart tags"), "An error occurred while generating tags.")
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]any{"tags": tags})
}

type topicVariationsRequest struct {
	Topic string `json:"topic" validate:"required,notblank"`
	// Keyword is accepted as an alias of Topic.
	Keyword string `json:"keyword" validate:"-"`
	Model   string `json:"model"`
}

func (app *application) generateTopicVariations(w http.ResponseWriter, r *http.Request) {
	var req topicVariationsRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	if req.Topic == "" {
		req.Topic = req.Keyword
	}
	if !app.validBody(w, r, &req, "Please provide a topic.") {
		return
	}
	if err := app.requireAnalysis("generate topic variations"); err != nil {
		app.fail(w, r, err, "")
		return
	}
	variations, err := app.ai.Strings(r.Context(), app.analysis, prompts.TopicVariations(req.Topic),
		ai.WithModel(req.Model), ai.WithMaxTokens(variationsMaxTokens), ai.WithTemperature(variationsTemperature))
	if err == nil && len(variations) == 0 {
		err = errors.Wrap(ai.ErrInvalidResponseFormat, "no variations")
	}
	if err != nil {
		app.fail(w, r, errors.Wrap(err, "generate topic variations", slog.String("topic", req.Topic)),
			"Error generating variations. Please try again.")
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]any{"variations": variations})
}
