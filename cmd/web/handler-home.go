package main

import (
	"github.com/myrjola/faqforge/internal/ai"
	"net/http"
)

type homeTemplateData struct {
	Providers        []ai.ProviderID
	AnalysisProvider ai.ProviderID
	Endpoints        []string
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	data := homeTemplateData{
		Providers:        app.ai.Providers(),
		AnalysisProvider: app.analysis,
		Endpoints: []string{
			"GET /api/healthy",
			"GET /api/providers",
			"POST /api/generateQuestions",
			"POST /api/smartSort",
			"POST /api/generateFAQ",
			"GET /api/exportFAQ",
			"POST /api/generateSmartTags",
			"POST /api/generateTopicVariations",
		},
	}

	app.render(w, r, http.StatusOK, app.index, data)
}
