package main

import (
	"github.com/justinas/alice"
	"net/http"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthy", app.healthy)

	api := alice.New(app.sessionManager.LoadAndSave, app.scopeSession, app.timeout)

	mux.Handle("GET /api/providers", api.ThenFunc(app.providers))
	mux.Handle("POST /api/generateQuestions", api.ThenFunc(app.generateQuestions))
	mux.Handle("POST /api/smartSort", api.ThenFunc(app.smartSort))
	mux.Handle("POST /api/generateFAQ", api.ThenFunc(app.generateFAQ))
	mux.Handle("GET /api/exportFAQ", api.ThenFunc(app.exportFAQ))
	mux.Handle("POST /api/generateSmartTags", api.ThenFunc(app.generateSmartTags))
	mux.Handle("POST /api/generateTopicVariations", api.ThenFunc(app.generateTopicVariations))
	mux.Handle("POST /api/generateKeywordVariations", api.ThenFunc(app.generateTopicVariations))

	mux.HandleFunc("GET /{$}", app.home)
	mux.HandleFunc("/", app.notFound)

	return app.recoverPanic(app.traceRequest(app.logRequest(secureHeaders(mux))))
}
