package main

import (
	"encoding/gob"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/logging"
	"github.com/myrjola/faqforge/internal/models"
	"github.com/myrjola/faqforge/internal/random"
	"log/slog"
	"net/http"
)

const sessionCookieName = "session"

const (
	scopeSessionKey     = "scope"
	questionsSessionKey = "questions"
	faqsSessionKey      = "faqs"
)

const scopeLength = 8

func init() {
	gob.Register([]models.Question{})
	gob.Register([]models.FAQ{})
}

// scopeSession labels the session with a random non-secret scope that is added to the request's log records.
func (app *application) scopeSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		scope := app.sessionManager.GetString(ctx, scopeSessionKey)
		if scope == "" {
			var err error
			if scope, err = random.Letters(scopeLength); err != nil {
				app.serverError(w, r, errors.Wrap(err, "generate session scope"))
				return
			}
			app.sessionManager.Put(ctx, scopeSessionKey, scope)
		}
		r = r.WithContext(logging.WithAttrs(r.Context(), slog.String("session", scope)))

		next.ServeHTTP(w, r)
	})
}

// cacheQuestions keeps the latest generated or sorted questions of the session.
func (app *application) cacheQuestions(r *http.Request, questions []models.Question) {
	app.sessionManager.Put(r.Context(), questionsSessionKey, questions)
}

func (app *application) cacheFAQs(r *http.Request, faqs []models.FAQ) {
	app.sessionManager.Put(r.Context(), faqsSessionKey, faqs)
}

// cachedFAQs returns the FAQs of the session's latest generateFAQ call.
func (app *application) cachedFAQs(r *http.Request) []models.FAQ {
	faqs, _ := app.sessionManager.Get(r.Context(), faqsSessionKey).([]models.FAQ)
	return faqs
}
