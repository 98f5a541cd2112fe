package main

import (
	"bytes"
	_ "embed"
	"github.com/myrjola/faqforge/internal/errors"
	"html/template"
	"net/http"
)

//go:embed index.gohtml
var indexTemplate string

func parseIndexTemplate() (*template.Template, error) {
	t, err := template.New("index").Parse(indexTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "parse index.gohtml")
	}
	return t, nil
}

// render executes t into a buffer first so that template errors turn into a clean 500.
func (app *application) render(w http.ResponseWriter, r *http.Request, status int, t *template.Template, data any) {
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, data); err != nil {
		app.serverError(w, r, errors.Wrap(err, "execute template"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
