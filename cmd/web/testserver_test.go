package main

import (
	"context"
	"encoding/json"
	"github.com/myrjola/faqforge/internal/ai"
	"github.com/myrjola/faqforge/internal/e2etest"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// llmCall is a single request received by the fake provider APIs.
type llmCall struct {
	Provider ai.ProviderID
	Model    string
	Prompt   string
}

// fakeLLM serves the OpenAI compatible chat completions API under /openai and /anthropic, and the Gemini generate
// content API under /google.
type fakeLLM struct {
	server *httptest.Server
	answer func(ctx context.Context, call llmCall) (string, error)

	mu    sync.Mutex
	calls []llmCall
}

func newFakeLLM(t *testing.T, answer func(ctx context.Context, call llmCall) (string, error)) *fakeLLM {
	t.Helper()
	f := &fakeLLM{server: nil, answer: answer, mu: sync.Mutex{}, calls: nil}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /openai/chat/completions", f.chatCompletions(ai.OpenAI))
	mux.HandleFunc("POST /anthropic/chat/completions", f.chatCompletions(ai.Anthropic))
	mux.HandleFunc("POST /google/", f.generateContent)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeLLM) record(call llmCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

// Calls returns the calls received so far.
func (f *fakeLLM) Calls() []llmCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llmCall{}, f.calls...)
}

func (f *fakeLLM) chatCompletions(provider ai.ProviderID) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		call := llmCall{Provider: provider, Model: req.Model, Prompt: req.Messages[0].Content}
		f.record(call)
		text, err := f.answer(r.Context(), call)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": err.Error(), "type": "server_error"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1,
			"model":   req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": text},
				"finish_reason": "stop",
			}},
		})
	}
}

func (f *fakeLLM) generateContent(w http.ResponseWriter, r *http.Request) {
	// The path ends with models/<model>:generateContent.
	_, model, _ := strings.Cut(r.URL.Path, "models/")
	model, _, _ = strings.Cut(model, ":")
	var req struct {
		Contents []struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Contents) == 0 ||
		len(req.Contents[0].Parts) == 0 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	call := llmCall{Provider: ai.Google, Model: model, Prompt: req.Contents[0].Parts[0].Text}
	f.record(call)
	text, err := f.answer(r.Context(), call)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": http.StatusInternalServerError, "message": err.Error(), "status": "INTERNAL"},
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": []map[string]string{{"text": text}}},
			"finishReason": "STOP",
		}},
	})
}

// env builds a lookupEnv for a server talking to the fake providers. Providers not listed stay unconfigured.
// overrides win over the defaults.
func (f *fakeLLM) env(providers []ai.ProviderID, overrides map[string]string) func(string) (string, bool) {
	vars := map[string]string{
		"FAQFORGE_ADDR":      "localhost:0",
		"OPENAI_BASE_URL":    f.server.URL + "/openai",
		"ANTHROPIC_BASE_URL": f.server.URL + "/anthropic",
		"GOOGLE_BASE_URL":    f.server.URL + "/google/",
	}
	for _, p := range providers {
		switch p {
		case ai.OpenAI:
			vars["OPENAI_API_KEY"] = "test-openai"
		case ai.Anthropic:
			vars["ANTHROPIC_API_KEY"] = "test-anthropic"
		case ai.Google:
			vars["GOOGLE_API_KEY"] = "test-google"
		}
	}
	for k, v := range overrides {
		vars[k] = v
	}
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

// startTestServer starts the server in-process. It is stopped when the test finishes.
func startTestServer(t *testing.T, lookupEnv func(string) (string, bool)) *e2etest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	server, err := e2etest.StartServer(ctx, io.Discard, lookupEnv, run)
	require.NoError(t, err)
	return server
}

// postJSON posts body to the server and decodes the JSON answer into out.
func postJSON(t *testing.T, server *e2etest.Server, path, body string, out any) int {
	t.Helper()
	resp, err := http.Post(server.URL()+path, "application/json", strings.NewReader(body)) //nolint:noctx // test
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}
