package ai

import (
	"github.com/myrjola/faqforge/internal/errors"
	"log/slog"
)

// ProviderID is the public name of an LLM backend as shown to clients.
type ProviderID string

const (
	OpenAI    ProviderID = "GPT-4"
	Anthropic ProviderID = "Claude"
	Google    ProviderID = "Google"
)

// Catalog lists every supported provider in presentation order.
func Catalog() []ProviderID {
	return []ProviderID{OpenAI, Anthropic, Google}
}

// SettingsKey is the key under which model settings for the provider are stored.
func (p ProviderID) SettingsKey() string {
	switch p {
	case OpenAI:
		return "openai"
	case Anthropic:
		return "anthropic"
	case Google:
		return "google"
	default:
		return ""
	}
}

// ParseProvider resolves a provider by its public name or its settings key.
func ParseProvider(s string) (ProviderID, error) {
	for _, p := range Catalog() {
		if s == string(p) || s == p.SettingsKey() {
			return p, nil
		}
	}
	return "", errors.Wrap(ErrValidation, "unsupported provider", slog.String("provider", s))
}
