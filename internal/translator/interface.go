package translator

import (
	"context"
	"errors"
)

// ErrNoAPIKeys is returned when the Gemini adapter has no key to call with.
var ErrNoAPIKeys = errors.New("no translation API keys configured")

// Translator translates subtitle texts between engine language codes.
// The result has the same length and order as texts. Empty or
// whitespace-only entries come back unchanged.
type Translator interface {
	Translate(ctx context.Context, srcLang, tgtLang string, texts []string) ([]string, error)
}

// TokenCounter measures text in translation-model tokens.
type TokenCounter interface {
	Count(text string) int
}

// Factory builds a translator for one (model, source language) pair.
type Factory func(model, srcLang string) (Translator, error)
