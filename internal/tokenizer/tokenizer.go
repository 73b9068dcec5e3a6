// Package tokenizer estimates token counts for report text so LLM callers
// can budget their context before requesting another run.
package tokenizer

import (
	"fmt"
	"strings"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// Config captures tokenizer selection parameters from configuration.
type Config struct {
	Model string
}

const (
	defaultModel        = "gpt-4o"
	defaultEncodingName = "cl100k_base"
)

// NewCounter returns a Counter for the requested model, falling back to the
// default byte-pair encoding when the model is unknown. The resolved model or
// encoding name is returned alongside the counter.
func NewCounter(cfg Config) (Counter, string, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	counter, resolvedName, counterError := newOpenAICounter(strings.ToLower(model))
	if counterError != nil {
		return nil, "", fmt.Errorf("initialize tokenizer for %s: %w", model, counterError)
	}
	return counter, resolvedName, nil
}
