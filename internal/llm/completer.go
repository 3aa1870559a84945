// Package llm turns a free-text IT issue into a structured classification by
// calling a hosted language model.
package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// Usage reports token consumption for one completion.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// TotalTokens returns input plus output tokens.
func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

// Completion is the raw model reply.
type Completion struct {
	Text  string
	Usage Usage
}

// Completer sends one system + user prompt pair and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (*Completion, error)
	// Name identifies the backend in logs.
	Name() string
}

// NewCompleter builds the transport selected by cfg.Provider. It fails with
// cfg.KeyErr when no API key was resolved.
func NewCompleter(cfg config.LLMConfig, httpClient *http.Client) (Completer, error) {
	if cfg.KeyErr != nil {
		return nil, cfg.KeyErr
	}
	switch cfg.Provider {
	case config.ProviderGroq, config.ProviderOpenAI:
		return NewOpenAICompatible(cfg, httpClient), nil
	case config.ProviderAnthropic:
		return NewAnthropic(cfg), nil
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", cfg.Provider)
	}
}
