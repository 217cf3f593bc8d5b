// Package ai talks to the language model used to screen resumes and draft job openings.
package ai

import (
	"context"
	"time"

	"github.com/lws-dev/hiring/backend/internal/config"
	"golang.org/x/time/rate"
)

// Completer is a chat model that can also embed text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingDimensions matches the vector column of the documents table.
const EmbeddingDimensions = 768

// NewCompleter builds the client of the configured provider.
func NewCompleter(ctx context.Context, cfg *config.Config) (Completer, error) {
	var completer Completer

	switch cfg.AI.Provider {
	case config.ProviderGemini:
		gemini, err := NewGemini(ctx, cfg.AI.Key, cfg.AI.Model, cfg.AI.EmbeddingModel)
		if err != nil {
			return nil, err
		}
		completer = gemini
	default:
		// ollama, openai and any server speaking the same API
		completer = NewOpenAI(cfg.AI.Endpoint, cfg.AI.Key, cfg.AI.Model, cfg.AI.EmbeddingModel)
	}

	if cfg.AI.RequestsPerMinute > 0 {
		completer = WithRateLimit(completer, cfg.AI.RequestsPerMinute)
	}

	return completer, nil
}

type rateLimited struct {
	next    Completer
	limiter *rate.Limiter
}

// WithRateLimit spaces calls to at most perMinute requests per minute.
func WithRateLimit(next Completer, perMinute int) Completer {
	return &rateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (r *rateLimited) Complete(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.next.Complete(ctx, prompt)
}

func (r *rateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Embed(ctx, text)
}
