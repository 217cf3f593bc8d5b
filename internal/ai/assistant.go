package ai

import (
	"context"
	"time"

	"github.com/lws-dev/hiring/backend/internal/domain"
)

// Assistant runs the hiring prompts against a Completer.
type Assistant struct {
	completer Completer
	timeout   time.Duration
}

func NewAssistant(completer Completer, timeout time.Duration) *Assistant {
	return &Assistant{
		completer: completer,
		timeout:   timeout,
	}
}

// Evaluate scores a resume against a job opening.
func (a *Assistant) Evaluate(ctx context.Context, resumeText string, job *domain.Job) (*domain.Verdict, error) {
	prompt, err := EvaluationPrompt(resumeText, job)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	answer, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return ParseVerdict(answer)
}

// GenerateJob drafts a job opening from the text of a posting.
func (a *Assistant) GenerateJob(ctx context.Context, sourceText string) (*domain.JobDraft, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	answer, err := a.completer.Complete(ctx, JobDraftPrompt(sourceText))
	if err != nil {
		return nil, err
	}

	return ParseJobDraft(answer)
}

func (a *Assistant) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	return a.completer.Embed(ctx, truncate(text, maxSourceChars))
}
