// Package screening scores uploaded resumes in the background and keeps the evaluation counts current.
package screening

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lws-dev/hiring/backend/internal/domain"
	"github.com/lws-dev/hiring/backend/internal/extract"
	"github.com/lws-dev/hiring/backend/internal/queue"
)

type Repository interface {
	GetResumeByID(id int64) (*domain.Resume, error)
	GetJobByID(id int64) (*domain.Job, error)
	SaveVerdict(resume *domain.Resume, verdict *domain.Verdict) error
	MarkResumeFailed(resumeID int64, evaluationID int64, reason string) error
	IncrementResumeAttempts(id int64) error
	SaveDocument(doc *domain.Document) error
}

type ObjectStore interface {
	Retrieve(ctx context.Context, key string) ([]byte, string, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, resumeText string, job *domain.Job) (*domain.Verdict, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Publisher interface {
	Publish(ctx context.Context, queue string, v any) error
}

// errSkip marks tasks whose resume is gone or already settled.
var errSkip = errors.New("resume no longer pending")

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// permanent marks failures that another attempt cannot fix.
func permanent(err error) error {
	return &permanentError{err: err}
}

type Screener struct {
	repo        Repository
	store       ObjectStore
	evaluator   Evaluator
	publisher   Publisher
	maxAttempts int
	index       bool
}

type Options struct {
	MaxAttempts int
	// Index stores an embedding of every screened resume for similarity search.
	Index bool
}

func NewScreener(repo Repository, store ObjectStore, evaluator Evaluator, publisher Publisher, opts Options) *Screener {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	return &Screener{
		repo:        repo,
		store:       store,
		evaluator:   evaluator,
		publisher:   publisher,
		maxAttempts: opts.MaxAttempts,
		index:       opts.Index,
	}
}

// Screen runs one task to completion: the resume ends up with a verdict stored and the counts recomputed.
func (s *Screener) Screen(ctx context.Context, task *domain.ScreeningTask) error {
	resume, err := s.repo.GetResumeByID(task.ResumeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errSkip
		}
		return fmt.Errorf("load resume: %w", err)
	}
	if resume.Status != domain.ResumePending {
		return errSkip
	}

	data, contentType, err := s.store.Retrieve(ctx, resume.FilePath)
	if err != nil {
		return fmt.Errorf("retrieve resume: %w", err)
	}

	text, err := extract.Document(data, contentType)
	if err != nil {
		return permanent(fmt.Errorf("extract text: %w", err))
	}

	job, err := s.repo.GetJobByID(task.JobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return permanent(errors.New("job not found"))
		}
		return fmt.Errorf("load job: %w", err)
	}

	verdict, err := s.evaluator.Evaluate(ctx, text, job)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	if err := s.repo.SaveVerdict(resume, verdict); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errSkip
		}
		return fmt.Errorf("save verdict: %w", err)
	}

	if s.index {
		s.indexResume(ctx, resume, text)
	}

	return nil
}

func (s *Screener) indexResume(ctx context.Context, resume *domain.Resume, text string) {
	embedding, err := s.evaluator.Embed(ctx, text)
	if err != nil {
		slog.Warn("could not embed resume", "resumeID", resume.ID, "error", err)
		return
	}

	if err := s.repo.SaveDocument(&domain.Document{ResumeID: resume.ID, Content: text, Embedding: embedding}); err != nil {
		slog.Warn("could not store resume document", "resumeID", resume.ID, "error", err)
	}
}

// Handle is the queue handler of screening_queue.
func (s *Screener) Handle(ctx context.Context, body []byte) queue.Outcome {
	task := &domain.ScreeningTask{}
	if err := json.Unmarshal(body, task); err != nil {
		slog.Error("could not decode screening task", "error", err)
		return queue.Drop
	}

	logger := slog.With("resumeID", task.ResumeID, "evaluationID", task.EvaluationID, "attempt", task.Attempt)

	err := s.Screen(ctx, task)
	var perm *permanentError
	switch {
	case err == nil:
		logger.Info("resume screened")
		return queue.Ack
	case errors.Is(err, errSkip):
		logger.Info("skipping screening task", "reason", err)
		return queue.Ack
	case errors.As(err, &perm):
		logger.Error("screening failed permanently", "error", err)
		return s.fail(task, err)
	case task.Attempt+1 >= s.maxAttempts:
		logger.Error("screening failed, no attempts left", "error", err)
		return s.fail(task, err)
	default:
		logger.Warn("screening failed, retrying", "error", err)
		return s.retry(ctx, task)
	}
}

func (s *Screener) retry(ctx context.Context, task *domain.ScreeningTask) queue.Outcome {
	if err := s.repo.IncrementResumeAttempts(task.ResumeID); err != nil {
		slog.Warn("could not count attempt", "resumeID", task.ResumeID, "error", err)
	}

	next := *task
	next.Attempt++
	if err := s.publisher.Publish(ctx, domain.ScreeningQueue, &next); err != nil {
		// the broker redelivers the original task instead
		slog.Error("could not republish screening task", "resumeID", task.ResumeID, "error", err)
		return queue.Requeue
	}

	return queue.Ack
}

func (s *Screener) fail(task *domain.ScreeningTask, cause error) queue.Outcome {
	err := s.repo.MarkResumeFailed(task.ResumeID, task.EvaluationID, FailureReason(cause))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		slog.Error("could not mark resume as failed", "resumeID", task.ResumeID, "error", err)
		return queue.Requeue
	}

	return queue.Ack
}

// FailureReason is the message stored as the feedback of a failed resume.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedDocument):
		return "The document format is not supported."
	case errors.Is(err, domain.ErrEmptyDocument):
		return "No text could be extracted from the document."
	case errors.Is(err, domain.ErrInvalidVerdict):
		return "The model did not return a usable assessment."
	default:
		return "The resume could not be screened."
	}
}
