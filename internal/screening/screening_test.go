package screening

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/lws-dev/hiring/backend/internal/domain"
	"github.com/lws-dev/hiring/backend/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	resume    *domain.Resume
	resumeErr error
	job       *domain.Job
	jobErr    error
	saveErr   error
	failErr   error

	verdict       *domain.Verdict
	failedReason  string
	attempts      int
	savedDocument *domain.Document
}

func (f *fakeRepository) GetResumeByID(id int64) (*domain.Resume, error) {
	if f.resumeErr != nil {
		return nil, f.resumeErr
	}
	return f.resume, nil
}

func (f *fakeRepository) GetJobByID(id int64) (*domain.Job, error) {
	if f.jobErr != nil {
		return nil, f.jobErr
	}
	return f.job, nil
}

func (f *fakeRepository) SaveVerdict(resume *domain.Resume, verdict *domain.Verdict) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.verdict = verdict
	return nil
}

func (f *fakeRepository) MarkResumeFailed(resumeID int64, evaluationID int64, reason string) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.failedReason = reason
	return nil
}

func (f *fakeRepository) IncrementResumeAttempts(id int64) error {
	f.attempts++
	return nil
}

func (f *fakeRepository) SaveDocument(doc *domain.Document) error {
	f.savedDocument = doc
	return nil
}

type fakeStore struct {
	data        []byte
	contentType string
	err         error
}

func (f *fakeStore) Retrieve(ctx context.Context, key string) ([]byte, string, error) {
	return f.data, f.contentType, f.err
}

type fakeEvaluator struct {
	verdict *domain.Verdict
	err     error
	text    string
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, resumeText string, job *domain.Job) (*domain.Verdict, error) {
	f.text = resumeText
	return f.verdict, f.err
}

func (f *fakeEvaluator) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

type fakePublisher struct {
	tasks []*domain.ScreeningTask
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, queue string, v any) error {
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, v.(*domain.ScreeningTask))
	return nil
}

func newFixture() (*fakeRepository, *fakeStore, *fakeEvaluator, *fakePublisher) {
	repo := &fakeRepository{
		resume: &domain.Resume{ID: 7, EvaluationID: 3, FilePath: "uploads/eval/cv.txt", Status: domain.ResumePending},
		job:    &domain.Job{ID: 2, Title: "Backend Engineer"},
	}
	store := &fakeStore{data: []byte("Go developer with five years of experience"), contentType: "text/plain"}
	evaluator := &fakeEvaluator{verdict: &domain.Verdict{Score: 82, Status: domain.ResumeAccepted, Feedback: "Strong match"}}
	return repo, store, evaluator, &fakePublisher{}
}

func taskBody(t *testing.T, attempt int) []byte {
	t.Helper()

	body, err := json.Marshal(&domain.ScreeningTask{ResumeID: 7, EvaluationID: 3, JobID: 2, Attempt: attempt})
	require.NoError(t, err)
	return body
}

func TestHandleStoresVerdict(t *testing.T) {
	repo, store, evaluator, publisher := newFixture()
	s := NewScreener(repo, store, evaluator, publisher, Options{MaxAttempts: 3, Index: true})

	outcome := s.Handle(context.Background(), taskBody(t, 0))

	assert.Equal(t, queue.Ack, outcome)
	require.NotNil(t, repo.verdict)
	assert.Equal(t, domain.ResumeAccepted, repo.verdict.Status)
	assert.Equal(t, "Go developer with five years of experience", evaluator.text)
	require.NotNil(t, repo.savedDocument)
	assert.Equal(t, int64(7), repo.savedDocument.ResumeID)
	assert.Empty(t, publisher.tasks)
}

func TestHandleSkipsSettledResume(t *testing.T) {
	repo, store, evaluator, publisher := newFixture()
	repo.resume.Status = domain.ResumeRejected
	s := NewScreener(repo, store, evaluator, publisher, Options{MaxAttempts: 3})

	assert.Equal(t, queue.Ack, s.Handle(context.Background(), taskBody(t, 0)))
	assert.Nil(t, repo.verdict)
	assert.Empty(t, repo.failedReason)
}

func TestHandleSkipsMissingResume(t *testing.T) {
	repo, store, evaluator, publisher := newFixture()
	repo.resumeErr = sql.ErrNoRows
	s := NewScreener(repo, store, evaluator, publisher, Options{MaxAttempts: 3})

	assert.Equal(t, queue.Ack, s.Handle(context.Background(), taskBody(t, 0)))
	assert.Empty(t, publisher.tasks)
}

func TestHandleUnsupportedDocumentFailsImmediately(t *testing.T) {
	repo, store, evaluator, publisher := newFixture()
	store.data = []byte{0x00, 0x01, 0x02}
	store.contentType = "image/png"
	s := NewScreener(repo, store, evaluator, publisher, Options{MaxAttempts: 3})

	assert.Equal(t, queue.Ack, s.Handle(context.Background(), taskBody(t, 0)))
	assert.Equal(t, "The document format is not supported.", repo.failedReason)
	assert.Empty(t, publisher.tasks)
}

func TestHandleRetriesTransientFailure(t *testing.T) {
	repo, store, evaluator, publisher := newFixture()
	evaluator.err = errors.New("model overloaded")
	s := NewScreener(repo, store, evaluator, publisher, Options{MaxAttempts: 3})

	assert.Equal(t, queue.Ack, s.Handle(context.Background(), taskBody(t, 0)))
	require.Len(t, publisher.tasks, 1)
	assert.Equal(t, 1, publisher.tasks[0].Attempt)
	assert.Equal(t, 1, repo.attempts)
	assert.Empty(t, repo.failedReason)
}

func TestHandleRequeuesWhenRepublishFails(t *testing.T) {
	repo, store, evaluator, publisher := newFixture()
	evaluator.err = errors.New("model overloaded")
	publisher.err = errors.New("channel closed")
	s := NewScreener(repo, store, evaluator, publisher, Options{MaxAttempts: 3})

	assert.Equal(t, queue.Requeue, s.Handle(context.Background(), taskBody(t, 1)))
}

func TestHandleGivesUpAfterMaxAttempts(t *testing.T) {
	repo, store, evaluator, publisher := newFixture()
	evaluator.err = domain.ErrInvalidVerdict
	s := NewScreener(repo, store, evaluator, publisher, Options{MaxAttempts: 3})

	assert.Equal(t, queue.Ack, s.Handle(context.Background(), taskBody(t, 2)))
	assert.Empty(t, publisher.tasks)
	assert.Equal(t, "The model did not return a usable assessment.", repo.failedReason)
}

func TestHandleMissingJobFailsResume(t *testing.T) {
	repo, store, evaluator, publisher := newFixture()
	repo.jobErr = sql.ErrNoRows
	s := NewScreener(repo, store, evaluator, publisher, Options{MaxAttempts: 3})

	assert.Equal(t, queue.Ack, s.Handle(context.Background(), taskBody(t, 0)))
	assert.Equal(t, "The resume could not be screened.", repo.failedReason)
}

func TestHandleRequeuesWhenFailureCannotBeStored(t *testing.T) {
	repo, store, evaluator, publisher := newFixture()
	repo.jobErr = sql.ErrNoRows
	repo.failErr = errors.New("connection reset")
	s := NewScreener(repo, store, evaluator, publisher, Options{MaxAttempts: 3})

	assert.Equal(t, queue.Requeue, s.Handle(context.Background(), taskBody(t, 0)))
}

func TestHandleDropsMalformedTask(t *testing.T) {
	repo, store, evaluator, publisher := newFixture()
	s := NewScreener(repo, store, evaluator, publisher, Options{MaxAttempts: 3})

	assert.Equal(t, queue.Drop, s.Handle(context.Background(), []byte("not json")))
}
