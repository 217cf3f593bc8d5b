package handler

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lws-dev/hiring/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type formFile struct {
	name string
	data string
}

func multipartRequest(t *testing.T, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile("resumes", f.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.data))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/evaluations", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

var evaluationColumnNames = []string{
	"id", "name", "job_id", "created_by", "status", "total_resumes", "processed", "accepted", "rejected", "pending",
	"created_at", "updated_at", "title", "project_id",
}

func (env *testEnv) expectEvaluationCreated(evaluationID int64, jobID int64, resumes int) {
	env.mock.ExpectBegin()
	env.mock.ExpectQuery(q("INSERT INTO evaluations")).
		WithArgs("Backend batch", jobID, env.user.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at", "updated_at"}).
			AddRow(evaluationID, "pending", time.Now(), time.Now()))

	rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at"})
	for i := 0; i < resumes; i++ {
		rows.AddRow(int64(100+i), time.Now(), time.Now())
	}
	env.mock.ExpectQuery(q("INSERT INTO resumes")).WillReturnRows(rows)
	env.mock.ExpectExec(q("UPDATE evaluations SET total_resumes = $2, pending = $2")).
		WithArgs(evaluationID, resumes).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectCommit()
}

func (env *testEnv) expectJobMember(jobID int64, projectID string) {
	env.mock.ExpectQuery(q("FROM jobs WHERE id = $1")).WithArgs(jobID).WillReturnRows(jobRows(jobID, projectID))
	env.mock.ExpectQuery(q("FROM project_access")).WithArgs(projectID, env.user.ID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
}

func TestCreateEvaluation(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signedIn(t)

	env.expectJobMember(5, "project-1")
	env.expectEvaluationCreated(9, 5, 2)
	env.mock.ExpectQuery(q("FROM evaluations e")).WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(evaluationColumnNames).
			AddRow(int64(9), "Backend batch", int64(5), env.user.ID, "pending", 2, 0, 0, 0, 2, time.Now(), time.Now(), "Backend Engineer", "project-1"))

	req := multipartRequest(t, map[string]string{"name": "Backend batch", "jobId": "5", "note": "ignored"},
		formFile{name: "alice.pdf", data: "%PDF-1.4 alice"},
		formFile{name: "bob.docx", data: "PK bob"},
	)
	_, resp := env.do(req, cookie)

	require.True(t, resp.Success, resp.Message)

	require.Len(t, env.store.objects, 2)
	for key := range env.store.objects {
		assert.True(t, strings.HasPrefix(key, "uploads/Backend batch/"), key)
	}

	require.Len(t, env.publisher.messages, 2)
	for _, m := range env.publisher.messages {
		assert.Equal(t, domain.ScreeningQueue, m.queue)
		task := m.value.(*domain.ScreeningTask)
		assert.Equal(t, int64(9), task.EvaluationID)
		assert.Equal(t, int64(5), task.JobID)
		assert.Zero(t, task.Attempt)
	}

	data := resp.Data.(map[string]any)
	evaluation := data["evaluation"].(map[string]any)
	assert.Equal(t, float64(2), evaluation["totalResumes"])
	assert.Equal(t, "Backend Engineer", evaluation["jobTitle"])
	assert.Len(t, data["resumes"], 2)
}

func TestCreateEvaluationRejectsUnsupportedFile(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signedIn(t)

	req := multipartRequest(t, map[string]string{"name": "Backend batch", "jobId": "5"},
		formFile{name: "alice.png", data: "not a resume"},
	)
	rec, resp := env.do(req, cookie)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Message, "only pdf, doc and docx")
	assert.Empty(t, env.store.objects)
}

func TestCreateEvaluationRejectsLargeFile(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signedIn(t)

	req := multipartRequest(t, map[string]string{"name": "Backend batch", "jobId": "5"},
		formFile{name: "alice.pdf", data: strings.Repeat("a", 1025)},
	)
	rec, _ := env.do(req, cookie)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEvaluationRejectsOversizedBody(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signedIn(t)

	req := multipartRequest(t, map[string]string{"name": "Backend batch", "jobId": "5"},
		formFile{name: "alice.pdf", data: strings.Repeat("a", 1000)},
		formFile{name: "bob.pdf", data: strings.Repeat("b", 1000)},
		formFile{name: "carol.pdf", data: strings.Repeat("c", 1000)},
	)
	rec, resp := env.do(req, cookie)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "the upload is too large", resp.Message)
	assert.Empty(t, env.store.objects)
}

func TestCreateEvaluationInvalidJobID(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signedIn(t)

	req := multipartRequest(t, map[string]string{"name": "Backend batch", "jobId": "five"},
		formFile{name: "alice.pdf", data: "%PDF"},
	)
	rec, resp := env.do(req, cookie)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid job id", resp.Message)
}

func TestCreateEvaluationRemovesUploadsOnFailure(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signedIn(t)

	env.expectJobMember(5, "project-1")
	env.mock.ExpectBegin()
	env.mock.ExpectQuery(q("INSERT INTO evaluations")).WillReturnError(errors.New("connection reset"))
	env.mock.ExpectRollback()

	req := multipartRequest(t, map[string]string{"name": "Backend batch", "jobId": "5"},
		formFile{name: "alice.pdf", data: "%PDF alice"},
		formFile{name: "bob.pdf", data: "%PDF bob"},
	)
	rec, _ := env.do(req, cookie)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, env.store.objects)
	assert.Len(t, env.store.removed, 2)
	assert.Empty(t, env.publisher.messages)
}

func TestCreateEvaluationFailsResumeWhenQueueIsDown(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signedIn(t)
	env.publisher.err = errors.New("channel closed")

	env.expectJobMember(5, "project-1")
	env.expectEvaluationCreated(9, 5, 1)

	env.mock.ExpectBegin()
	env.mock.ExpectQuery(q("FOR UPDATE")).WithArgs(int64(9)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
	env.mock.ExpectExec(q("SET status = 'failed'")).WithArgs(int64(100), queueFailureNote).WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectExec(q("UPDATE evaluations e")).WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectCommit()

	env.mock.ExpectQuery(q("FROM evaluations e")).WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(evaluationColumnNames).
			AddRow(int64(9), "Backend batch", int64(5), env.user.ID, "completed", 1, 1, 0, 0, 0, time.Now(), time.Now(), "Backend Engineer", "project-1"))

	req := multipartRequest(t, map[string]string{"name": "Backend batch", "jobId": "5"},
		formFile{name: "alice.pdf", data: "%PDF alice"},
	)
	_, resp := env.do(req, cookie)

	require.True(t, resp.Success, resp.Message)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "completed", data["evaluation"].(map[string]any)["status"])
	resumes := data["resumes"].([]any)
	assert.Equal(t, "failed", resumes[0].(map[string]any)["status"])
}

func resumeRows(id int64, evaluationID int64, path string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "evaluation_id", "filename", "original_filename", "file_path", "file_size", "mime_type", "status", "score", "feedback", "attempts", "created_at", "updated_at"}).
		AddRow(id, evaluationID, "alice.pdf-x.pdf", "alice.pdf", path, int64(10), "application/pdf", "pending", nil, nil, 0, time.Now(), time.Now())
}

func TestGetResumeContent(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signedIn(t)

	env.store.objects["uploads/batch/alice.pdf-x.pdf"] = []byte("%PDF alice")
	env.mock.ExpectQuery(q("FROM resumes r WHERE r.id = $1")).WithArgs(int64(100)).
		WillReturnRows(resumeRows(100, 9, "uploads/batch/alice.pdf-x.pdf"))
	env.mock.ExpectQuery(q("FROM evaluations e")).WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(evaluationColumnNames).
			AddRow(int64(9), "batch", int64(5), env.user.ID, "pending", 1, 0, 0, 0, 1, time.Now(), time.Now(), "Backend Engineer", "project-1"))
	env.mock.ExpectQuery(q("FROM project_access")).WithArgs("project-1", env.user.ID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	rec, _ := env.do(httptest.NewRequest(http.MethodGet, "/resumes/100/content", nil), cookie)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF alice", rec.Body.String())
}

func TestSearchResumesDisabled(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signedIn(t)

	env.mock.ExpectQuery(q("FROM evaluations e")).WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(evaluationColumnNames).
			AddRow(int64(9), "batch", int64(5), env.user.ID, "pending", 1, 0, 0, 0, 1, time.Now(), time.Now(), "Backend Engineer", "project-1"))
	env.mock.ExpectQuery(q("FROM project_access")).WithArgs("project-1", env.user.ID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, resp := env.do(httptest.NewRequest(http.MethodGet, "/evaluations/9/search?q=golang", nil), cookie)

	assert.False(t, resp.Success)
	assert.Equal(t, "resume search is not enabled", resp.Message)
}
