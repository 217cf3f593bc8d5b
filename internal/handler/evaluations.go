package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lws-dev/hiring/backend/internal/domain"
	"github.com/lws-dev/hiring/backend/internal/storage"
	"github.com/lws-dev/hiring/backend/internal/utils"
	"golang.org/x/sync/errgroup"
)

const (
	maxFieldSize     = 1024
	searchLimit      = 20
	queueFailureNote = "The resume could not be queued for screening."
)

type evaluationUpload struct {
	name   string
	jobID  int64
	files  []*uploadedFile
	hasJob bool
}

type uploadedFile struct {
	filename string
	data     []byte
}

func (h *Handler) CreateEvaluation(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserCtx).(*domain.User)

	maxBody := int64(h.config.Upload.MaxFiles)*(h.config.Upload.MaxFileSize+maxFieldSize) + 1024*1024
	if limit := h.config.Upload.MaxTotalSize; limit > 0 {
		maxBody = min(maxBody, limit)
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	upload, err := h.readEvaluationUpload(r)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			h.failure(w, r, http.StatusRequestEntityTooLarge, "the upload is too large")
		default:
			h.badRequest(w, r, err)
		}
		return
	}

	job, err := h.repository.GetJobByID(upload.jobID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "job not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if !h.isMember(w, r, job.ProjectID, user.ID) {
		return
	}

	resumes := make([]*domain.Resume, len(upload.files))
	for i, file := range upload.files {
		storedName := storage.StoredName(file.filename)
		resumes[i] = &domain.Resume{
			Filename:         storedName,
			OriginalFilename: file.filename,
			FilePath:         storage.ObjectKey(upload.name, storedName),
			FileSize:         int64(len(file.data)),
			MimeType:         storage.ContentType(file.filename),
			Status:           domain.ResumePending,
		}
	}

	uploaded, err := h.uploadResumes(r.Context(), resumes, upload.files)
	if err != nil {
		h.removeObjects(uploaded)
		h.internalServerError(w, r, err)
		return
	}

	evaluation := &domain.Evaluation{
		Name:      upload.name,
		JobID:     job.ID,
		CreatedBy: user.ID,
	}
	if err := h.repository.CreateEvaluationWithResumes(evaluation, resumes); err != nil {
		h.removeObjects(uploaded)
		h.internalServerError(w, r, err)
		return
	}

	h.queueScreening(evaluation, job, resumes)

	details, err := h.repository.GetEvaluationDetails(evaluation.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "evaluation created", map[string]any{
		"evaluation": details,
		"resumes":    resumes,
	})
}

// readEvaluationUpload walks the multipart body once. Unknown fields are drained.
func (h *Handler) readEvaluationUpload(r *http.Request) (*evaluationUpload, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, errors.New("expected a multipart form")
	}

	upload := &evaluationUpload{}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch part.FormName() {
		case "name":
			value, err := readField(part)
			if err != nil {
				return nil, err
			}
			upload.name = value
		case "jobId":
			value, err := readField(part)
			if err != nil {
				return nil, err
			}
			jobID, err := strconv.ParseInt(value, 10, 64)
			if err != nil || jobID <= 0 {
				return nil, errors.New("invalid job id")
			}
			upload.jobID = jobID
			upload.hasJob = true
		case "resumes":
			if len(upload.files) >= h.config.Upload.MaxFiles {
				return nil, fmt.Errorf("at most %d resumes can be uploaded at once", h.config.Upload.MaxFiles)
			}

			data, err := io.ReadAll(io.LimitReader(part, h.config.Upload.MaxFileSize+1))
			if err != nil {
				return nil, err
			}
			filename := part.FileName()
			if err := utils.ValidateResumeFile(filename, int64(len(data)), h.config.Upload.MaxFileSize); err != nil {
				return nil, err
			}
			upload.files = append(upload.files, &uploadedFile{filename: filename, data: data})
		default:
			if _, err := io.Copy(io.Discard, part); err != nil {
				return nil, err
			}
		}
		_ = part.Close()
	}

	switch {
	case upload.name == "":
		return nil, errors.New("name is required")
	case strings.Contains(upload.name, "/"):
		return nil, errors.New("name must not contain '/'")
	case !upload.hasJob:
		return nil, errors.New("jobId is required")
	case len(upload.files) == 0:
		return nil, errors.New("at least one resume is required")
	}

	return upload, nil
}

func readField(part io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, maxFieldSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxFieldSize {
		return "", errors.New("form field is too long")
	}
	return strings.TrimSpace(string(data)), nil
}

// uploadResumes stores the files concurrently and returns the keys that made it, even on failure.
func (h *Handler) uploadResumes(ctx context.Context, resumes []*domain.Resume, files []*uploadedFile) ([]string, error) {
	var (
		mu       sync.Mutex
		uploaded = make([]string, 0, len(resumes))
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(h.config.Upload.Concurrency, 1))

	for i, resume := range resumes {
		data := files[i].data
		g.Go(func() error {
			if err := h.store.Upload(ctx, resume.FilePath, data, resume.MimeType); err != nil {
				return err
			}

			mu.Lock()
			uploaded = append(uploaded, resume.FilePath)
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	return uploaded, err
}

func (h *Handler) removeObjects(keys []string) {
	for _, key := range keys {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Storage.Timeout)*time.Second)
		if err := h.store.Remove(ctx, key); err != nil {
			slog.Warn("could not remove uploaded resume", "key", key, "error", err)
		}
		cancel()
	}
}

// queueScreening publishes one task per resume. A resume whose task cannot be published is failed right away
// so that the evaluation can still complete.
func (h *Handler) queueScreening(evaluation *domain.Evaluation, job *domain.Job, resumes []*domain.Resume) {
	for _, resume := range resumes {
		task := &domain.ScreeningTask{
			ResumeID:     resume.ID,
			EvaluationID: evaluation.ID,
			JobID:        job.ID,
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
		err := h.publisher.Publish(ctx, domain.ScreeningQueue, task)
		cancel()
		if err == nil {
			continue
		}

		slog.Error("could not queue screening task", "resumeID", resume.ID, "evaluationID", evaluation.ID, "error", err)
		if err := h.repository.MarkResumeFailed(resume.ID, evaluation.ID, queueFailureNote); err != nil {
			slog.Error("could not mark resume as failed", "resumeID", resume.ID, "error", err)
			continue
		}
		resume.Status = domain.ResumeFailed
		feedback := queueFailureNote
		resume.Feedback = &feedback
	}
}

func (h *Handler) GetMyEvaluations(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserCtx).(*domain.User)

	evaluations, err := h.repository.GetEvaluationsByMember(user.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "ok", evaluations)
}

func (h *Handler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	evaluation := r.Context().Value(EvaluationCtx).(*domain.EvaluationDetails)
	h.successResponse(w, r, "ok", evaluation)
}

func (h *Handler) GetEvaluationResumes(w http.ResponseWriter, r *http.Request) {
	evaluation := r.Context().Value(EvaluationCtx).(*domain.EvaluationDetails)

	resumes, err := h.repository.GetResumesByEvaluation(evaluation.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "ok", resumes)
}

func (h *Handler) SearchResumes(w http.ResponseWriter, r *http.Request) {
	evaluation := r.Context().Value(EvaluationCtx).(*domain.EvaluationDetails)

	if !h.config.Screening.Index {
		h.errorResponse(w, r, "resume search is not enabled")
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		h.failure(w, r, http.StatusBadRequest, "q is required")
		return
	}

	embedding, err := h.assistant.Embed(r.Context(), q)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	hits, err := h.repository.SearchResumes(evaluation.ID, embedding, searchLimit)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "ok", hits)
}

func (h *Handler) GetResumeContent(w http.ResponseWriter, r *http.Request) {
	resume := r.Context().Value(ResumeCtx).(*domain.Resume)

	data, contentType, err := h.store.Retrieve(r.Context(), resume.FilePath)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if contentType == "" || contentType == storage.MimeBin {
		contentType = resume.MimeType
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", resume.OriginalFilename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("could not write resume content", "resumeID", resume.ID, "error", err)
	}
}
