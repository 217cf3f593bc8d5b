package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lws-dev/hiring/backend/internal/domain"
)

func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserCtx).(*domain.User)
	project := r.Context().Value(ProjectCtx).(*domain.Project)

	var req struct {
		Title        string  `json:"title" validate:"required,max=200"`
		Department   string  `json:"department" validate:"required,max=100"`
		Description  string  `json:"description" validate:"required"`
		Requirements string  `json:"requirements" validate:"required"`
		URL          *string `json:"url" validate:"omitempty,url"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Department = strings.TrimSpace(req.Department)
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	job := &domain.Job{
		ProjectID:    project.ID,
		Title:        req.Title,
		Department:   req.Department,
		Description:  req.Description,
		Requirements: req.Requirements,
		URL:          req.URL,
		CreatedBy:    user.ID,
	}

	if err := h.repository.CreateJob(job); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "job created", job)
}

func (h *Handler) GetProjectJobs(w http.ResponseWriter, r *http.Request) {
	project := r.Context().Value(ProjectCtx).(*domain.Project)

	department := strings.TrimSpace(r.URL.Query().Get("department"))
	jobs, err := h.repository.GetJobsByProject(project.ID, department)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "ok", jobs)
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(JobCtx).(*domain.Job)
	h.successResponse(w, r, "ok", job)
}

func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(JobCtx).(*domain.Job)

	var req struct {
		Title        *string `json:"title" validate:"omitempty,min=1,max=200"`
		Department   *string `json:"department" validate:"omitempty,min=1,max=100"`
		Description  *string `json:"description" validate:"omitempty,min=1"`
		Requirements *string `json:"requirements" validate:"omitempty,min=1"`
		URL          *string `json:"url" validate:"omitempty,url"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.Title != nil {
		*req.Title = strings.TrimSpace(*req.Title)
	}
	if req.Department != nil {
		*req.Department = strings.TrimSpace(*req.Department)
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.Title != nil {
		job.Title = *req.Title
	}
	if req.Department != nil {
		job.Department = *req.Department
	}
	if req.Description != nil {
		job.Description = *req.Description
	}
	if req.Requirements != nil {
		job.Requirements = *req.Requirements
	}
	if req.URL != nil {
		job.URL = req.URL
	}

	if err := h.repository.UpdateJob(job); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "job updated", job)
}

func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(JobCtx).(*domain.Job)

	if err := h.repository.DeleteJob(job.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "job deleted", nil)
}

func (h *Handler) DeleteJobsByDepartment(w http.ResponseWriter, r *http.Request) {
	project := r.Context().Value(ProjectCtx).(*domain.Project)

	department := strings.TrimSpace(r.URL.Query().Get("department"))
	if department == "" {
		h.failure(w, r, http.StatusBadRequest, "department is required")
		return
	}

	deleted, err := h.repository.DeleteJobsByDepartment(project.ID, department)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "jobs deleted", map[string]int64{"deleted": deleted})
}

// GenerateJob drafts a job from a posting URL or pasted text. The draft is not stored.
func (h *Handler) GenerateJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	source := h.fetcher.SourceText(r.Context(), req.URL)

	draft, err := h.assistant.GenerateJob(r.Context(), source)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidJobDraft):
			slog.Warn("unusable job draft", "error", err)
			h.errorResponse(w, r, "could not extract a job from this page")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "job generated", draft)
}
