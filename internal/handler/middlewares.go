package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lws-dev/hiring/backend/internal/domain"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)
		slog.Info("request handled", "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				stackTrace := string(debug.Stack())
				fmt.Print(stackTrace) // slog would mangle the trace
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			h.sessionRequired(w, r)
			return
		}

		claims := &jwt.RegisteredClaims{}
		_, err = jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(h.config.JWT.Secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || uuid.Validate(claims.ID) != nil {
			h.sessionRequired(w, r)
			return
		}

		userID, err := h.sessionUser(claims.ID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.sessionRequired(w, r)
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
		if userID != claims.Subject {
			h.sessionRequired(w, r)
			return
		}

		user, err := h.repository.GetUserByID(userID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.sessionRequired(w, r)
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), UserCtx, user)
		ctx = context.WithValue(ctx, SessionCtx, claims.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionRequired answers 401, sending a fresh code first when the browser still remembers its email.
func (h *Handler) sessionRequired(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(emailCookie)
	if err != nil || cookie.Value == "" {
		h.unauthorized(w, r, "please sign in")
		return
	}

	user, err := h.repository.GetUserByEmail(cookie.Value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			h.logInternalServerError(r, err)
		}
		h.unauthorized(w, r, "please sign in")
		return
	}

	if _, err := h.issueCode(user); err != nil && !errors.Is(err, errCodeThrottled) {
		h.logInternalServerError(r, err)
		h.unauthorized(w, r, "please sign in")
		return
	}

	h.unauthorized(w, r, "session expired, a new code has been sent to your email")
}

func (h *Handler) project(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(UserCtx).(*domain.User)

		projectID := chi.URLParam(r, "projectID")
		if uuid.Validate(projectID) != nil {
			h.notFound(w, r, "project not found")
			return
		}

		project, err := h.repository.GetProjectByID(projectID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.notFound(w, r, "project not found")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		if !h.isMember(w, r, project.ID, user.ID) {
			return
		}

		ctx := context.WithValue(r.Context(), ProjectCtx, project)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) job(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		project := r.Context().Value(ProjectCtx).(*domain.Project)

		jobID, err := strconv.ParseInt(chi.URLParam(r, "jobID"), 10, 64)
		if err != nil {
			h.notFound(w, r, "job not found")
			return
		}

		job, err := h.repository.GetJobByID(jobID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.notFound(w, r, "job not found")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		if job.ProjectID != project.ID {
			h.notFound(w, r, "job not found")
			return
		}

		ctx := context.WithValue(r.Context(), JobCtx, job)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) evaluation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(UserCtx).(*domain.User)

		evaluationID, err := strconv.ParseInt(chi.URLParam(r, "evaluationID"), 10, 64)
		if err != nil {
			h.notFound(w, r, "evaluation not found")
			return
		}

		evaluation, err := h.repository.GetEvaluationDetails(evaluationID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.notFound(w, r, "evaluation not found")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		if !h.isMember(w, r, evaluation.ProjectID, user.ID) {
			return
		}

		ctx := context.WithValue(r.Context(), EvaluationCtx, evaluation)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) resume(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(UserCtx).(*domain.User)

		resumeID, err := strconv.ParseInt(chi.URLParam(r, "resumeID"), 10, 64)
		if err != nil {
			h.notFound(w, r, "resume not found")
			return
		}

		resume, err := h.repository.GetResumeByID(resumeID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.notFound(w, r, "resume not found")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		evaluation, err := h.repository.GetEvaluationDetails(resume.EvaluationID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.notFound(w, r, "resume not found")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		if !h.isMember(w, r, evaluation.ProjectID, user.ID) {
			return
		}

		ctx := context.WithValue(r.Context(), ResumeCtx, resume)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// isMember writes the rejection itself and reports whether the request may continue.
func (h *Handler) isMember(w http.ResponseWriter, r *http.Request, projectID string, userID string) bool {
	ok, err := h.repository.IsProjectMember(projectID, userID)
	if err != nil {
		h.internalServerError(w, r, err)
		return false
	}
	if !ok {
		h.forbidden(w, r, "you are not a member of this project")
		return false
	}
	return true
}
