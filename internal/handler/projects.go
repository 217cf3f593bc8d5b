package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lws-dev/hiring/backend/internal/domain"
	"github.com/lws-dev/hiring/backend/internal/utils"
)

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserCtx).(*domain.User)

	var req struct {
		Name        string `json:"name" validate:"required,max=100"`
		Description string `json:"description" validate:"max=2000"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	project := &domain.Project{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   user.ID,
	}

	if err := h.repository.CreateProject(project); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "projects_name_key":
			h.errorResponse(w, r, "project name already exists")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "project created", project)
}

func (h *Handler) GetMyProjects(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserCtx).(*domain.User)

	projects, err := h.repository.GetProjectsByMember(user.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "ok", projects)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	project := r.Context().Value(ProjectCtx).(*domain.Project)
	h.successResponse(w, r, "ok", project)
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserCtx).(*domain.User)
	project := r.Context().Value(ProjectCtx).(*domain.Project)

	if project.CreatedBy != user.ID {
		h.forbidden(w, r, "only the creator can delete a project")
		return
	}

	if err := h.repository.DeleteProject(project.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "project deleted", nil)
}

func (h *Handler) InviteMember(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserCtx).(*domain.User)
	project := r.Context().Value(ProjectCtx).(*domain.Project)

	var req struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	invitee, err := h.repository.FindOrCreateUser(req.Email, utils.NameFromEmail(req.Email))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	invite := &domain.AccessInvite{
		ProjectID: project.ID,
		UserID:    invitee.ID,
		InviterID: user.ID,
		Expiry:    time.Now().Add(time.Duration(h.config.Invite.Expiration) * time.Second),
	}
	if err := h.repository.UpsertInvite(invite); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "this user is already a member of the project")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	mailMessage := &domain.MailMessage{
		Type: domain.MailTypeProjectInvite,
		To:   invitee.Email,
		Data: domain.ProjectInviteMailData{
			Inviter:            user.Name,
			ProjectName:        project.Name,
			ProjectDescription: project.Description,
			Link:               h.inviteLink(invite.ID),
			Expiration:         h.config.Invite.Expiration / 60, // the mail shows minutes
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := h.publisher.Publish(ctx, domain.EmailQueue, mailMessage); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "invite sent", map[string]string{"inviteCode": invite.ID})
}

func (h *Handler) inviteLink(inviteCode string) string {
	return strings.TrimRight(h.config.BaseURL, "/") + "/projects/invites/accept?invite_code=" + url.QueryEscape(inviteCode)
}

func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserCtx).(*domain.User)

	inviteCode := r.URL.Query().Get("invite_code")
	if inviteCode == "" {
		h.failure(w, r, http.StatusBadRequest, "invite_code is required")
		return
	}

	invite, err := h.repository.GetInviteByID(inviteCode)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "invite not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// someone else's invite looks the same as a missing one
	if invite.UserID != user.ID {
		h.notFound(w, r, "invite not found")
		return
	}

	switch invite.Status {
	case domain.InviteAccepted:
		h.successResponse(w, r, "you are already a member of this project", invite)
		return
	case domain.InviteExpired:
		h.errorResponse(w, r, domain.ErrInviteExpired.Error())
		return
	}

	if time.Now().After(invite.Expiry) {
		if err := h.repository.UpdateInviteStatus(invite.ID, domain.InviteExpired); err != nil {
			h.internalServerError(w, r, err)
			return
		}
		h.errorResponse(w, r, domain.ErrInviteExpired.Error())
		return
	}

	if err := h.repository.UpdateInviteStatus(invite.ID, domain.InviteAccepted); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	invite.Status = domain.InviteAccepted

	h.successResponse(w, r, "invite accepted", invite)
}

func (h *Handler) GetProjectMembers(w http.ResponseWriter, r *http.Request) {
	project := r.Context().Value(ProjectCtx).(*domain.Project)

	members, err := h.repository.GetProjectMembers(project.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "ok", members)
}
