package handler

import (
	"net/http"

	"github.com/lws-dev/hiring/backend/internal/domain"
)

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserCtx).(*domain.User)
	h.successResponse(w, r, "ok", user)
}
