package handler

import "net/http"

func (h *Handler) Livez(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "ok", nil)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.repository.Ping(); err != nil {
		h.logInternalServerError(r, err)
		h.failure(w, r, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	h.successResponse(w, r, "ok", nil)
}
