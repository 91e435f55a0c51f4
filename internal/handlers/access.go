package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/lehigh-university-libraries/bookshelf/internal/bookshelf"
)

type accessRequest struct {
	AccessCode string `json:"accessCode"`
}

type accessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HandleVerifyAccess checks the shared access code
func (h *Handler) HandleVerifyAccess(w http.ResponseWriter, r *http.Request) {
	var request accessRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<12)).Decode(&request); err != nil {
		slog.Warn("Invalid access request body", "err", err)
		h.writeJSON(w, http.StatusBadRequest, accessResponse{Message: "Access code is required"})
		return
	}

	err := h.service.VerifyAccess(request.AccessCode)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, accessResponse{Success: true, Message: "Access granted"})
	case errors.Is(err, bookshelf.ErrAccessCodeRequired):
		h.writeJSON(w, http.StatusBadRequest, accessResponse{Message: "Access code is required"})
	case errors.Is(err, bookshelf.ErrInvalidAccessCode):
		h.writeJSON(w, http.StatusUnauthorized, accessResponse{Message: "Invalid access code"})
	case errors.Is(err, bookshelf.ErrAccessNotConfigured):
		h.writeJSON(w, http.StatusInternalServerError, accessResponse{Message: "Server configuration error"})
	default:
		slog.Error("Access verification error", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, accessResponse{Message: "Internal server error"})
	}
}
