package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/lehigh-university-libraries/bookshelf/internal/bookshelf"
	"github.com/lehigh-university-libraries/bookshelf/internal/models"
)

// Service is the bookshelf behaviour the HTTP layer depends on
type Service interface {
	UploadPhoto(ctx context.Context, file *models.UploadedFile) (*models.StoredMedia, error)
	ListPhotos(ctx context.Context) ([]models.StoredMedia, error)
	Analyze(ctx context.Context, file *models.UploadedFile) (*models.AnalyzeResult, error)
	VerifyAccess(code string) error
}

type Handler struct {
	service    Service
	httpClient *http.Client
}

func New(service Service) *Handler {
	return &Handler{
		service:    service,
		httpClient: newDownloadClient(),
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, code int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		slog.Error("Unable to write JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	h.writeJSON(w, code, errorResponse{Error: message})
}

// writeServiceError answers with the validation message for client errors
// and with fallback for everything else, logging the cause.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var vErr *bookshelf.ValidationError
	if errors.As(err, &vErr) {
		h.writeError(w, vErr.Message, http.StatusBadRequest)
		return
	}
	slog.Error(fallback, "err", err)
	h.writeError(w, fallback, http.StatusInternalServerError)
}
