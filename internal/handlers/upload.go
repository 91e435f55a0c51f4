package handlers

import (
	"net/http"

	"github.com/lehigh-university-libraries/bookshelf/internal/models"
)

type uploadResponse struct {
	Success bool                `json:"success"`
	Photo   *models.StoredMedia `json:"photo"`
}

type photosResponse struct {
	Success bool                 `json:"success"`
	Photos  []models.StoredMedia `json:"photos"`
}

// HandleUpload stores a photo in the gallery
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	file, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	photo, err := h.service.UploadPhoto(r.Context(), file)
	if err != nil {
		h.writeServiceError(w, err, "Failed to upload photo")
		return
	}

	h.writeJSON(w, http.StatusOK, uploadResponse{Success: true, Photo: photo})
}

// HandlePhotos lists the gallery
func (h *Handler) HandlePhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := h.service.ListPhotos(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "Failed to fetch photos")
		return
	}

	h.writeJSON(w, http.StatusOK, photosResponse{Success: true, Photos: photos})
}
