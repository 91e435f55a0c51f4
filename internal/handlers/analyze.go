package handlers

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/lehigh-university-libraries/bookshelf/internal/models"
	"github.com/lehigh-university-libraries/bookshelf/internal/validate"
)

const analyzeFailedMessage = "Failed to analyze books. Please try again with a clearer photo of your bookshelf."

type analyzeResponse struct {
	Success         bool                          `json:"success"`
	Analysis        models.BookAnalysis           `json:"analysis"`
	Recommendations []models.RecommendationRecord `json:"recommendations"`
	Strategy        string                        `json:"recommendation_strategy,omitempty"`
	Error           string                        `json:"error,omitempty"`
}

type analyzeURLRequest struct {
	ImageURL string `json:"image_url" validate:"required,http_url"`
}

// HandleAnalyze accepts a multipart photo, or a JSON body naming an image
// URL, and returns the analysis with recommendations.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var (
		file *models.UploadedFile
		ok   bool
	)
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		file, ok = h.readURLUpload(w, r)
	} else {
		file, ok = h.readUpload(w, r)
	}
	if !ok {
		return
	}

	result, err := h.service.Analyze(r.Context(), file)
	if err != nil {
		h.writeServiceError(w, err, analyzeFailedMessage)
		return
	}

	h.writeJSON(w, http.StatusOK, analyzeResponse{
		Success:         true,
		Analysis:        result.Analysis,
		Recommendations: result.Recommendations,
		Strategy:        result.Strategy,
		Error:           result.Advisory,
	})
}

func (h *Handler) readURLUpload(w http.ResponseWriter, r *http.Request) (*models.UploadedFile, bool) {
	var request analyzeURLRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if err := validate.Struct(request); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	file, err := h.downloadImage(r.Context(), request.ImageURL)
	if err != nil {
		h.writeError(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return file, true
}
