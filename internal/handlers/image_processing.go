package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/lehigh-university-libraries/bookshelf/internal/models"
	"github.com/lehigh-university-libraries/bookshelf/internal/validate"
)

// maxRequestBody leaves room for oversized files to reach validation so the
// client gets the size message instead of a truncated body.
const maxRequestBody = 4 * validate.MaxImageSize

// readUpload extracts the "file" part. A missing part yields a nil file so
// the service reports it; parts above the size limit are not read.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*models.UploadedFile, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, "File size must be less than 10MB", http.StatusBadRequest)
			return nil, false
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			h.writeError(w, "Failed to read upload: "+err.Error(), http.StatusBadRequest)
			return nil, false
		}
		return nil, true
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer file.Close()

	upload := &models.UploadedFile{
		Filename: header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Size:     header.Size,
	}
	if header.Size > validate.MaxImageSize {
		return upload, true
	}

	upload.Data, err = io.ReadAll(file)
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if upload.MIMEType == "" || upload.MIMEType == "application/octet-stream" {
		upload.MIMEType = http.DetectContentType(upload.Data)
	}
	return upload, true
}

// downloadImage fetches a remote image for analysis, reading at most one
// byte past the size limit.
func (h *Handler) downloadImage(ctx context.Context, imageURL string) (*models.UploadedFile, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid image URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, validate.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	filename := path.Base(parsed.Path)
	if filename == "" || filename == "/" || filename == "." {
		filename = "image.jpg"
	}

	mimeType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}

	slog.Info("Image downloaded", "url", imageURL, "size", len(data), "type", mimeType)
	return &models.UploadedFile{
		Filename: filename,
		MIMEType: mimeType,
		Size:     int64(len(data)),
		Data:     data,
	}, nil
}
