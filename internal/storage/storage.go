// Package storage defines the media backend used for uploaded photos, with
// in-memory and S3-compatible implementations.
package storage

import (
	"context"
	"errors"

	"github.com/lehigh-university-libraries/bookshelf/internal/models"
)

// PhotosFolder is where gallery uploads live
const PhotosFolder = "photos"

// ErrEmptyFile is returned when an upload has no data
var ErrEmptyFile = errors.New("file has no data")

// MediaStore uploads and lists media on an external backend.
// An empty folder means the bucket root.
type MediaStore interface {
	Upload(ctx context.Context, file *models.UploadedFile, folder string) (*models.StoredMedia, error)
	List(ctx context.Context, folder string) ([]models.StoredMedia, error)
}
