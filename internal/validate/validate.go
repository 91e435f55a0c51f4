// Package validate holds the upload and ISBN checks plus struct validation
// for JSON request bodies.
package validate

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/lehigh-university-libraries/bookshelf/internal/models"
)

// MaxImageSize is the upload ceiling (10 MiB)
const MaxImageSize = 10 * 1024 * 1024

var (
	isbn10Pattern = regexp.MustCompile(`^[0-9]{9}[0-9X]$`)
	isbn13Pattern = regexp.MustCompile(`^(978|979)[0-9]{10}$`)
)

// Result reports whether a file passed validation and, if not, why
type Result struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ImageFile checks presence, then MIME type, then size
func ImageFile(file *models.UploadedFile) Result {
	if file == nil {
		return Result{Error: "No file provided"}
	}

	if !strings.HasPrefix(file.MIMEType, "image/") {
		return Result{Error: "File must be an image (JPEG, PNG, GIF, WebP)"}
	}

	if file.Size > MaxImageSize {
		return Result{Error: "File size must be less than 10MB"}
	}

	return Result{Valid: true}
}

// CleanISBN removes hyphens and any Unicode whitespace, NBSP included
func CleanISBN(isbn string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, isbn)
}

// IsValidISBN screens ISBN-10 and ISBN-13 shapes. Checksums are not verified.
func IsValidISBN(isbn string) bool {
	if isbn == "" {
		return false
	}
	clean := CleanISBN(isbn)
	return isbn10Pattern.MatchString(clean) || isbn13Pattern.MatchString(clean)
}

// NonEmptyString reports whether s has content after trimming
func NonEmptyString(s string) bool {
	return strings.TrimSpace(s) != ""
}
