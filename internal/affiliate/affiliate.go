// Package affiliate builds purchase and cover links for recommended books.
package affiliate

import (
	"fmt"
	"net/url"

	"github.com/lehigh-university-libraries/bookshelf/internal/models"
	"github.com/lehigh-university-libraries/bookshelf/internal/validate"
)

// FallbackTag is used when neither the caller nor configuration provides one
const FallbackTag = "cosmicjs-20"

// Linker builds marketplace URLs using a configured default affiliate tag
type Linker struct {
	DefaultTag string
}

// NewLinker returns a Linker whose default tag is tag, or FallbackTag when empty
func NewLinker(tag string) *Linker {
	return &Linker{DefaultTag: tag}
}

// Link returns a product URL for a valid ISBN and a search URL otherwise.
// tag overrides the configured default when non-empty.
func (l *Linker) Link(isbn, tag string) string {
	clean := validate.CleanISBN(isbn)
	if !validate.IsValidISBN(clean) {
		return "https://www.amazon.com/s?k=" + url.QueryEscape(isbn)
	}

	if tag == "" {
		tag = l.DefaultTag
	}
	if tag == "" {
		tag = FallbackTag
	}

	return fmt.Sprintf("https://www.amazon.com/dp/%s?tag=%s", clean, url.QueryEscape(tag))
}

// CoverURL points at the Open Library cover for a valid ISBN, or "" otherwise
func CoverURL(isbn string) string {
	clean := validate.CleanISBN(isbn)
	if !validate.IsValidISBN(clean) {
		return ""
	}
	return fmt.Sprintf("https://covers.openlibrary.org/b/isbn/%s-L.jpg", clean)
}

// Enrich returns copies of recs with purchase and cover URLs filled in
func (l *Linker) Enrich(recs []models.RecommendationRecord) []models.RecommendationRecord {
	out := make([]models.RecommendationRecord, len(recs))
	for i, rec := range recs {
		rec.PurchaseURL = l.Link(rec.ISBN, "")
		rec.CoverURL = CoverURL(rec.ISBN)
		out[i] = rec
	}
	return out
}
