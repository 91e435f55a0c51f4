package affiliate

import (
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/bookshelf/internal/models"
)

func TestLink(t *testing.T) {
	tests := []struct {
		name       string
		defaultTag string
		isbn       string
		tag        string
		expected   string
	}{
		{
			name:     "hyphenated isbn13 uses fallback tag",
			isbn:     "978-0-525-55947-4",
			expected: "https://www.amazon.com/dp/9780525559474?tag=cosmicjs-20",
		},
		{
			name:       "configured default tag",
			defaultTag: "shelf-21",
			isbn:       "9780525559474",
			expected:   "https://www.amazon.com/dp/9780525559474?tag=shelf-21",
		},
		{
			name:       "explicit tag wins",
			defaultTag: "shelf-21",
			isbn:       "0-13-468599-7",
			tag:        "promo-22",
			expected:   "https://www.amazon.com/dp/0134685997?tag=promo-22",
		},
		{
			name:     "invalid isbn becomes a search",
			isbn:     "not-an-isbn",
			expected: "https://www.amazon.com/s?k=not-an-isbn",
		},
		{
			name:     "search query is escaped",
			isbn:     "12 34",
			expected: "https://www.amazon.com/s?k=12+34",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLinker(tt.defaultTag)
			if got := l.Link(tt.isbn, tt.tag); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestLinkContainsCleanDigits(t *testing.T) {
	got := NewLinker("").Link("978-0-525-55947-4", "")
	if !strings.Contains(got, "9780525559474") {
		t.Errorf("Expected cleaned ISBN in %s", got)
	}
}

func TestCoverURL(t *testing.T) {
	if got := CoverURL("978-0-525-55947-4"); got != "https://covers.openlibrary.org/b/isbn/9780525559474-L.jpg" {
		t.Errorf("Unexpected cover URL %s", got)
	}
	if got := CoverURL("nope"); got != "" {
		t.Errorf("Expected empty cover URL, got %s", got)
	}
}

func TestEnrich(t *testing.T) {
	recs := []models.RecommendationRecord{
		{Title: "Dune", ISBN: "9780441172719", PurchaseURL: "stale"},
		{Title: "Mystery", ISBN: "unknown"},
	}
	out := NewLinker("tag-20").Enrich(recs)

	if out[0].PurchaseURL != "https://www.amazon.com/dp/9780441172719?tag=tag-20" {
		t.Errorf("Unexpected purchase URL %s", out[0].PurchaseURL)
	}
	if out[0].CoverURL == "" {
		t.Error("Expected a cover URL for a valid ISBN")
	}
	if out[1].PurchaseURL != "https://www.amazon.com/s?k=unknown" {
		t.Errorf("Unexpected search URL %s", out[1].PurchaseURL)
	}
	if recs[0].PurchaseURL != "stale" {
		t.Error("Enrich must not modify its input")
	}
}
