// Package analysis turns the AI's free-text bookshelf description into a
// ParsedAnalysis.
package analysis

import (
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/bookshelf/internal/models"
)

type section int

const (
	sectionNone section = iota
	sectionBooks
	sectionGenres
	sectionThemes
	sectionProfile
	sectionIgnored
)

// Placeholders used when the AI response lacks a section
var (
	DefaultBooks   = []string{"Collection of books visible on shelf"}
	DefaultGenres  = []string{"Mixed genres", "Fiction", "Non-fiction"}
	DefaultThemes  = []string{"Diverse reading interests", "Personal growth", "Entertainment"}
	DefaultProfile = "This reader has diverse interests and enjoys exploring various genres and topics through reading."
)

// headers are matched in order against the upper-cased line
var headers = []struct {
	keyword string
	section section
}{
	{"BOOKS IDENTIFIED", sectionBooks},
	{"GENRES", sectionGenres},
	{"THEMES", sectionThemes},
	{"READER PROFILE", sectionProfile},
	{"READING PATTERNS", sectionIgnored},
	{"INSIGHTS", sectionIgnored},
	{"READING GAPS", sectionIgnored},
}

// nextHeader is the keyword of the section that normally follows; a data
// line containing it is dropped.
var nextHeader = map[section]string{
	sectionBooks:  "GENRES",
	sectionGenres: "THEMES",
	sectionThemes: "READER",
}

var (
	bulletPrefix  = regexp.MustCompile(`^[-•*]\s*`)
	numericPrefix = regexp.MustCompile(`^\d+[.)]\s*`)
)

// Parse never returns empty fields: absent sections get placeholders.
func Parse(text string) models.ParsedAnalysis {
	var (
		books, genres, themes []string
		profile               []string
		current               = sectionNone
	)

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		upper := strings.ToUpper(trimmed)

		if s, ok := matchHeader(upper); ok {
			current = s
			continue
		}

		switch current {
		case sectionBooks, sectionGenres, sectionThemes:
			if strings.Contains(upper, nextHeader[current]) {
				continue
			}
			item := cleanListItem(trimmed)
			if item == "" {
				continue
			}
			switch current {
			case sectionBooks:
				books = append(books, item)
			case sectionGenres:
				genres = append(genres, item)
			case sectionThemes:
				themes = append(themes, item)
			}
		case sectionProfile:
			if looksLikeHeader(trimmed) {
				continue
			}
			profile = append(profile, trimmed)
		}
	}

	result := models.ParsedAnalysis{
		BooksIdentified: withDefault(books, DefaultBooks),
		Genres:          withDefault(genres, DefaultGenres),
		Themes:          withDefault(themes, DefaultThemes),
		ReaderProfile:   strings.TrimSpace(strings.Join(profile, " ")),
	}
	if result.ReaderProfile == "" {
		result.ReaderProfile = DefaultProfile
	}

	return result
}

func matchHeader(upper string) (section, bool) {
	for _, h := range headers {
		if strings.Contains(upper, h.keyword) {
			return h.section, true
		}
	}
	return sectionNone, false
}

func cleanListItem(line string) string {
	line = bulletPrefix.ReplaceAllString(line, "")
	line = numericPrefix.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

// looksLikeHeader matches short all-caps lines ending in a colon, e.g. "NOTES:"
func looksLikeHeader(line string) bool {
	if !strings.HasSuffix(line, ":") {
		return false
	}
	return line == strings.ToUpper(line) && strings.ToLower(line) != line
}

func withDefault(items, fallback []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
