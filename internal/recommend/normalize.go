// Package recommend turns AI recommendation output into a fixed-size list of
// fully populated records.
package recommend

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/lehigh-university-libraries/bookshelf/internal/models"
)

const (
	// MinRecommendations is the padding target
	MinRecommendations = 3
	// MaxRecommendations is the truncation limit
	MaxRecommendations = 5
)

// Field defaults applied to every retained record
const (
	DefaultTitle              = "Unknown Title"
	DefaultAuthor             = "Unknown Author"
	DefaultGenre              = "General"
	DefaultReasoning          = "A great book that matches your reading preferences."
	DefaultISBN               = "9781234567890"
	DefaultConnectionStrength = "moderate"
)

// PlaceholderTitle marks records added to reach MinRecommendations
const PlaceholderTitle = "The Book You Need"

var errNoRecommendations = errors.New("response has no recommendations array")

// placeholder pads short lists
var placeholder = models.RecommendationRecord{
	Title:     PlaceholderTitle,
	Author:    "Great Author",
	Genre:     "Fiction",
	Reasoning: "A wonderful read that matches your interests.",
	ISBN:      DefaultISBN,
}

// fallback is returned whenever the response cannot be parsed
var fallback = []models.RecommendationRecord{
	{
		Title:     "The Midnight Library",
		Author:    "Matt Haig",
		Genre:     "Contemporary Fiction",
		Reasoning: "A thought-provoking novel about choices and possibilities that appeals to readers who enjoy literary fiction with depth.",
		ISBN:      "9780525559474",
	},
	{
		Title:     "Atomic Habits",
		Author:    "James Clear",
		Genre:     "Self-Help",
		Reasoning: "A practical guide to building better habits, perfect for readers interested in personal development and productivity.",
		ISBN:      "9780735211292",
	},
	{
		Title:     "The Seven Husbands of Evelyn Hugo",
		Author:    "Taylor Jenkins Reid",
		Genre:     "Historical Fiction",
		Reasoning: "A captivating story with rich characters and emotional depth that appeals to readers who enjoy character-driven narratives.",
		ISBN:      "9781501161933",
	},
}

// Fallback returns a fresh copy of the fixed fallback list
func Fallback() models.RecommendationSet {
	recs := make([]models.RecommendationRecord, len(fallback))
	for i, rec := range fallback {
		recs[i] = withDefaults(rec)
	}
	return models.RecommendationSet{Recommendations: recs}
}

// Normalize always returns between MinRecommendations and MaxRecommendations
// records with every field populated. Unparsable input yields Fallback().
func Normalize(text string) models.RecommendationSet {
	set, err := parse(text)
	if err != nil {
		slog.Warn("Failed to parse recommendations, using fallback list", "err", err, "length", len(text))
		slog.Debug("Raw recommendation response", "text", text)
		return Fallback()
	}
	return set
}

// IsFallback reports whether set is the fixed fallback list
func IsFallback(set models.RecommendationSet) bool {
	if set.Strategy != "" || len(set.Recommendations) != len(fallback) {
		return false
	}
	for i, rec := range set.Recommendations {
		if rec.Title != fallback[i].Title || rec.ISBN != fallback[i].ISBN {
			return false
		}
	}
	return true
}

func parse(text string) (models.RecommendationSet, error) {
	var resp map[string]any
	if err := json.Unmarshal([]byte(extractJSON(text)), &resp); err != nil {
		return models.RecommendationSet{}, err
	}
	raw, ok := resp["recommendations"].([]any)
	if !ok {
		return models.RecommendationSet{}, errNoRecommendations
	}

	if len(raw) != MinRecommendations {
		slog.Debug("Unexpected recommendation count", "count", len(raw))
	}

	recs := make([]models.RecommendationRecord, 0, MaxRecommendations)
	for _, item := range raw {
		if len(recs) == MaxRecommendations {
			break
		}
		// entries that are not objects keep only the defaults
		fields, _ := item.(map[string]any)
		recs = append(recs, withDefaults(recordFromFields(fields)))
	}
	for len(recs) < MinRecommendations {
		recs = append(recs, withDefaults(placeholder))
	}

	return models.RecommendationSet{
		Strategy:        strings.TrimSpace(textValue(resp["recommendation_strategy"])),
		Recommendations: recs,
	}, nil
}

// recordFromFields reads one decoded record. Fields of an unexpected type
// are left empty for withDefaults.
func recordFromFields(fields map[string]any) models.RecommendationRecord {
	return models.RecommendationRecord{
		Title:              textValue(fields["title"]),
		Author:             textValue(fields["author"]),
		Genre:              textValue(fields["genre"]),
		Reasoning:          textValue(fields["reasoning"]),
		ISBN:               textValue(fields["isbn"]),
		PurchaseURL:        textValue(fields["amazonUrl"]),
		ConnectionStrength: textValue(fields["connection_strength"]),
		FillsGap:           boolValue(fields["fills_gap"]),
		Evidence:           listValue(fields["evidence"]),
	}
}

// textValue accepts strings and numbers, e.g. an ISBN sent as 9780441172719
func textValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func boolValue(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	}
	return false
}

// listValue accepts an array of scalars or a single string
func listValue(v any) []string {
	switch v := v.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := strings.TrimSpace(textValue(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	}
	return nil
}

// extractJSON strips code fences and returns the span from the first '{' to
// the last '}'. Text without braces is returned unchanged.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return text
	}
	return text[start : end+1]
}

func withDefaults(rec models.RecommendationRecord) models.RecommendationRecord {
	if strings.TrimSpace(rec.Title) == "" {
		rec.Title = DefaultTitle
	}
	if strings.TrimSpace(rec.Author) == "" {
		rec.Author = DefaultAuthor
	}
	if strings.TrimSpace(rec.Genre) == "" {
		rec.Genre = DefaultGenre
	}
	if strings.TrimSpace(rec.Reasoning) == "" {
		rec.Reasoning = DefaultReasoning
	}
	if strings.TrimSpace(rec.ISBN) == "" {
		rec.ISBN = DefaultISBN
	}
	if strings.TrimSpace(rec.ConnectionStrength) == "" {
		rec.ConnectionStrength = DefaultConnectionStrength
	}
	if rec.Evidence == nil {
		rec.Evidence = []string{}
	} else {
		rec.Evidence = append([]string{}, rec.Evidence...)
	}
	return rec
}
