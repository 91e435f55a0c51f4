// Package metrics scores recorded AI responses by how much of the parsed
// output had to come from defaults.
package metrics

import (
	"slices"

	"github.com/lehigh-university-libraries/bookshelf/internal/analysis"
	"github.com/lehigh-university-libraries/bookshelf/internal/eval/dataset"
	"github.com/lehigh-university-libraries/bookshelf/internal/recommend"
	"github.com/lehigh-university-libraries/bookshelf/internal/validate"
)

// SampleResult is the outcome for one sample
type SampleResult struct {
	ID   string
	Kind string

	// analysis samples
	DefaultedSections []string

	// recommendation samples
	Records      int
	Fallback     bool
	Placeholders int
	ValidISBNs   int
	HasStrategy  bool
}

// Summary aggregates results across a dataset
type Summary struct {
	AnalysisSamples       int
	FullyParsedAnalyses   int
	DefaultedSections     map[string]int
	RecommendationSamples int
	FallbackCount         int
	PlaceholderRecords    int
	TotalRecords          int
	ValidISBNRate         float64
	Results               []SampleResult
}

// Evaluate runs every sample through the parser or normalizer
func Evaluate(samples []dataset.Sample) *Summary {
	summary := &Summary{
		DefaultedSections: map[string]int{},
		Results:           make([]SampleResult, 0, len(samples)),
	}

	validISBNs := 0
	for _, s := range samples {
		var result SampleResult
		switch s.Kind {
		case dataset.KindAnalysis:
			result = scoreAnalysis(s)
			summary.AnalysisSamples++
			if len(result.DefaultedSections) == 0 {
				summary.FullyParsedAnalyses++
			}
			for _, section := range result.DefaultedSections {
				summary.DefaultedSections[section]++
			}
		case dataset.KindRecommendations:
			result = scoreRecommendations(s)
			summary.RecommendationSamples++
			summary.TotalRecords += result.Records
			summary.PlaceholderRecords += result.Placeholders
			validISBNs += result.ValidISBNs
			if result.Fallback {
				summary.FallbackCount++
			}
		default:
			continue
		}
		summary.Results = append(summary.Results, result)
	}

	if summary.TotalRecords > 0 {
		summary.ValidISBNRate = float64(validISBNs) / float64(summary.TotalRecords)
	}
	return summary
}

// FallbackRate is the share of recommendation samples that were unparsable
func (s *Summary) FallbackRate() float64 {
	if s.RecommendationSamples == 0 {
		return 0
	}
	return float64(s.FallbackCount) / float64(s.RecommendationSamples)
}

func scoreAnalysis(s dataset.Sample) SampleResult {
	parsed := analysis.Parse(s.Response)
	result := SampleResult{ID: s.ID, Kind: s.Kind}

	if slices.Equal(parsed.BooksIdentified, analysis.DefaultBooks) {
		result.DefaultedSections = append(result.DefaultedSections, "books_identified")
	}
	if slices.Equal(parsed.Genres, analysis.DefaultGenres) {
		result.DefaultedSections = append(result.DefaultedSections, "genres")
	}
	if slices.Equal(parsed.Themes, analysis.DefaultThemes) {
		result.DefaultedSections = append(result.DefaultedSections, "themes")
	}
	if parsed.ReaderProfile == analysis.DefaultProfile {
		result.DefaultedSections = append(result.DefaultedSections, "reader_profile")
	}
	return result
}

func scoreRecommendations(s dataset.Sample) SampleResult {
	set := recommend.Normalize(s.Response)
	result := SampleResult{
		ID:          s.ID,
		Kind:        s.Kind,
		Records:     len(set.Recommendations),
		Fallback:    recommend.IsFallback(set),
		HasStrategy: set.Strategy != "",
	}
	for _, rec := range set.Recommendations {
		if rec.Title == recommend.PlaceholderTitle {
			result.Placeholders++
		}
		if rec.ISBN != recommend.DefaultISBN && validate.IsValidISBN(rec.ISBN) {
			result.ValidISBNs++
		}
	}
	return result
}
