package results

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/bookshelf/internal/eval/metrics"
)

// EvalConfig represents the configuration section of the eval YAML
type EvalConfig struct {
	DatasetPath string `yaml:"datasetpath"`
	SampleSize  int    `yaml:"samplesize"`
	Timestamp   string `yaml:"timestamp"`
}

// EvalSummary is the aggregate section of the eval YAML
type EvalSummary struct {
	AnalysisSamples       int            `yaml:"analysissamples"`
	FullyParsedAnalyses   int            `yaml:"fullyparsedanalyses"`
	DefaultedSections     map[string]int `yaml:"defaultedsections,omitempty"`
	RecommendationSamples int            `yaml:"recommendationsamples"`
	FallbackRate          float64        `yaml:"fallbackrate"`
	PlaceholderRecords    int            `yaml:"placeholderrecords"`
	ValidISBNRate         float64        `yaml:"validisbnrate"`
}

// EvalResult represents a single evaluation result
type EvalResult struct {
	Identifier        string   `yaml:"identifier"`
	Kind              string   `yaml:"kind"`
	DefaultedSections []string `yaml:"defaultedsections,omitempty"`
	Records           int      `yaml:"records,omitempty"`
	Fallback          bool     `yaml:"fallback,omitempty"`
	Placeholders      int      `yaml:"placeholders,omitempty"`
	ValidISBNs        int      `yaml:"validisbns,omitempty"`
}

// EvalSpec represents the complete evaluation output
type EvalSpec struct {
	Config  EvalConfig   `yaml:"config"`
	Summary EvalSummary  `yaml:"summary"`
	Results []EvalResult `yaml:"results"`
}

// Build converts a summary into its YAML document
func Build(datasetPath string, summary *metrics.Summary, now time.Time) EvalSpec {
	spec := EvalSpec{
		Config: EvalConfig{
			DatasetPath: datasetPath,
			SampleSize:  len(summary.Results),
			Timestamp:   now.Format("2006-01-02_15-04-05"),
		},
		Summary: EvalSummary{
			AnalysisSamples:       summary.AnalysisSamples,
			FullyParsedAnalyses:   summary.FullyParsedAnalyses,
			DefaultedSections:     summary.DefaultedSections,
			RecommendationSamples: summary.RecommendationSamples,
			FallbackRate:          summary.FallbackRate(),
			PlaceholderRecords:    summary.PlaceholderRecords,
			ValidISBNRate:         summary.ValidISBNRate,
		},
		Results: make([]EvalResult, 0, len(summary.Results)),
	}

	for _, r := range summary.Results {
		spec.Results = append(spec.Results, EvalResult{
			Identifier:        r.ID,
			Kind:              r.Kind,
			DefaultedSections: r.DefaultedSections,
			Records:           r.Records,
			Fallback:          r.Fallback,
			Placeholders:      r.Placeholders,
			ValidISBNs:        r.ValidISBNs,
		})
	}
	return spec
}

// SaveToYAML writes the evaluation into dir and returns the file's path
func SaveToYAML(dir, datasetPath string, summary *metrics.Summary) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	spec := Build(datasetPath, summary, time.Now())
	base := filepath.Base(datasetPath)
	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", base[:len(base)-len(filepath.Ext(base))], spec.Config.Timestamp))

	data, err := yaml.Marshal(&spec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return filename, nil
	}
	return absPath, nil
}
