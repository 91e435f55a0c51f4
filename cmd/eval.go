package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookshelf/internal/eval/dataset"
	"github.com/lehigh-university-libraries/bookshelf/internal/eval/metrics"
	"github.com/lehigh-university-libraries/bookshelf/internal/eval/results"
)

func newEvalCmd() *cobra.Command {
	var (
		datasetPath string
		sampleSize  int
		outputDir   string
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score recorded AI responses against the parsers",
		Long: `Runs recorded AI responses through the analysis parser and the
recommendation normalizer, and reports how often defaults, placeholders and
the fallback list had to be used.

Each sample has an id, a kind ("analysis" or "recommendations") and the raw
response text. Datasets may be JSONL or Parquet.`,
		Example: `  # Summarize a JSONL capture
  bookshelf eval --dataset responses.jsonl

  # First 100 rows of a Parquet export, with a YAML report in evals/
  bookshelf eval --dataset responses.parquet --sample 100 --output evals`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(datasetPath); os.IsNotExist(err) {
				return fmt.Errorf("dataset file not found: %s", datasetPath)
			}

			samples, err := dataset.NewLoader(datasetPath).Load(sampleSize)
			if err != nil {
				return fmt.Errorf("failed to load dataset: %w", err)
			}

			summary := metrics.Evaluate(samples)
			printSummary(cmd.OutOrStdout(), summary)

			if outputDir != "" {
				path, err := results.SaveToYAML(outputDir, datasetPath, summary)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nEvaluation results saved to: %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&datasetPath, "dataset", "d", "", "Path to a JSONL or Parquet file of recorded responses")
	cmd.Flags().IntVarP(&sampleSize, "sample", "n", 0, "Only evaluate the first N samples (0 = all)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for a YAML results file")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func printSummary(w io.Writer, s *metrics.Summary) {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "Bookshelf Response Evaluation")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Analysis samples:        %d\n", s.AnalysisSamples)
	fmt.Fprintf(w, "  Fully parsed:          %d\n", s.FullyParsedAnalyses)

	sections := make([]string, 0, len(s.DefaultedSections))
	for section := range s.DefaultedSections {
		sections = append(sections, section)
	}
	sort.Strings(sections)
	for _, section := range sections {
		fmt.Fprintf(w, "  Defaulted %-14s %d\n", section+":", s.DefaultedSections[section])
	}

	fmt.Fprintf(w, "Recommendation samples:  %d\n", s.RecommendationSamples)
	fmt.Fprintf(w, "  Fallback rate:         %.2f%%\n", s.FallbackRate()*100)
	fmt.Fprintf(w, "  Placeholder records:   %d\n", s.PlaceholderRecords)
	fmt.Fprintf(w, "  Valid ISBN rate:       %.2f%%\n", s.ValidISBNRate*100)
}
