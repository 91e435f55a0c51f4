package cmd

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/bookshelf/internal/bookshelf"
	"github.com/lehigh-university-libraries/bookshelf/internal/config"
	"github.com/lehigh-university-libraries/bookshelf/internal/models"
)

func newAnalyzeCmd(configPath *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Analyze a bookshelf photo and print recommendations",
		Long: `Uploads a local bookshelf photo to the configured media backend, analyzes it
and prints the analysis with recommendations as JSON or YAML.`,
		Example: `  bookshelf analyze shelf.jpg
  bookshelf analyze shelf.png --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format: %s", format)
			}

			file, err := readImageFile(args[0])
			if err != nil {
				return err
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			a, err := buildApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			result, err := a.service.Analyze(cmd.Context(), file)
			if err != nil {
				var vErr *bookshelf.ValidationError
				if errors.As(err, &vErr) {
					return fmt.Errorf("invalid image: %s", vErr.Message)
				}
				return err
			}

			return printResult(cmd, result, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")

	return cmd
}

func readImageFile(path string) (*models.UploadedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return &models.UploadedFile{
		Filename: filepath.Base(path),
		MIMEType: mimeType,
		Size:     int64(len(data)),
		Data:     data,
	}, nil
}

func printResult(cmd *cobra.Command, result *models.AnalyzeResult, format string) error {
	out := cmd.OutOrStdout()
	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
