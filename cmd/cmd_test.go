package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/bookshelf/internal/models"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		format  string
		level   string
		wantErr bool
	}{
		{format: "", level: ""},
		{format: "json", level: "debug"},
		{format: "TEXT", level: "warn"},
		{format: "xml", level: "info", wantErr: true},
		{format: "text", level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format+"/"+tt.level, func(t *testing.T) {
			logger, err := newLogger(tt.format, tt.level)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil || logger == nil {
				t.Errorf("Expected logger, got %v", err)
			}
		})
	}
}

func TestReadImageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shelf.png")
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nrest"), 0644); err != nil {
		t.Fatalf("Failed to write image: %v", err)
	}

	file, err := readImageFile(path)
	if err != nil {
		t.Fatalf("readImageFile failed: %v", err)
	}
	if file.Filename != "shelf.png" || file.MIMEType != "image/png" || file.Size != 12 {
		t.Errorf("Unexpected file %+v", file)
	}

	if _, err := readImageFile(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestPrintResult(t *testing.T) {
	result := &models.AnalyzeResult{
		Analysis: models.BookAnalysis{
			ParsedAnalysis: models.ParsedAnalysis{Genres: []string{"Poetry"}},
		},
		Recommendations: []models.RecommendationRecord{{Title: "Leaves of Grass"}},
	}

	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			root := NewRootCmd()
			var out bytes.Buffer
			root.SetOut(&out)

			if err := printResult(root, result, format); err != nil {
				t.Fatalf("printResult failed: %v", err)
			}
			if !strings.Contains(out.String(), "Leaves of Grass") || !strings.Contains(out.String(), "Poetry") {
				t.Errorf("Unexpected output %s", out.String())
			}
		})
	}
}

func TestEvalCommand(t *testing.T) {
	dir := t.TempDir()
	datasetPath := filepath.Join(dir, "responses.jsonl")
	content := `{"id":"a1","kind":"analysis","response":"GENRES:\n- Poetry"}
{"id":"r1","kind":"recommendations","response":"no json here"}
`
	if err := os.WriteFile(datasetPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write dataset: %v", err)
	}

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"eval", "--dataset", datasetPath, "--output", filepath.Join(dir, "evals")})

	if err := root.Execute(); err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if !strings.Contains(out.String(), "Fallback rate:         100.00%") {
		t.Errorf("Expected full fallback rate, got:\n%s", out.String())
	}

	files, err := filepath.Glob(filepath.Join(dir, "evals", "responses-*.yaml"))
	if err != nil || len(files) != 1 {
		t.Errorf("Expected one YAML results file, got %v (%v)", files, err)
	}
}
