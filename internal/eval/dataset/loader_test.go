package dataset

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
)

func TestNewLoader(t *testing.T) {
	path := "./test.parquet"
	loader := NewLoader(path)

	if loader.datasetPath != path {
		t.Errorf("Expected path %s, got %s", path, loader.datasetPath)
	}
}

func TestLoadJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.jsonl")
	content := `{"id":"a1","kind":"analysis","response":"GENRES:\n- Fiction"}

{"id":"r1","kind":"recommendations","provider":"cosmic","response":"{}"}
{"id":"r2","kind":"recommendations","response":"not json"}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write dataset: %v", err)
	}

	samples, err := NewLoader(path).Load(0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("Expected 3 samples, got %d", len(samples))
	}
	if samples[1].Provider != "cosmic" || samples[0].Response != "GENRES:\n- Fiction" {
		t.Errorf("Unexpected samples %+v", samples)
	}

	limited, err := NewLoader(path).Load(2)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected 2 samples with limit, got %d", len(limited))
	}
}

func TestLoadParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.parquet")
	rows := []Sample{
		{ID: "a1", Kind: KindAnalysis, Response: "THEMES:\n- Memory"},
		{ID: "r1", Kind: KindRecommendations, Model: "gpt-4o", Response: `{"recommendations":[]}`},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("Failed to write parquet: %v", err)
	}

	samples, err := NewLoader(path).Load(0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(samples) != 2 || samples[1].Model != "gpt-4o" || samples[0].Kind != KindAnalysis {
		t.Errorf("Unexpected samples %+v", samples)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "unsupported extension", file: "data.csv", content: "id,kind"},
		{name: "bad json", file: "bad.jsonl", content: "{"},
		{name: "unknown kind", file: "kind.jsonl", content: `{"id":"x","kind":"summary","response":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write file: %v", err)
			}
			if _, err := NewLoader(path).Load(0); err == nil {
				t.Error("Expected error")
			}
		})
	}

	if _, err := NewLoader(filepath.Join(dir, "missing.jsonl")).Load(0); err == nil {
		t.Error("Expected error for missing file")
	}
}

// batchReader returns one sample per Read and then err
type batchReader struct {
	remaining int
	err       error
}

func (r *batchReader) Read(rows []Sample) (int, error) {
	if r.remaining == 0 {
		return 0, r.err
	}
	r.remaining--
	rows[0] = Sample{ID: "s", Kind: KindAnalysis}
	return 1, nil
}

func TestReadRows(t *testing.T) {
	corrupt := errors.New("corrupt page")

	tests := []struct {
		name          string
		reader        *batchReader
		limit         int
		expectedCount int
		expectedErr   error
	}{
		{name: "reads until EOF", reader: &batchReader{remaining: 3, err: io.EOF}, expectedCount: 3},
		{name: "limit stops early", reader: &batchReader{remaining: 3, err: corrupt}, limit: 2, expectedCount: 2},
		{name: "read error is returned", reader: &batchReader{remaining: 2, err: corrupt}, expectedErr: corrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples, err := readRows(tt.reader, tt.limit)
			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Errorf("Expected error %v, got %v", tt.expectedErr, err)
				}
				if samples != nil {
					t.Errorf("Expected no samples on error, got %d", len(samples))
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(samples) != tt.expectedCount {
				t.Errorf("Expected %d samples, got %d", tt.expectedCount, len(samples))
			}
		})
	}
}
