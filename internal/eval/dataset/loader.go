package dataset

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/parquet-go/parquet-go"
)

// Loader reads recorded AI responses from disk
type Loader struct {
	datasetPath string
}

// NewLoader creates a new dataset loader
func NewLoader(datasetPath string) *Loader {
	return &Loader{
		datasetPath: datasetPath,
	}
}

// Load reads samples from a JSONL or Parquet file. A positive limit stops
// after that many samples.
func (l *Loader) Load(limit int) ([]Sample, error) {
	ext := strings.ToLower(filepath.Ext(l.datasetPath))

	var (
		samples []Sample
		err     error
	)
	switch ext {
	case ".parquet":
		samples, err = l.loadParquet(limit)
	case ".jsonl", ".json":
		samples, err = l.loadJSONL(limit)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
	if err != nil {
		return nil, err
	}

	for i, s := range samples {
		if s.Kind != KindAnalysis && s.Kind != KindRecommendations {
			return nil, fmt.Errorf("sample %d (%s) has unknown kind %q", i+1, s.ID, s.Kind)
		}
	}
	return samples, nil
}

func (l *Loader) loadJSONL(limit int) ([]Sample, error) {
	slog.Debug("Opening JSONL file", "path", l.datasetPath)

	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var samples []Sample
	scanner := bufio.NewScanner(file)

	const maxCapacity = 10 * 1024 * 1024 // 10MB per line
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var sample Sample
		if err := json.Unmarshal(line, &sample); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		samples = append(samples, sample)

		if limit > 0 && len(samples) >= limit {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}

	slog.Debug("Finished reading JSONL file", "samples", len(samples), "lines", lineNum)
	return samples, nil
}

func (l *Loader) loadParquet(limit int) ([]Sample, error) {
	slog.Debug("Opening Parquet file", "path", l.datasetPath)

	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Sample](pf)
	defer reader.Close()

	samples, err := readRows(reader, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet rows: %w", err)
	}

	slog.Debug("Finished reading Parquet file", "samples", len(samples), "rows", pf.NumRows())
	return samples, nil
}

// rowReader is the part of parquet.GenericReader used by readRows
type rowReader interface {
	Read(rows []Sample) (int, error)
}

// readRows drains r in batches. io.EOF ends the read; any other error is
// returned.
func readRows(r rowReader, limit int) ([]Sample, error) {
	var samples []Sample
	rows := make([]Sample, 128)
	for {
		n, err := r.Read(rows)
		samples = append(samples, rows[:n]...)
		if limit > 0 && len(samples) >= limit {
			return samples[:limit], nil
		}
		if errors.Is(err, io.EOF) {
			return samples, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
