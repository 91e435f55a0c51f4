package bookshelf

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/lehigh-university-libraries/bookshelf/internal/affiliate"
	"github.com/lehigh-university-libraries/bookshelf/internal/models"
	"github.com/lehigh-university-libraries/bookshelf/internal/providers"
	"github.com/lehigh-university-libraries/bookshelf/internal/retry"
	"github.com/lehigh-university-libraries/bookshelf/internal/storage"
	"github.com/lehigh-university-libraries/bookshelf/internal/validate"
)

const analysisText = `BOOKS IDENTIFIED:
- Dune
- Neuromancer

GENRES:
- Science Fiction

THEMES:
- Technology and society

READER PROFILE:
A reader drawn to big ideas and speculative futures.`

const recommendationJSON = "```json\n" + `{
  "recommendation_strategy": "Lean into classic science fiction.",
  "recommendations": [
    {"title": "Hyperion", "author": "Dan Simmons", "genre": "Science Fiction", "reasoning": "Epic scope", "isbn": "978-0-553-28368-8"},
    {"title": "Foundation", "author": "Isaac Asimov", "isbn": "9780553293357"},
    {"title": "The Left Hand of Darkness", "author": "Ursula K. Le Guin", "isbn": "not an isbn"}
  ]
}` + "\n```"

// scriptedProvider answers image prompts with analyze and text prompts with recommend
type scriptedProvider struct {
	mu        sync.Mutex
	analyze   func(prompt string) (string, error)
	recommend func(prompt string) (string, error)
	calls     []providers.Config
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) GenerateText(ctx context.Context, config providers.Config) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, config)
	p.mu.Unlock()
	if config.Image != nil {
		return p.analyze(config.Prompt)
	}
	return p.recommend(config.Prompt)
}

func (p *scriptedProvider) count(withImage bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if (c.Image != nil) == withImage {
			n++
		}
	}
	return n
}

type failingStore struct{}

func (failingStore) Upload(ctx context.Context, file *models.UploadedFile, folder string) (*models.StoredMedia, error) {
	return nil, errors.New("bucket unavailable")
}

func (failingStore) List(ctx context.Context, folder string) ([]models.StoredMedia, error) {
	return nil, errors.New("bucket unavailable")
}

type nilListStore struct{ failingStore }

func (nilListStore) List(ctx context.Context, folder string) ([]models.StoredMedia, error) {
	return nil, nil
}

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, Multiplier: 1}
}

func newService(store storage.MediaStore, provider providers.Provider) *Service {
	return New(Deps{
		Store:      store,
		Provider:   provider,
		Linker:     affiliate.NewLinker("shelf-20"),
		Policy:     fastPolicy(),
		AccessCode: "open-sesame",
	})
}

func jpeg(size int) *models.UploadedFile {
	return &models.UploadedFile{Filename: "shelf.jpg", MIMEType: "image/jpeg", Size: int64(size), Data: make([]byte, size)}
}

func TestUploadPhoto(t *testing.T) {
	store := storage.NewMemoryStore("http://localhost:8080/media")
	svc := newService(store, &scriptedProvider{})

	media, err := svc.UploadPhoto(context.Background(), jpeg(128))
	if err != nil {
		t.Fatalf("UploadPhoto failed: %v", err)
	}
	if media.Folder != storage.PhotosFolder {
		t.Errorf("Expected photos folder, got %s", media.Folder)
	}

	_, err = svc.UploadPhoto(context.Background(), &models.UploadedFile{Filename: "notes.pdf", MIMEType: "application/pdf", Size: 10, Data: []byte("x")})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Message != "File must be an image (JPEG, PNG, GIF, WebP)" {
		t.Errorf("Expected image type validation error, got %v", err)
	}
}

func TestListPhotos(t *testing.T) {
	photos, err := newService(nilListStore{}, &scriptedProvider{}).ListPhotos(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if photos == nil || len(photos) != 0 {
		t.Errorf("Expected empty non-nil list, got %v", photos)
	}

	if _, err := newService(failingStore{}, &scriptedProvider{}).ListPhotos(context.Background()); err == nil {
		t.Error("Expected error from failing store")
	}
}

func TestAnalyze(t *testing.T) {
	provider := &scriptedProvider{
		analyze:   func(string) (string, error) { return analysisText, nil },
		recommend: func(string) (string, error) { return recommendationJSON, nil },
	}
	svc := newService(storage.NewMemoryStore("http://localhost/media"), provider)

	result, err := svc.Analyze(context.Background(), jpeg(2048))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.Advisory != "" {
		t.Errorf("Expected no advisory, got %s", result.Advisory)
	}
	if result.Analysis.Photo == nil || result.Analysis.Photo.Folder != "" {
		t.Errorf("Expected photo uploaded to the bucket root, got %+v", result.Analysis.Photo)
	}
	if len(result.Analysis.BooksIdentified) != 2 || result.Analysis.BooksIdentified[0] != "Dune" {
		t.Errorf("Unexpected books %v", result.Analysis.BooksIdentified)
	}
	if result.Analysis.RawAnalysis != analysisText {
		t.Error("Expected raw analysis to be kept")
	}
	if result.Strategy != "Lean into classic science fiction." {
		t.Errorf("Unexpected strategy %q", result.Strategy)
	}
	if len(result.Recommendations) != 3 {
		t.Fatalf("Expected 3 recommendations, got %d", len(result.Recommendations))
	}

	first := result.Recommendations[0]
	if first.PurchaseURL != "https://www.amazon.com/dp/9780553283688?tag=shelf-20" {
		t.Errorf("Unexpected purchase URL %s", first.PurchaseURL)
	}
	if first.CoverURL == "" {
		t.Error("Expected cover URL")
	}
	if !strings.HasPrefix(result.Recommendations[2].PurchaseURL, "https://www.amazon.com/s?k=") {
		t.Errorf("Expected search URL for invalid ISBN, got %s", result.Recommendations[2].PurchaseURL)
	}
	if provider.count(true) != 1 || provider.count(false) != 1 {
		t.Errorf("Expected one call per step, got %d/%d", provider.count(true), provider.count(false))
	}
	if !strings.Contains(provider.calls[0].Prompt, result.Analysis.Photo.URL) {
		t.Error("Expected analysis prompt to reference the uploaded image")
	}
}

func TestAnalyzeFallsBackToGenericPrompt(t *testing.T) {
	provider := &scriptedProvider{
		analyze: func(prompt string) (string, error) {
			if strings.Contains(prompt, "IMPORTANT: Provide your analysis") {
				return "", errors.New("vision unavailable")
			}
			return analysisText, nil
		},
		recommend: func(string) (string, error) { return recommendationJSON, nil },
	}

	result, err := newService(storage.NewMemoryStore(""), provider).Analyze(context.Background(), jpeg(10))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if provider.count(true) != 2 {
		t.Errorf("Expected detailed then generic prompt, got %d calls", provider.count(true))
	}
	if result.Analysis.ReaderProfile == "" {
		t.Error("Expected a reader profile")
	}
}

func TestAnalyzeFailsAfterRetries(t *testing.T) {
	provider := &scriptedProvider{
		analyze:   func(string) (string, error) { return "   ", nil },
		recommend: func(string) (string, error) { return recommendationJSON, nil },
	}

	_, err := newService(storage.NewMemoryStore(""), provider).Analyze(context.Background(), jpeg(10))
	if !errors.Is(err, errEmptyResponse) {
		t.Errorf("Expected empty response error, got %v", err)
	}
	if provider.count(true) != 6 {
		t.Errorf("Expected 3 attempts of 2 prompts, got %d", provider.count(true))
	}
	if provider.count(false) != 0 {
		t.Error("Expected no recommendation call")
	}
}

func TestAnalyzePartialSuccess(t *testing.T) {
	provider := &scriptedProvider{
		analyze:   func(string) (string, error) { return analysisText, nil },
		recommend: func(string) (string, error) { return "", errors.New("rate limited") },
	}

	result, err := newService(storage.NewMemoryStore(""), provider).Analyze(context.Background(), jpeg(10))
	if err != nil {
		t.Fatalf("Expected partial success, got %v", err)
	}
	if result.Advisory != AdvisoryNoRecommendations {
		t.Errorf("Unexpected advisory %q", result.Advisory)
	}
	if result.Recommendations == nil || len(result.Recommendations) != 0 {
		t.Errorf("Expected empty recommendations, got %v", result.Recommendations)
	}
	if len(result.Analysis.Genres) != 1 {
		t.Errorf("Expected analysis to be kept, got %+v", result.Analysis)
	}
	if provider.count(false) != 3 {
		t.Errorf("Expected 3 recommendation attempts, got %d", provider.count(false))
	}
}

func TestAnalyzeUnparsableRecommendations(t *testing.T) {
	provider := &scriptedProvider{
		analyze:   func(string) (string, error) { return analysisText, nil },
		recommend: func(string) (string, error) { return "I would suggest some good books!", nil },
	}

	result, err := newService(storage.NewMemoryStore(""), provider).Analyze(context.Background(), jpeg(10))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(result.Recommendations) != 3 || result.Recommendations[0].Title != "The Midnight Library" {
		t.Errorf("Expected fallback list, got %+v", result.Recommendations)
	}
	if result.Recommendations[0].PurchaseURL != "https://www.amazon.com/dp/9780525559474?tag=shelf-20" {
		t.Errorf("Unexpected purchase URL %s", result.Recommendations[0].PurchaseURL)
	}
}

func TestAnalyzeRejectsInput(t *testing.T) {
	tests := []struct {
		name     string
		file     *models.UploadedFile
		expected string
	}{
		{name: "missing file", file: nil, expected: "No file provided"},
		{name: "too large", file: jpeg(validate.MaxImageSize + 1), expected: "File size must be less than 10MB"},
		{name: "not an image", file: &models.UploadedFile{Filename: "a.txt", MIMEType: "text/plain", Size: 1, Data: []byte("a")}, expected: "File must be an image (JPEG, PNG, GIF, WebP)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &scriptedProvider{}
			_, err := newService(failingStore{}, provider).Analyze(context.Background(), tt.file)

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if vErr.Message != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, vErr.Message)
			}
			if len(provider.calls) != 0 {
				t.Error("Expected no AI calls")
			}
		})
	}
}

func TestAnalyzeUploadFailure(t *testing.T) {
	provider := &scriptedProvider{}
	if _, err := newService(failingStore{}, provider).Analyze(context.Background(), jpeg(10)); err == nil {
		t.Error("Expected upload error")
	}
	if len(provider.calls) != 0 {
		t.Error("Expected no AI calls after failed upload")
	}
}

func TestVerifyAccess(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		code       string
		expected   error
	}{
		{name: "match", configured: "open-sesame", code: "open-sesame", expected: nil},
		{name: "mismatch", configured: "open-sesame", code: "guess", expected: ErrInvalidAccessCode},
		{name: "empty code", configured: "open-sesame", code: "  ", expected: ErrAccessCodeRequired},
		{name: "not configured", configured: "", code: "anything", expected: ErrAccessNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(Deps{AccessCode: tt.configured})
			if err := svc.VerifyAccess(tt.code); !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}
}
