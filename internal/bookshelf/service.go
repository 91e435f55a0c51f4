// Package bookshelf runs the upload, analyze and recommend flow on top of
// injected storage and AI backends.
package bookshelf

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookshelf/internal/affiliate"
	"github.com/lehigh-university-libraries/bookshelf/internal/analysis"
	"github.com/lehigh-university-libraries/bookshelf/internal/metrics"
	"github.com/lehigh-university-libraries/bookshelf/internal/models"
	"github.com/lehigh-university-libraries/bookshelf/internal/providers"
	"github.com/lehigh-university-libraries/bookshelf/internal/recommend"
	"github.com/lehigh-university-libraries/bookshelf/internal/retry"
	"github.com/lehigh-university-libraries/bookshelf/internal/storage"
	"github.com/lehigh-university-libraries/bookshelf/internal/validate"
)

// AdvisoryNoRecommendations accompanies an analysis whose recommendation step failed
const AdvisoryNoRecommendations = "Analysis completed, but we could not generate recommendations right now. Please try again."

// Deps are the collaborators a Service needs
type Deps struct {
	Store       storage.MediaStore
	Provider    providers.Provider
	Linker      *affiliate.Linker
	Policy      retry.Policy
	AccessCode  string
	Model       string
	Temperature float64
}

// Service implements the bookshelf operations
type Service struct {
	store       storage.MediaStore
	provider    providers.Provider
	linker      *affiliate.Linker
	policy      retry.Policy
	accessCode  string
	model       string
	temperature float64
}

// New returns a Service. A nil Linker uses the fallback affiliate tag.
func New(d Deps) *Service {
	linker := d.Linker
	if linker == nil {
		linker = affiliate.NewLinker("")
	}
	return &Service{
		store:       d.Store,
		provider:    d.Provider,
		linker:      linker,
		policy:      d.Policy,
		accessCode:  d.AccessCode,
		model:       d.Model,
		temperature: d.Temperature,
	}
}

// UploadPhoto validates file and stores it in the photos folder
func (s *Service) UploadPhoto(ctx context.Context, file *models.UploadedFile) (*models.StoredMedia, error) {
	if result := validate.ImageFile(file); !result.Valid {
		return nil, &ValidationError{Message: result.Error}
	}

	media, err := s.store.Upload(ctx, file, storage.PhotosFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to upload photo: %w", err)
	}
	return media, nil
}

// ListPhotos returns the photos folder. It never returns a nil slice.
func (s *Service) ListPhotos(ctx context.Context) ([]models.StoredMedia, error) {
	photos, err := s.store.List(ctx, storage.PhotosFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch photos: %w", err)
	}
	if photos == nil {
		photos = []models.StoredMedia{}
	}
	return photos, nil
}

// Analyze uploads the image, describes the collection and recommends books.
// A failure after the analysis step yields a partial result with an
// advisory instead of an error.
func (s *Service) Analyze(ctx context.Context, file *models.UploadedFile) (*models.AnalyzeResult, error) {
	if result := validate.ImageFile(file); !result.Valid {
		return nil, &ValidationError{Message: result.Error}
	}

	media, err := s.store.Upload(ctx, file, "")
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}
	slog.Info("Image uploaded for analysis", "id", media.ID, "url", media.DisplayURL())

	image := &providers.Image{
		Data:     file.Data,
		MIMEType: file.MIMEType,
		URL:      media.DisplayURL(),
	}

	raw, err := retry.Do(ctx, s.policy, func(ctx context.Context) (string, error) {
		return s.describe(ctx, image)
	}, s.retryOptions("analysis")...)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze image: %w", err)
	}

	result := &models.AnalyzeResult{
		Analysis: models.BookAnalysis{
			Photo:          media,
			ParsedAnalysis: analysis.Parse(raw),
			RawAnalysis:    raw,
		},
		Recommendations: []models.RecommendationRecord{},
	}

	set, err := retry.Do(ctx, s.policy, func(ctx context.Context) (models.RecommendationSet, error) {
		return s.recommend(ctx, raw)
	}, s.retryOptions("recommendations")...)
	if err != nil || len(set.Recommendations) == 0 {
		slog.Error("Failed to generate recommendations", "photo", media.ID, "err", err)
		metrics.PartialResponses.Inc()
		result.Advisory = AdvisoryNoRecommendations
		return result, nil
	}

	if recommend.IsFallback(set) {
		metrics.RecommendationFallbacks.Inc()
	}
	result.Recommendations = s.linker.Enrich(set.Recommendations)
	result.Strategy = set.Strategy
	return result, nil
}

// VerifyAccess checks code against the configured shared secret
func (s *Service) VerifyAccess(code string) error {
	if !validate.NonEmptyString(code) {
		return ErrAccessCodeRequired
	}
	if s.accessCode == "" {
		slog.Error("ACCESS_CODE is not configured")
		return ErrAccessNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(s.accessCode)) != 1 {
		return ErrInvalidAccessCode
	}
	return nil
}

// describe tries the detailed prompt and then the generic one
func (s *Service) describe(ctx context.Context, image *providers.Image) (string, error) {
	text, err := s.generate(ctx, analysis.DetailedPrompt(image.URL), image)
	if err == nil {
		return text, nil
	}
	slog.Warn("Detailed analysis failed, trying generic prompt", "err", err)

	return s.generate(ctx, analysis.FallbackPrompt(image.URL), image)
}

func (s *Service) recommend(ctx context.Context, analysisText string) (models.RecommendationSet, error) {
	text, err := s.generate(ctx, recommend.Prompt(analysisText), nil)
	if err != nil {
		return models.RecommendationSet{}, err
	}
	return recommend.Normalize(text), nil
}

func (s *Service) generate(ctx context.Context, prompt string, image *providers.Image) (string, error) {
	text, err := s.provider.GenerateText(ctx, providers.Config{
		Model:       s.model,
		Temperature: s.temperature,
		Prompt:      prompt,
		Image:       image,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errEmptyResponse
	}
	return text, nil
}

func (s *Service) retryOptions(operation string) []retry.Option {
	return []retry.Option{
		retry.WithName(operation),
		retry.OnRetry(func(attempt int, delay time.Duration, err error) {
			metrics.RetryAttempts.WithLabelValues(operation).Inc()
		}),
	}
}
