package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/bookshelf/internal/affiliate"
	"github.com/lehigh-university-libraries/bookshelf/internal/bookshelf"
	"github.com/lehigh-university-libraries/bookshelf/internal/config"
	"github.com/lehigh-university-libraries/bookshelf/internal/cosmic"
	"github.com/lehigh-university-libraries/bookshelf/internal/gemini"
	"github.com/lehigh-university-libraries/bookshelf/internal/ollama"
	"github.com/lehigh-university-libraries/bookshelf/internal/openai"
	"github.com/lehigh-university-libraries/bookshelf/internal/providers"
	"github.com/lehigh-university-libraries/bookshelf/internal/storage"
)

// app holds the clients built once at startup
type app struct {
	service *bookshelf.Service
	memory  *storage.MemoryStore
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	var cosmicClient *cosmic.Client
	if cfg.Storage.Backend == "cosmic" || cfg.AI.Provider == "cosmic" {
		client, err := cosmic.New(cfg.Cosmic)
		if err != nil {
			return nil, fmt.Errorf("failed to create cosmic client: %w", err)
		}
		cosmicClient = client
	}

	var store storage.MediaStore
	switch cfg.Storage.Backend {
	case "cosmic":
		store = cosmicClient
	case "s3":
		s3Store, err := storage.NewS3Store(ctx, cfg.Storage.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 store: %w", err)
		}
		store = s3Store
	default:
		a.memory = storage.NewMemoryStore(strings.TrimSuffix(cfg.Server.BaseURL, "/") + "/media")
		store = a.memory
	}

	var provider providers.Provider
	switch cfg.AI.Provider {
	case "cosmic":
		provider = cosmicClient
	case "gemini":
		provider = gemini.New(cfg.AI.GeminiAPIKey)
	case "openai":
		provider = openai.New(cfg.AI.OpenAIAPIKey, cfg.AI.OpenAIURL)
	case "ollama":
		provider = ollama.New(cfg.AI.OllamaURL)
	default:
		return nil, fmt.Errorf("unknown AI provider: %s", cfg.AI.Provider)
	}

	slog.Info("Backends configured", "storage", cfg.Storage.Backend, "ai", provider.Name(), "model", cfg.AI.Model)

	a.service = bookshelf.New(bookshelf.Deps{
		Store:       store,
		Provider:    providers.WithBreaker(provider, cfg.AI.Breaker),
		Linker:      affiliate.NewLinker(cfg.AffiliateTag),
		Policy:      cfg.Retry,
		AccessCode:  cfg.AccessCode,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
	})
	return a, nil
}
