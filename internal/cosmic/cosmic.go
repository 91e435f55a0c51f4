// Package cosmic talks to the Cosmic headless CMS: its media library is a
// storage backend and its AI endpoint is a text provider.
package cosmic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/lehigh-university-libraries/bookshelf/internal/metrics"
	"github.com/lehigh-university-libraries/bookshelf/internal/models"
	"github.com/lehigh-university-libraries/bookshelf/internal/providers"
	"github.com/lehigh-university-libraries/bookshelf/internal/storage"
)

const (
	DefaultAPIURL     = "https://api.cosmicjs.com"
	DefaultWorkersURL = "https://workers.cosmicjs.com"
)

// Config holds bucket credentials and endpoints
type Config struct {
	BucketSlug string `koanf:"bucket_slug"`
	ReadKey    string `koanf:"read_key"`
	WriteKey   string `koanf:"write_key"`
	APIURL     string `koanf:"api_url"`
	WorkersURL string `koanf:"workers_url"`
}

// Client is a Cosmic bucket client
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// New returns a client for the configured bucket
func New(cfg Config) (*Client, error) {
	if cfg.BucketSlug == "" {
		return nil, fmt.Errorf("cosmic bucket slug is required")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.WorkersURL == "" {
		cfg.WorkersURL = DefaultWorkersURL
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}, nil
}

// StatusError is a non-2xx response from Cosmic
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cosmic returned status %d: %s", e.StatusCode, e.Body)
}

type media struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	Type         string `json:"type"`
	Bucket       string `json:"bucket"`
	CreatedAt    string `json:"created_at"`
	Folder       string `json:"folder"`
	URL          string `json:"url"`
	ImgixURL     string `json:"imgix_url"`
}

func (m media) toModel() models.StoredMedia {
	created, err := time.Parse(time.RFC3339, m.CreatedAt)
	if err != nil {
		created = time.Time{}
	}
	return models.StoredMedia{
		ID:           m.ID,
		Name:         m.Name,
		OriginalName: m.OriginalName,
		Size:         m.Size,
		Type:         m.Type,
		Bucket:       m.Bucket,
		URL:          m.URL,
		ImgixURL:     m.ImgixURL,
		Folder:       m.Folder,
		CreatedAt:    created,
	}
}

func (c *Client) bucketURL(base string) string {
	return fmt.Sprintf("%s/v3/buckets/%s", base, url.PathEscape(c.cfg.BucketSlug))
}

// Upload implements storage.MediaStore
func (c *Client) Upload(ctx context.Context, file *models.UploadedFile, folder string) (*models.StoredMedia, error) {
	if file == nil || len(file.Data) == 0 {
		return nil, storage.ErrEmptyFile
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("media", file.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	if folder != "" {
		if err := writer.WriteField("folder", folder); err != nil {
			return nil, fmt.Errorf("failed to write folder field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.bucketURL(c.cfg.WorkersURL)+"/media", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.cfg.WriteKey)

	var response struct {
		Media media `json:"media"`
	}
	err = c.do(req, &response)
	metrics.RecordStorage("cosmic", "upload", err)
	if err != nil {
		return nil, fmt.Errorf("failed to upload media: %w", err)
	}

	slog.Info("Media uploaded to Cosmic", "id", response.Media.ID, "name", response.Media.Name)
	stored := response.Media.toModel()
	return &stored, nil
}

// List implements storage.MediaStore. A 404 means the folder is empty.
func (c *Client) List(ctx context.Context, folder string) ([]models.StoredMedia, error) {
	params := url.Values{}
	params.Set("read_key", c.cfg.ReadKey)
	if folder != "" {
		query, err := json.Marshal(map[string]string{"folder": folder})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal query: %w", err)
		}
		params.Set("query", string(query))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.bucketURL(c.cfg.APIURL)+"/media?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}

	var response struct {
		Media []media `json:"media"`
	}
	err = c.do(req, &response)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		metrics.RecordStorage("cosmic", "list", nil)
		return []models.StoredMedia{}, nil
	}
	metrics.RecordStorage("cosmic", "list", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}

	result := make([]models.StoredMedia, 0, len(response.Media))
	for _, m := range response.Media {
		result = append(result, m.toModel())
	}
	return result, nil
}

// Name implements providers.Provider
func (c *Client) Name() string {
	return "cosmic"
}

// GenerateText implements providers.Provider using the bucket's AI endpoint.
// Cosmic reads the image from its URL; inline bytes are not sent.
func (c *Client) GenerateText(ctx context.Context, config providers.Config) (string, error) {
	body := map[string]interface{}{
		"prompt": config.Prompt,
	}
	if config.Model != "" {
		body["model"] = config.Model
	}
	if config.Image != nil && config.Image.URL != "" {
		body["media_url"] = config.Image.URL
	}

	requestBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.bucketURL(c.cfg.WorkersURL)+"/ai/text", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.WriteKey)

	var response struct {
		Text string `json:"text"`
	}
	if err := c.do(req, &response); err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	return response.Text, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}
