package cosmic

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/lehigh-university-libraries/bookshelf/internal/models"
	"github.com/lehigh-university-libraries/bookshelf/internal/providers"
	"github.com/lehigh-university-libraries/bookshelf/internal/storage"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		BucketSlug: "shelf",
		ReadKey:    "read",
		WriteKey:   "write",
		APIURL:     server.URL,
		WorkersURL: server.URL,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("Expected error without bucket slug")
	}
}

func TestUpload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v3/buckets/shelf/media" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer write" {
			t.Errorf("Missing write key")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("Failed to parse form: %v", err)
		}
		if r.FormValue("folder") != "photos" {
			t.Errorf("Expected folder photos, got %s", r.FormValue("folder"))
		}
		file, header, err := r.FormFile("media")
		if err != nil {
			t.Fatalf("Missing media part: %v", err)
		}
		data, _ := io.ReadAll(file)
		if header.Filename != "shelf.jpg" || string(data) != "jpeg" {
			t.Errorf("Unexpected file %s %q", header.Filename, data)
		}
		_, _ = w.Write([]byte(`{"media":{"id":"m1","name":"abc-shelf.jpg","original_name":"shelf.jpg","size":4,"type":"image/jpeg","folder":"photos","url":"https://cdn.cosmicjs.com/abc-shelf.jpg","imgix_url":"https://imgix.cosmicjs.com/abc-shelf.jpg","created_at":"2025-01-02T03:04:05.000Z"}}`))
	})

	media, err := client.Upload(context.Background(), &models.UploadedFile{Filename: "shelf.jpg", MIMEType: "image/jpeg", Data: []byte("jpeg")}, storage.PhotosFolder)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if media.ID != "m1" || media.DisplayURL() != "https://imgix.cosmicjs.com/abc-shelf.jpg" {
		t.Errorf("Unexpected media %+v", media)
	}
	if media.CreatedAt.Year() != 2025 {
		t.Errorf("Expected parsed created_at, got %v", media.CreatedAt)
	}
}

func TestUploadEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("No request expected")
	})
	if _, err := client.Upload(context.Background(), &models.UploadedFile{Filename: "a.jpg"}, ""); !errors.Is(err, storage.ErrEmptyFile) {
		t.Errorf("Expected ErrEmptyFile, got %v", err)
	}
}

func TestList(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected int
		wantErr  bool
	}{
		{name: "two items", status: http.StatusOK, body: `{"media":[{"id":"a"},{"id":"b"}]}`, expected: 2},
		{name: "not found is empty", status: http.StatusNotFound, body: `{"message":"No media found"}`, expected: 0},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("read_key") != "read" {
					t.Errorf("Missing read key")
				}
				var query map[string]string
				if err := json.Unmarshal([]byte(r.URL.Query().Get("query")), &query); err != nil || query["folder"] != "photos" {
					t.Errorf("Unexpected query %s", r.URL.Query().Get("query"))
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			media, err := client.List(context.Background(), storage.PhotosFolder)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if media == nil || len(media) != tt.expected {
				t.Errorf("Expected %d items, got %v", tt.expected, media)
			}
		})
	}
}

func TestGenerateText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/buckets/shelf/ai/text" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body["prompt"] != "analyze" || body["media_url"] != "https://cdn/x.jpg" {
			t.Errorf("Unexpected body %v", body)
		}
		_, _ = w.Write([]byte(`{"text":"GENRES:\n- Fiction"}`))
	})

	text, err := client.GenerateText(context.Background(), providers.Config{
		Prompt: "analyze",
		Image:  &providers.Image{URL: "https://cdn/x.jpg"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if text != "GENRES:\n- Fiction" {
		t.Errorf("Unexpected text %q", text)
	}
}
