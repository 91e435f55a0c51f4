package storage

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/bookshelf/internal/models"
)

// MemoryStore keeps media in process memory. It is meant for local
// development and tests; nothing survives a restart.
type MemoryStore struct {
	baseURL string
	media   map[string]*models.StoredMedia
	data    map[string][]byte
	mu      sync.RWMutex
	now     func() time.Time
}

// NewMemoryStore returns an empty store whose URLs start with baseURL
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		media:   make(map[string]*models.StoredMedia),
		data:    make(map[string][]byte),
		now:     time.Now,
	}
}

// Upload stores a copy of the file
func (s *MemoryStore) Upload(ctx context.Context, file *models.UploadedFile, folder string) (*models.StoredMedia, error) {
	if file == nil || len(file.Data) == 0 {
		return nil, ErrEmptyFile
	}

	id := uuid.NewString()
	name := id + strings.ToLower(path.Ext(file.Filename))
	key := name
	if folder != "" {
		key = folder + "/" + name
	}

	media := &models.StoredMedia{
		ID:           id,
		Name:         name,
		OriginalName: file.Filename,
		Size:         int64(len(file.Data)),
		Type:         file.MIMEType,
		Bucket:       "memory",
		URL:          s.baseURL + "/" + key,
		Folder:       folder,
		CreatedAt:    s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.media[id] = media
	s.data[id] = append([]byte(nil), file.Data...)

	copied := *media
	return &copied, nil
}

// List returns the media in folder, newest first
func (s *MemoryStore) List(ctx context.Context, folder string) ([]models.StoredMedia, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.StoredMedia, 0, len(s.media))
	for _, m := range s.media {
		if folder != "" && m.Folder != folder {
			continue
		}
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Data returns the stored bytes for id
func (s *MemoryStore) Data(id string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[id]
	return data, ok
}
