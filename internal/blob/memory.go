package blob

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/lifetrack-app/lifetrack-backend/internal/apperr"
)

// MemoryStore holds blobs in a map. Safe for concurrent use; intended
// for tests and for running without Cloudinary credentials.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Upload(_ context.Context, r io.Reader, folder string) (UploadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return UploadResult{}, apperr.External("read upload", err)
	}

	id := folder + "/" + uuid.NewString()

	s.mu.Lock()
	s.blobs[id] = data
	s.mu.Unlock()

	return UploadResult{
		ID:   id,
		URL:  fmt.Sprintf("memory://%s", id),
		Size: int64(len(data)),
	}, nil
}

func (s *MemoryStore) Delete(_ context.Context, blobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, blobID)
	return nil
}

// Has reports whether a blob is currently stored. Test helper.
func (s *MemoryStore) Has(blobID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[blobID]
	return ok
}

// Len returns the number of stored blobs. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
