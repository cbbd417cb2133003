package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"
)

// MemoryStorage keeps objects in memory. It is useful for tests and for
// running without an object store; its download URLs are not served.
// This implementation is safe for concurrent use.
type MemoryStorage struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]MemoryObject
}

// MemoryObject is a stored object.
type MemoryObject struct {
	Data        []byte
	ContentType string
}

// NewMemoryStorage creates an empty store whose URLs start with baseURL.
func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{baseURL: baseURL, objects: make(map[string]MemoryObject)}
}

func (m *MemoryStorage) PutObject(ctx context.Context, objectKey string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectKey] = MemoryObject{Data: data, ContentType: contentType}
	return nil
}

func (m *MemoryStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[objectKey]; !ok {
		return "", ErrObjectNotFound
	}
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	q := url.Values{"expires": {fmt.Sprint(int(expires.Seconds()))}}
	return m.baseURL + "/" + url.PathEscape(objectKey) + "?" + q.Encode(), nil
}

func (m *MemoryStorage) DeleteObject(ctx context.Context, objectKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[objectKey]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, objectKey)
	return nil
}

// Object returns the stored object under objectKey.
func (m *MemoryStorage) Object(objectKey string) (MemoryObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[objectKey]
	return obj, ok
}
