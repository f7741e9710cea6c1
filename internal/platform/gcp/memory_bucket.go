package gcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MemoryBucketService keeps objects in a map keyed by category and key.
type MemoryBucketService struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string][]byte
}

func NewMemoryBucketService(baseURL string) *MemoryBucketService {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "memory://objects"
	}
	return &MemoryBucketService{baseURL: baseURL, objects: map[string][]byte{}}
}

func memoryKey(category BucketCategory, key string) string {
	return string(category) + "/" + strings.TrimLeft(key, "/")
}

func (m *MemoryBucketService) UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) (StoredObject, error) {
	if strings.TrimSpace(key) == "" {
		return StoredObject{}, fmt.Errorf("object key required")
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, file)
	if err != nil {
		return StoredObject{}, err
	}
	m.mu.Lock()
	m.objects[memoryKey(category, key)] = buf.Bytes()
	m.mu.Unlock()
	return StoredObject{Key: key, URL: m.GetPublicURL(category, key), Size: n, ContentType: contentTypeForKey(key)}, nil
}

func (m *MemoryBucketService) DeleteFile(ctx context.Context, category BucketCategory, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memoryKey(category, key)
	if _, ok := m.objects[k]; !ok {
		return fmt.Errorf("object %q not found", k)
	}
	delete(m.objects, k)
	return nil
}

func (m *MemoryBucketService) GetPublicURL(category BucketCategory, key string) string {
	return m.baseURL + "/" + memoryKey(category, key)
}

// Object returns a copy of the stored bytes.
func (m *MemoryBucketService) Object(category BucketCategory, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[memoryKey(category, key)]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}
