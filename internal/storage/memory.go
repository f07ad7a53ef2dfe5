package storage

import (
	"context"
	"slices"
	"sync"

	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
)

// Object is a stored object as seen by the memory driver.
type Object struct {
	ContentType string
	Data        []byte
}

// Memory keeps objects in process memory. Used in development and tests.
type Memory struct {
	mu        sync.RWMutex
	publicURL string
	objects   map[string]map[string]Object
}

// NewMemory creates an empty in-memory store.
func NewMemory(publicURL string) *Memory {
	if publicURL == "" {
		publicURL = "http://localhost/storage"
	}
	return &Memory{publicURL: publicURL, objects: make(map[string]map[string]Object)}
}

func (m *Memory) Upload(ctx context.Context, bucket, key, contentType string, data []byte) error {
	if err := validateKey(bucket, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.objects[bucket][key]; exists {
		return domainerrors.Conflictf("object %s/%s already exists", bucket, key)
	}
	if m.objects[bucket] == nil {
		m.objects[bucket] = make(map[string]Object)
	}
	m.objects[bucket][key] = Object{ContentType: contentType, Data: slices.Clone(data)}
	return nil
}

func (m *Memory) Remove(ctx context.Context, bucket string, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.objects[bucket], key)
	}
	return nil
}

func (m *Memory) PublicURL(bucket, key string) string {
	return publicURL(m.publicURL, bucket, key)
}

// Get returns a stored object.
func (m *Memory) Get(bucket, key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[bucket][key]
	return obj, ok
}

// Keys lists the keys stored in bucket in lexical order.
func (m *Memory) Keys(bucket string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects[bucket]))
	for k := range m.objects[bucket] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
