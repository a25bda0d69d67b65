package blob

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"
)

type object struct {
	data []byte
	info Info
}

// MemoryStore holds objects in process. URLs point at the public blob route.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]object
	baseURL string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{objects: make(map[string]object), baseURL: baseURL}
}

func (m *MemoryStore) Driver() Driver { return DriverMemory }

func (m *MemoryStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error) {
	key, err := CleanKey(key)
	if err != nil {
		return Info{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  contentType,
		LastModified: time.Now().UTC(),
	}
	m.mu.Lock()
	m.objects[key] = object{data: data, info: info}
	m.mu.Unlock()
	return info, nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	key, err := CleanKey(key)
	if err != nil {
		return Info{}, nil, err
	}
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return Info{}, nil, ErrNotFound
	}
	return obj.info, io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *MemoryStore) URL(ctx context.Context, key string) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	return m.baseURL + "/" + key, nil
}
