package cache

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

var (
	// ErrEntryNotFound represents an error where a cache entry was not found
	ErrEntryNotFound = errors.New("cache entry not found")
)

// Backend stores cache entries by key.
// Read returns ErrEntryNotFound when the key is unknown.
type Backend interface {
	Read(key string) (*Entry, error)
	Write(key string, e *Entry) error
	Delete(key string) error
}

// Lister is implemented by backends that can enumerate their keys
type Lister interface {
	Keys() ([]string, error)
}

// NewMemoryBackend returns a backend that keeps entries in process memory
func NewMemoryBackend() Backend {
	return &memoryBackend{
		data: make(map[string]*Entry),
		m:    &sync.Mutex{},
	}
}

type memoryBackend struct {
	data map[string]*Entry
	m    *sync.Mutex
}

func (b *memoryBackend) Read(key string) (*Entry, error) {
	b.m.Lock()
	defer b.m.Unlock()

	e, ok := b.data[key]
	if !ok {
		return nil, ErrEntryNotFound
	}
	c := *e
	return &c, nil
}

func (b *memoryBackend) Write(key string, e *Entry) error {
	b.m.Lock()
	defer b.m.Unlock()

	c := *e
	b.data[key] = &c
	return nil
}

func (b *memoryBackend) Delete(key string) error {
	b.m.Lock()
	defer b.m.Unlock()

	delete(b.data, key)
	return nil
}

func (b *memoryBackend) Keys() ([]string, error) {
	b.m.Lock()
	defer b.m.Unlock()

	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
