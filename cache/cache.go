package cache

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultTTL is the maximum age of a served entry
	DefaultTTL = 5 * time.Minute
	// DefaultPrefix namespaces the keys written by this client
	DefaultPrefix = "lainchan"
)

var (
	// ErrNotListable is returned by Purge when the backend cannot enumerate keys
	ErrNotListable = errors.New("cache backend cannot list its entries")
)

// New returns a new Cache instance on top of backend b.
// A ttl of 0 falls back to DefaultTTL, an empty prefix to DefaultPrefix.
func New(b Backend, ttl time.Duration, prefix string) (*Cache, error) {
	if b == nil {
		return nil, errors.New("no cache backend provided")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &Cache{
		b:      b,
		ttl:    ttl,
		prefix: prefix,
		now:    time.Now,
		m:      &sync.Mutex{},
	}, nil
}

// Cache represents a TTL bound key-value cache of JSON documents.
// Expired entries are only removed when looked up or purged.
type Cache struct {
	b      Backend
	ttl    time.Duration
	prefix string
	now    func() time.Time
	m      *sync.Mutex
}

// SetClock replaces the time source used to stamp and expire entries
func (c *Cache) SetClock(now func() time.Time) {
	c.m.Lock()
	defer c.m.Unlock()

	c.now = now
}

// Key derives the cache key of a resource URL
func (c *Cache) Key(url string) string {
	return c.prefix + "_" + url
}

// TTL returns the maximum age of a served entry
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the data stored under key.
// Missing and expired entries are reported as absent, expired ones are deleted.
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	c.m.Lock()
	defer c.m.Unlock()

	e, err := c.b.Read(key)
	if err == ErrEntryNotFound {
		return nil, false
	}
	if err != nil {
		log.Warnf("cache read of %s failed: %s", key, err)
		return nil, false
	}

	if e.Expired(c.now(), c.ttl) {
		log.Debugf("cache entry %s has expired", key)
		err = c.b.Delete(key)
		if err != nil {
			log.Warnf("failed to delete expired cache entry %s: %s", key, err)
		}
		return nil, false
	}

	return e.Data, true
}

// Set stores data under key with the current time, overwriting any prior entry
func (c *Cache) Set(key string, data json.RawMessage) {
	c.m.Lock()
	defer c.m.Unlock()

	err := c.b.Write(key, &Entry{
		Data:      data,
		Timestamp: JSONTime(c.now()),
	})
	if err != nil {
		log.Warnf("cache write of %s failed: %s", key, err)
	}
}
