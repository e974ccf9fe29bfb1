package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
)

// memcached rejects keys longer than this or containing spaces/control chars
const maxMemcacheKeyLen = 250

type memcacheClient interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Delete(key string) error
}

// NewMemcacheBackend returns a backend storing entries in memcached at addr.
// expiration is handed to memcached so stale items get reclaimed even when
// nobody reads them again; zero disables it.
func NewMemcacheBackend(addr string, expiration time.Duration) (Backend, error) {
	if addr == "" {
		return nil, errors.New("memcache address not provided")
	}

	return &memcacheBackend{
		mc:         memcache.New(addr),
		expiration: int32(expiration / time.Second),
	}, nil
}

type memcacheBackend struct {
	mc         memcacheClient
	expiration int32
}

func (b *memcacheBackend) Read(key string) (*Entry, error) {
	item, err := b.mc.Get(memcacheKey(key))
	if err == memcache.ErrCacheMiss {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "memcache get failed")
	}

	e := &Entry{}
	err = json.Unmarshal(item.Value, e)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode memcache item")
	}
	return e, nil
}

func (b *memcacheBackend) Write(key string, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "failed to encode cache entry")
	}

	err = b.mc.Set(&memcache.Item{
		Key:        memcacheKey(key),
		Value:      data,
		Expiration: b.expiration,
	})
	if err != nil {
		return errors.Wrap(err, "memcache set failed")
	}
	return nil
}

func (b *memcacheBackend) Delete(key string) error {
	err := b.mc.Delete(memcacheKey(key))
	if err != nil && err != memcache.ErrCacheMiss {
		return errors.Wrap(err, "memcache delete failed")
	}
	return nil
}

// memcacheKey maps an arbitrary cache key onto a key memcached accepts.
// Keys that are already valid are used verbatim.
func memcacheKey(key string) string {
	if len(key) <= maxMemcacheKeyLen && validMemcacheKey(key) {
		return key
	}
	sum := sha1.Sum([]byte(key))
	return "sha1_" + hex.EncodeToString(sum[:])
}

func validMemcacheKey(key string) bool {
	for i := 0; i < len(key); i++ {
		if key[i] <= ' ' || key[i] == 0x7f {
			return false
		}
	}
	return true
}
