package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPurge(t *testing.T) {
	assert := assert.New(t)
	now := time.Now()
	b := NewMemoryBackend()
	entries := map[string]time.Time{
		"1": now,
		"2": now.Add(10 * time.Minute),
		// should expire
		"3": now.Add(-15 * time.Minute),
		// should expire
		"4": time.Time{},
		// should expire
		"5": now.Add(-301 * time.Second),
		"6": now.Add(-299 * time.Second),
	}
	for k, ts := range entries {
		b.Write(k, &Entry{Data: json.RawMessage(`[1]`), Timestamp: JSONTime(ts)})
	}
	c := newTestCache(t, b, now)

	purged, err := c.Purge()
	assert.NoError(err)
	assert.Equal(3, purged)

	keys, err := b.(Lister).Keys()
	assert.NoError(err)
	assert.Equal([]string{"1", "2", "6"}, keys)
}

func TestPurgeNotListable(t *testing.T) {
	c := newTestCache(t, &memcacheBackend{mc: newFakeMemcache()}, time.Now())

	_, err := c.Purge()
	assert.Equal(t, ErrNotListable, err)
}
