package cache

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Purge deletes every expired entry and returns how many were removed.
// It is never run in the background; callers invoke it explicitly.
func (c *Cache) Purge() (int, error) {
	lister, ok := c.b.(Lister)
	if !ok {
		return 0, ErrNotListable
	}

	c.m.Lock()
	defer c.m.Unlock()

	log.Debug("Started purging expired cache")
	keys, err := lister.Keys()
	if err != nil {
		return 0, errors.Wrap(err, "failed to list cache entries")
	}

	now := c.now()
	purged := 0
	for _, key := range keys {
		e, err := c.b.Read(key)
		if err == ErrEntryNotFound {
			continue
		}
		if err != nil {
			log.Error(err)
			continue
		}
		if !e.Expired(now, c.ttl) {
			continue
		}
		log.Debugf("Entry %s has expired", key)
		err = c.b.Delete(key)
		if err != nil {
			log.Errorf("Failed to delete entry %s: %s", key, err)
			continue
		}
		purged++
	}
	log.Debug("Finished purging expired cache")

	return purged, nil
}
