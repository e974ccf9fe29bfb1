package cache

import (
	"encoding/json"
	"strconv"
	"time"
)

// Entry represents a cached resource
type Entry struct {
	// Data is the JSON payload as returned by the remote API
	Data json.RawMessage `json:"data"`
	// Timestamp is the moment the entry was written
	Timestamp JSONTime `json:"timestamp"`
}

// Expired reports whether the entry is older than ttl at the given time.
// An entry exactly ttl old is still fresh.
func (e *Entry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.Timestamp.Time()) > ttl
}

// JSONTime is a time.Time wrapper that JSON (un)marshals into a unix timestamp
// in milliseconds
type JSONTime time.Time

// MarshalJSON is used to convert the timestamp to JSON
func (t JSONTime) MarshalJSON() ([]byte, error) {
	ms := time.Time(t).UnixMilli()
	// Negative time stamps make no sense for our use cases
	if ms < 0 {
		ms = 0
	}

	return []byte(strconv.FormatInt(ms, 10)), nil
}

// UnmarshalJSON is used to convert the timestamp from JSON
func (t *JSONTime) UnmarshalJSON(s []byte) error {
	q, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		return err
	}
	*(*time.Time)(t) = time.UnixMilli(q)

	return nil
}

// Time returns the JSON time as a time.Time instance
func (t JSONTime) Time() time.Time {
	return time.Time(t)
}

// String returns time as a formatted string
func (t JSONTime) String() string {
	return t.Time().String()
}
