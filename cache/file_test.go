package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempFileName(t *testing.T) {
	assert := assert.New(t)
	b := &fileBackend{filePath: "/tmp/lainchan.json"}

	result1 := b.tempFileName()
	assert.True(strings.HasPrefix(result1, "/tmp/lainchan.json."))
	assert.True(strings.HasSuffix(result1, ".tmp"))

	result2 := b.tempFileName()
	assert.NotEqual(result1, result2)
}

func TestFileBackendPersists(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "nested", "cache.json")

	b, err := NewFileBackend(path)
	require.NoError(t, err)
	ts := time.UnixMilli(1700000000000)
	assert.NoError(b.Write("lainchan_x", &Entry{Data: json.RawMessage(`[{"no":1}]`), Timestamp: JSONTime(ts)}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(`{"lainchan_x":{"data":[{"no":1}],"timestamp":1700000000000}}`, string(raw))

	reopened, err := NewFileBackend(path)
	require.NoError(t, err)
	e, err := reopened.Read("lainchan_x")
	require.NoError(t, err)
	assert.JSONEq(`[{"no":1}]`, string(e.Data))
	assert.True(ts.Equal(e.Timestamp.Time()))

	assert.NoError(reopened.Delete("lainchan_x"))
	_, err = reopened.Read("lainchan_x")
	assert.Equal(ErrEntryNotFound, err)

	matches, err := filepath.Glob(path + ".*.tmp")
	assert.NoError(err)
	assert.Empty(matches)
}

func TestFileBackendEmptyPath(t *testing.T) {
	_, err := NewFileBackend("")
	assert.Error(t, err)
}

func TestFileBackendCorrupt(t *testing.T) {
	contents := map[string]string{
		"not json":       "not json",
		"truncated":      `{"lainchan_x":{"data":[1],"timest`,
		"null timestamp": `{"lainchan_x":{"data":[1],"timestamp":null}}`,
	}

	for name, content := range contents {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			path := filepath.Join(t.TempDir(), "cache.json")
			require.NoError(t, os.WriteFile(path, []byte(content), filePerm))

			b, err := NewFileBackend(path)
			require.NoError(t, err)
			_, err = b.Read("lainchan_x")
			assert.Equal(ErrEntryNotFound, err)
			keys, err := b.(Lister).Keys()
			assert.NoError(err)
			assert.Empty(keys)

			moved, err := os.ReadFile(path + ".corrupt")
			assert.NoError(err)
			assert.Equal(content, string(moved))

			// the backend keeps working and persists new entries
			assert.NoError(b.Write("lainchan_y", &Entry{Data: json.RawMessage(`[2]`), Timestamp: JSONTime(time.Now())}))
			reopened, err := NewFileBackend(path)
			require.NoError(t, err)
			e, err := reopened.Read("lainchan_y")
			require.NoError(t, err)
			assert.JSONEq(`[2]`, string(e.Data))
		})
	}
}
