package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *FileCache {
	t.Helper()
	c, err := NewFileCache("builds", WithBaseDir(filepath.Join(t.TempDir(), "cache")))
	require.NoError(t, err)
	return c
}

func TestFileCache_GetSet(t *testing.T) {
	c := newTestCache(t)

	_, ok, err := c.Get("system-tests/12")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set("system-tests/12", []byte(`{"number":12}`)))

	data, ok, err := c.Get("system-tests/12")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"number":12}`, string(data))
}

func TestFileCache_GetOrFetch(t *testing.T) {
	c := newTestCache(t)
	calls := 0
	fetch := func() ([]byte, bool, error) {
		calls++
		return []byte("payload"), true, nil
	}

	for i := 0; i < 3; i++ {
		data, err := c.GetOrFetch("key", fetch)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))
	}
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	_, err := c.GetOrFetch("other", func() ([]byte, bool, error) { return nil, true, boom })
	assert.ErrorIs(t, err, boom)
	_, ok, err := c.Get("other")
	require.NoError(t, err)
	assert.False(t, ok, "failed fetches are not cached")
}

func TestFileCache_GetOrFetch_NotCacheable(t *testing.T) {
	c := newTestCache(t)
	calls := 0
	fetch := func() ([]byte, bool, error) {
		calls++
		return []byte("running"), false, nil
	}

	for i := 0; i < 2; i++ {
		data, err := c.GetOrFetch("key", fetch)
		require.NoError(t, err)
		assert.Equal(t, "running", string(data))
	}
	assert.Equal(t, 2, calls)

	_, ok, err := c.Get("key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileCache_Clear(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Set("a", []byte("1")))
	require.NoError(t, c.Set("b", []byte("2")))

	require.NoError(t, c.Clear())

	for _, key := range []string{"a", "b"} {
		_, ok, err := c.Get(key)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	info, err := os.Stat(c.BaseDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewFileCache_XDGLocation(t *testing.T) {
	c, err := NewFileCache("builds", WithBaseDir(t.TempDir()))
	require.NoError(t, err)
	assert.NotEmpty(t, c.BaseDir())
}

func TestKeyToFilename(t *testing.T) {
	assert.Equal(t, keyToFilename("job/1"), keyToFilename("job/1"))
	assert.NotEqual(t, keyToFilename("job/1"), keyToFilename("job/2"))
	assert.Equal(t, ".json", filepath.Ext(keyToFilename("../../etc/passwd")))
}
