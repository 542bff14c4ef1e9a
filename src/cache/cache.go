// Package cache provides a file-based cache for build server responses.
//
// Entries live in the XDG cache directory and are written atomically. A lock file
// next to the entries serializes writers across concurrent clee processes.
package cache

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"
)

const (
	DefaultDirPerm  = 0o755
	DefaultFilePerm = 0o644

	lockTimeout    = 5 * time.Second
	lockRetryDelay = 10 * time.Millisecond
)

var (
	ErrCacheLocked = errors.New("cache is locked by another process")
)

// FileCache stores opaque byte payloads under string keys.
type FileCache struct {
	baseDir string
	lock    *flock.Flock
}

// Option configures a FileCache.
type Option func(*FileCache)

// WithBaseDir overrides the XDG location. Mostly useful in tests.
func WithBaseDir(dir string) Option {
	return func(c *FileCache) {
		c.baseDir = dir
	}
}

// NewFileCache creates a cache under $XDG_CACHE_HOME/clee/<subpath>.
func NewFileCache(subpath string, opts ...Option) (*FileCache, error) {
	c := &FileCache{
		baseDir: filepath.Join(xdg.CacheHome, "clee", subpath),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := os.MkdirAll(c.baseDir, DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", c.baseDir, err)
	}
	c.lock = flock.New(filepath.Join(c.baseDir, ".lock"))

	return c, nil
}

// BaseDir returns the directory holding the entries.
func (c *FileCache) BaseDir() string {
	return c.baseDir
}

// keyToFilename hashes the key so any key maps to a valid file name.
func keyToFilename(key string) string {
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x.json", hash[:12])
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.baseDir, keyToFilename(key))
}

func (c *FileCache) withLock(shared bool, fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	var locked bool
	var err error
	if shared {
		locked, err = c.lock.TryRLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = c.lock.TryLockContext(ctx, lockRetryDelay)
	}
	if err != nil || !locked {
		return errors.Join(ErrCacheLocked, err)
	}
	defer c.lock.Unlock()

	return fn()
}

// Get returns (content, true, nil) on a hit and (nil, false, nil) on a miss.
func (c *FileCache) Get(key string) ([]byte, bool, error) {
	var content []byte
	var exists bool

	err := c.withLock(true, func() error {
		data, err := os.ReadFile(c.path(key))
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
		content = data
		exists = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry %q: %w", key, err)
	}

	return content, exists, nil
}

// Set stores content for a key atomically.
func (c *FileCache) Set(key string, content []byte) error {
	return c.withLock(false, func() error {
		if err := renameio.WriteFile(c.path(key), content, DefaultFilePerm); err != nil {
			return fmt.Errorf("failed to write cache entry %q: %w", key, err)
		}
		return nil
	})
}

// GetOrFetch returns the cached content for key, or calls fetch. fetch reports
// whether its content may be cached; only then is it stored. A failed cache
// write still returns the fetched content.
func (c *FileCache) GetOrFetch(key string, fetch func() ([]byte, bool, error)) ([]byte, error) {
	content, exists, err := c.Get(key)
	if err != nil {
		return nil, err
	}
	if exists {
		return content, nil
	}

	content, cacheable, err := fetch()
	if err != nil {
		return nil, err
	}
	if cacheable {
		_ = c.Set(key, content)
	}

	return content, nil
}

// Clear removes every entry. The directory and its lock file stay in place.
func (c *FileCache) Clear() error {
	return c.withLock(false, func() error {
		entries, err := os.ReadDir(c.baseDir)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to list cache directory: %w", err)
		}

		for _, entry := range entries {
			if entry.IsDir() || entry.Name() == ".lock" {
				continue
			}
			if err := os.Remove(filepath.Join(c.baseDir, entry.Name())); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove cache entry %s: %w", entry.Name(), err)
			}
		}
		return nil
	})
}
