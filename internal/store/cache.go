package store

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileCache stores opaque payloads as files named by key. Entries older than
// TTL are treated as missing; a zero TTL never expires.
type FileCache struct {
	Dir string
	TTL time.Duration
	Now func() time.Time
}

func NewFileCache(dir string, ttl time.Duration) *FileCache {
	return &FileCache{Dir: dir, TTL: ttl, Now: time.Now}
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns the cached payload for key if present and fresh.
func (c *FileCache) Get(key string) ([]byte, bool) {
	path := c.path(key)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if c.TTL > 0 {
		now := time.Now
		if c.Now != nil {
			now = c.Now
		}
		if now().Sub(info.ModTime()) >= c.TTL {
			return nil, false
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put writes data under key, replacing any previous entry.
func (c *FileCache) Put(key string, data []byte) error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.Dir, ".cache.*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path(key))
}

// Invalidate removes the entry for key, if any.
func (c *FileCache) Invalidate(key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// SHA256Key returns the hex SHA-256 of s, used for endpoint cache keys.
func SHA256Key(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// MD5Key returns the hex MD5 of s, used for per-link cache keys.
func MD5Key(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
