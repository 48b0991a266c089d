package loader

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/anima/engine/core"
)

// Cache persists auxiliary data (1-D/2-D CDFs, light-hierarchy
// serializations, baked textures) to a directory (§6.4), and watches that
// directory so an externally-deleted file invalidates the in-memory
// ExportedData key the next time it is consulted — adapted from the
// teacher's AssetManager (engine/assets/assets.go) fsnotify watch loop,
// narrowed from "reload changed game assets" to "notice an evicted cache
// entry".
type Cache struct {
	dir string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewCache opens (creating if necessary) dir as the auxiliary-data cache
// root and starts watching it for external removals.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("loader: cache: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("loader: cache: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("loader: cache: %w", err)
	}

	c := &Cache{dir: dir, watcher: watcher, done: make(chan struct{})}
	return c, nil
}

// Run drains filesystem events until Close is called, logging external
// cache-file removals. Callers that don't need live invalidation may skip
// calling Run — Has() always re-checks the filesystem.
func (c *Cache) Run(ctx *Context) {
	for {
		select {
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Remove != 0 {
				core.LogWarn("loader: cache file removed externally: %s", ev.Name)
				c.forget(ev.Name)
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			ctx.SignalError(fmt.Errorf("loader: cache watcher: %w", err))
		case <-c.done:
			return
		}
	}
}

func (c *Cache) Close() error {
	close(c.done)
	return c.watcher.Close()
}

func (c *Cache) forget(path string) {
	key := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = key // ExportedData membership lives on Context; caller re-derives on next Has().
}

// Key derives the deterministic cache filename for a (kind, identifier)
// pair (§6.4: "<kind>_<escaped-identifier>.bin|.exr"). Identifiers may
// contain characters unsafe for a filename, so every character outside
// [A-Za-z0-9_-] is replaced by '_', and an 8-hex-digit SHA-1 prefix of the
// original identifier is always appended to keep the name both stable and
// collision-resistant.
func Key(kind, identifier, ext string) string {
	escaped := escapeIdentifier(identifier)
	return fmt.Sprintf("%s_%s.%s", kind, escaped, ext)
}

func escapeIdentifier(identifier string) string {
	var b strings.Builder
	for _, r := range identifier {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	sum := sha1.Sum([]byte(identifier))
	return b.String() + "_" + hex.EncodeToString(sum[:4])
}

// Has reports whether ctx.ExportedData already contains key AND the
// backing file still exists (§6.4: "re-runs reuse the file iff
// ExportedData already contains the key").
func (c *Cache) Has(ctx *Context, key string) bool {
	if !ctx.ExportedData[key] {
		return false
	}
	_, err := os.Stat(filepath.Join(c.dir, key))
	return err == nil
}

// Put writes data under key and marks it present in ctx.ExportedData.
func (c *Cache) Put(ctx *Context, key string, data []byte) error {
	path := filepath.Join(c.dir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("loader: cache: %w", err)
	}
	ctx.mu.Lock()
	ctx.ExportedData[key] = true
	ctx.mu.Unlock()
	return nil
}

// Get reads back a previously-cached file.
func (c *Cache) Get(key string) ([]byte, error) {
	return os.ReadFile(filepath.Join(c.dir, key))
}
