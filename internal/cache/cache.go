// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache implements the Parsed-Content Cache (C6 in SPEC_FULL.md
// §4.6): a memory-tier LRU backed by a disk-tier JSON file per
// publication, with hash-invalidation against the current PDF's SHA-256.
// The disk layout (one JSON file per key under a cache root, atomic
// write) is adapted from the teacher's internal/cache.LLMCache; the
// memory tier uses hashicorp/golang-lru, the bounded-cache library
// already present elsewhere in the retrieved corpus.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/meshintel/geo-engine/pkg/types"
)

// Cache is a read-through memory+disk store for ExtractedContent, keyed
// on PublicationID. A read whose stored pdf_sha256 does not match the
// caller-supplied current hash is treated as a miss: the invariant is
// that the cache never returns content stale relative to the on-disk PDF.
type Cache struct {
	mu    sync.Mutex
	mem   *lru.Cache[types.PublicationID, types.ExtractedContent]
	root  string
}

// New builds a Cache with the given memory tier size (default 1000 if
// size <= 0) and disk root directory.
func New(size int, root string) (*Cache, error) {
	if size <= 0 {
		size = 1000
	}
	mem, err := lru.New[types.PublicationID, types.ExtractedContent](size)
	if err != nil {
		return nil, err
	}
	return &Cache{mem: mem, root: root}, nil
}

// Get returns the cached ExtractedContent for pubID if present and its
// stored hash matches currentSHA256, else (zero value, false).
func (c *Cache) Get(pubID types.PublicationID, currentSHA256 string) (types.ExtractedContent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if content, ok := c.mem.Get(pubID); ok {
		if content.PDFSHA256 == currentSHA256 {
			return content, true
		}
		c.mem.Remove(pubID)
		return types.ExtractedContent{}, false
	}

	content, ok := c.readDisk(pubID)
	if !ok || content.PDFSHA256 != currentSHA256 {
		return types.ExtractedContent{}, false
	}
	c.mem.Add(pubID, content)
	return content, true
}

// Put stores content in both tiers.
func (c *Cache) Put(content types.ExtractedContent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mem.Add(content.PublicationID, content)
	return c.writeDisk(content)
}

func (c *Cache) diskPath(pubID types.PublicationID) string {
	return filepath.Join(c.root, string(pubID)+".json")
}

func (c *Cache) readDisk(pubID types.PublicationID) (types.ExtractedContent, bool) {
	data, err := os.ReadFile(c.diskPath(pubID))
	if err != nil {
		return types.ExtractedContent{}, false
	}
	var content types.ExtractedContent
	if err := json.Unmarshal(data, &content); err != nil {
		return types.ExtractedContent{}, false
	}
	return content, true
}

func (c *Cache) writeDisk(content types.ExtractedContent) error {
	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(content)
	if err != nil {
		return err
	}

	dest := c.diskPath(content.PublicationID)
	tmp, err := os.CreateTemp(c.root, ".cache-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return writeErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return closeErr
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
