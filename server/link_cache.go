package server

import (
	"sync"
	"time"
)

// LinkCache stores a parsed download request behind a short-lived link ID,
// unchanged from the teacher's timed_cache.go beyond the value type it
// holds.
type LinkCache struct {
	cache   sync.Map
	timeout *time.Duration
}

// NewLinkCache returns an empty cache whose entries expire after timeout,
// or never expire if timeout is nil.
func NewLinkCache(timeout *time.Duration) *LinkCache {
	return &LinkCache{timeout: timeout}
}

// linkEntry is what a link ID resolves to: enough information to rebuild
// the FileEntry list and stream the archive.
type linkEntry struct {
	Filename string
	S3Creds  s3Creds
	Entries  []sourceEntry
}

func (c *LinkCache) Get(linkID string) *linkEntry {
	result, ok := c.cache.Load(linkID)
	if !ok {
		return nil
	}
	entry := result.(linkEntry)
	return &entry
}

func (c *LinkCache) Set(linkID string, entry linkEntry) {
	c.cache.Store(linkID, entry)

	if c.timeout != nil {
		go func() {
			time.Sleep(*c.timeout)
			c.cache.Delete(linkID)
		}()
	}
}
