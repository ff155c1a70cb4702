package reader

import (
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of results kept by a CachedReader.
const DefaultCacheSize = 512

type cacheKey struct {
	path     string
	maxBytes int64
	size     int64
	modNanos int64
}

// CachedReader memoizes results for files whose size and modification time
// have not changed. Composite reports walk the same tree several times and
// share one CachedReader.
type CachedReader struct {
	next  Reader
	cache *lru.Cache[cacheKey, Result]
}

// NewCachedReader wraps next with an LRU of the given size. A non-positive
// size uses DefaultCacheSize.
func NewCachedReader(next Reader, size int) (*CachedReader, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, Result](size)
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = FileReader{}
	}
	return &CachedReader{next: next, cache: cache}, nil
}

// ReadText implements Reader.
func (c *CachedReader) ReadText(path string, maxBytes int64) Result {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	info, err := os.Stat(path)
	if err != nil {
		return unreadable(err)
	}
	key := cacheKey{
		path:     path,
		maxBytes: maxBytes,
		size:     info.Size(),
		modNanos: info.ModTime().UnixNano(),
	}
	if res, ok := c.cache.Get(key); ok {
		return res
	}
	res := c.next.ReadText(path, maxBytes)
	if res.Skip != SkipUnreadable {
		c.cache.Add(key, res)
	}
	return res
}

// Len returns the number of cached results.
func (c *CachedReader) Len() int {
	return c.cache.Len()
}
