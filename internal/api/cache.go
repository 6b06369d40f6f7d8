package api

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// DefaultCacheTTLs are the response lifetimes per endpoint key.
var DefaultCacheTTLs = map[string]time.Duration{
	"/api/notes/stats":       30 * time.Second,
	"/api/activities/recent": 60 * time.Second,
	"/api/notes/favorites":   30 * time.Second,
	"/api/notes":             10 * time.Second,
}

const (
	DefaultCacheTTL        = 5 * time.Second
	DefaultCacheMaxEntries = 50
)

// related lists extra prefixes to drop when a resource is mutated.
var related = map[string][]string{
	"/api/notes":   {"/api/activities"},
	"/api/profile": {"/auth/user"},
}

type cacheEntry struct {
	key      string
	endpoint string
	data     []byte
	stored   time.Time
}

// responseCache is a small insertion ordered GET response cache.
type responseCache struct {
	mu         sync.Mutex
	maxEntries int
	defaultTTL time.Duration
	ttls       map[string]time.Duration
	order      *list.List
	entries    map[string]*list.Element
	now        func() time.Time
}

func newResponseCache(maxEntries int, defaultTTL time.Duration, ttls map[string]time.Duration) *responseCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultCacheTTL
	}
	merged := make(map[string]time.Duration, len(DefaultCacheTTLs)+len(ttls))
	for k, v := range DefaultCacheTTLs {
		merged[k] = v
	}
	for k, v := range ttls {
		merged[k] = v
	}
	return &responseCache{
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
		ttls:       merged,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
		now:        time.Now,
	}
}

func (c *responseCache) ttl(endpoint string) time.Duration {
	if v, ok := c.ttls[endpoint]; ok {
		return v
	}
	return c.defaultTTL
}

func (c *responseCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if c.now().Sub(entry.stored) > c.ttl(entry.endpoint) {
		c.order.Remove(el)
		delete(c.entries, key)
		return nil, false
	}
	return entry.data, true
}

func (c *responseCache) set(key, endpoint string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
	}
	c.entries[key] = c.order.PushBack(&cacheEntry{
		key:      key,
		endpoint: endpoint,
		data:     data,
		stored:   c.now(),
	})

	for c.order.Len() > c.maxEntries {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// invalidate drops every entry under the resource the mutated path belongs to.
func (c *responseCache) invalidate(path string) {
	prefix := resourcePrefix(path)
	prefixes := append([]string{prefix}, related[prefix]...)

	c.mu.Lock()
	defer c.mu.Unlock()

	for el := c.order.Front(); el != nil; {
		next := el.Next()
		entry := el.Value.(*cacheEntry)
		for _, p := range prefixes {
			if strings.HasPrefix(entry.key, p) {
				c.order.Remove(el)
				delete(c.entries, entry.key)
				break
			}
		}
		el = next
	}
}

func (c *responseCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
}

func (c *responseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// resourcePrefix returns "/api/<resource>" for API paths and the first
// segment otherwise.
func resourcePrefix(path string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "api" {
		return "/api/" + parts[1]
	}
	if len(parts) > 0 && parts[0] != "" {
		return "/" + parts[0]
	}
	return "/"
}
