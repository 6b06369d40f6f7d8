package api

import (
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/juju/ratelimit"
)

// DefaultLimits are the per-window request budgets per endpoint key.
var DefaultLimits = map[string]int{
	"/api/activities/recent": 30,
	"/api/notes/favorites":   30,
	"/api/notes/search":      60,
	"/api/notes":             100,
	"/api/notes/stats":       30,
	"/auth/signin":           10,
	"/auth/signup":           5,
}

const DefaultLimit = 60

var noteIDPath = regexp.MustCompile(`^/api/notes/\d+`)

// EndpointKey normalizes a request path (or absolute URL) into the key used
// for request counting and cache TTLs.
func EndpointKey(raw string) string {
	path := raw
	if strings.Contains(raw, "://") {
		if u, err := url.Parse(raw); err == nil {
			path = u.Path
		}
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	switch {
	case strings.HasPrefix(path, "/api/notes/"):
		switch {
		case noteIDPath.MatchString(path):
			return "/api/notes/{id}"
		case strings.Contains(path, "/favorites"):
			return "/api/notes/favorites"
		case strings.Contains(path, "/stats"):
			return "/api/notes/stats"
		case strings.Contains(path, "/search"):
			return "/api/notes/search"
		}
		return "/api/notes"
	case strings.HasPrefix(path, "/api/activities/"):
		if strings.Contains(path, "/recent") {
			return "/api/activities/recent"
		}
		return "/api/activities"
	case strings.HasPrefix(path, "/auth/"):
		switch {
		case strings.Contains(path, "/signin"):
			return "/auth/signin"
		case strings.Contains(path, "/signup"):
			return "/auth/signup"
		}
		return "/auth"
	}
	return path
}

// Limiter keeps one token bucket per endpoint key and counts every request
// that was let through.
type Limiter struct {
	mu           sync.Mutex
	window       time.Duration
	defaultLimit int
	limits       map[string]int
	buckets      map[string]*ratelimit.Bucket
	counts       map[string]int64
}

func NewLimiter(window time.Duration, defaultLimit int, limits map[string]int) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	merged := make(map[string]int, len(DefaultLimits)+len(limits))
	for k, v := range DefaultLimits {
		merged[k] = v
	}
	for k, v := range limits {
		merged[k] = v
	}
	return &Limiter{
		window:       window,
		defaultLimit: defaultLimit,
		limits:       merged,
		buckets:      make(map[string]*ratelimit.Bucket),
		counts:       make(map[string]int64),
	}
}

func (l *Limiter) limit(key string) int64 {
	if v, ok := l.limits[key]; ok && v > 0 {
		return int64(v)
	}
	return int64(l.defaultLimit)
}

func (l *Limiter) bucket(key string) *ratelimit.Bucket {
	b, ok := l.buckets[key]
	if !ok {
		n := l.limit(key)
		// the whole budget comes back once per window
		b = ratelimit.NewBucketWithQuantum(l.window, n, n)
		l.buckets[key] = b
	}
	return b
}

// Allow records a request for key, or reports false when the budget is spent.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.bucket(key).TakeAvailable(1) == 0 {
		return false
	}
	l.counts[key]++
	return true
}

// Penalize spends what is left of the window for key, used after the
// server answered 429.
func (l *Limiter) Penalize(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := l.bucket(key)
	if n := b.Available(); n > 0 {
		b.TakeAvailable(n)
	}
}

// Remaining returns the budget left for key in the current window.
func (l *Limiter) Remaining(key string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bucket(key).Available()
}

// Counters returns the number of requests sent per endpoint key.
func (l *Limiter) Counters() map[string]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]int64, len(l.counts))
	for k, v := range l.counts {
		out[k] = v
	}
	return out
}

// Reset forgets all buckets and counters.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets = make(map[string]*ratelimit.Bucket)
	l.counts = make(map[string]int64)
}
