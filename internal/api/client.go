package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "http://localhost:5000"
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 16 << 20
)

// Config configures a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	RateWindow   time.Duration
	DefaultLimit int
	Limits       map[string]int

	CacheDisabled   bool
	CacheMaxEntries int
	CacheDefaultTTL time.Duration
	CacheTTLs       map[string]time.Duration
}

// Credentials supplies the bearer token and is cleared on 401.
type Credentials interface {
	ValidAccessToken(ctx context.Context) (string, bool)
	RemoveAccessToken(ctx context.Context) error
	RemoveUserInfo(ctx context.Context) error
}

// Client talks to the notes REST backend. One Client serves one signed-in
// user; its cache and counters are not shared.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	creds     Credentials
	limiter   *Limiter
	cache     *responseCache
	logger    *zap.Logger

	Auth       *AuthService
	Notes      *NotesService
	Activities *ActivitiesService
	Profile    *ProfileService
	Admin      *AdminService
}

func New(cfg Config, creds Credentials, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "notes-bot"
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		creds:     creds,
		limiter:   NewLimiter(cfg.RateWindow, cfg.DefaultLimit, cfg.Limits),
		logger:    logger,
	}
	if !cfg.CacheDisabled {
		c.cache = newResponseCache(cfg.CacheMaxEntries, cfg.CacheDefaultTTL, cfg.CacheTTLs)
	}

	c.Auth = &AuthService{client: c}
	c.Notes = &NotesService{client: c}
	c.Activities = &ActivitiesService{client: c}
	c.Profile = &ProfileService{client: c}
	c.Admin = &AdminService{client: c}
	return c
}

type ctxKey int

const noCacheKey ctxKey = iota

// NoCache returns a context whose GET requests skip the response cache.
func NoCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, noCacheKey, true)
}

func skipCache(ctx context.Context) bool {
	v, _ := ctx.Value(noCacheKey).(bool)
	return v
}

// Counters returns the number of requests sent per endpoint key.
func (c *Client) Counters() map[string]int64 {
	return c.limiter.Counters()
}

// Remaining returns the client-side budget left for the endpoint of path.
func (c *Client) Remaining(path string) int64 {
	return c.limiter.Remaining(EndpointKey(path))
}

// ResetCache drops all cached responses.
func (c *Client) ResetCache() {
	if c.cache != nil {
		c.cache.clear()
	}
}

type call struct {
	method      string
	path        string
	query       url.Values
	body        any
	raw         io.Reader
	contentType string
	timeout     time.Duration
	out         any
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, call{method: http.MethodGet, path: path, query: query, out: out})
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.do(ctx, call{method: method, path: path, query: query, body: body, out: out})
}

func (c *Client) do(ctx context.Context, cl call) error {
	endpoint := EndpointKey(cl.path)
	cacheKey := cl.path
	if len(cl.query) > 0 {
		cacheKey += "?" + cl.query.Encode()
	}

	cacheable := cl.method == http.MethodGet && c.cache != nil
	if cacheable && !skipCache(ctx) {
		if data, ok := c.cache.get(cacheKey); ok {
			c.logger.Debug("Serving cached response", zap.String("key", cacheKey))
			return decode(data, cl.out)
		}
	}

	if !c.limiter.Allow(endpoint) {
		c.logger.Warn("Client-side request limit reached", zap.String("endpoint", endpoint))
		return fmt.Errorf("%w for %s", ErrThrottled, endpoint)
	}

	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return err
	}
	if cl.timeout > 0 {
		tctx, cancel := context.WithTimeout(ctx, cl.timeout)
		defer cancel()
		req = req.WithContext(tctx)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("Request failed",
			zap.Error(err),
			zap.String("method", cl.method),
			zap.String("path", cl.path))
		return fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", cl.path, err)
	}

	c.logger.Debug("Request completed",
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", req.Header.Get("X-Request-ID")))

	if resp.StatusCode >= http.StatusBadRequest {
		return c.handleError(ctx, endpoint, resp, data)
	}

	if cacheable {
		c.cache.set(cacheKey, endpoint, data)
	} else if c.cache != nil {
		c.cache.invalidate(cl.path)
	}

	return decode(data, cl.out)
}

func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var body io.Reader
	contentType := cl.contentType
	switch {
	case cl.raw != nil:
		body = cl.raw
	case cl.body != nil:
		buf, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", cl.path, err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", cl.path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.New().String())

	if c.creds != nil {
		if token, ok := c.creds.ValidAccessToken(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) handleError(ctx context.Context, endpoint string, resp *http.Response, data []byte) error {
	apiErr := parseError(resp, data)

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		c.limiter.Penalize(endpoint)
		c.logger.Warn("Rate limited by server",
			zap.String("endpoint", endpoint),
			zap.Duration("retry_after", apiErr.RetryAfter))
	case http.StatusUnauthorized:
		if c.creds != nil {
			if err := c.creds.RemoveAccessToken(ctx); err != nil {
				c.logger.Error("Failed to clear access token", zap.Error(err))
			}
			if err := c.creds.RemoveUserInfo(ctx); err != nil {
				c.logger.Error("Failed to clear user info", zap.Error(err))
			}
		}
		c.ResetCache()
	default:
		c.logger.Debug("Backend returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("endpoint", endpoint),
			zap.String("message", apiErr.Message))
	}
	return apiErr
}

// decode fills out from a response body. Endpoints answering with a bare
// text body may be decoded into a *string.
func decode(data []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if s, ok := out.(*string); ok {
		trimmed := bytes.TrimSpace(data)
		switch trimmed[0] {
		case '"':
		case '{':
			var msg struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(trimmed, &msg); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			*s = msg.Message
			return nil
		default:
			*s = string(trimmed)
			return nil
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
