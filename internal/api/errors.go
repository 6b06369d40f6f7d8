package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrForbidden    = errors.New("api: forbidden")
	ErrNotFound     = errors.New("api: not found")
	ErrRateLimited  = errors.New("api: rate limited by server")
	ErrThrottled    = errors.New("api: client-side request limit reached")
	ErrInvalidInput = errors.New("api: invalid input")
)

const defaultRetryAfter = 60 * time.Second

// Error is a non-2xx backend response.
type Error struct {
	Status     int
	Message    string
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Unwrap maps the status onto the package sentinels.
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

// Message extracts a user facing message from any error returned by the
// client, falling back to def.
func Message(err error, def string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrThrottled) || errors.Is(err, ErrInvalidInput) {
		return strings.TrimPrefix(err.Error(), "api: ")
	}
	return def
}

func parseError(resp *http.Response, body []byte) *Error {
	e := &Error{Status: resp.StatusCode}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Message = payload.Message
		if e.Message == "" {
			e.Message = payload.Error
		}
	} else {
		e.Message = strings.TrimSpace(string(body))
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		e.RetryAfter = defaultRetryAfter
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			e.RetryAfter = time.Duration(secs) * time.Second
		}
		e.Message = fmt.Sprintf("Too many requests. Please wait %d seconds before trying again.",
			int(e.RetryAfter.Seconds()))
	}
	return e
}
