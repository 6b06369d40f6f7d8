package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/notes-bot/internal/models"
	"go.uber.org/zap"
)

type fakeCreds struct {
	token        string
	valid        bool
	removedToken bool
	removedUser  bool
}

func (f *fakeCreds) ValidAccessToken(ctx context.Context) (string, bool) {
	return f.token, f.valid
}

func (f *fakeCreds) RemoveAccessToken(ctx context.Context) error {
	f.removedToken = true
	return nil
}

func (f *fakeCreds) RemoveUserInfo(ctx context.Context) error {
	f.removedUser = true
	return nil
}

func newTestClient(t *testing.T, h http.Handler, creds Credentials, mutate ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := Config{BaseURL: srv.URL}
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg, creds, zap.NewNop())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestClient_AttachesBearerTokenOnlyWhenValid(t *testing.T) {
	var gotAuth atomic.Value
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, models.UserInfo{ID: 1, Username: "alice"})
	})

	creds := &fakeCreds{token: "abc", valid: true}
	c := newTestClient(t, h, creds)
	info, err := c.Auth.UserInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", info.Username)
	assert.Equal(t, "Bearer abc", gotAuth.Load())

	creds.valid = false
	_, err = c.Auth.UserInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", gotAuth.Load())
}

func TestClient_CachesGetAndInvalidatesOnMutation(t *testing.T) {
	var listCalls int32
	h := http.NewServeMux()
	h.HandleFunc("/api/notes", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			atomic.AddInt32(&listCalls, 1)
			writeJSON(w, http.StatusOK, []models.Note{{ID: 1, Title: "a"}})
			return
		}
		writeJSON(w, http.StatusCreated, models.Note{ID: 2, Title: "b"})
	})

	c := newTestClient(t, h, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		page, err := c.Notes.List(ctx, models.NoteQuery{})
		require.NoError(t, err)
		require.Len(t, page.Content, 1)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&listCalls))

	_, err := c.Notes.List(NoCache(ctx), models.NoteQuery{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&listCalls))

	_, err = c.Notes.Create(ctx, models.NoteRequest{Title: "b", Content: "b"})
	require.NoError(t, err)

	_, err = c.Notes.List(ctx, models.NoteQuery{})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&listCalls))
}

func TestClient_ThrottlesPerEndpoint(t *testing.T) {
	var calls int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusOK, models.NoteStats{TotalNotes: 3})
	})

	c := newTestClient(t, h, nil, func(cfg *Config) {
		cfg.CacheDisabled = true
		cfg.Limits = map[string]int{"/api/notes/stats": 2}
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.Notes.Stats(ctx)
		require.NoError(t, err)
	}
	_, err := c.Notes.Stats(ctx)
	assert.ErrorIs(t, err, ErrThrottled)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, int64(0), c.Remaining("/api/notes/stats"))
	assert.Equal(t, int64(2), c.Counters()["/api/notes/stats"])

	// a different endpoint has its own budget
	assert.Equal(t, int64(60), c.Remaining("/api/notes/search"))
}

func TestClient_UnauthorizedClearsCredentials(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Full authentication is required"})
	})
	creds := &fakeCreds{token: "abc", valid: true}
	c := newTestClient(t, h, creds)

	_, err := c.Notes.Get(context.Background(), 9)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, creds.removedToken)
	assert.True(t, creds.removedUser)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Full authentication is required", apiErr.Message)
}

func TestClient_ServerRateLimit(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c := newTestClient(t, h, nil)

	_, err := c.Notes.Search(context.Background(), "go", models.NoteQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 12*time.Second, apiErr.RetryAfter)
	assert.Contains(t, apiErr.Message, "12 seconds")
	assert.Equal(t, int64(0), c.Remaining("/api/notes/search"))

	_, err = c.Notes.Search(context.Background(), "go", models.NoteQuery{})
	assert.ErrorIs(t, err, ErrThrottled)
	assert.Equal(t, int32(1), calls.Load(), "throttled locally until the window refills")
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
		is     error
	}{
		{"message field", 400, `{"message":"Title is required"}`, "Title is required", nil},
		{"error field", 401, `{"error":"Invalid 2FA code"}`, "Invalid 2FA code", ErrUnauthorized},
		{"plain text", 400, "Invalid verification code", "Invalid verification code", nil},
		{"not found", 404, `{"message":"Note not found"}`, "Note not found", ErrNotFound},
		{"forbidden", 403, ``, "", ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			c := newTestClient(t, h, nil)
			_, err := c.Notes.Create(context.Background(), models.NoteRequest{})
			require.Error(t, err)
			assert.Equal(t, tt.want, Message(err, ""))
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestClient_TextAndPagedResponses(t *testing.T) {
	h := http.NewServeMux()
	h.HandleFunc("/auth/enable-2fa", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("otpauth://totp/notes:alice?secret=ABC"))
	})
	h.HandleFunc("/auth/public/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a@b.c", r.URL.Query().Get("email"))
		writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset email sent!"})
	})
	h.HandleFunc("/api/notes/favorites", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"content":       []models.Note{{ID: 4, Favorite: true}},
			"number":        0,
			"size":          10,
			"totalElements": 1,
			"totalPages":    1,
		})
	})
	c := newTestClient(t, h, nil)
	ctx := context.Background()

	qr, err := c.Auth.Enable2FA(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(qr, "otpauth://"))

	msg, err := c.Auth.ForgotPassword(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "Password reset email sent!", msg)

	page, err := c.Notes.Favorites(ctx, models.NoteQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalElements)
	require.Len(t, page.Content, 1)
	assert.True(t, page.Content[0].Favorite)
}

func TestClient_ToggleFavorite(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/notes/7/favorite", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"id":        7,
			"title":     "t",
			"favorite":  true,
			"updatedAt": "2024-05-01T10:00:00.123",
		})
	})
	c := newTestClient(t, h, nil)

	note, err := c.Notes.ToggleFavorite(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, note.Favorite)
	assert.Equal(t, 2024, note.UpdatedAt.Year())
}

func TestClient_UploadPicture(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "me.png", hdr.Filename)
		w.Write([]byte("/api/profile/picture/me.png"))
	})
	c := newTestClient(t, h, nil)

	url, err := c.Profile.UploadPicture(context.Background(), "me.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/api/profile/picture/me.png", url)

	_, err = c.Profile.UploadPicture(context.Background(), "notes.txt", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidatePicture(t *testing.T) {
	assert.NoError(t, ValidatePicture("a.jpg", "image/jpeg", 100))
	assert.NoError(t, ValidatePicture("a.HEIC", "application/octet-stream", 100))
	assert.ErrorIs(t, ValidatePicture("a.bin", "application/octet-stream", 100), ErrInvalidInput)
	assert.ErrorIs(t, ValidatePicture("a.png", "image/png", MaxPictureBytes+1), ErrInvalidInput)
}

func TestEndpointKey(t *testing.T) {
	tests := map[string]string{
		"/api/notes":                        "/api/notes",
		"/api/notes/12":                     "/api/notes/{id}",
		"/api/notes/12/favorite":            "/api/notes/{id}",
		"/api/notes/favorites":              "/api/notes/favorites",
		"/api/notes/stats":                  "/api/notes/stats",
		"/api/notes/search?query=x":         "/api/notes/search",
		"/api/notes/public":                 "/api/notes",
		"/api/activities/recent":            "/api/activities/recent",
		"/api/activities/":                  "/api/activities",
		"/auth/public/signin":               "/auth/signin",
		"/auth/public/signup":               "/auth/signup",
		"/auth/user":                        "/auth",
		"http://localhost:5000/api/notes/3": "/api/notes/{id}",
		"/admin/users":                      "/admin/users",
	}
	for in, want := range tests {
		assert.Equal(t, want, EndpointKey(in), in)
	}
}
