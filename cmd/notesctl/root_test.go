package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xaenox/notes-bot/internal/api"
	"github.com/xaenox/notes-bot/internal/classifier"
	"github.com/xaenox/notes-bot/internal/models"
	"github.com/xaenox/notes-bot/internal/session"
	"github.com/xaenox/notes-bot/internal/storage"
)

type testEnv struct {
	t       *testing.T
	baseURL string
	storage storage.Storage
}

// newTestEnv serves a backend holding count notes, listed newest first.
func newTestEnv(t *testing.T, count int) *testEnv {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	var mu sync.Mutex
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	notes := make([]models.Note, count)
	for i := range notes {
		notes[i] = models.Note{
			ID:        int64(count - i),
			Title:     "note " + strconv.Itoa(count-i),
			Content:   "content",
			CreatedAt: models.NewTimestamp(base.Add(time.Duration(count-i) * time.Hour)),
		}
	}

	reply := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}
	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			reply(w, map[string]string{"message": "Unauthorized"})
			return false
		}
		return true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/public/signin", func(w http.ResponseWriter, r *http.Request) {
		var creds models.Credentials
		json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "Secret#123" {
			w.WriteHeader(http.StatusUnauthorized)
			reply(w, map[string]string{"message": "Bad credentials"})
			return
		}
		reply(w, models.LoginResponse{JWTToken: token, Username: creds.Username})
	})
	mux.HandleFunc("/auth/user", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			reply(w, models.UserInfo{ID: 1, Username: "alice", Roles: []string{"ROLE_USER"}})
		}
	})
	mux.HandleFunc("/api/notes", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))
		if size <= 0 {
			size = 10
		}
		from, to := min(page*size, len(notes)), min((page+1)*size, len(notes))
		reply(w, models.Page[models.Note]{
			Content:       notes[from:to],
			Number:        page,
			Size:          size,
			TotalElements: len(notes),
			TotalPages:    (len(notes) + size - 1) / size,
		})
	})
	mux.HandleFunc("/api/notes/1/favorite", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		n := &notes[len(notes)-1]
		n.Favorite = !n.Favorite
		reply(w, *n)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testEnv{t: t, baseURL: srv.URL, storage: storage.NewMemoryStorage()}
}

// execute runs one notesctl invocation against the env.
func (e *testEnv) execute(stdin string, args ...string) (stdout, stderr string, err error) {
	c := &cli{
		open: func(ctx context.Context) (*session.Session, error) {
			return session.Open(ctx, session.Config{}, api.Config{BaseURL: e.baseURL}, e.storage, "cli:test",
				classifier.NewKeywordClassifier(0), zap.NewNop()), nil
		},
	}
	root := c.rootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (e *testEnv) login() {
	_, stderr, err := e.execute("Secret#123\n", "login", "alice")
	require.NoError(e.t, err)
	require.Contains(e.t, stderr, "ok: Login successful")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, 1)

	_, stderr, err := env.execute("wrong\n", "login", "alice")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, stderr, "error: Bad credentials")

	env.login()

	// the token survives across invocations
	stdout, _, err := env.execute("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, stdout, "alice")

	_, stderr, err = env.execute("", "logout")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Logged out successfully")

	_, stderr, err = env.execute("", "notes", "list")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, stderr, "error: Please log in first")
}

func TestNotesExport(t *testing.T) {
	env := newTestEnv(t, 150)
	env.login()

	stdout, _, err := env.execute("", "notes", "export")
	require.NoError(t, err)

	var export struct {
		User  string `yaml:"user"`
		Count int    `yaml:"count"`
		Notes []struct {
			ID      int64  `yaml:"id"`
			Content string `yaml:"content"`
		} `yaml:"notes"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &export))
	assert.Equal(t, "alice", export.User)
	assert.Equal(t, 150, export.Count)
	require.Len(t, export.Notes, 150)
	assert.Equal(t, int64(1), export.Notes[0].ID, "oldest first")
	assert.Equal(t, int64(150), export.Notes[149].ID)
	assert.Equal(t, "content", export.Notes[0].Content)
}

func TestNotesListYAMLAndValidation(t *testing.T) {
	env := newTestEnv(t, 3)
	env.login()

	stdout, _, err := env.execute("", "notes", "list", "-o", "yaml", "--sort", "title", "--order", "asc")
	require.NoError(t, err)
	var listed []noteView
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &listed))
	require.Len(t, listed, 3)
	assert.Equal(t, "note 1", listed[0].Title)
	assert.Empty(t, listed[0].Content)

	_, stderr, err := env.execute("", "notes", "create", "--content", "body")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, stderr, "error: Title is required")

	_, _, err = env.execute("", "notes", "show", "abc")
	assert.EqualError(t, err, `invalid note id "abc"`)
}

func TestFavToggle(t *testing.T) {
	env := newTestEnv(t, 2)
	env.login()

	stdout, stderr, err := env.execute("", "fav", "toggle", "1")
	require.NoError(t, err)
	assert.Equal(t, "1\tfavorite=true\n", stdout)
	assert.Contains(t, stderr, "ok: Added to favorites")
}
