package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xaenox/notes-bot/internal/models"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyUserInfo     = "user_info"
)

// TokenStore keeps the credentials of one client namespace.
type TokenStore struct {
	storage   Storage
	namespace string
	now       func() time.Time
}

func NewTokenStore(storage Storage, namespace string) *TokenStore {
	return &TokenStore{
		storage:   storage,
		namespace: namespace,
		now:       time.Now,
	}
}

// Namespace returns the storage namespace the store writes to.
func (t *TokenStore) Namespace() string {
	return t.namespace
}

func (t *TokenStore) get(ctx context.Context, key string) (string, error) {
	v, err := t.storage.Get(ctx, t.namespace, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

func (t *TokenStore) AccessToken(ctx context.Context) (string, error) {
	return t.get(ctx, keyAccessToken)
}

func (t *TokenStore) SetAccessToken(ctx context.Context, token string) error {
	return t.storage.Set(ctx, t.namespace, keyAccessToken, token)
}

func (t *TokenStore) RemoveAccessToken(ctx context.Context) error {
	return t.storage.Delete(ctx, t.namespace, keyAccessToken)
}

func (t *TokenStore) RefreshToken(ctx context.Context) (string, error) {
	return t.get(ctx, keyRefreshToken)
}

func (t *TokenStore) SetRefreshToken(ctx context.Context, token string) error {
	return t.storage.Set(ctx, t.namespace, keyRefreshToken, token)
}

// ValidAccessToken returns the stored access token if it has not expired.
func (t *TokenStore) ValidAccessToken(ctx context.Context) (string, bool) {
	token, err := t.AccessToken(ctx)
	if err != nil || token == "" || IsExpired(token, t.now()) {
		return "", false
	}
	return token, true
}

// UserInfo returns the cached user, or nil when none is stored.
func (t *TokenStore) UserInfo(ctx context.Context) (*models.UserInfo, error) {
	raw, err := t.get(ctx, keyUserInfo)
	if err != nil || raw == "" {
		return nil, err
	}
	var info models.UserInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, fmt.Errorf("decode cached user info: %w", err)
	}
	return &info, nil
}

func (t *TokenStore) SetUserInfo(ctx context.Context, info *models.UserInfo) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode user info: %w", err)
	}
	return t.storage.Set(ctx, t.namespace, keyUserInfo, string(raw))
}

func (t *TokenStore) RemoveUserInfo(ctx context.Context) error {
	return t.storage.Delete(ctx, t.namespace, keyUserInfo)
}

// Clear removes every credential of the namespace.
func (t *TokenStore) Clear(ctx context.Context) error {
	for _, key := range []string{keyAccessToken, keyRefreshToken, keyUserInfo} {
		if err := t.storage.Delete(ctx, t.namespace, key); err != nil {
			return err
		}
	}
	return nil
}

// IsExpired reads the exp claim of a JWT without verifying its signature.
// Empty or malformed tokens count as expired; tokens without exp do not.
func IsExpired(token string, now time.Time) bool {
	if token == "" {
		return true
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Time.Before(now)
}
