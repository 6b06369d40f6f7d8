package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/xaenox/notes-bot/internal/models"
)

const (
	pathProfile        = "/api/profile"
	pathChangePassword = "/api/profile/change-password"
	pathPicture        = "/api/profile/picture"
	pathSetup2FA       = "/api/profile/2fa/setup"
	pathVerifyProf2FA  = "/api/profile/2fa/verify"
	pathDisableProf2FA = "/api/profile/2fa/disable"

	MaxPictureBytes = 10 << 20
	uploadTimeout   = 60 * time.Second
)

var (
	pictureTypes = map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
		"image/heic": true,
		"image/heif": true,
	}
	pictureExts = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
		".webp": true, ".heic": true, ".heif": true,
	}
)

// ProfileService covers /api/profile.
type ProfileService struct {
	client *Client
}

func (s *ProfileService) Get(ctx context.Context) (*models.Profile, error) {
	var out models.Profile
	if err := s.client.get(ctx, pathProfile, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update changes profile fields. NewToken is set when the username changed.
func (s *ProfileService) Update(ctx context.Context, upd models.ProfileUpdate) (*models.ProfileUpdateResult, error) {
	var out models.ProfileUpdateResult
	if err := s.client.send(ctx, http.MethodPut, pathProfile, nil, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ProfileService) ChangePassword(ctx context.Context, req models.PasswordChange) (string, error) {
	var msg string
	err := s.client.send(ctx, http.MethodPost, pathChangePassword, nil, req, &msg)
	return msg, err
}

// ValidatePicture checks the upload constraints before any bytes are sent.
func ValidatePicture(filename, contentType string, size int64) error {
	if size > MaxPictureBytes {
		return fmt.Errorf("%w: file size (%.2fMB) exceeds maximum allowed size (10MB)",
			ErrInvalidInput, float64(size)/(1<<20))
	}
	if pictureTypes[strings.ToLower(contentType)] {
		return nil
	}
	// some clients send images as application/octet-stream
	if contentType == "" || contentType == "application/octet-stream" {
		if pictureExts[strings.ToLower(filepath.Ext(filename))] {
			return nil
		}
	}
	return fmt.Errorf("%w: only image files are allowed (JPG, PNG, GIF, WebP, HEIC)", ErrInvalidInput)
}

// UploadPicture sends a profile picture and returns its URL.
func (s *ProfileService) UploadPicture(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxPictureBytes+1))
	if err != nil {
		return "", fmt.Errorf("read picture: %w", err)
	}
	if err := ValidatePicture(filename, contentType, int64(len(data))); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}

	var url string
	err = s.client.do(ctx, call{
		method:      http.MethodPost,
		path:        pathPicture,
		raw:         &buf,
		contentType: mw.FormDataContentType(),
		timeout:     uploadTimeout,
		out:         &url,
	})
	return url, err
}

func (s *ProfileService) DeletePicture(ctx context.Context) (string, error) {
	var msg string
	err := s.client.send(ctx, http.MethodDelete, pathPicture, nil, nil, &msg)
	return msg, err
}

func (s *ProfileService) SetupTwoFactor(ctx context.Context) (*models.TwoFactorSetup, error) {
	var out models.TwoFactorSetup
	if err := s.client.send(ctx, http.MethodPost, pathSetup2FA, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ProfileService) VerifyTwoFactor(ctx context.Context, code string) (string, error) {
	var msg string
	body := map[string]string{"verificationCode": code}
	err := s.client.send(ctx, http.MethodPost, pathVerifyProf2FA, nil, body, &msg)
	return msg, err
}

func (s *ProfileService) DisableTwoFactor(ctx context.Context, code string) (string, error) {
	var msg string
	body := map[string]string{"verificationCode": code}
	err := s.client.send(ctx, http.MethodPost, pathDisableProf2FA, nil, body, &msg)
	return msg, err
}
