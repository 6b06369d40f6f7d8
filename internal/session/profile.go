package session

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/notes-bot/internal/models"
	"github.com/xaenox/notes-bot/internal/store"
)

func profileFailed(msg string) store.Action { return store.ProfileFailed{Message: msg} }

func (s *Session) FetchProfile(ctx context.Context) (*models.Profile, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	s.store.Dispatch(store.ProfileRequested{})
	p, err := s.client.Profile.Get(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "Failed to load profile", profileFailed)
	}
	s.store.Dispatch(store.ProfileFetched{Profile: *p})
	return p, nil
}

// UpdateProfile saves profile changes. A username change rotates the
// access token; the new one is stored.
func (s *Session) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.Profile, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	upd.Username = strings.TrimSpace(upd.Username)
	upd.Email = strings.TrimSpace(upd.Email)
	if upd.Username != "" {
		if err := ValidateUsername(upd.Username); err != nil {
			return nil, s.fail(ctx, err, "", profileFailed)
		}
	}
	if upd.Email != "" {
		if err := ValidateEmail(upd.Email); err != nil {
			return nil, s.fail(ctx, err, "", profileFailed)
		}
	}

	s.store.Dispatch(store.ProfileRequested{})
	res, err := s.client.Profile.Update(ctx, upd)
	if err != nil {
		return nil, s.fail(ctx, err, "Failed to update profile", profileFailed)
	}
	if res.Profile == nil {
		res.Profile = &models.Profile{}
		if cur := s.store.State().Profile.Profile; cur != nil {
			*res.Profile = *cur
		}
		if upd.Username != "" {
			res.Profile.Username = upd.Username
		}
		if upd.Email != "" {
			res.Profile.Email = upd.Email
		}
	}

	if res.NewToken != "" {
		if err := s.tokens.SetAccessToken(ctx, res.NewToken); err != nil {
			s.logger.Error("Failed to store rotated token", zap.Error(err))
		}
		s.client.ResetCache()
	}
	next := s.store.Dispatch(store.ProfileUpdated{Profile: *res.Profile, NewToken: res.NewToken})
	if next.Auth.User != nil {
		if err := s.tokens.SetUserInfo(ctx, next.Auth.User); err != nil {
			s.logger.Error("Failed to cache user info", zap.Error(err))
		}
	}

	msg := res.Message
	if msg == "" {
		msg = "Profile updated successfully"
	}
	s.notify(store.NotifySuccess, msg)
	return res.Profile, nil
}

func (s *Session) ChangePassword(ctx context.Context, req models.PasswordChange) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	if req.CurrentPassword == "" {
		return s.fail(ctx, invalid("password", "Current password is required"), "", profileFailed)
	}
	if err := ValidatePassword(req.NewPassword); err != nil {
		return s.fail(ctx, err, "", profileFailed)
	}
	if req.ConfirmPassword == "" {
		req.ConfirmPassword = req.NewPassword
	}
	if req.ConfirmPassword != req.NewPassword {
		return s.fail(ctx, invalid("password", "Passwords do not match"), "", profileFailed)
	}

	s.store.Dispatch(store.ProfileRequested{})
	msg, err := s.client.Profile.ChangePassword(ctx, req)
	if err != nil {
		return s.fail(ctx, err, "Failed to change password", profileFailed)
	}
	s.store.Dispatch(store.PasswordChanged{})
	if msg == "" {
		msg = "Password changed successfully"
	}
	s.notify(store.NotifySuccess, msg)
	return nil
}

// UploadPicture validates and uploads a profile picture and returns its URL.
func (s *Session) UploadPicture(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	if err := s.requireAuth(); err != nil {
		return "", err
	}
	s.store.Dispatch(store.ProfileRequested{})
	url, err := s.client.Profile.UploadPicture(ctx, filename, contentType, r)
	if err != nil {
		return "", s.fail(ctx, err, "Failed to upload profile picture", profileFailed)
	}
	s.store.Dispatch(store.PictureUploaded{URL: url})
	s.notify(store.NotifySuccess, "Profile picture updated")
	return url, nil
}

func (s *Session) DeletePicture(ctx context.Context) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	if _, err := s.client.Profile.DeletePicture(ctx); err != nil {
		return s.fail(ctx, err, "Failed to delete profile picture", profileFailed)
	}
	s.store.Dispatch(store.PictureDeleted{})
	s.notify(store.NotifySuccess, "Profile picture removed")
	return nil
}

// SetupTwoFactor starts enrollment from the profile page and returns the
// secret and QR code.
func (s *Session) SetupTwoFactor(ctx context.Context) (*models.TwoFactorSetup, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	setup, err := s.client.Profile.SetupTwoFactor(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "Failed to set up two-factor authentication", profileFailed)
	}
	s.store.Dispatch(store.TwoFactorSetupStarted{Setup: *setup})
	return setup, nil
}

func (s *Session) VerifyTwoFactor(ctx context.Context, code string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if err := ValidateTOTP(code); err != nil {
		return s.fail(ctx, err, "", profileFailed)
	}
	if _, err := s.client.Profile.VerifyTwoFactor(ctx, code); err != nil {
		return s.fail(ctx, err, "Invalid verification code", profileFailed)
	}
	s.store.Dispatch(store.TwoFactorChanged{Enabled: true})
	s.notify(store.NotifySuccess, "Two-factor authentication enabled")
	return nil
}

func (s *Session) DisableTwoFactor(ctx context.Context, code string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if err := ValidateTOTP(code); err != nil {
		return s.fail(ctx, err, "", profileFailed)
	}
	if _, err := s.client.Profile.DisableTwoFactor(ctx, code); err != nil {
		return s.fail(ctx, err, "Failed to disable two-factor authentication", profileFailed)
	}
	s.store.Dispatch(store.TwoFactorChanged{Enabled: false})
	s.notify(store.NotifySuccess, "Two-factor authentication disabled")
	return nil
}
