package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/notes-bot/internal/models"
	"github.com/xaenox/notes-bot/internal/store"
)

func loginFailed(msg string) store.Action { return store.LoginFailed{Message: msg} }

// Login signs in with a username (or email) and password. When the account
// has two-factor enabled it returns ErrTwoFactorRequired and CompleteTwoFactor
// must follow.
func (s *Session) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		err := invalid("credentials", "Username and password are required")
		return s.fail(ctx, err, "", loginFailed)
	}

	s.store.Dispatch(store.LoginStarted{})
	resp, err := s.client.Auth.Login(ctx, models.Credentials{Username: username, Password: password})
	if err != nil {
		return s.fail(ctx, err, "Login failed", loginFailed)
	}

	if resp.TwoFactorRequired {
		pending := resp.Username
		if pending == "" {
			pending = username
		}
		s.store.Dispatch(store.TwoFactorRequired{Username: pending})
		s.notify(store.NotifyInfo, "Enter the 6-digit code from your authenticator app")
		return ErrTwoFactorRequired
	}
	return s.establish(ctx, resp.JWTToken, resp.RefreshToken, resp.Username, resp.Roles)
}

// CompleteTwoFactor finishes a login that returned ErrTwoFactorRequired.
func (s *Session) CompleteTwoFactor(ctx context.Context, code string) error {
	username := s.store.State().Auth.PendingUsername
	if username == "" {
		return s.fail(ctx, invalid("code", "No login is waiting for a verification code"), "", loginFailed)
	}
	code = strings.TrimSpace(code)
	if err := ValidateTOTP(code); err != nil {
		return s.fail(ctx, err, "", loginFailed)
	}

	s.store.Dispatch(store.LoginStarted{})
	resp, err := s.client.Auth.CompleteTwoFactor(ctx, username, code)
	if err != nil {
		return s.fail(ctx, err, "Invalid verification code", loginFailed)
	}
	if resp.Username == "" {
		resp.Username = username
	}
	return s.establish(ctx, resp.JWTToken, resp.RefreshToken, resp.Username, resp.Roles)
}

// establish persists a fresh token, loads the user and marks the session
// authenticated.
func (s *Session) establish(ctx context.Context, token, refresh, username string, roles []string) error {
	if token == "" {
		return s.fail(ctx, errors.New("login response carried no token"), "Login failed", loginFailed)
	}
	if err := s.tokens.SetAccessToken(ctx, token); err != nil {
		return s.fail(ctx, fmt.Errorf("store access token: %w", err), "Login failed", loginFailed)
	}
	if refresh != "" {
		if err := s.tokens.SetRefreshToken(ctx, refresh); err != nil {
			s.logger.Error("Failed to store refresh token", zap.Error(err))
		}
	}
	s.client.ResetCache()

	user, err := s.client.Auth.UserInfo(ctx)
	if err != nil {
		s.logger.Warn("Failed to load user after login", zap.Error(err))
		user = &models.UserInfo{Username: username, Roles: roles}
	}
	if err := s.tokens.SetUserInfo(ctx, user); err != nil {
		s.logger.Error("Failed to cache user info", zap.Error(err))
	}

	s.store.Dispatch(store.LoginSucceeded{Token: token, Username: username, Roles: roles, User: user})
	s.logger.Info("User logged in", zap.String("username", user.Username))
	s.notify(store.NotifySuccess, "Login successful")
	return nil
}

// OAuthResult is the parsed OAuth success redirect.
type OAuthResult struct {
	Token    string
	Username string
	Email    string
	Provider string
	Success  bool
	Error    string
	Message  string
}

// ParseOAuthRedirect reads the parameters the backend appends to the OAuth
// redirect. raw may be a full URL or just its query string.
func ParseOAuthRedirect(raw string) (OAuthResult, error) {
	query := raw
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		query = raw[i+1:]
	}
	if i := strings.IndexByte(query, '#'); i >= 0 {
		query = query[:i]
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return OAuthResult{}, fmt.Errorf("parse oauth redirect: %w", err)
	}
	return OAuthResult{
		Token:    values.Get("token"),
		Username: values.Get("user"),
		Email:    values.Get("email"),
		Provider: values.Get("provider"),
		Success:  values.Get("success") == "true",
		Error:    values.Get("error"),
		Message:  values.Get("message"),
	}, nil
}

// CompleteOAuth signs in from the OAuth success redirect URL.
func (s *Session) CompleteOAuth(ctx context.Context, redirect string) error {
	res, err := ParseOAuthRedirect(redirect)
	if err != nil {
		return s.fail(ctx, invalid("redirect", "Failed to complete OAuth authentication"), "", loginFailed)
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "OAuth authentication failed"
		}
		return s.fail(ctx, invalid("oauth", "Authentication failed: %s", msg), "", loginFailed)
	}
	if res.Token == "" || res.Username == "" {
		return s.fail(ctx, invalid("oauth", "Invalid OAuth response - missing authentication data"), "", loginFailed)
	}

	provider := res.Provider
	if provider == "" {
		provider = "oauth2"
	}
	user := &models.UserInfo{Username: res.Username, Email: res.Email, Provider: provider}

	if err := s.tokens.SetAccessToken(ctx, res.Token); err != nil {
		return s.fail(ctx, fmt.Errorf("store access token: %w", err), "Failed to complete OAuth authentication", loginFailed)
	}
	if err := s.tokens.SetUserInfo(ctx, user); err != nil {
		s.logger.Error("Failed to cache user info", zap.Error(err))
	}
	s.client.ResetCache()

	s.store.Dispatch(store.LoginSucceeded{Token: res.Token, Username: res.Username, User: user})
	s.logger.Info("User logged in via OAuth",
		zap.String("username", res.Username),
		zap.String("provider", provider))
	s.notify(store.NotifySuccess, fmt.Sprintf("Welcome back, %s! You're now logged in.", res.Username))
	return nil
}

// VerifyOAuthTwoFactor completes an OAuth login that required a TOTP code.
func (s *Session) VerifyOAuthTwoFactor(ctx context.Context, username, code string) error {
	code = strings.TrimSpace(code)
	if err := ValidateTOTP(code); err != nil {
		return s.fail(ctx, err, "", loginFailed)
	}
	n, _ := strconv.Atoi(code)

	s.store.Dispatch(store.LoginStarted{})
	resp, err := s.client.Auth.VerifyOAuthTwoFactor(ctx, n, username)
	if err != nil {
		return s.fail(ctx, err, "Invalid verification code", loginFailed)
	}
	if resp.Username == "" {
		resp.Username = username
	}
	return s.establish(ctx, resp.Token, "", resp.Username, nil)
}

// Register creates an account. The user still has to log in afterwards.
func (s *Session) Register(ctx context.Context, reg models.Registration) (string, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	for _, err := range []error{ValidateUsername(reg.Username), ValidateEmail(reg.Email), ValidatePassword(reg.Password)} {
		if err != nil {
			return "", s.fail(ctx, err, "", loginFailed)
		}
	}

	s.store.Dispatch(store.LoginStarted{})
	msg, err := s.client.Auth.Register(ctx, reg)
	if err != nil {
		return "", s.fail(ctx, err, "Registration failed", loginFailed)
	}
	if msg == "" {
		msg = "Registration successful! Please log in."
	}
	s.store.Dispatch(store.Registered{Message: msg})
	s.notify(store.NotifySuccess, msg)
	return msg, nil
}

// Logout ends the session. Local state is cleared even when the backend
// call fails.
func (s *Session) Logout(ctx context.Context) error {
	if _, ok := s.tokens.ValidAccessToken(ctx); ok {
		if err := s.client.Auth.Logout(ctx); err != nil {
			s.logger.Warn("Backend logout failed", zap.Error(err))
		}
	}
	s.clearLocal(ctx)
	s.notify(store.NotifyInfo, "Logged out successfully")
	return nil
}

func (s *Session) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if err := ValidateEmail(email); err != nil {
		return "", s.fail(ctx, err, "", nil)
	}
	msg, err := s.client.Auth.ForgotPassword(ctx, email)
	if err != nil {
		return "", s.fail(ctx, err, "Failed to send password reset email", nil)
	}
	if msg == "" {
		msg = "Password reset email sent!"
	}
	s.notify(store.NotifySuccess, msg)
	return msg, nil
}

func (s *Session) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", s.fail(ctx, invalid("token", "Reset token is required"), "", nil)
	}
	if err := ValidatePassword(newPassword); err != nil {
		return "", s.fail(ctx, err, "", nil)
	}
	msg, err := s.client.Auth.ResetPassword(ctx, token, newPassword)
	if err != nil {
		return "", s.fail(ctx, err, "Failed to reset password", nil)
	}
	if msg == "" {
		msg = "Password reset successful"
	}
	s.notify(store.NotifySuccess, msg)
	return msg, nil
}

// Restore marks the session authenticated when an unexpired token is
// stored, and drops stale credentials otherwise.
func (s *Session) Restore(ctx context.Context) bool {
	token, ok := s.tokens.ValidAccessToken(ctx)
	if !ok {
		if err := s.tokens.RemoveAccessToken(ctx); err != nil {
			s.logger.Error("Failed to remove stale token", zap.Error(err))
		}
		if err := s.tokens.RemoveUserInfo(ctx); err != nil {
			s.logger.Error("Failed to remove stale user info", zap.Error(err))
		}
		s.store.Dispatch(store.SessionAbsent{})
		return false
	}

	user, err := s.tokens.UserInfo(ctx)
	if err != nil {
		s.logger.Warn("Failed to read cached user info", zap.Error(err))
	}
	s.store.Dispatch(store.SessionRestored{Token: token, User: user})
	return true
}

// RefreshUser reloads the signed-in user from the backend.
func (s *Session) RefreshUser(ctx context.Context) (*models.UserInfo, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	user, err := s.client.Auth.UserInfo(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "Failed to load user", nil)
	}
	if err := s.tokens.SetUserInfo(ctx, user); err != nil {
		s.logger.Error("Failed to cache user info", zap.Error(err))
	}
	s.store.Dispatch(store.UserRefreshed{User: user})
	return user, nil
}

// Enable2FA starts two-factor enrollment and returns the QR code URL.
func (s *Session) Enable2FA(ctx context.Context) (string, error) {
	if err := s.requireAuth(); err != nil {
		return "", err
	}
	qr, err := s.client.Auth.Enable2FA(ctx)
	if err != nil {
		return "", s.fail(ctx, err, "Failed to enable two-factor authentication", nil)
	}
	s.notify(store.NotifyInfo, "Scan the QR code and verify with a 6-digit code")
	return qr, nil
}

func (s *Session) Verify2FA(ctx context.Context, code string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if err := ValidateTOTP(code); err != nil {
		return s.fail(ctx, err, "", nil)
	}
	if _, err := s.client.Auth.Verify2FA(ctx, code); err != nil {
		return s.fail(ctx, err, "Invalid verification code", nil)
	}
	s.store.Dispatch(store.TwoFactorChanged{Enabled: true})
	s.notify(store.NotifySuccess, "Two-factor authentication enabled")
	return nil
}

func (s *Session) Disable2FA(ctx context.Context) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	if _, err := s.client.Auth.Disable2FA(ctx); err != nil {
		return s.fail(ctx, err, "Failed to disable two-factor authentication", nil)
	}
	s.store.Dispatch(store.TwoFactorChanged{Enabled: false})
	s.notify(store.NotifySuccess, "Two-factor authentication disabled")
	return nil
}

func (s *Session) TwoFactorStatus(ctx context.Context) (bool, error) {
	if err := s.requireAuth(); err != nil {
		return false, err
	}
	enabled, err := s.client.Auth.TwoFactorStatus(ctx)
	if err != nil {
		return false, s.fail(ctx, err, "Failed to load two-factor status", nil)
	}
	return enabled, nil
}
