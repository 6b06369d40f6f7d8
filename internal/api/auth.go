package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/xaenox/notes-bot/internal/models"
)

const (
	pathSignin         = "/auth/public/signin"
	pathSignin2FA      = "/auth/public/signin-2fa"
	pathSignup         = "/auth/public/signup"
	pathLogout         = "/auth/logout"
	pathUserInfo       = "/auth/user"
	pathUsername       = "/auth/username"
	pathForgotPassword = "/auth/public/forgot-password"
	pathResetPassword  = "/auth/public/reset-password"
	pathEnable2FA      = "/auth/enable-2fa"
	pathDisable2FA     = "/auth/disable-2fa"
	pathVerify2FA      = "/auth/verify-2fa"
	pathStatus2FA      = "/auth/user/2fa-status"
	pathOAuthVerify2FA = "/auth/public/oauth2/verify-2fa"
)

// AuthService covers the /auth endpoints.
type AuthService struct {
	client *Client
}

// Login signs in. A response with TwoFactorRequired carries no token.
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error) {
	var out models.LoginResponse
	if err := s.client.send(ctx, http.MethodPost, pathSignin, nil, creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteTwoFactor finishes a sign-in that required a TOTP code.
func (s *AuthService) CompleteTwoFactor(ctx context.Context, username, code string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	body := models.TwoFactorLogin{Username: username, VerificationCode: code}
	if err := s.client.send(ctx, http.MethodPost, pathSignin2FA, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AuthService) Register(ctx context.Context, reg models.Registration) (string, error) {
	var msg string
	err := s.client.send(ctx, http.MethodPost, pathSignup, nil, reg, &msg)
	return msg, err
}

func (s *AuthService) Logout(ctx context.Context) error {
	return s.client.send(ctx, http.MethodPost, pathLogout, nil, nil, nil)
}

func (s *AuthService) UserInfo(ctx context.Context) (*models.UserInfo, error) {
	var out models.UserInfo
	if err := s.client.get(NoCache(ctx), pathUserInfo, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AuthService) Username(ctx context.Context) (string, error) {
	var name string
	err := s.client.get(ctx, pathUsername, nil, &name)
	return name, err
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	var msg string
	err := s.client.send(ctx, http.MethodPost, pathForgotPassword, url.Values{"email": {email}}, nil, &msg)
	return msg, err
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	var msg string
	q := url.Values{"token": {token}, "newPassword": {newPassword}}
	err := s.client.send(ctx, http.MethodPost, pathResetPassword, q, nil, &msg)
	return msg, err
}

// Enable2FA starts enrollment and returns the provisioning QR code URL.
func (s *AuthService) Enable2FA(ctx context.Context) (string, error) {
	var qr string
	err := s.client.send(ctx, http.MethodPost, pathEnable2FA, nil, nil, &qr)
	return qr, err
}

func (s *AuthService) Disable2FA(ctx context.Context) (string, error) {
	var msg string
	err := s.client.send(ctx, http.MethodPost, pathDisable2FA, nil, nil, &msg)
	return msg, err
}

func (s *AuthService) Verify2FA(ctx context.Context, code string) (string, error) {
	var msg string
	err := s.client.send(ctx, http.MethodPost, pathVerify2FA, url.Values{"code": {code}}, nil, &msg)
	return msg, err
}

func (s *AuthService) TwoFactorStatus(ctx context.Context) (bool, error) {
	var out struct {
		Enabled bool `json:"is2faEnabled"`
	}
	if err := s.client.get(NoCache(ctx), pathStatus2FA, nil, &out); err != nil {
		return false, err
	}
	return out.Enabled, nil
}

// VerifyOAuthTwoFactor exchanges a TOTP code for a token after an OAuth
// sign-in that required two-factor.
func (s *AuthService) VerifyOAuthTwoFactor(ctx context.Context, code int, username string) (*models.OAuthTokenResponse, error) {
	var out models.OAuthTokenResponse
	q := url.Values{"code": {strconv.Itoa(code)}, "username": {username}}
	if err := s.client.send(ctx, http.MethodPost, pathOAuthVerify2FA, q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
