package models

// UserInfo is the payload of /auth/user and the cached user record.
type UserInfo struct {
	ID                    int64    `json:"id"`
	Username              string   `json:"userName"`
	Email                 string   `json:"email,omitempty"`
	AccountNonLocked      bool     `json:"accountNonLocked"`
	AccountNonExpired     bool     `json:"accountNonExpired"`
	CredentialsNonExpired bool     `json:"credentialsNonExpired"`
	Enabled               bool     `json:"enabled"`
	TwoFactorEnabled      bool     `json:"isTwoFactorEnabled"`
	Roles                 []string `json:"roles,omitempty"`
	ProfilePicture        string   `json:"profilePicture,omitempty"`
	SignUpMethod          string   `json:"signUpMethod,omitempty"`
	Provider              string   `json:"provider,omitempty"`
}

// IsAdmin reports whether the user carries the admin role.
func (u UserInfo) IsAdmin() bool {
	for _, r := range u.Roles {
		if r == "ROLE_ADMIN" || r == "ADMIN" {
			return true
		}
	}
	return false
}

// Credentials is the sign-in request body. Username may be an email.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the sign-up request body.
type Registration struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"role,omitempty"`
}

// LoginResponse is returned by the sign-in endpoints. When TwoFactorRequired
// is set no token is issued.
type LoginResponse struct {
	JWTToken          string   `json:"jwtToken"`
	RefreshToken      string   `json:"refreshToken,omitempty"`
	Username          string   `json:"username"`
	Roles             []string `json:"roles,omitempty"`
	TwoFactorRequired bool     `json:"requires2FA"`
	Message           string   `json:"message,omitempty"`
}

// TwoFactorLogin completes a sign-in that returned TwoFactorRequired.
type TwoFactorLogin struct {
	Username         string `json:"username"`
	VerificationCode string `json:"verificationCode"`
}

// OAuthTokenResponse is returned by the OAuth two-factor verification.
type OAuthTokenResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Message  string `json:"message,omitempty"`
}

// TwoFactorSetup carries the TOTP secret and provisioning URL.
type TwoFactorSetup struct {
	SecretKey      string `json:"secretKey"`
	QRCodeURL      string `json:"qrCodeUrl"`
	ManualEntryKey string `json:"manualEntryKey"`
}

// Profile is the payload of /api/profile.
type Profile struct {
	UserID                int64     `json:"userId"`
	Username              string    `json:"userName"`
	Email                 string    `json:"email"`
	PhoneNumber           string    `json:"phoneNumber,omitempty"`
	ProfilePicture        string    `json:"profilePicture,omitempty"`
	TwoFactorEnabled      bool      `json:"isTwoFactorEnabled"`
	SignUpMethod          string    `json:"signUpMethod,omitempty"`
	AccountNonLocked      bool      `json:"accountNonLocked"`
	AccountNonExpired     bool      `json:"accountNonExpired"`
	CredentialsNonExpired bool      `json:"credentialsNonExpired"`
	Enabled               bool      `json:"enabled"`
	CreatedDate           Timestamp `json:"createdDate"`
	UpdatedDate           Timestamp `json:"updatedDate"`
	RoleName              string    `json:"roleName,omitempty"`
}

// ProfileUpdate is the PUT /api/profile body.
type ProfileUpdate struct {
	Username       string `json:"userName,omitempty"`
	Email          string `json:"email,omitempty"`
	PhoneNumber    string `json:"phoneNumber,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// ProfileUpdateResult carries a new token when the username changed.
type ProfileUpdateResult struct {
	Profile  *Profile `json:"profile"`
	NewToken string   `json:"newToken,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// PasswordChange is the change-password body.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// MessageResponse is the generic {"message": ...} body.
type MessageResponse struct {
	Message string `json:"message"`
}

// AdminUser is a user record as seen by the admin endpoints.
type AdminUser struct {
	UserID           int64     `json:"userId"`
	Username         string    `json:"userName"`
	Email            string    `json:"email"`
	AccountNonLocked bool      `json:"accountNonLocked"`
	Enabled          bool      `json:"enabled"`
	TwoFactorEnabled bool      `json:"isTwoFactorEnabled"`
	SignUpMethod     string    `json:"signUpMethod,omitempty"`
	Role             *Role     `json:"role,omitempty"`
	CreatedDate      Timestamp `json:"createdDate"`
}

// Role is a backend role.
type Role struct {
	RoleID   int64  `json:"roleId"`
	RoleName string `json:"roleName"`
}

// UserStatus is the set of account flags an admin may change.
type UserStatus struct {
	Locked             *bool `json:"locked,omitempty"`
	Expired            *bool `json:"expired,omitempty"`
	CredentialsExpired *bool `json:"credentialsExpired,omitempty"`
	Enabled            *bool `json:"enabled,omitempty"`
}

// AuditLog is one admin audit record.
type AuditLog struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Username  string    `json:"username"`
	NoteID    int64     `json:"noteId"`
	Content   string    `json:"noteContent,omitempty"`
	Timestamp Timestamp `json:"timestamp"`
}
