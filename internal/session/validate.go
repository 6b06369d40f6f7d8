package session

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xaenox/notes-bot/internal/api"
	"github.com/xaenox/notes-bot/internal/models"
)

const (
	TitleMaxLength       = 100
	DescriptionMaxLength = 500
	ContentMaxLength     = 50000
	UsernameMinLength    = 3
	UsernameMaxLength    = 20
	PasswordMinLength    = 8
	PasswordMaxLength    = 128
	MinSearchLength      = 2
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	totpPattern     = regexp.MustCompile(`^\d{6}$`)
)

const passwordSpecials = "@$!%*?&"

// ValidationError is returned before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return api.ErrInvalidInput
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func ValidateNote(req models.NoteRequest) error {
	switch {
	case strings.TrimSpace(req.Title) == "":
		return invalid("title", "Title is required")
	case utf8.RuneCountInString(req.Title) > TitleMaxLength:
		return invalid("title", "Title must be at most %d characters", TitleMaxLength)
	case utf8.RuneCountInString(req.Description) > DescriptionMaxLength:
		return invalid("description", "Description must be at most %d characters", DescriptionMaxLength)
	case strings.TrimSpace(req.Content) == "":
		return invalid("content", "Content is required")
	case utf8.RuneCountInString(req.Content) > ContentMaxLength:
		return invalid("content", "Content must be at most %d characters", ContentMaxLength)
	}
	return nil
}

func ValidateUsername(name string) error {
	n := utf8.RuneCountInString(name)
	switch {
	case n < UsernameMinLength || n > UsernameMaxLength:
		return invalid("username", "Username must be between %d and %d characters", UsernameMinLength, UsernameMaxLength)
	case !usernamePattern.MatchString(name):
		return invalid("username", "Username can only contain letters, numbers and underscores")
	}
	return nil
}

func ValidatePassword(pw string) error {
	n := utf8.RuneCountInString(pw)
	if n < PasswordMinLength || n > PasswordMaxLength {
		return invalid("password", "Password must be between %d and %d characters", PasswordMinLength, PasswordMaxLength)
	}
	var lower, upper, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if !lower || !upper || !digit || !special {
		return invalid("password", "Password must contain uppercase, lowercase, number and special character (%s)", passwordSpecials)
	}
	return nil
}

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return invalid("email", "Please enter a valid email address")
	}
	return nil
}

func ValidateTOTP(code string) error {
	if !totpPattern.MatchString(code) {
		return invalid("code", "Verification code must be 6 digits")
	}
	return nil
}
