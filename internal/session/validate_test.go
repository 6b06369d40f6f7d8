package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xaenox/notes-bot/internal/api"
	"github.com/xaenox/notes-bot/internal/models"
)

func TestValidateNote(t *testing.T) {
	ok := models.NoteRequest{Title: "t", Content: "c"}
	assert.NoError(t, ValidateNote(ok))

	tests := []struct {
		name  string
		req   models.NoteRequest
		field string
	}{
		{"empty title", models.NoteRequest{Title: " ", Content: "c"}, "title"},
		{"long title", models.NoteRequest{Title: strings.Repeat("a", TitleMaxLength+1), Content: "c"}, "title"},
		{"long description", models.NoteRequest{Title: "t", Content: "c", Description: strings.Repeat("a", DescriptionMaxLength+1)}, "description"},
		{"empty content", models.NoteRequest{Title: "t"}, "content"},
		{"long content", models.NoteRequest{Title: "t", Content: strings.Repeat("a", ContentMaxLength+1)}, "content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNote(tt.req)
			var verr *ValidationError
			if assert.ErrorAs(t, err, &verr) {
				assert.Equal(t, tt.field, verr.Field)
			}
			assert.ErrorIs(t, err, api.ErrInvalidInput)
		})
	}

	// limits count characters, not bytes
	assert.NoError(t, ValidateNote(models.NoteRequest{Title: strings.Repeat("ü", TitleMaxLength), Content: "c"}))
}

func TestValidateCredentials(t *testing.T) {
	assert.NoError(t, ValidateUsername("alice_01"))
	assert.Error(t, ValidateUsername("al"))
	assert.Error(t, ValidateUsername("alice-01"))
	assert.Error(t, ValidateUsername(strings.Repeat("a", 21)))

	assert.NoError(t, ValidatePassword("Secret#123"))
	assert.Error(t, ValidatePassword("Sh#1"))
	assert.Error(t, ValidatePassword("secret#123"))
	assert.Error(t, ValidatePassword("Secret1234"))

	assert.NoError(t, ValidateEmail("a@b.io"))
	assert.Error(t, ValidateEmail("a@b"))
	assert.Error(t, ValidateEmail("a b@c.io"))

	assert.NoError(t, ValidateTOTP("012345"))
	assert.Error(t, ValidateTOTP("12345"))
}

func TestOAuthRedirectParsing(t *testing.T) {
	res, err := ParseOAuthRedirect("https://app/oauth2/redirect?token=abc&user=bob&provider=google&success=true#_")
	assert.NoError(t, err)
	assert.Equal(t, OAuthResult{Token: "abc", Username: "bob", Provider: "google", Success: true}, res)
}
