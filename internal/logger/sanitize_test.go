package logger

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{"empty", "", 10, ""},
		{"plain", "auth0|abc123", 0, "auth0|abc123"},
		{"control characters removed", "auth0|abc\x00\x1b[31m", 0, "auth0|abc[31m"},
		{"invalid utf8 dropped", "ok\xffok", 0, "okok"},
		{"truncated", "abcdefghij", 4, "abcd..."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SanitizeString(tt.input, tt.maxLength))
		})
	}
}

func TestSanitizeHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", SanitizeError(nil))
	assert.Equal(t, "boom", SanitizeError(errors.New("boom")))
	assert.Len(t, SanitizeUserID(strings.Repeat("a", 500)), MaxUserIDLength+3)
	assert.Equal(t, "/api/auth/profile/", SanitizePath("/api/auth/profile/\x07"))
	assert.Equal(t, "user@tecsup.edu.pe", SanitizeEmail("user@tecsup.edu.pe"))
}
