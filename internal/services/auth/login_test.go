package auth

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginConfig_AuthCodeURL(t *testing.T) {
	t.Parallel()

	l := NewLoginConfig("checkauto.us.auth0.com", "spa-client", "https://api.checkauto.pe", "http://localhost:3000/callback")

	u, err := url.Parse(l.AuthCodeURL("state-123"))
	require.NoError(t, err)

	assert.Equal(t, "checkauto.us.auth0.com", u.Host)
	assert.Equal(t, "/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "spa-client", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "https://api.checkauto.pe", q.Get("audience"))
	assert.Equal(t, "http://localhost:3000/callback", q.Get("redirect_uri"))
	assert.Equal(t, "openid profile email", q.Get("scope"))
}

func TestLoginConfig_NoAudience(t *testing.T) {
	t.Parallel()

	l := NewLoginConfig("tenant.auth0.com", "spa", "", "http://localhost:3000/callback")
	u, err := url.Parse(l.AuthCodeURL("s"))
	require.NoError(t, err)
	assert.False(t, u.Query().Has("audience"))

	pub := l.Public()
	assert.Equal(t, "https://tenant.auth0.com/authorize", pub.AuthorizeURL)
	assert.Equal(t, "spa", pub.ClientID)
	assert.Equal(t, "openid profile email", pub.Scope)
}
