package auth

import (
	"strings"

	"golang.org/x/oauth2"
)

// DefaultScopes are requested on the provider's universal login page.
var DefaultScopes = []string{"openid", "profile", "email"}

// LoginConfig builds the provider's authorize URL for the SPA login flow. The
// code exchange happens in the SPA, so no client secret is held here.
type LoginConfig struct {
	domain   string
	audience string
	oauth    *oauth2.Config
}

// PublicLoginConfig is what the frontend needs to start a login.
type PublicLoginConfig struct {
	Domain       string `json:"domain"`
	ClientID     string `json:"client_id"`
	Audience     string `json:"audience"`
	RedirectURI  string `json:"redirect_uri"`
	AuthorizeURL string `json:"authorize_url"`
	Scope        string `json:"scope"`
}

// NewLoginConfig creates the login configuration for an Auth0-style tenant.
func NewLoginConfig(domain, clientID, audience, redirectURI string) *LoginConfig {
	base := "https://" + domain
	return &LoginConfig{
		domain:   domain,
		audience: audience,
		oauth: &oauth2.Config{
			ClientID:    clientID,
			RedirectURL: redirectURI,
			Scopes:      DefaultScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  base + "/authorize",
				TokenURL: base + "/oauth/token",
			},
		},
	}
}

// AuthCodeURL returns the authorize URL carrying state and, when set, the API audience.
func (l *LoginConfig) AuthCodeURL(state string) string {
	var opts []oauth2.AuthCodeOption
	if l.audience != "" {
		opts = append(opts, oauth2.SetAuthURLParam("audience", l.audience))
	}
	return l.oauth.AuthCodeURL(state, opts...)
}

// Public returns the login settings exposed to the frontend.
func (l *LoginConfig) Public() PublicLoginConfig {
	return PublicLoginConfig{
		Domain:       l.domain,
		ClientID:     l.oauth.ClientID,
		Audience:     l.audience,
		RedirectURI:  l.oauth.RedirectURL,
		AuthorizeURL: l.oauth.Endpoint.AuthURL,
		Scope:        strings.Join(l.oauth.Scopes, " "),
	}
}
