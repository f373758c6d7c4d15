// internal/service/social/google.go
package social

import (
	"context"
	"fmt"
	"net/http"

	"auth-service/internal/config"

	"golang.org/x/oauth2/endpoints"
)

const googleAPIURL = "https://www.googleapis.com"

type Google struct {
	oauthProvider
}

func NewGoogle(creds config.OAuthClient, opts ...Option) *Google {
	scopes := []string{
		"https://www.googleapis.com/auth/userinfo.email",
		"https://www.googleapis.com/auth/userinfo.profile",
	}
	return &Google{newOAuthProvider(creds, endpoints.Google, scopes, googleAPIURL, opts)}
}

func (g *Google) Name() string { return "google" }

func (g *Google) AuthCodeURL(state, redirectURI string) string {
	return g.withRedirect(redirectURI).AuthCodeURL(state)
}

func (g *Google) Exchange(ctx context.Context, code, redirectURI string) (*ExternalIdentity, error) {
	token, err := g.exchange(ctx, code, redirectURI)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiURL+"/userinfo/v2/me", nil)
	if err != nil {
		return nil, err
	}
	token.SetAuthHeader(req)

	var info struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := g.getJSON(req, &info); err != nil {
		return nil, fmt.Errorf("google user info: %w", err)
	}

	return &ExternalIdentity{Provider: g.Name(), SocialID: info.ID, Email: info.Email, Name: info.Name}, nil
}

var _ Provider = (*Google)(nil)
