// internal/service/social/yandex.go
package social

import (
	"context"
	"fmt"
	"net/http"

	"auth-service/internal/config"

	"golang.org/x/oauth2/endpoints"
)

const yandexAPIURL = "https://login.yandex.ru"

type Yandex struct {
	oauthProvider
}

func NewYandex(creds config.OAuthClient, opts ...Option) *Yandex {
	return &Yandex{newOAuthProvider(creds, endpoints.Yandex, nil, yandexAPIURL, opts)}
}

func (y *Yandex) Name() string { return "yandex" }

func (y *Yandex) AuthCodeURL(state, redirectURI string) string {
	return y.withRedirect(redirectURI).AuthCodeURL(state)
}

func (y *Yandex) Exchange(ctx context.Context, code, redirectURI string) (*ExternalIdentity, error) {
	token, err := y.exchange(ctx, code, redirectURI)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.apiURL+"/info?format=json", nil)
	if err != nil {
		return nil, err
	}
	// yandex wants its own scheme instead of Bearer
	req.Header.Set("Authorization", "OAuth "+token.AccessToken)

	var info struct {
		PSUID        string `json:"psuid"`
		DefaultEmail string `json:"default_email"`
		RealName     string `json:"real_name"`
	}
	if err := y.getJSON(req, &info); err != nil {
		return nil, fmt.Errorf("yandex user info: %w", err)
	}

	return &ExternalIdentity{Provider: y.Name(), SocialID: info.PSUID, Email: info.DefaultEmail, Name: info.RealName}, nil
}

var _ Provider = (*Yandex)(nil)
