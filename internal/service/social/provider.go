// internal/service/social/provider.go
package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"auth-service/internal/config"

	"golang.org/x/oauth2"
)

// ExternalIdentity is what a provider tells us about the person who signed in.
type ExternalIdentity struct {
	Provider string
	SocialID string
	Email    string
	Name     string
}

type Provider interface {
	Name() string
	AuthCodeURL(state, redirectURI string) string
	Exchange(ctx context.Context, code, redirectURI string) (*ExternalIdentity, error)
}

// Option overrides provider endpoints, mainly for tests.
type Option func(*oauthProvider)

func WithEndpoint(ep oauth2.Endpoint) Option {
	return func(p *oauthProvider) { p.config.Endpoint = ep }
}

func WithAPIURL(url string) Option {
	return func(p *oauthProvider) { p.apiURL = url }
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *oauthProvider) { p.client = c }
}

// oauthProvider carries what every authorization-code provider shares.
type oauthProvider struct {
	config oauth2.Config
	apiURL string
	client *http.Client
}

func newOAuthProvider(creds config.OAuthClient, ep oauth2.Endpoint, scopes []string, apiURL string, opts []Option) oauthProvider {
	p := oauthProvider{
		config: oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     ep,
			Scopes:       scopes,
		},
		apiURL: apiURL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// withRedirect returns a copy of the config bound to redirectURI.
func (p *oauthProvider) withRedirect(redirectURI string) *oauth2.Config {
	cfg := p.config
	cfg.RedirectURL = redirectURI
	return &cfg
}

func (p *oauthProvider) exchange(ctx context.Context, code, redirectURI string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	token, err := p.withRedirect(redirectURI).Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return token, nil
}

// getJSON issues req and decodes a 200 answer into out.
func (p *oauthProvider) getJSON(req *http.Request, out interface{}) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("request %s: status %s", req.URL.Path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

// Registry holds the configured providers by name.
type Registry map[string]Provider

// NewRegistry builds a provider for every network with credentials in cfg.
func NewRegistry(cfg *config.AppConfig, opts ...Option) Registry {
	r := Registry{}
	if cfg.Google.Enabled() {
		r.add(NewGoogle(cfg.Google, opts...))
	}
	if cfg.VK.Enabled() {
		r.add(NewVK(cfg.VK, opts...))
	}
	if cfg.Yandex.Enabled() {
		r.add(NewYandex(cfg.Yandex, opts...))
	}
	return r
}

func (r Registry) add(p Provider) {
	r[p.Name()] = p
}

func (r Registry) Get(name string) (Provider, bool) {
	p, ok := r[name]
	return p, ok
}
