package social

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"auth-service/internal/config"
	"auth-service/internal/domain/user"
	xerrors "auth-service/internal/pkg/errors"
	"auth-service/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

var creds = config.OAuthClient{ClientID: "client", ClientSecret: "secret"}

const redirectURI = "http://localhost/api/v1/social/x/auth"

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fakeProvider serves a token endpoint plus whatever profile routes the test adds.
func fakeProvider(t *testing.T, token map[string]interface{}, routes map[string]http.HandlerFunc) (*httptest.Server, []Option) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		assert.Equal(t, redirectURI, r.PostForm.Get("redirect_uri"))
		writeJSON(w, http.StatusOK, token)
	})
	for path, h := range routes {
		mux.HandleFunc(path, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, []Option{
		WithEndpoint(oauth2.Endpoint{
			AuthURL:   srv.URL + "/authorize",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}),
		WithAPIURL(srv.URL),
		WithHTTPClient(srv.Client()),
	}
}

func TestGoogleExchange(t *testing.T) {
	_, opts := fakeProvider(t,
		map[string]interface{}{"access_token": "tok", "token_type": "Bearer"},
		map[string]http.HandlerFunc{
			"/userinfo/v2/me": func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				writeJSON(w, http.StatusOK, map[string]string{"id": "g-1", "email": "ann@gmail.com", "name": "Ann"})
			},
		})
	g := NewGoogle(creds, opts...)

	ext, err := g.Exchange(context.Background(), "good-code", redirectURI)
	require.NoError(t, err)
	assert.Equal(t, &ExternalIdentity{Provider: "google", SocialID: "g-1", Email: "ann@gmail.com", Name: "Ann"}, ext)

	_, err = g.Exchange(context.Background(), "bad-code", redirectURI)
	assert.Error(t, err)
}

func TestGoogleProfileFailure(t *testing.T) {
	_, opts := fakeProvider(t,
		map[string]interface{}{"access_token": "tok"},
		map[string]http.HandlerFunc{
			"/userinfo/v2/me": func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		})

	_, err := NewGoogle(creds, opts...).Exchange(context.Background(), "good-code", redirectURI)
	assert.Error(t, err)
}

func TestVKExchange(t *testing.T) {
	_, opts := fakeProvider(t,
		map[string]interface{}{"access_token": "tok", "user_id": 9876543, "email": "ivan@vk.com"},
		map[string]http.HandlerFunc{
			"/method/users.get": func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "5.154", r.URL.Query().Get("v"))
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				writeJSON(w, http.StatusOK, map[string]interface{}{
					"response": []map[string]string{{"first_name": "Ivan", "last_name": "Petrov"}},
				})
			},
		})

	ext, err := NewVK(creds, opts...).Exchange(context.Background(), "good-code", redirectURI)
	require.NoError(t, err)
	assert.Equal(t, &ExternalIdentity{Provider: "vk", SocialID: "9876543", Email: "ivan@vk.com", Name: "Ivan Petrov"}, ext)
}

func TestVKNameIsBestEffort(t *testing.T) {
	_, opts := fakeProvider(t,
		map[string]interface{}{"access_token": "tok", "user_id": 1},
		map[string]http.HandlerFunc{
			"/method/users.get": func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		})

	ext, err := NewVK(creds, opts...).Exchange(context.Background(), "good-code", redirectURI)
	require.NoError(t, err)
	assert.Equal(t, "1", ext.SocialID)
	assert.Empty(t, ext.Name)
	assert.Empty(t, ext.Email)
}

func TestVKAuthCodeURL(t *testing.T) {
	_, opts := fakeProvider(t, nil, nil)

	raw := NewVK(creds, opts...).AuthCodeURL("st4te", redirectURI)
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "st4te", q.Get("state"))
	assert.Equal(t, redirectURI, q.Get("redirect_uri"))
	assert.Equal(t, "page", q.Get("display"))
	assert.Equal(t, vkEmailScope, q.Get("scope"))
	assert.Equal(t, "client", q.Get("client_id"))
}

func TestYandexExchange(t *testing.T) {
	_, opts := fakeProvider(t,
		map[string]interface{}{"access_token": "tok", "token_type": "bearer"},
		map[string]http.HandlerFunc{
			"/info": func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "OAuth tok", r.Header.Get("Authorization"))
				writeJSON(w, http.StatusOK, map[string]string{"psuid": "y-1", "default_email": "olga@yandex.ru", "real_name": "Olga"})
			},
		})

	ext, err := NewYandex(creds, opts...).Exchange(context.Background(), "good-code", redirectURI)
	require.NoError(t, err)
	assert.Equal(t, &ExternalIdentity{Provider: "yandex", SocialID: "y-1", Email: "olga@yandex.ru", Name: "Olga"}, ext)
}

func TestNewRegistryOnlyConfiguredProviders(t *testing.T) {
	r := NewRegistry(&config.AppConfig{Google: creds, Yandex: creds})

	_, ok := r.Get("google")
	assert.True(t, ok)
	_, ok = r.Get("yandex")
	assert.True(t, ok)
	_, ok = r.Get("vk")
	assert.False(t, ok)
}

// ========== Resolver ==========

func newResolver(t *testing.T) (*Resolver, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	r := NewResolver(store.Users(), zap.NewNop())
	r.SetBcryptCost(bcrypt.MinCost)
	return r, store
}

func TestResolveUserProvisionsThenReuses(t *testing.T) {
	r, store := newResolver(t)
	ctx := context.Background()
	ext := &ExternalIdentity{Provider: "google", SocialID: "g-1", Email: "ann@gmail.com", Name: "Ann"}

	first, err := r.ResolveUser(ctx, ext)
	require.NoError(t, err)
	assert.Equal(t, "Ann", first.Name)
	assert.NotEmpty(t, first.PasswordHash)

	linked, err := store.Users().FindBySocialAccount(ctx, "g-1", "google")
	require.NoError(t, err)
	assert.Equal(t, first.ID, linked.ID)

	// provider email changed; the link still wins
	again, err := r.ResolveUser(ctx, &ExternalIdentity{Provider: "google", SocialID: "g-1", Email: "other@gmail.com"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestResolveUserLinksByEmail(t *testing.T) {
	r, store := newResolver(t)
	ctx := context.Background()

	existing := &user.User{Email: "ivan@vk.com", PasswordHash: "x"}
	require.NoError(t, store.Users().Create(ctx, existing))

	got, err := r.ResolveUser(ctx, &ExternalIdentity{Provider: "vk", SocialID: "42", Email: "ivan@vk.com"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)

	linked, err := store.Users().FindBySocialAccount(ctx, "42", "vk")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, linked.ID)
}

func TestResolveUserNeedsIdentity(t *testing.T) {
	r, _ := newResolver(t)
	ctx := context.Background()

	_, err := r.ResolveUser(ctx, &ExternalIdentity{Provider: "vk", SocialID: "42"})
	assert.True(t, errors.Is(err, xerrors.ErrUnauthorized))

	_, err = r.ResolveUser(ctx, &ExternalIdentity{Provider: "vk", Email: "a@b.c"})
	assert.True(t, errors.Is(err, xerrors.ErrUnauthorized))
}
