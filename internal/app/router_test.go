package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auth-service/internal/config"
	"auth-service/internal/events"
	"auth-service/internal/pkg/jwt"
	"auth-service/internal/repository/memory"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	svc    *Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.AppConfig{
		RequireRequestID:    true,
		CORSOrigins:         []string{"*"},
		FrontendRedirectURL: "/",
		LoginMaxAttempts:    5,
		LoginLockWindow:     time.Minute,
	}

	tokens, err := jwt.LoadAndBuild(jwt.Config{
		Secret:     "secret",
		Issuer:     "auth-service",
		AccessTTL:  600 * time.Second,
		RefreshTTL: 604800 * time.Second,
	})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := memory.NewStore()
	repos := Repositories{Users: store.Users(), Roles: store.Roles(), Sessions: store.Sessions()}

	logger := zap.NewNop()
	svc := NewServices(&cfg, repos, client, tokens, events.NopPublisher{}, logger)
	svc.User.SetBcryptCost(bcrypt.MinCost)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go svc.Hub.Run(ctx)

	return &testServer{t: t, engine: NewEngine(&cfg, svc, logger), svc: svc}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", "test-request")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Firefox/118.0")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

type loginData struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (s *testServer) register(email, password string) {
	s.t.Helper()
	w, _ := s.do(http.MethodPost, "/api/v1/register", "", gin.H{"email": email, "password": password, "name": "Test"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
}

func (s *testServer) login(email, password string) loginData {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/login", "", gin.H{"username": email, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var data loginData
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(s.t, data.AccessToken)
	return data
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test-request", w.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsSkipsRequestID(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterLoginCheckAccess(t *testing.T) {
	s := newTestServer(t)
	s.register("ann@example.com", "hunter2")

	w, env := s.do(http.MethodPost, "/api/v1/register", "", gin.H{"email": "ann@example.com", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already registered", env.Message)

	w, env = s.do(http.MethodPost, "/api/v1/login", "", gin.H{"username": "ann@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bad username or password", env.Message)

	pair := s.login("ann@example.com", "hunter2")

	w, _ = s.do(http.MethodGet, "/api/v1/check_access", pair.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/check_access?allow_roles=admin", pair.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Insufficient permissions", env.Message)

	w, _ = s.do(http.MethodGet, "/api/v1/check_access?allow_roles=owner", pair.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/check_access", pair.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/check_access", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	s := newTestServer(t)
	s.register("ann@example.com", "hunter2")
	pair := s.login("ann@example.com", "hunter2")

	w, env := s.do(http.MethodPost, "/api/v1/refresh_tokens", "", gin.H{"refresh_token": "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No active session", env.Message)

	w, env = s.do(http.MethodPost, "/api/v1/refresh_tokens", "", gin.H{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Missing refresh token", env.Message)

	w, env = s.do(http.MethodPost, "/api/v1/refresh_tokens", "", gin.H{"refresh_token": pair.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rotated loginData
	require.NoError(t, json.Unmarshal(env.Data, &rotated))

	// the superseded access token is revoked by the rotation
	w, _ = s.do(http.MethodGet, "/api/v1/check_access", pair.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/logout", rotated.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/check_access", rotated.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/refresh_tokens", "", gin.H{"refresh_token": rotated.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserSessions(t *testing.T) {
	s := newTestServer(t)
	s.register("ann@example.com", "hunter2")
	s.register("bob@example.com", "hunter2")
	first := s.login("ann@example.com", "hunter2")
	second := s.login("ann@example.com", "hunter2")
	bob := s.login("bob@example.com", "hunter2")

	w, env := s.do(http.MethodGet, "/api/v1/user/sessions?active=true", first.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sessions []struct {
		ID     string `json:"id"`
		Device string `json:"device"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sessions))
	require.Len(t, sessions, 2)
	assert.NotEmpty(t, sessions[0].Device)

	for _, query := range []string{"page_size=0", "page_number=0", "page_size=-3"} {
		w, _ = s.do(http.MethodGet, "/api/v1/user/sessions?"+query, first.AccessToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
	w, env = s.do(http.MethodGet, "/api/v1/user/sessions?page_size=1&page_number=2", first.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &sessions))
	assert.Len(t, sessions, 1)

	bobClaims, err := s.svc.Auth.CheckAccess(context.Background(), bob.AccessToken, nil)
	require.NoError(t, err)

	w, env = s.do(http.MethodDelete, "/api/v1/user/sessions/"+bobClaims.SessionID.String(), first.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Session not found", env.Message)

	w, _ = s.do(http.MethodDelete, "/api/v1/user/sessions/not-a-uuid", first.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	secondClaims, err := s.svc.Auth.CheckAccess(context.Background(), second.AccessToken, nil)
	require.NoError(t, err)

	w, _ = s.do(http.MethodDelete, "/api/v1/user/sessions/"+secondClaims.SessionID.String(), first.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/check_access", second.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/check_access", first.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/check_access", bob.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCurrentUser(t *testing.T) {
	s := newTestServer(t)
	s.register("ann@example.com", "hunter2")
	pair := s.login("ann@example.com", "hunter2")

	w, _ := s.do(http.MethodGet, "/api/v1/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := s.do(http.MethodPatch, "/api/v1/user", pair.AccessToken, gin.H{"name": "Ann"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = s.do(http.MethodGet, "/api/v1/user", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var u struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, "Ann", u.Name)
}

func TestAdminRoleGrantRevokesTokens(t *testing.T) {
	s := newTestServer(t)
	_, err := s.svc.User.EnsureAdmin(context.Background(), "root@example.com", "toor", "Root")
	require.NoError(t, err)
	s.register("ann@example.com", "hunter2")

	admin := s.login("root@example.com", "toor")
	ann := s.login("ann@example.com", "hunter2")

	w, _ := s.do(http.MethodGet, "/api/v1/roles", ann.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(http.MethodPost, "/api/v1/roles", admin.AccessToken, gin.H{"name": "subscriber"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	w, env = s.do(http.MethodPost, "/api/v1/roles", admin.AccessToken, gin.H{"name": "subscriber"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Role already exists", env.Message)

	w, _ = s.do(http.MethodPost, "/api/v1/users/"+ann.UserID+"/roles", admin.AccessToken, gin.H{"role_id": created.ID})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	// outstanding access tokens must be refreshed to pick up the role
	w, _ = s.do(http.MethodGet, "/api/v1/check_access", ann.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = s.do(http.MethodPost, "/api/v1/refresh_tokens", "", gin.H{"refresh_token": ann.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var refreshed loginData
	require.NoError(t, json.Unmarshal(env.Data, &refreshed))

	w, _ = s.do(http.MethodGet, "/api/v1/check_access?allow_roles=subscriber", refreshed.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, env = s.do(http.MethodPost, "/api/v1/users/"+ann.UserID+"/roles", admin.AccessToken, gin.H{"role_id": created.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User role already exists", env.Message)

	w, _ = s.do(http.MethodDelete, "/api/v1/users/"+ann.UserID+"/roles", admin.AccessToken, gin.H{"role_id": created.ID})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/check_access", refreshed.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
