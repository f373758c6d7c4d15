// internal/handlers/social/social_handler.go
package social

import (
	"net/http"
	"strings"

	"auth-service/internal/config"
	"auth-service/internal/pkg/random"
	"auth-service/internal/pkg/response"
	"auth-service/internal/pkg/session"
	authUsecase "auth-service/internal/service/auth"
	socialUsecase "auth-service/internal/service/social"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	stateCookie = "oauth_state"
	stateLength = 16
)

type SocialHandler struct {
	providers   socialUsecase.Registry
	resolver    *socialUsecase.Resolver
	authService *authUsecase.AuthService
	states      *session.StateStore
	cfg         *config.AppConfig
	logger      *zap.Logger
}

func NewSocialHandler(
	providers socialUsecase.Registry,
	resolver *socialUsecase.Resolver,
	authService *authUsecase.AuthService,
	states *session.StateStore,
	cfg *config.AppConfig,
	logger *zap.Logger,
) *SocialHandler {
	return &SocialHandler{
		providers:   providers,
		resolver:    resolver,
		authService: authService,
		states:      states,
		cfg:         cfg,
		logger:      logger,
	}
}

func (h *SocialHandler) provider(c *gin.Context) (socialUsecase.Provider, bool) {
	p, ok := h.providers.Get(c.Param("provider"))
	if !ok {
		response.NotFound(c, "Unknown provider")
	}
	return p, ok
}

// redirectURI is the callback address registered with the provider
func (h *SocialHandler) redirectURI(c *gin.Context, provider string) string {
	base := h.cfg.PublicBaseURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
			scheme = strings.ToLower(proto)
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/api/v1/social/" + provider + "/auth"
}

func (h *SocialHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", h.cfg.CookieSecure, true)
}

// Login redirects the browser to the provider's consent page
func (h *SocialHandler) Login(c *gin.Context) {
	p, ok := h.provider(c)
	if !ok {
		return
	}

	state, err := random.String(stateLength)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to start social login", nil)
		return
	}
	if err := h.states.Save(c.Request.Context(), state, p.Name()); err != nil {
		h.logger.Error("failed to save oauth state", zap.Error(err))
		response.Error(c, http.StatusServiceUnavailable, "service temporarily unavailable", nil)
		return
	}

	h.setCookie(c, stateCookie, state, 0)
	c.Redirect(http.StatusTemporaryRedirect, p.AuthCodeURL(state, h.redirectURI(c, p.Name())))
}

// Auth finishes the code flow, opens a session and hands the tokens to the
// frontend in cookies.
func (h *SocialHandler) Auth(c *gin.Context) {
	p, ok := h.provider(c)
	if !ok {
		return
	}

	code, state := c.Query("code"), c.Query("state")
	cookieState, _ := c.Cookie(stateCookie)
	h.setCookie(c, stateCookie, "", -1)

	if code == "" || state == "" || cookieState != state {
		response.Unauthorized(c, "State check failed")
		return
	}
	valid, err := h.states.Consume(c.Request.Context(), state, p.Name())
	if err != nil {
		h.logger.Error("failed to check oauth state", zap.Error(err))
		response.Error(c, http.StatusServiceUnavailable, "service temporarily unavailable", nil)
		return
	}
	if !valid {
		response.Unauthorized(c, "State check failed")
		return
	}

	ext, err := p.Exchange(c.Request.Context(), code, h.redirectURI(c, p.Name()))
	if err != nil {
		h.logger.Warn("social code exchange failed", zap.String("provider", p.Name()), zap.Error(err))
		response.Unauthorized(c, "Unauthorized")
		return
	}

	u, err := h.resolver.ResolveUser(c.Request.Context(), ext)
	if err != nil {
		h.logger.Warn("social user resolution failed", zap.String("provider", p.Name()), zap.Error(err))
		response.FromError(c, "Unauthorized", err)
		return
	}

	loginResp, err := h.authService.Login(c.Request.Context(), u, c.GetHeader("User-Agent"))
	if err != nil {
		response.FromError(c, "login failed", err)
		return
	}

	h.setCookie(c, "user_id", loginResp.UserID.String(), 0)
	h.setCookie(c, "access_token", loginResp.AccessToken, 0)
	h.setCookie(c, "refresh_token", loginResp.RefreshToken, 0)
	c.Redirect(http.StatusTemporaryRedirect, h.cfg.FrontendRedirectURL)
}
