// internal/app/wire.go
package app

import (
	"time"

	"auth-service/internal/config"
	"auth-service/internal/domain/role"
	sessionDomain "auth-service/internal/domain/session"
	"auth-service/internal/domain/user"
	"auth-service/internal/events"
	authHandler "auth-service/internal/handlers/auth"
	roleHandler "auth-service/internal/handlers/role"
	sessionHandler "auth-service/internal/handlers/session"
	socialHandler "auth-service/internal/handlers/social"
	userHandler "auth-service/internal/handlers/user"
	wsHandler "auth-service/internal/handlers/websocket"
	"auth-service/internal/middleware"
	"auth-service/internal/pkg/jwt"
	"auth-service/internal/pkg/session"
	authUsecase "auth-service/internal/service/auth"
	roleUsecase "auth-service/internal/service/role"
	sessionUsecase "auth-service/internal/service/session"
	socialUsecase "auth-service/internal/service/social"
	userUsecase "auth-service/internal/service/user"
	"auth-service/internal/websocket"
	wsHandlers "auth-service/internal/websocket/handler"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const oauthStateTTL = 10 * time.Minute

// Repositories are the stores the services run on: Postgres in production,
// the in-memory store in tests.
type Repositories struct {
	Users    user.Repository
	Roles    role.Repository
	Sessions sessionDomain.Repository
}

type Services struct {
	Auth      *authUsecase.AuthService
	User      *userUsecase.UserService
	Session   *sessionUsecase.SessionService
	Role      *roleUsecase.RoleService
	Resolver  *socialUsecase.Resolver
	Providers socialUsecase.Registry
	States    *session.StateStore
	Limiter   *session.RateLimiter
	Hub       *websocket.Hub
}

func NewServices(
	cfg *config.AppConfig,
	repos Repositories,
	redisClient redis.UniversalClient,
	tokens *jwt.Manager,
	publisher events.Publisher,
	logger *zap.Logger,
	providerOpts ...socialUsecase.Option,
) *Services {
	// ----- Redis-backed stores -----
	revocations := session.NewRevocationStore(redisClient)
	limiter := session.NewRateLimiter(redisClient, cfg.LoginMaxAttempts, cfg.LoginLockWindow)
	states := session.NewStateStore(redisClient, oauthStateTTL)

	// ----- Engine -----
	authService := authUsecase.NewAuthService(
		repos.Sessions,
		repos.Users,
		repos.Roles,
		tokens,
		revocations,
		limiter,
		nil,
		publisher,
		logger,
	)
	sessionService := sessionUsecase.NewSessionService(repos.Sessions, authService, logger)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(authService, logger)
	hub.RegisterHandler(wsHandlers.NewSessionHandler(sessionService))
	authService.SetNotifier(hub)

	return &Services{
		Auth:      authService,
		User:      userUsecase.NewUserService(repos.Users, repos.Roles, logger),
		Session:   sessionService,
		Role:      roleUsecase.NewRoleService(repos.Roles, repos.Users, authService, logger),
		Resolver:  socialUsecase.NewResolver(repos.Users, logger),
		Providers: socialUsecase.NewRegistry(cfg, providerOpts...),
		States:    states,
		Limiter:   limiter,
		Hub:       hub,
	}
}

func NewHandlers(cfg *config.AppConfig, svc *Services, logger *zap.Logger) *Handlers {
	return &Handlers{
		AuthHandler:    authHandler.NewAuthHandler(svc.Auth, logger),
		UserHandler:    userHandler.NewUserHandler(svc.User, logger),
		SessionHandler: sessionHandler.NewSessionHandler(svc.Session, logger),
		RoleHandler:    roleHandler.NewRoleHandler(svc.Role, logger),
		SocialHandler:  socialHandler.NewSocialHandler(svc.Providers, svc.Resolver, svc.Auth, svc.States, cfg, logger),
		WSHandler:      wsHandler.NewWebSocketHandler(svc.Hub, cfg.CORSOrigins, logger),
		AuthMiddleware: middleware.NewAuthMiddleware(svc.Auth),
	}
}
