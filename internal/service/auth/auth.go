// internal/service/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auth-service/internal/domain/auth"
	"auth-service/internal/domain/session"
	"auth-service/internal/domain/user"
	"auth-service/internal/events"
	xerrors "auth-service/internal/pkg/errors"
	"auth-service/internal/pkg/jwt"
	"auth-service/internal/pkg/metrics"
	"auth-service/internal/pkg/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

// Revoker records token ids that must no longer be accepted.
type Revoker interface {
	Revoke(ctx context.Context, jti uuid.UUID, reason string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti uuid.UUID) (bool, error)
	Reason(ctx context.Context, jti uuid.UUID) (string, error)
}

type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
}

type RoleSource interface {
	NamesForUser(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// Notifier pushes session changes to connected clients.
type Notifier interface {
	ForceLogout(userID, sessionID uuid.UUID, reason string)
	TokensRevoked(userID uuid.UUID, reason string)
}

// LoginLimiter throttles password guessing per client and account.
type LoginLimiter interface {
	IsLoginLocked(ctx context.Context, ip, email string) (bool, error)
	RecordLoginFailure(ctx context.Context, ip, email string) (int64, error)
	ResetLoginAttempts(ctx context.Context, ip, email string) error
}

const defaultRevokeConcurrency = 16

type AuthService struct {
	sessions session.Repository
	users    UserFinder
	roles    RoleSource
	tokens   *jwt.Manager
	revoked  Revoker
	limiter  LoginLimiter
	notifier Notifier
	events   events.Publisher
	logger   *zap.Logger
	now      func() time.Time

	revokeConcurrency int
}

func NewAuthService(
	sessions session.Repository,
	users UserFinder,
	roles RoleSource,
	tokens *jwt.Manager,
	revoked Revoker,
	limiter LoginLimiter,
	notifier Notifier,
	publisher events.Publisher,
	logger *zap.Logger,
) *AuthService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &AuthService{
		sessions:          sessions,
		users:             users,
		roles:             roles,
		tokens:            tokens,
		revoked:           revoked,
		limiter:           limiter,
		notifier:          notifier,
		events:            publisher,
		logger:            logger,
		now:               time.Now,
		revokeConcurrency: defaultRevokeConcurrency,
	}
}

// SetClock replaces the service clock. The token manager must share it.
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

// SetNotifier attaches the realtime notifier once it exists.
func (s *AuthService) SetNotifier(n Notifier) {
	if n != nil {
		s.notifier = n
	}
}

func (s *AuthService) clock() time.Time {
	return s.now().UTC()
}

// ========== Login ==========

// Authenticate resolves a local identity from email and password
func (s *AuthService) Authenticate(ctx context.Context, req *auth.LoginRequest) (*user.User, error) {
	if s.limiter != nil {
		locked, err := s.limiter.IsLoginLocked(ctx, req.IPAddress, req.Username)
		if err != nil {
			return nil, xerrors.Unavailable(err, "check login attempts")
		}
		if locked {
			metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
			return nil, fmt.Errorf("%w: too many failed logins", xerrors.ErrRateLimited)
		}
	}

	u, err := s.users.FindByEmail(ctx, req.Username)
	if err != nil && !errors.Is(err, xerrors.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		if s.limiter != nil {
			if _, lerr := s.limiter.RecordLoginFailure(ctx, req.IPAddress, req.Username); lerr != nil {
				s.logger.Warn("failed to record login failure", zap.Error(lerr))
			}
		}
		return nil, fmt.Errorf("%w: bad username or password", xerrors.ErrUnauthorized)
	}

	if s.limiter != nil {
		if err := s.limiter.ResetLoginAttempts(ctx, req.IPAddress, req.Username); err != nil {
			s.logger.Warn("failed to reset login attempts", zap.Error(err))
		}
	}
	return u, nil
}

// LoginWithPassword authenticates the request and opens a session for it
func (s *AuthService) LoginWithPassword(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error) {
	u, err := s.Authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.Login(ctx, u, req.UserAgent)
}

// Login opens a new session for an already resolved user and mints its first pair.
func (s *AuthService) Login(ctx context.Context, u *user.User, userAgent string) (*auth.LoginResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "auth.Login")
	defer span.End()

	now := s.clock()
	sess, err := s.sessions.Create(ctx, u.ID, userAgent, now)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	span.SetAttributes(attribute.String("session_id", sess.ID.String()))

	access, refresh, err := s.issue(ctx, sess.ID, u.ID, nil, now)
	if err != nil {
		return nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.publish(ctx, events.Event{Type: events.SessionStarted, UserID: u.ID, SessionID: sess.ID, OccurredAt: now})
	s.logger.Info("session started",
		zap.String("user_id", u.ID.String()),
		zap.String("session_id", sess.ID.String()),
	)

	return &auth.LoginResponse{
		UserID:       u.ID,
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
	}, nil
}

// issue mints a pair with the user's current roles and binds it to the session
// as long as the session still holds the refresh id current. Nothing is
// returned unless the session row was updated.
func (s *AuthService) issue(ctx context.Context, sessionID, userID uuid.UUID, current *uuid.UUID, now time.Time) (*jwt.Minted, *jwt.Minted, error) {
	roles, err := s.roles.NamesForUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load roles: %w", err)
	}

	access, refresh, err := s.tokens.Generator.MintPair(userID, sessionID, roles)
	if err != nil {
		return nil, nil, fmt.Errorf("mint tokens: %w", err)
	}

	if err := s.sessions.SetTokens(ctx, sessionID, current, access.JTI, refresh.JTI, refresh.ExpiresAt, now); err != nil {
		return nil, nil, fmt.Errorf("store session tokens: %w", err)
	}
	return access, refresh, nil
}

// ========== Access Check ==========

// CheckAccess validates an access token and, when allowRoles is not empty,
// requires the token's role snapshot to contain at least one of them.
func (s *AuthService) CheckAccess(ctx context.Context, accessToken string, allowRoles []string) (*jwt.Claims, error) {
	claims, err := s.tokens.Verifier.VerifyAccess(accessToken)
	if err != nil {
		metrics.AccessChecksTotal.WithLabelValues("unauthorized").Inc()
		return nil, fmt.Errorf("%w: %v", xerrors.ErrUnauthorized, err)
	}

	reason, err := s.revoked.Reason(ctx, claims.TokenID())
	if err != nil {
		metrics.AccessChecksTotal.WithLabelValues("unavailable").Inc()
		return nil, xerrors.Unavailable(err, "check revocation")
	}
	if reason != "" {
		metrics.AccessChecksTotal.WithLabelValues("unauthorized").Inc()
		s.logger.Debug("revoked access token presented",
			zap.String("session_id", claims.SessionID.String()),
			zap.String("reason", reason),
		)
		return nil, fmt.Errorf("%w: token revoked: %s", xerrors.ErrUnauthorized, reason)
	}

	if len(allowRoles) > 0 && !claims.HasAnyRole(allowRoles...) {
		metrics.AccessChecksTotal.WithLabelValues("forbidden").Inc()
		return nil, fmt.Errorf("%w: requires one of %v", xerrors.ErrForbidden, allowRoles)
	}

	metrics.AccessChecksTotal.WithLabelValues("ok").Inc()
	return claims, nil
}

// ========== Logout ==========

// Logout revokes the presented access token and ends its session
func (s *AuthService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if err := s.revoke(ctx, claims.TokenID(), auth.ReasonLogout, s.tokens.Generator.TTL(jwt.KindAccess)); err != nil {
		return err
	}

	err := s.EndSession(ctx, claims.SessionID, auth.ReasonLogout)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil
	}
	return err
}

// ========== Refresh ==========

// RefreshTokens rotates the pair of a live session. Presenting a refresh token
// that is not the session's current one ends the session.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	ctx, span := telemetry.StartSpan(ctx, "auth.RefreshTokens")
	defer span.End()

	claims, err := s.tokens.Verifier.VerifyRefresh(refreshToken)
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %v", xerrors.ErrUnauthorized, err)
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		return nil, xerrors.Unavailable(err, "check revocation")
	}
	if revoked {
		metrics.TokenRefreshTotal.WithLabelValues("revoked").Inc()
		return nil, fmt.Errorf("%w: refresh token revoked", xerrors.ErrUnauthorized)
	}

	now := s.clock()
	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: no active session", xerrors.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.UserID != claims.UserID() || !sess.Active(now) {
		metrics.TokenRefreshTotal.WithLabelValues("expired").Inc()
		return nil, fmt.Errorf("%w: no active session", xerrors.ErrUnauthorized)
	}

	presented := claims.TokenID()
	if sess.RefreshJTI == nil || *sess.RefreshJTI != presented {
		return nil, s.replayed(ctx, sess, presented, now)
	}

	if sess.AccessJTI != nil {
		if err := s.revoke(ctx, *sess.AccessJTI, auth.ReasonRefresh, s.tokens.Generator.TTL(jwt.KindAccess)); err != nil {
			return nil, err
		}
	}

	access, refresh, err := s.issue(ctx, sess.ID, sess.UserID, &presented, now)
	if errors.Is(err, xerrors.ErrConflict) {
		// a concurrent refresh with the same token rotated the session first
		return nil, s.replayed(ctx, sess, presented, now)
	}
	if err != nil {
		return nil, err
	}

	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	s.publish(ctx, events.Event{Type: events.SessionRefreshed, UserID: sess.UserID, SessionID: sess.ID, OccurredAt: now})

	return &auth.TokenPair{AccessToken: access.Token, RefreshToken: refresh.Token}, nil
}

// replayed ends a session whose refresh token was presented after it stopped
// being the current one.
func (s *AuthService) replayed(ctx context.Context, sess *session.Session, jti uuid.UUID, now time.Time) error {
	metrics.RefreshReplaysTotal.Inc()
	metrics.TokenRefreshTotal.WithLabelValues("replay").Inc()
	s.logger.Warn("refresh token replay detected",
		zap.String("user_id", sess.UserID.String()),
		zap.String("session_id", sess.ID.String()),
		zap.String("jti", jti.String()),
	)
	s.publish(ctx, events.Event{Type: events.RefreshReplayed, UserID: sess.UserID, SessionID: sess.ID, OccurredAt: now})
	if err := s.EndSession(ctx, sess.ID, auth.ReasonRefreshReplay); err != nil {
		return fmt.Errorf("end replayed session: %w", err)
	}
	return fmt.Errorf("%w: refresh token reused", xerrors.ErrUnauthorized)
}

// ========== Session Termination ==========

// EndSession force-expires a session and revokes the pair it currently holds.
// Ending an already ended session is harmless.
func (s *AuthService) EndSession(ctx context.Context, sessionID uuid.UUID, reason string) error {
	ctx, span := telemetry.StartSpan(ctx, "auth.EndSession")
	defer span.End()

	now := s.clock()
	sess, err := s.sessions.ForceExpire(ctx, sessionID, now)
	if err != nil {
		return fmt.Errorf("expire session: %w", err)
	}

	if sess.AccessJTI != nil {
		if err := s.revoke(ctx, *sess.AccessJTI, reason, s.tokens.Generator.TTL(jwt.KindAccess)); err != nil {
			return err
		}
	}
	if sess.RefreshJTI != nil {
		if err := s.revoke(ctx, *sess.RefreshJTI, reason, s.tokens.Generator.TTL(jwt.KindRefresh)); err != nil {
			return err
		}
	}

	metrics.SessionsEndedTotal.WithLabelValues(reason).Inc()
	s.notifier.ForceLogout(sess.UserID, sess.ID, reason)
	s.publish(ctx, events.Event{Type: events.SessionEnded, UserID: sess.UserID, SessionID: sess.ID, Reason: reason, OccurredAt: now})
	s.logger.Info("session ended",
		zap.String("user_id", sess.UserID.String()),
		zap.String("session_id", sess.ID.String()),
		zap.String("reason", reason),
	)
	return nil
}

// RevokeAllAccessTokens revokes the access token of every live session of a
// user so that the next request forces a refresh with fresh roles. Sessions
// and refresh tokens are left alone.
func (s *AuthService) RevokeAllAccessTokens(ctx context.Context, userID uuid.UUID, reason string) error {
	ctx, span := telemetry.StartSpan(ctx, "auth.RevokeAllAccessTokens")
	defer span.End()

	now := s.clock()
	ids, err := s.sessions.ListActiveAccessJTIs(ctx, userID, now)
	if err != nil {
		return fmt.Errorf("list access tokens: %w", err)
	}

	ttl := s.tokens.Generator.TTL(jwt.KindAccess)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.revokeConcurrency)
	for _, jti := range ids {
		g.Go(func() error {
			return s.revoke(gctx, jti, reason, ttl)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.notifier.TokensRevoked(userID, reason)
	s.publish(ctx, events.Event{Type: events.AccessRevoked, UserID: userID, Reason: reason, Count: len(ids), OccurredAt: now})
	s.logger.Info("access tokens revoked",
		zap.String("user_id", userID.String()),
		zap.String("reason", reason),
		zap.Int("count", len(ids)),
	)
	return nil
}

// ========== Helpers ==========

func (s *AuthService) revoke(ctx context.Context, jti uuid.UUID, reason string, ttl time.Duration) error {
	if err := s.revoked.Revoke(ctx, jti, reason, ttl); err != nil {
		return xerrors.Unavailable(err, "revoke token")
	}
	metrics.TokensRevokedTotal.WithLabelValues(reason).Inc()
	return nil
}

func (s *AuthService) publish(ctx context.Context, e events.Event) {
	s.events.Publish(context.WithoutCancel(ctx), e)
}

type nopNotifier struct{}

func (nopNotifier) ForceLogout(uuid.UUID, uuid.UUID, string) {}

func (nopNotifier) TokensRevoked(uuid.UUID, string) {}
