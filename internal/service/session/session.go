// internal/service/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auth-service/internal/domain/auth"
	"auth-service/internal/domain/session"
	xerrors "auth-service/internal/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionNotFound = fmt.Errorf("session not found: %w", xerrors.ErrNotFound)

// Ender terminates a session together with the tokens it holds.
type Ender interface {
	EndSession(ctx context.Context, sessionID uuid.UUID, reason string) error
}

type SessionService struct {
	sessions session.Repository
	ender    Ender
	logger   *zap.Logger
	now      func() time.Time
}

func NewSessionService(sessions session.Repository, ender Ender, logger *zap.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		ender:    ender,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *SessionService) SetClock(now func() time.Time) {
	s.now = now
}

// ListUserSessions returns one page of the user's sessions, newest first.
func (s *SessionService) ListUserSessions(ctx context.Context, userID uuid.UUID, query session.ListQuery) ([]*session.SessionResponse, error) {
	pageSize, err := pageParam("page_size", query.PageSize, session.DefaultPageSize)
	if err != nil {
		return nil, err
	}
	pageNumber, err := pageParam("page_number", query.PageNumber, session.DefaultPageNumber)
	if err != nil {
		return nil, err
	}

	filter := session.ListFilter{
		Active:     query.Active,
		PageSize:   pageSize,
		PageNumber: pageNumber,
		Now:        s.now().UTC(),
	}

	items, err := s.sessions.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	out := make([]*session.SessionResponse, 0, len(items))
	for _, item := range items {
		out = append(out, session.ToResponse(item))
	}
	return out, nil
}

func pageParam(name string, v *int, def int) (int, error) {
	if v == nil {
		return def, nil
	}
	if *v < 1 {
		return 0, fmt.Errorf("%w: %s must be at least 1", xerrors.ErrInvalidInput, name)
	}
	return *v, nil
}

// EndUserSession ends one of the caller's own sessions. Sessions of other
// users are reported as missing.
func (s *SessionService) EndUserSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	if _, err := s.sessions.GetForUser(ctx, sessionID, userID); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to load session: %w", err)
	}

	if err := s.ender.EndSession(ctx, sessionID, auth.ReasonEndUserSession); err != nil {
		return err
	}

	s.logger.Info("user ended session",
		zap.String("user_id", userID.String()),
		zap.String("session_id", sessionID.String()),
	)
	return nil
}
