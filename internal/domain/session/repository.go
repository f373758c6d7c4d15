// internal/domain/session/repository.go
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, userID uuid.UUID, userAgent string, now time.Time) (*Session, error)
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	// GetForUser only finds id when it belongs to userID.
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*Session, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*Session, error)
	// ListActiveAccessJTIs returns the access ids of userID's sessions that are active at now.
	ListActiveAccessJTIs(ctx context.Context, userID uuid.UUID, now time.Time) ([]uuid.UUID, error)
	// SetTokens replaces both token ids and the expiry in one statement, but only
	// while the stored refresh id still equals current (nil for a fresh session).
	// A session that moved on yields xerrors.ErrConflict.
	SetTokens(ctx context.Context, id uuid.UUID, current *uuid.UUID, accessJTI, refreshJTI uuid.UUID, expiry, now time.Time) error
	// ForceExpire caps the expiry at now and returns the updated row.
	ForceExpire(ctx context.Context, id uuid.UUID, now time.Time) (*Session, error)
}
