// internal/domain/session/entity.go
package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is one login of a user. Its token ids always name the latest minted pair.
type Session struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	UserAgent     string     `json:"user_agent" db:"user_agent"`
	AccessJTI     *uuid.UUID `json:"-" db:"access_jti"`
	RefreshJTI    *uuid.UUID `json:"-" db:"refresh_jti"`
	SessionExpiry *time.Time `json:"session_exp" db:"session_exp"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	ModifiedAt    *time.Time `json:"modified_at" db:"modified_at"`
}

// Active reports whether the session still has a live refresh window at now.
func (s *Session) Active(now time.Time) bool {
	return s.SessionExpiry != nil && !s.SessionExpiry.Before(now)
}

// Ended reports whether the expiry has passed. A session that was never
// given tokens has not ended, so listings count it as active.
func (s *Session) Ended(now time.Time) bool {
	return s.SessionExpiry != nil && s.SessionExpiry.Before(now)
}
