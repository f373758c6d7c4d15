// internal/domain/session/dto.go
package session

import (
	"time"

	"auth-service/internal/pkg/device"

	"github.com/google/uuid"
)

const (
	DefaultPageSize   = 20
	DefaultPageNumber = 1
)

// ListQuery is bound from GET /user/sessions. Absent paging fields take the
// defaults; present ones must be at least 1.
type ListQuery struct {
	Active     *bool `form:"active"`
	PageSize   *int  `form:"page_size" binding:"omitempty,min=1"`
	PageNumber *int  `form:"page_number" binding:"omitempty,min=1"`
}

// ListFilter selects a page of a user's sessions, newest first.
type ListFilter struct {
	Active     *bool
	PageSize   int
	PageNumber int
	Now        time.Time
}

func (f ListFilter) Offset() int {
	return f.PageSize * (f.PageNumber - 1)
}

type SessionResponse struct {
	ID            uuid.UUID  `json:"id"`
	UserAgent     string     `json:"user_agent"`
	Device        string     `json:"device"`
	CreatedAt     time.Time  `json:"created_at"`
	ModifiedAt    *time.Time `json:"modified_at"`
	SessionExpiry *time.Time `json:"session_exp"`
}

func ToResponse(s *Session) *SessionResponse {
	return &SessionResponse{
		ID:            s.ID,
		UserAgent:     s.UserAgent,
		Device:        device.Describe(s.UserAgent),
		CreatedAt:     s.CreatedAt,
		ModifiedAt:    s.ModifiedAt,
		SessionExpiry: s.SessionExpiry,
	}
}
