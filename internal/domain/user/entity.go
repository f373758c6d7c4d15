// internal/domain/user/entity.go
package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Name         string     `json:"name" db:"name"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	ModifiedAt   *time.Time `json:"modified_at,omitempty" db:"modified_at"`
}

// SocialAccount links a user to an identity at an external provider.
type SocialAccount struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	SocialID   string    `json:"social_id" db:"social_id"`
	SocialName string    `json:"social_name" db:"social_name"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
