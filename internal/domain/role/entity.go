// internal/domain/role/entity.go
package role

import (
	"time"

	"github.com/google/uuid"
)

const (
	Admin      = "admin"
	Subscriber = "subscriber"
)

type Role struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ModifiedAt *time.Time `json:"modified_at,omitempty" db:"modified_at"`
}
