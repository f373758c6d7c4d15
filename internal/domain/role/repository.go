// internal/domain/role/repository.go
package role

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	List(ctx context.Context) ([]*Role, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Role, error)
	FindByName(ctx context.Context, name string) (*Role, error)
	Create(ctx context.Context, r *Role) error
	Rename(ctx context.Context, id uuid.UUID, name string) (*Role, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// User roles
	AssignToUser(ctx context.Context, userID, roleID uuid.UUID) error
	RemoveFromUser(ctx context.Context, userID, roleID uuid.UUID) error
	NamesForUser(ctx context.Context, userID uuid.UUID) ([]string, error)
}
