// internal/domain/user/repository.go
package user

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create inserts u and fills in its ID and CreatedAt. Taken emails fail with xerrors.ErrConflict.
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// Update writes email, name and password hash.
	Update(ctx context.Context, u *User) error

	// Social accounts
	FindBySocialAccount(ctx context.Context, socialID, socialName string) (*User, error)
	LinkSocialAccount(ctx context.Context, acc *SocialAccount) error
	// CreateWithSocialAccount inserts u and links acc to it atomically.
	CreateWithSocialAccount(ctx context.Context, u *User, acc *SocialAccount) error
}
