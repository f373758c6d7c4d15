// internal/service/social/resolver.go
package social

import (
	"context"
	"errors"
	"fmt"

	"auth-service/internal/domain/user"
	xerrors "auth-service/internal/pkg/errors"
	"auth-service/internal/pkg/random"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const generatedPasswordLength = 16

// Resolver maps an external identity onto a local user, creating one on first sign-in.
type Resolver struct {
	users      user.Repository
	logger     *zap.Logger
	bcryptCost int
}

func NewResolver(users user.Repository, logger *zap.Logger) *Resolver {
	return &Resolver{users: users, logger: logger, bcryptCost: bcrypt.DefaultCost}
}

func (r *Resolver) SetBcryptCost(cost int) {
	r.bcryptCost = cost
}

// ResolveUser looks the identity up by linked account, then by email, and
// provisions a user with a random password as a last resort.
func (r *Resolver) ResolveUser(ctx context.Context, ext *ExternalIdentity) (*user.User, error) {
	if ext.SocialID == "" {
		return nil, fmt.Errorf("%w: %s returned no account id", xerrors.ErrUnauthorized, ext.Provider)
	}

	u, err := r.users.FindBySocialAccount(ctx, ext.SocialID, ext.Provider)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, xerrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to find social account: %w", err)
	}

	if ext.Email == "" {
		return nil, fmt.Errorf("%w: %s returned no email", xerrors.ErrUnauthorized, ext.Provider)
	}

	acc := &user.SocialAccount{SocialID: ext.SocialID, SocialName: ext.Provider}

	u, err = r.users.FindByEmail(ctx, ext.Email)
	switch {
	case err == nil:
		acc.UserID = u.ID
		if err := r.users.LinkSocialAccount(ctx, acc); err != nil {
			return nil, fmt.Errorf("failed to link social account: %w", err)
		}
		r.logger.Info("social account linked",
			zap.String("user_id", u.ID.String()),
			zap.String("provider", ext.Provider),
		)
		return u, nil
	case !errors.Is(err, xerrors.ErrNotFound):
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	password, err := random.String(generatedPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), r.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u = &user.User{Email: ext.Email, Name: ext.Name, PasswordHash: string(hashed)}
	if err := r.users.CreateWithSocialAccount(ctx, u, acc); err != nil {
		return nil, fmt.Errorf("failed to provision user: %w", err)
	}

	r.logger.Info("user provisioned from social login",
		zap.String("user_id", u.ID.String()),
		zap.String("provider", ext.Provider),
	)
	return u, nil
}
