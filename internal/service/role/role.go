// internal/service/role/role.go
package role

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"auth-service/internal/domain/auth"
	"auth-service/internal/domain/role"
	"auth-service/internal/domain/user"
	xerrors "auth-service/internal/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrRoleExists   = fmt.Errorf("role already exists: %w", xerrors.ErrConflict)
	ErrRoleNotFound = fmt.Errorf("role not found: %w", xerrors.ErrNotFound)

	// grant input errors are client mistakes, not missing resources
	ErrUnknownUser      = fmt.Errorf("user not found: %w", xerrors.ErrBadRequest)
	ErrUnknownRole      = fmt.Errorf("role not found: %w", xerrors.ErrBadRequest)
	ErrUserRoleExists   = fmt.Errorf("user role already exists: %w", xerrors.ErrConflict)
	ErrUserRoleNotFound = fmt.Errorf("user role not found: %w", xerrors.ErrNotFound)
)

// AccessRevoker drops a user's live access tokens so new ones pick up role changes.
type AccessRevoker interface {
	RevokeAllAccessTokens(ctx context.Context, userID uuid.UUID, reason string) error
}

type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type RoleService struct {
	roles   role.Repository
	users   UserLookup
	revoker AccessRevoker
	logger  *zap.Logger
}

func NewRoleService(roles role.Repository, users UserLookup, revoker AccessRevoker, logger *zap.Logger) *RoleService {
	return &RoleService{
		roles:   roles,
		users:   users,
		revoker: revoker,
		logger:  logger,
	}
}

func (s *RoleService) List(ctx context.Context) ([]*role.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

func (s *RoleService) Create(ctx context.Context, req *role.CreateRequest) (*role.Role, error) {
	r := &role.Role{Name: strings.TrimSpace(req.Name)}
	if r.Name == "" {
		return nil, fmt.Errorf("role name is empty: %w", xerrors.ErrInvalidInput)
	}
	if err := s.roles.Create(ctx, r); err != nil {
		if errors.Is(err, xerrors.ErrConflict) {
			return nil, ErrRoleExists
		}
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	s.logger.Info("role created", zap.String("role_id", r.ID.String()), zap.String("name", r.Name))
	return r, nil
}

func (s *RoleService) Rename(ctx context.Context, id uuid.UUID, req *role.UpdateRequest) (*role.Role, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("role name is empty: %w", xerrors.ErrInvalidInput)
	}
	r, err := s.roles.Rename(ctx, id, name)
	if err != nil {
		switch {
		case errors.Is(err, xerrors.ErrNotFound):
			return nil, ErrRoleNotFound
		case errors.Is(err, xerrors.ErrConflict):
			return nil, ErrRoleExists
		}
		return nil, fmt.Errorf("failed to rename role: %w", err)
	}
	return r, nil
}

// Delete removes a role. Tokens already carrying its name keep it until they
// are refreshed.
func (s *RoleService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.roles.Delete(ctx, id); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("failed to delete role: %w", err)
	}
	s.logger.Info("role deleted", zap.String("role_id", id.String()))
	return nil
}

// ========== User Roles ==========

// Grant gives userID the role and revokes the user's current access tokens.
func (s *RoleService) Grant(ctx context.Context, userID, roleID uuid.UUID) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return ErrUnknownUser
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	if _, err := s.roles.FindByID(ctx, roleID); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return ErrUnknownRole
		}
		return fmt.Errorf("failed to load role: %w", err)
	}

	if err := s.roles.AssignToUser(ctx, userID, roleID); err != nil {
		switch {
		case errors.Is(err, xerrors.ErrConflict):
			return ErrUserRoleExists
		case errors.Is(err, xerrors.ErrNotFound):
			// removed between the lookups and the insert
			return ErrUnknownRole
		}
		return fmt.Errorf("failed to grant role: %w", err)
	}

	s.logger.Info("role granted", zap.String("user_id", userID.String()), zap.String("role_id", roleID.String()))
	return s.revoker.RevokeAllAccessTokens(ctx, userID, auth.ReasonAddRole)
}

// Revoke takes the role away and revokes the user's current access tokens.
func (s *RoleService) Revoke(ctx context.Context, userID, roleID uuid.UUID) error {
	if err := s.roles.RemoveFromUser(ctx, userID, roleID); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return ErrUserRoleNotFound
		}
		return fmt.Errorf("failed to revoke role: %w", err)
	}

	s.logger.Info("role revoked", zap.String("user_id", userID.String()), zap.String("role_id", roleID.String()))
	return s.revoker.RevokeAllAccessTokens(ctx, userID, auth.ReasonDeleteRole)
}
