// internal/service/user/user.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"auth-service/internal/domain/role"
	"auth-service/internal/domain/user"
	xerrors "auth-service/internal/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrEmailTaken is returned when another account already uses the email.
var ErrEmailTaken = fmt.Errorf("email already registered: %w", xerrors.ErrConflict)

type UserService struct {
	users      user.Repository
	roles      role.Repository
	logger     *zap.Logger
	bcryptCost int
}

func NewUserService(users user.Repository, roles role.Repository, logger *zap.Logger) *UserService {
	return &UserService{
		users:      users,
		roles:      roles,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// SetBcryptCost lowers hashing cost, mostly for tests.
func (s *UserService) SetBcryptCost(cost int) {
	s.bcryptCost = cost
}

func (s *UserService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Register creates a local account
func (s *UserService) Register(ctx context.Context, req *user.RegisterRequest) (*user.User, error) {
	hashed, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	u := &user.User{
		Email:        strings.TrimSpace(req.Email),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hashed,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, xerrors.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID.String()))
	return u, nil
}

func (s *UserService) GetCurrent(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// UpdateCurrent applies the non-nil fields of req. A new password is re-hashed.
func (s *UserService) UpdateCurrent(ctx context.Context, userID uuid.UUID, req *user.UpdateRequest) (*user.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if req.Email != nil {
		u.Email = strings.TrimSpace(*req.Email)
	}
	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Password != nil {
		if u.PasswordHash, err = s.hash(*req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, xerrors.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("user updated", zap.String("user_id", u.ID.String()))
	return u, nil
}

// AdminResult reports which steps EnsureAdmin had to perform.
type AdminResult struct {
	User        *user.User
	UserCreated bool
	RoleCreated bool
	RoleGranted bool
}

// EnsureAdmin makes sure email belongs to a user holding the admin role.
// Missing pieces are created; password and name are only used for a new user.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password, name string) (*AdminResult, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: admin email must be provided", xerrors.ErrInvalidInput)
	}
	res := &AdminResult{}

	u, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, xerrors.ErrNotFound):
		if password == "" {
			return nil, fmt.Errorf("%w: password required to create admin %s", xerrors.ErrInvalidInput, email)
		}
		u, err = s.Register(ctx, &user.RegisterRequest{Email: email, Name: name, Password: password})
		if err != nil {
			return nil, err
		}
		res.UserCreated = true
	case err != nil:
		return nil, fmt.Errorf("failed to check admin user: %w", err)
	}
	res.User = u

	adminRole, err := s.roles.FindByName(ctx, role.Admin)
	if errors.Is(err, xerrors.ErrNotFound) {
		adminRole = &role.Role{Name: role.Admin}
		if err = s.roles.Create(ctx, adminRole); err == nil {
			res.RoleCreated = true
		} else if errors.Is(err, xerrors.ErrConflict) {
			// created concurrently
			adminRole, err = s.roles.FindByName(ctx, role.Admin)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to ensure admin role: %w", err)
	}

	err = s.roles.AssignToUser(ctx, u.ID, adminRole.ID)
	switch {
	case err == nil:
		res.RoleGranted = true
	case errors.Is(err, xerrors.ErrConflict):
	default:
		return nil, fmt.Errorf("failed to grant admin role: %w", err)
	}

	s.logger.Info("admin ensured",
		zap.String("user_id", u.ID.String()),
		zap.Bool("user_created", res.UserCreated),
		zap.Bool("role_created", res.RoleCreated),
		zap.Bool("role_granted", res.RoleGranted),
	)
	return res, nil
}
