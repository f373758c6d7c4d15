// internal/repository/postgres/role_repo.go
package postgres

import (
	"context"
	"fmt"

	"auth-service/internal/domain/role"
	xerrors "auth-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RoleRepository struct {
	db *DB
}

func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func scanRole(row pgx.Row) (*role.Role, error) {
	var r role.Role
	if err := row.Scan(&r.ID, &r.Name, &r.CreatedAt, &r.ModifiedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// ========== Role Methods ==========

func (r *RoleRepository) List(ctx context.Context) ([]*role.Role, error) {
	query := `SELECT id, name, created_at, modified_at FROM roles ORDER BY name`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, translate(err, "list roles")
	}
	defer rows.Close()

	var roles []*role.Role
	for rows.Next() {
		rl, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, rl)
	}
	return roles, translate(rows.Err(), "list roles")
}

func (r *RoleRepository) FindByID(ctx context.Context, id uuid.UUID) (*role.Role, error) {
	query := `SELECT id, name, created_at, modified_at FROM roles WHERE id = $1`

	rl, err := scanRole(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, "find role")
	}
	return rl, nil
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*role.Role, error) {
	query := `SELECT id, name, created_at, modified_at FROM roles WHERE name = $1`

	rl, err := scanRole(r.db.Pool().QueryRow(ctx, query, name))
	if err != nil {
		return nil, translate(err, "find role")
	}
	return rl, nil
}

func (r *RoleRepository) Create(ctx context.Context, rl *role.Role) error {
	query := `
		INSERT INTO roles (id, name)
		VALUES ($1, $2)
		RETURNING created_at
	`
	if rl.ID == uuid.Nil {
		rl.ID = uuid.New()
	}
	err := r.db.Pool().QueryRow(ctx, query, rl.ID, rl.Name).Scan(&rl.CreatedAt)
	return translate(err, "create role")
}

func (r *RoleRepository) Rename(ctx context.Context, id uuid.UUID, name string) (*role.Role, error) {
	query := `
		UPDATE roles SET name = $2, modified_at = now()
		WHERE id = $1
		RETURNING id, name, created_at, modified_at
	`
	rl, err := scanRole(r.db.Pool().QueryRow(ctx, query, id, name))
	if err != nil {
		return nil, translate(err, "rename role")
	}
	return rl, nil
}

func (r *RoleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete role")
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// ========== User Role Methods ==========

func (r *RoleRepository) AssignToUser(ctx context.Context, userID, roleID uuid.UUID) error {
	query := `
		INSERT INTO user_roles (id, user_id, role_id)
		VALUES ($1, $2, $3)
	`
	_, err := r.db.Pool().Exec(ctx, query, uuid.New(), userID, roleID)
	return translate(err, "assign role")
}

func (r *RoleRepository) RemoveFromUser(ctx context.Context, userID, roleID uuid.UUID) error {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return translate(err, "remove role")
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// NamesForUser returns the names of every role granted to userID
func (r *RoleRepository) NamesForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	query := `
		SELECT r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`
	rows, err := r.db.Pool().Query(ctx, query, userID)
	if err != nil {
		return nil, translate(err, "load user roles")
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, translate(err, "load user roles")
	}
	return names, nil
}
