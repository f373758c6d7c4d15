// internal/repository/postgres/user_repo.go
package postgres

import (
	"context"

	"auth-service/internal/domain/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, name, created_at, modified_at`

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt, &u.ModifiedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// ========== User Methods ==========

// Create inserts a user and fills in its id and creation time
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	return translate(insertUser(ctx, r.db.Pool(), u), "create user")
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertUser(ctx context.Context, q querier, u *user.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return q.QueryRow(ctx, query, u.ID, u.Email, u.PasswordHash, u.Name).Scan(&u.CreatedAt)
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, "find user")
	}
	return u, nil
}

// FindByEmail looks the user up case-insensitively
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	u, err := scanUser(r.db.Pool().QueryRow(ctx, query, email))
	if err != nil {
		return nil, translate(err, "find user")
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users
		SET email = $2, name = $3, password_hash = $4, modified_at = now()
		WHERE id = $1
		RETURNING modified_at
	`
	err := r.db.Pool().QueryRow(ctx, query, u.ID, u.Email, u.Name, u.PasswordHash).Scan(&u.ModifiedAt)
	return translate(err, "update user")
}

// ========== Social Account Methods ==========

func (r *UserRepository) FindBySocialAccount(ctx context.Context, socialID, socialName string) (*user.User, error) {
	query := `
		SELECT u.id, u.email, u.password_hash, u.name, u.created_at, u.modified_at
		FROM social_account sa
		JOIN users u ON u.id = sa.user_id
		WHERE sa.social_id = $1 AND sa.social_name = $2
	`

	u, err := scanUser(r.db.Pool().QueryRow(ctx, query, socialID, socialName))
	if err != nil {
		return nil, translate(err, "find social account")
	}
	return u, nil
}

func (r *UserRepository) LinkSocialAccount(ctx context.Context, acc *user.SocialAccount) error {
	return translate(insertSocialAccount(ctx, r.db.Pool(), acc), "link social account")
}

// CreateWithSocialAccount provisions a user for a first social login
func (r *UserRepository) CreateWithSocialAccount(ctx context.Context, u *user.User, acc *user.SocialAccount) error {
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := insertUser(ctx, tx, u); err != nil {
			return err
		}
		acc.UserID = u.ID
		return insertSocialAccount(ctx, tx, acc)
	})
	return translate(err, "provision social user")
}

func insertSocialAccount(ctx context.Context, q querier, acc *user.SocialAccount) error {
	query := `
		INSERT INTO social_account (id, user_id, social_id, social_name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}
	return q.QueryRow(ctx, query, acc.ID, acc.UserID, acc.SocialID, acc.SocialName).Scan(&acc.CreatedAt)
}
