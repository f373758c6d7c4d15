// internal/repository/postgres/session_repo.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"auth-service/internal/domain/session"
	xerrors "auth-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SessionRepository struct {
	db *DB
}

func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, user_agent, access_jti, refresh_jti, session_exp, created_at, modified_at`

func scanSession(row pgx.Row) (*session.Session, error) {
	var s session.Session
	err := row.Scan(&s.ID, &s.UserID, &s.UserAgent, &s.AccessJTI, &s.RefreshJTI,
		&s.SessionExpiry, &s.CreatedAt, &s.ModifiedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) Create(ctx context.Context, userID uuid.UUID, userAgent string, now time.Time) (*session.Session, error) {
	query := `
		INSERT INTO sessions (id, user_id, user_agent, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + sessionColumns

	s, err := scanSession(r.db.Pool().QueryRow(ctx, query, uuid.New(), userID, userAgent, now))
	if err != nil {
		return nil, translate(err, "create session")
	}
	return s, nil
}

func (r *SessionRepository) Get(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	s, err := scanSession(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, "get session")
	}
	return s, nil
}

func (r *SessionRepository) GetForUser(ctx context.Context, id, userID uuid.UUID) (*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 AND user_id = $2`

	s, err := scanSession(r.db.Pool().QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, translate(err, "get session")
	}
	return s, nil
}

// ListByUser pages through a user's sessions, newest first
func (r *SessionRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter session.ListFilter) ([]*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = $1`
	args := []any{userID}

	if filter.Active != nil {
		args = append(args, filter.Now)
		if *filter.Active {
			query += ` AND (session_exp IS NULL OR session_exp >= $2)`
		} else {
			query += ` AND session_exp < $2`
		}
	}

	args = append(args, filter.PageSize, filter.Offset())
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list sessions")
	}
	defer rows.Close()

	sessions := make([]*session.Session, 0, filter.PageSize)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "list sessions")
	}
	return sessions, nil
}

func (r *SessionRepository) ListActiveAccessJTIs(ctx context.Context, userID uuid.UUID, now time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT access_jti
		FROM sessions
		WHERE user_id = $1
		  AND access_jti IS NOT NULL
		  AND session_exp IS NOT NULL
		  AND session_exp >= $2
	`
	rows, err := r.db.Pool().Query(ctx, query, userID, now)
	if err != nil {
		return nil, translate(err, "list access ids")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, translate(err, "list access ids")
	}
	return ids, nil
}

// SetTokens swaps in a freshly minted pair unless another writer got there first
func (r *SessionRepository) SetTokens(ctx context.Context, id uuid.UUID, current *uuid.UUID, accessJTI, refreshJTI uuid.UUID, expiry, now time.Time) error {
	query := `
		UPDATE sessions
		SET access_jti = $2, refresh_jti = $3, session_exp = $4, modified_at = $5
		WHERE id = $1 AND refresh_jti IS NOT DISTINCT FROM $6::uuid
	`
	tag, err := r.db.Pool().Exec(ctx, query, id, accessJTI, refreshJTI, expiry, now, current)
	if err != nil {
		return translate(err, "set session tokens")
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.Pool().QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM sessions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return translate(err, "set session tokens")
	}
	if !exists {
		return xerrors.ErrNotFound
	}
	return fmt.Errorf("%w: session tokens changed", xerrors.ErrConflict)
}

// ForceExpire never moves an already passed expiry forward
func (r *SessionRepository) ForceExpire(ctx context.Context, id uuid.UUID, now time.Time) (*session.Session, error) {
	query := `
		UPDATE sessions
		SET session_exp = LEAST(COALESCE(session_exp, $2), $2), modified_at = $2
		WHERE id = $1
		RETURNING ` + sessionColumns

	s, err := scanSession(r.db.Pool().QueryRow(ctx, query, id, now))
	if err != nil {
		return nil, translate(err, "expire session")
	}
	return s, nil
}
