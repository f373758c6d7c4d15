package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"auth-service/internal/db"
	"auth-service/internal/db/migrate"
	"auth-service/internal/domain/role"
	"auth-service/internal/domain/session"
	"auth-service/internal/domain/user"
	xerrors "auth-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB migrates TEST_DATABASE_URL and empties every table.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	require.NoError(t, migrate.Run(dsn, "up"))

	ctx := context.Background()
	pool, err := db.ConnectDB(ctx, dsn, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE sessions, social_account, user_roles, roles, users`)
	require.NoError(t, err)
	return NewDB(pool)
}

func createUser(t *testing.T, repo *UserRepository, email string) *user.User {
	t.Helper()
	u := &user.User{Email: email, PasswordHash: "hash", Name: "Test"}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserRepository(t *testing.T) {
	store := newTestDB(t)
	users := NewUserRepository(store)
	ctx := context.Background()

	u := createUser(t, users, "Ann@Example.com")
	assert.NotEqual(t, uuid.Nil, u.ID)

	found, err := users.FindByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	err = users.Create(ctx, &user.User{Email: "Ann@Example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, xerrors.ErrConflict)

	_, err = users.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	acc := &user.SocialAccount{UserID: u.ID, SocialID: "42", SocialName: "google"}
	require.NoError(t, users.LinkSocialAccount(ctx, acc))
	linked, err := users.FindBySocialAccount(ctx, "42", "google")
	require.NoError(t, err)
	assert.Equal(t, u.ID, linked.ID)

	fresh := &user.User{Email: "vk@example.com", PasswordHash: "hash"}
	require.NoError(t, users.CreateWithSocialAccount(ctx, fresh, &user.SocialAccount{SocialID: "7", SocialName: "vk"}))
	provisioned, err := users.FindBySocialAccount(ctx, "7", "vk")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, provisioned.ID)
}

func TestRoleRepository(t *testing.T) {
	store := newTestDB(t)
	users := NewUserRepository(store)
	roles := NewRoleRepository(store)
	ctx := context.Background()

	u := createUser(t, users, "ann@example.com")
	admin := &role.Role{Name: role.Admin}
	require.NoError(t, roles.Create(ctx, admin))
	assert.ErrorIs(t, roles.Create(ctx, &role.Role{Name: role.Admin}), xerrors.ErrConflict)

	require.NoError(t, roles.AssignToUser(ctx, u.ID, admin.ID))
	assert.ErrorIs(t, roles.AssignToUser(ctx, u.ID, admin.ID), xerrors.ErrConflict)
	assert.ErrorIs(t, roles.AssignToUser(ctx, uuid.New(), admin.ID), xerrors.ErrNotFound)

	names, err := roles.NamesForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{role.Admin}, names)

	require.NoError(t, roles.RemoveFromUser(ctx, u.ID, admin.ID))
	assert.ErrorIs(t, roles.RemoveFromUser(ctx, u.ID, admin.ID), xerrors.ErrNotFound)

	renamed, err := roles.Rename(ctx, admin.ID, "root")
	require.NoError(t, err)
	assert.Equal(t, "root", renamed.Name)
	require.NotNil(t, renamed.ModifiedAt)

	require.NoError(t, roles.Delete(ctx, admin.ID))
	assert.ErrorIs(t, roles.Delete(ctx, admin.ID), xerrors.ErrNotFound)
}

func TestSessionRepositoryLifecycle(t *testing.T) {
	store := newTestDB(t)
	users := NewUserRepository(store)
	sessions := NewSessionRepository(store)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	u := createUser(t, users, "ann@example.com")
	s, err := sessions.Create(ctx, u.ID, "curl/8.0", now)
	require.NoError(t, err)
	assert.Nil(t, s.SessionExpiry)
	assert.Nil(t, s.AccessJTI)

	access, refresh := uuid.New(), uuid.New()
	require.NoError(t, sessions.SetTokens(ctx, s.ID, nil, access, refresh, now.Add(time.Hour), now))
	assert.ErrorIs(t, sessions.SetTokens(ctx, uuid.New(), nil, access, refresh, now, now), xerrors.ErrNotFound)

	// rotation only applies on top of the refresh id it was derived from
	stale := uuid.New()
	assert.ErrorIs(t, sessions.SetTokens(ctx, s.ID, nil, uuid.New(), uuid.New(), now.Add(time.Hour), now), xerrors.ErrConflict)
	assert.ErrorIs(t, sessions.SetTokens(ctx, s.ID, &stale, uuid.New(), uuid.New(), now.Add(time.Hour), now), xerrors.ErrConflict)

	got, err := sessions.Get(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AccessJTI)
	assert.Equal(t, access, *got.AccessJTI)
	assert.Equal(t, refresh, *got.RefreshJTI)

	jtis, err := sessions.ListActiveAccessJTIs(ctx, u.ID, now)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{access}, jtis)

	// an expiry already in the past must not move forward
	past := now.Add(-time.Minute)
	expired, err := sessions.ForceExpire(ctx, s.ID, past)
	require.NoError(t, err)
	assert.True(t, expired.SessionExpiry.Equal(past))

	expired, err = sessions.ForceExpire(ctx, s.ID, now)
	require.NoError(t, err)
	assert.True(t, expired.SessionExpiry.Equal(past))

	jtis, err = sessions.ListActiveAccessJTIs(ctx, u.ID, now)
	require.NoError(t, err)
	assert.Empty(t, jtis)

	other := createUser(t, users, "bob@example.com")
	_, err = sessions.GetForUser(ctx, s.ID, other.ID)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestSessionRepositoryListFilters(t *testing.T) {
	store := newTestDB(t)
	users := NewUserRepository(store)
	sessions := NewSessionRepository(store)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	u := createUser(t, users, "ann@example.com")

	// three active, one expired, one that never got tokens
	for i := 0; i < 3; i++ {
		s, err := sessions.Create(ctx, u.ID, "agent", now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		require.NoError(t, sessions.SetTokens(ctx, s.ID, nil, uuid.New(), uuid.New(), now.Add(time.Hour), now))
	}
	gone, err := sessions.Create(ctx, u.ID, "agent", now.Add(10*time.Second))
	require.NoError(t, err)
	require.NoError(t, sessions.SetTokens(ctx, gone.ID, nil, uuid.New(), uuid.New(), now.Add(-time.Hour), now))
	_, err = sessions.Create(ctx, u.ID, "agent", now.Add(20*time.Second))
	require.NoError(t, err)

	active, inactive := true, false
	list := func(filter session.ListFilter) []*session.Session {
		filter.Now = now
		out, err := sessions.ListByUser(ctx, u.ID, filter)
		require.NoError(t, err)
		return out
	}

	all := list(session.ListFilter{PageSize: 20, PageNumber: 1})
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt))
	}

	// a session that never got tokens still counts as active
	assert.Len(t, list(session.ListFilter{Active: &active, PageSize: 20, PageNumber: 1}), 4)
	ended := list(session.ListFilter{Active: &inactive, PageSize: 20, PageNumber: 1})
	require.Len(t, ended, 1)
	assert.Equal(t, gone.ID, ended[0].ID)

	page2 := list(session.ListFilter{Active: &active, PageSize: 3, PageNumber: 2})
	require.Len(t, page2, 1)
	assert.Empty(t, list(session.ListFilter{Active: &active, PageSize: 3, PageNumber: 3}))
}
