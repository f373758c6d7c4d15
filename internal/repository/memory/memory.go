// Package memory holds map-backed repositories with the same semantics as the
// Postgres ones. They back the service and handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"auth-service/internal/domain/role"
	"auth-service/internal/domain/session"
	"auth-service/internal/domain/user"
	xerrors "auth-service/internal/pkg/errors"

	"github.com/google/uuid"
)

// Store keeps every table behind one lock.
type Store struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]*user.User
	socials   map[string]uuid.UUID
	roles     map[uuid.UUID]*role.Role
	userRoles map[uuid.UUID]map[uuid.UUID]bool
	sessions  map[uuid.UUID]*session.Session
	seq       int64
}

func NewStore() *Store {
	return &Store{
		users:     map[uuid.UUID]*user.User{},
		socials:   map[string]uuid.UUID{},
		roles:     map[uuid.UUID]*role.Role{},
		userRoles: map[uuid.UUID]map[uuid.UUID]bool{},
		sessions:  map[uuid.UUID]*session.Session{},
	}
}

func (s *Store) Users() *UserRepository       { return &UserRepository{s} }
func (s *Store) Roles() *RoleRepository       { return &RoleRepository{s} }
func (s *Store) Sessions() *SessionRepository { return &SessionRepository{s} }

// ========== Users ==========

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertUser(u)
}

func (s *Store) insertUser(u *user.User) error {
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return xerrors.ErrConflict
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now().UTC()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r *UserRepository) Update(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return xerrors.ErrNotFound
	}
	for id, existing := range r.s.users {
		if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return xerrors.ErrConflict
		}
	}
	now := time.Now().UTC()
	u.ModifiedAt = &now
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func socialKey(socialID, socialName string) string {
	return socialName + "\x00" + socialID
}

func (r *UserRepository) FindBySocialAccount(_ context.Context, socialID, socialName string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.socials[socialKey(socialID, socialName)]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *r.s.users[id]
	return &cp, nil
}

func (r *UserRepository) LinkSocialAccount(_ context.Context, acc *user.SocialAccount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.link(acc)
}

func (s *Store) link(acc *user.SocialAccount) error {
	if _, ok := s.users[acc.UserID]; !ok {
		return xerrors.ErrNotFound
	}
	key := socialKey(acc.SocialID, acc.SocialName)
	if _, ok := s.socials[key]; ok {
		return xerrors.ErrConflict
	}
	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}
	acc.CreatedAt = time.Now().UTC()
	s.socials[key] = acc.UserID
	return nil
}

func (r *UserRepository) CreateWithSocialAccount(_ context.Context, u *user.User, acc *user.SocialAccount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.socials[socialKey(acc.SocialID, acc.SocialName)]; ok {
		return xerrors.ErrConflict
	}
	if err := r.s.insertUser(u); err != nil {
		return err
	}
	acc.UserID = u.ID
	return r.s.link(acc)
}

// ========== Roles ==========

type RoleRepository struct{ s *Store }

func (r *RoleRepository) List(_ context.Context) ([]*role.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*role.Role, 0, len(r.s.roles))
	for _, rl := range r.s.roles {
		cp := *rl
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *RoleRepository) FindByID(_ context.Context, id uuid.UUID) (*role.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rl, ok := r.s.roles[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *rl
	return &cp, nil
}

func (r *RoleRepository) FindByName(_ context.Context, name string) (*role.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rl := range r.s.roles {
		if rl.Name == name {
			cp := *rl
			return &cp, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r *RoleRepository) Create(_ context.Context, rl *role.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.roles {
		if existing.Name == rl.Name {
			return xerrors.ErrConflict
		}
	}
	if rl.ID == uuid.Nil {
		rl.ID = uuid.New()
	}
	rl.CreatedAt = time.Now().UTC()
	cp := *rl
	r.s.roles[rl.ID] = &cp
	return nil
}

func (r *RoleRepository) Rename(_ context.Context, id uuid.UUID, name string) (*role.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rl, ok := r.s.roles[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	for otherID, existing := range r.s.roles {
		if otherID != id && existing.Name == name {
			return nil, xerrors.ErrConflict
		}
	}
	now := time.Now().UTC()
	rl.Name = name
	rl.ModifiedAt = &now
	cp := *rl
	return &cp, nil
}

func (r *RoleRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roles[id]; !ok {
		return xerrors.ErrNotFound
	}
	delete(r.s.roles, id)
	for _, granted := range r.s.userRoles {
		delete(granted, id)
	}
	return nil
}

func (r *RoleRepository) AssignToUser(_ context.Context, userID, roleID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return xerrors.ErrNotFound
	}
	if _, ok := r.s.roles[roleID]; !ok {
		return xerrors.ErrNotFound
	}
	granted := r.s.userRoles[userID]
	if granted == nil {
		granted = map[uuid.UUID]bool{}
		r.s.userRoles[userID] = granted
	}
	if granted[roleID] {
		return xerrors.ErrConflict
	}
	granted[roleID] = true
	return nil
}

func (r *RoleRepository) RemoveFromUser(_ context.Context, userID, roleID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.userRoles[userID][roleID] {
		return xerrors.ErrNotFound
	}
	delete(r.s.userRoles[userID], roleID)
	return nil
}

func (r *RoleRepository) NamesForUser(_ context.Context, userID uuid.UUID) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var names []string
	for roleID := range r.s.userRoles[userID] {
		if rl, ok := r.s.roles[roleID]; ok {
			names = append(names, rl.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ========== Sessions ==========

type SessionRepository struct{ s *Store }

func (r *SessionRepository) Create(_ context.Context, userID uuid.UUID, userAgent string, now time.Time) (*session.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return nil, xerrors.ErrNotFound
	}
	// sequence keeps created_at strictly increasing for sessions made in the same instant
	r.s.seq++
	sess := &session.Session{
		ID:        uuid.New(),
		UserID:    userID,
		UserAgent: userAgent,
		CreatedAt: now.Add(time.Duration(r.s.seq)),
	}
	r.s.sessions[sess.ID] = sess
	return cloneSession(sess), nil
}

func (r *SessionRepository) Get(_ context.Context, id uuid.UUID) (*session.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return cloneSession(sess), nil
}

func (r *SessionRepository) GetForUser(_ context.Context, id, userID uuid.UUID) (*session.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sess, ok := r.s.sessions[id]
	if !ok || sess.UserID != userID {
		return nil, xerrors.ErrNotFound
	}
	return cloneSession(sess), nil
}

func (r *SessionRepository) ListByUser(_ context.Context, userID uuid.UUID, filter session.ListFilter) ([]*session.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*session.Session
	for _, sess := range r.s.sessions {
		if sess.UserID != userID {
			continue
		}
		if filter.Active != nil && sess.Ended(filter.Now) == *filter.Active {
			continue
		}
		matched = append(matched, cloneSession(sess))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	offset := filter.Offset()
	if offset >= len(matched) {
		return []*session.Session{}, nil
	}
	end := offset + filter.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *SessionRepository) ListActiveAccessJTIs(_ context.Context, userID uuid.UUID, now time.Time) ([]uuid.UUID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var ids []uuid.UUID
	for _, sess := range r.s.sessions {
		if sess.UserID == userID && sess.AccessJTI != nil && sess.Active(now) {
			ids = append(ids, *sess.AccessJTI)
		}
	}
	return ids, nil
}

func (r *SessionRepository) SetTokens(_ context.Context, id uuid.UUID, current *uuid.UUID, accessJTI, refreshJTI uuid.UUID, expiry, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	if !sameID(sess.RefreshJTI, current) {
		return fmt.Errorf("%w: session tokens changed", xerrors.ErrConflict)
	}
	sess.AccessJTI = &accessJTI
	sess.RefreshJTI = &refreshJTI
	sess.SessionExpiry = &expiry
	sess.ModifiedAt = &now
	return nil
}

func (r *SessionRepository) ForceExpire(_ context.Context, id uuid.UUID, now time.Time) (*session.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	if sess.SessionExpiry == nil || sess.SessionExpiry.After(now) {
		exp := now
		sess.SessionExpiry = &exp
	}
	modified := now
	sess.ModifiedAt = &modified
	return cloneSession(sess), nil
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneSession(s *session.Session) *session.Session {
	cp := *s
	if s.AccessJTI != nil {
		v := *s.AccessJTI
		cp.AccessJTI = &v
	}
	if s.RefreshJTI != nil {
		v := *s.RefreshJTI
		cp.RefreshJTI = &v
	}
	if s.SessionExpiry != nil {
		v := *s.SessionExpiry
		cp.SessionExpiry = &v
	}
	if s.ModifiedAt != nil {
		v := *s.ModifiedAt
		cp.ModifiedAt = &v
	}
	return &cp
}
