// internal/pkg/jwt/generator.go
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Minted is a freshly signed token together with the values the caller has to persist.
type Minted struct {
	Token     string
	JTI       uuid.UUID
	ExpiresAt time.Time
}

type Generator struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewGenerator(secret []byte, issuer string, accessTTL, refreshTTL time.Duration, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{
		secret:     secret,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        now,
	}
}

// TTL returns the lifetime of tokens of the given kind.
func (g *Generator) TTL(kind Kind) time.Duration {
	if kind == KindRefresh {
		return g.refreshTTL
	}
	return g.accessTTL
}

// Mint signs a new token with a fresh jti. Roles are only embedded in access tokens.
func (g *Generator) Mint(kind Kind, subject, sessionID uuid.UUID, roles []string) (*Minted, error) {
	if kind != KindAccess && kind != KindRefresh {
		return nil, fmt.Errorf("unknown token kind %q", kind)
	}

	now := g.now().UTC()
	jti := uuid.New()
	expiresAt := jwt.NewNumericDate(now.Add(g.TTL(kind)))

	claims := &Claims{
		Type:      kind,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   subject.String(),
			ExpiresAt: expiresAt,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jti.String(),
		},
	}
	if kind == KindAccess {
		claims.Roles = append([]string{}, roles...)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	return &Minted{Token: signed, JTI: jti, ExpiresAt: expiresAt.Time.UTC()}, nil
}

// MintPair mints an access and a refresh token bound to the same session.
func (g *Generator) MintPair(subject, sessionID uuid.UUID, roles []string) (access, refresh *Minted, err error) {
	access, err = g.Mint(KindAccess, subject, sessionID, roles)
	if err != nil {
		return nil, nil, err
	}
	refresh, err = g.Mint(KindRefresh, subject, sessionID, nil)
	if err != nil {
		return nil, nil, err
	}
	return access, refresh, nil
}
