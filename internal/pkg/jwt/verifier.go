// internal/pkg/jwt/verifier.go
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrBadSignature = errors.New("token signature invalid")
	ErrMalformed    = errors.New("token malformed")
)

type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewVerifier(secret []byte, issuer string, now func() time.Time) *Verifier {
	if now == nil {
		now = time.Now
	}
	return &Verifier{
		secret: secret,
		issuer: issuer,
		now:    now,
	}
}

// Verify validates signature, expiry and shape of a token and returns its claims.
// It consults no external state.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, classify(err)
	}

	if claims.userID, err = uuid.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("%w: subject: %v", ErrMalformed, err)
	}
	if claims.tokenID, err = uuid.Parse(claims.ID); err != nil {
		return nil, fmt.Errorf("%w: jti: %v", ErrMalformed, err)
	}
	if claims.SessionID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing session id", ErrMalformed)
	}

	return claims, nil
}

// VerifyAccess verifies that the token is an access token
func (v *Verifier) VerifyAccess(tokenString string) (*Claims, error) {
	return v.verifyKind(tokenString, KindAccess)
}

// VerifyRefresh verifies that the token is a refresh token
func (v *Verifier) VerifyRefresh(tokenString string) (*Claims, error) {
	return v.verifyKind(tokenString, KindRefresh)
}

func (v *Verifier) verifyKind(tokenString string, kind Kind) (*Claims, error) {
	claims, err := v.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != kind {
		return nil, fmt.Errorf("%w: not a %s token", ErrMalformed, kind)
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
