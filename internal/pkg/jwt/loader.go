// internal/pkg/jwt/loader.go
package jwt

import (
	"errors"
	"time"
)

type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Now overrides the clock, nil means time.Now
	Now func() time.Time
}

type Manager struct {
	Generator *Generator
	Verifier  *Verifier
}

func LoadAndBuild(cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("jwt token lifetimes must be positive")
	}

	secret := []byte(cfg.Secret)
	return &Manager{
		Generator: NewGenerator(secret, cfg.Issuer, cfg.AccessTTL, cfg.RefreshTTL, cfg.Now),
		Verifier:  NewVerifier(secret, cfg.Issuer, cfg.Now),
	}, nil
}
