// Package auth issues and verifies the signed session tokens handed out on
// registration.
//
// Tokens are HS256 JWTs carrying the user's id, email and role together with
// issued-at and expires-at. The claims are a snapshot taken at mint time: a
// later role change is not reflected until a new token is issued.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vedran77/projectdesk/internal/domain"
)

var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature mismatch")
	ErrTokenExpired   = errors.New("token expired")
)

// Claims is the identity carried by a session token.
type Claims struct {
	UserID    string
	Email     string
	Role      domain.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

func NewIssuer(secret string, lifetime time.Duration) *Issuer {
	return &Issuer{
		secret:   []byte(secret),
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Lifetime is the fixed session length applied at mint time.
func (i *Issuer) Lifetime() time.Duration {
	return i.lifetime
}

// ClaimsFor builds claims for user stamped with the current time.
func (i *Issuer) ClaimsFor(user *domain.User) Claims {
	now := i.now().UTC().Truncate(time.Second)
	return Claims{
		UserID:    user.ID.String(),
		Email:     user.Email,
		Role:      user.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(i.lifetime),
	}
}

// Sign produces a signed token. Missing timestamps are filled in from the
// issuer's clock and lifetime.
func (i *Issuer) Sign(c Claims) (string, error) {
	if c.IssuedAt.IsZero() {
		c.IssuedAt = i.now().UTC().Truncate(time.Second)
	}
	if c.ExpiresAt.IsZero() {
		c.ExpiresAt = c.IssuedAt.Add(i.lifetime)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserID: c.UserID,
		Email:  c.Email,
		Role:   string(c.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			IssuedAt:  jwt.NewNumericDate(c.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry. The returned error wraps one of
// ErrTokenMalformed, ErrTokenSignature or ErrTokenExpired.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	tc := &tokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, tc,
		func(t *jwt.Token) (any, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, classify(err)
	}
	if tc.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrTokenMalformed)
	}

	c := &Claims{
		UserID: tc.UserID,
		Email:  tc.Email,
		Role:   domain.Role(tc.Role),
	}
	if tc.IssuedAt != nil {
		c.IssuedAt = tc.IssuedAt.UTC()
	}
	if tc.ExpiresAt != nil {
		c.ExpiresAt = tc.ExpiresAt.UTC()
	}
	return c, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrTokenSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}
