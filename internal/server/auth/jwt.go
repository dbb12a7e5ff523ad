// Package auth mints and verifies the HS256 access tokens handed to clients.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinKeyLength is the shortest accepted HS256 signing key, in bytes.
const MinKeyLength = 32

// FrameworkRoleClaim is the role claim name used by .NET identity consumers.
// Roles are emitted under both this name and "role".
const FrameworkRoleClaim = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"

// Claims is the payload of an access token.
type Claims struct {
	jwt.RegisteredClaims
	Email          string   `json:"email"`
	Name           string   `json:"name"`
	Roles          []string `json:"role"`
	FrameworkRoles []string `json:"http://schemas.microsoft.com/ws/2008/06/identity/claims/role,omitempty"`
}

// UserID returns the subject claim.
func (c *Claims) UserID() string { return c.Subject }

// HasRole reports whether role is listed under either role claim.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role) || slices.Contains(c.FrameworkRoles, role)
}

type Option func(*Issuer)

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// Issuer is stateless apart from its immutable key and may be shared freely.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewIssuer(key string, opts ...Option) (*Issuer, error) {
	if len(key) < MinKeyLength {
		return nil, fmt.Errorf("%w: signing key must be at least %d bytes", common.ErrConfiguration, MinKeyLength)
	}
	i := &Issuer{key: []byte(key), ttl: common.AccessTokenTTL, now: time.Now}
	for _, o := range opts {
		o(i)
	}
	return i, nil
}

// Issue returns a signed token for the user valid for one hour.
func (i *Issuer) Issue(userID, email, displayName string, roles []string) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Email:          email,
		Name:           displayName,
		Roles:          append([]string(nil), roles...),
		FrameworkRoles: append([]string(nil), roles...),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenString and checks signature, algorithm and expiry.
// Every failure is reported as common.ErrInvalidToken.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return i.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", common.ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
