package models

import "time"

// RefreshToken is the durable record behind a refresh token. Only the SHA-256
// digest of the opaque token is stored.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	Revoked   bool
	RevokedAt *time.Time
}

// Active reports whether the token may still be exchanged at now.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
