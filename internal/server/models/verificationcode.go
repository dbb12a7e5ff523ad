package models

import "time"

// VerificationCode is a single-use email confirmation code. CodeHash is the
// hex SHA-256 of the six digit code; the code itself is never stored.
type VerificationCode struct {
	ID        string
	UserID    string
	CodeHash  string
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

// Eligible reports whether the code can still be matched at now.
func (c *VerificationCode) Eligible(now time.Time) bool {
	return !c.Used && now.Before(c.ExpiresAt)
}
