package common

import "time"

const (
	// RefreshTokenCookieName is the cookie carrying the refresh token.
	RefreshTokenCookieName = "refreshToken"

	// APIKeyHeaderName carries the shared secret of the internal endpoints.
	APIKeyHeaderName = "x-api-key"

	// DefaultRole is granted to every newly registered account.
	DefaultRole = "User"
	AdminRole   = "Admin"
)

// Fixed lifetimes. They are not configurable per call.
const (
	AccessTokenTTL      = time.Hour
	RefreshTokenTTL     = 30 * 24 * time.Hour
	VerificationCodeTTL = 15 * time.Minute
)
