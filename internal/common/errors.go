// Package common defines shared constants and sentinel errors used across
// the layers of GophAuth. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Credential and input errors. ErrInvalidCredentials never says which
	// half of the pair was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation error")
	ErrInvalidCode        = errors.New("invalid or expired verification code")

	// ErrConfiguration is fatal and only ever returned during startup.
	ErrConfiguration = errors.New("configuration error")

	// ErrDelivery marks a mailer failure. It is logged, never propagated to
	// the caller of a code issuance.
	ErrDelivery = errors.New("delivery failure")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
