// Package refreshtokens declares the repository contract for refresh token
// records and its PostgreSQL implementation.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository defines operations for issuing, looking up and revoking refresh
// token records. Tokens are addressed by the digest of the opaque token.
type Repository interface {
	// Create stores a new record. A duplicate digest yields common.ErrAlreadyExists.
	Create(ctx context.Context, token *models.RefreshToken) error

	// FindActive returns the non-revoked record with the given digest that is
	// still valid at now, or common.ErrorNotFound.
	FindActive(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshToken, error)

	// RevokeForUser revokes the record only if it belongs to userID, is not
	// revoked yet and is unexpired at now. The check and the update are a
	// single statement; false means nothing was revoked.
	RevokeForUser(ctx context.Context, tokenHash, userID string, now time.Time) (bool, error)

	// Revoke is RevokeForUser without the ownership check.
	Revoke(ctx context.Context, tokenHash string, now time.Time) (bool, error)

	// RevokeAllForUser revokes every active record of userID and returns how
	// many were revoked.
	RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error)
}
