// Package verificationcodes stores hashed email verification codes.
package verificationcodes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, code *models.VerificationCode) error

	// FindLatestEligible returns the unused, unexpired code of userID with the
	// latest expiry (ties broken by creation time) and locks the row for the
	// rest of the enclosing transaction. No such code yields common.ErrorNotFound.
	FindLatestEligible(ctx context.Context, userID string, now time.Time) (*models.VerificationCode, error)

	// MarkUsed flips used to true if it is still false; false means another
	// caller consumed the code first.
	MarkUsed(ctx context.Context, id string) (bool, error)

	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}
