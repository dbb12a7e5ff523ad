package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// refreshTokenBytes is the entropy of a refresh token before encoding.
const refreshTokenBytes = 64

// RefreshTokenService issues, validates, rotates and revokes opaque refresh
// tokens. Only SHA-256 digests reach the store.
type RefreshTokenService struct {
	st   Storage
	opts options
}

func NewRefreshTokenService(st Storage, opts ...Option) *RefreshTokenService {
	return &RefreshTokenService{st: st, opts: buildOptions("refreshtokens", opts)}
}

// Generate creates a new active token for userID valid for 30 days.
func (s *RefreshTokenService) Generate(ctx context.Context, userID string) (string, error) {
	return s.generate(ctx, s.st.DB, userID, s.opts.now())
}

func (s *RefreshTokenService) generate(ctx context.Context, db dbx.DBTX, userID string, now time.Time) (string, error) {
	token, err := cryptox.NewOpaqueToken(refreshTokenBytes)
	if err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}

	rec := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: cryptox.Hash(token),
		CreatedAt: now,
		ExpiresAt: now.Add(common.RefreshTokenTTL),
	}
	if err := s.st.Repos.RefreshTokens(db).Create(ctx, rec); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return token, nil
}

// Validate returns the owner of an active token. Unknown, revoked and expired
// tokens all report ok == false with a nil error.
func (s *RefreshTokenService) Validate(ctx context.Context, token string) (string, bool, error) {
	if token == "" {
		return "", false, nil
	}
	rec, err := s.st.Repos.RefreshTokens(s.st.DB).FindActive(ctx, cryptox.Hash(token), s.opts.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lookup refresh token: %w", err)
	}
	return rec.UserID, true, nil
}

// Rotate revokes oldToken and issues its replacement atomically. If oldToken
// is not an active token of userID nothing changes and common.ErrorNotFound is
// returned; of two concurrent rotations of one token exactly one succeeds.
func (s *RefreshTokenService) Rotate(ctx context.Context, oldToken, userID string) (string, error) {
	if oldToken == "" {
		return "", common.ErrorNotFound
	}

	now := s.opts.now()
	var next string
	err := s.st.Tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		revoked, err := s.st.Repos.RefreshTokens(tx).RevokeForUser(ctx, cryptox.Hash(oldToken), userID, now)
		if err != nil {
			return err
		}
		if !revoked {
			return common.ErrorNotFound
		}
		next, err = s.generate(ctx, tx, userID, now)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", err
		}
		return "", fmt.Errorf("rotate refresh token: %w", err)
	}
	return next, nil
}

// Revoke marks the token revoked. Unknown or already revoked tokens are not
// an error.
func (s *RefreshTokenService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := s.st.Repos.RefreshTokens(s.st.DB).Revoke(ctx, cryptox.Hash(token), s.opts.now()); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *RefreshTokenService) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	n, err := s.st.Repos.RefreshTokens(s.st.DB).RevokeAllForUser(ctx, userID, s.opts.now())
	if err != nil {
		return 0, fmt.Errorf("revoke refresh tokens: %w", err)
	}
	if n > 0 {
		s.opts.logger.Info(ctx, "refresh tokens revoked", "user_id", userID, "count", n)
	}
	return n, nil
}
