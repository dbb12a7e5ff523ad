package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/mailer"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// VerificationService issues single-use six digit codes by email and checks
// them. Codes are stored as SHA-256 digests.
type VerificationService struct {
	st     Storage
	mailer Mailer
	opts   options
}

func NewVerificationService(st Storage, m Mailer, opts ...Option) *VerificationService {
	return &VerificationService{st: st, mailer: m, opts: buildOptions("verification", opts)}
}

// IssueCode stores a fresh code for an unconfirmed user and mails it.
// Delivery failures are logged and not returned: the stored code stays valid
// and the user can ask for another one.
func (s *VerificationService) IssueCode(ctx context.Context, user *models.User) error {
	if user.EmailConfirmed {
		return nil
	}

	code, err := cryptox.NewNumericCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	now := s.opts.now()
	rec := &models.VerificationCode{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CodeHash:  cryptox.Hash(code),
		CreatedAt: now,
		ExpiresAt: now.Add(common.VerificationCodeTTL),
	}
	if err := s.st.Repos.VerificationCodes(s.st.DB).Create(ctx, rec); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}

	body, err := mailer.VerificationBody(code, int(common.VerificationCodeTTL/time.Minute))
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, user.Email, mailer.VerificationSubject, body); err != nil {
		s.opts.logger.Error(ctx, "verification email not delivered",
			"user_id", user.ID, "error", fmt.Errorf("%w: %v", common.ErrDelivery, err))
	}
	return nil
}

// VerifyCode consumes the user's freshest eligible code if it matches.
// A code succeeds at most once; older outstanding codes never match.
func (s *VerificationService) VerifyCode(ctx context.Context, userID, code string) (bool, error) {
	if code == "" {
		return false, nil
	}

	now := s.opts.now()
	candidate := cryptox.Hash(code)
	var ok bool
	err := s.st.Tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.st.Repos.VerificationCodes(tx)
		rec, err := repo.FindLatestEligible(ctx, userID, now)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			return err
		}
		if !cryptox.EqualHashes(rec.CodeHash, candidate) {
			return nil
		}
		ok, err = repo.MarkUsed(ctx, rec.ID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("verify code: %w", err)
	}
	return ok, nil
}
