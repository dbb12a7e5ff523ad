package verificationcodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.VerificationCode) error {
	query := `
		INSERT INTO email_verification_codes (id, user_id, code_hash, created_at, expires_at, used)
		VALUES ($1, $2, $3, $4, $5, FALSE)
	`
	if _, err := r.db.ExecContext(ctx, query, c.ID, c.UserID, c.CodeHash, c.CreatedAt, c.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindLatestEligible(ctx context.Context, userID string, now time.Time) (*models.VerificationCode, error) {
	query := `
		SELECT id, user_id, code_hash, created_at, expires_at, used
		FROM email_verification_codes
		WHERE user_id = $1 AND used = FALSE AND expires_at > $2
		ORDER BY expires_at DESC, created_at DESC, id DESC
		LIMIT 1
		FOR UPDATE
	`
	c := &models.VerificationCode{}
	err := r.db.QueryRowContext(ctx, query, userID, now).
		Scan(&c.ID, &c.UserID, &c.CodeHash, &c.CreatedAt, &c.ExpiresAt, &c.Used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, id string) (bool, error) {
	query := `UPDATE email_verification_codes SET used = TRUE WHERE id = $1 AND used = FALSE`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM email_verification_codes WHERE expires_at < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
