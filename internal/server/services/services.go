// Package services contains the server-side business logic: the credential
// store, the refresh token and verification code managers and the session
// orchestrator composing them.
package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// Storage bundles what a service needs to reach the durable store: a handle
// for standalone statements, a transactor for units of work and the
// repository factories.
type Storage struct {
	DB    dbx.DBTX
	Tx    dbx.Transactor
	Repos repomanager.RepositoryManager
}

// NewSQLStorage wires Storage over a database/sql pool.
func NewSQLStorage(db *sql.DB, repos repomanager.RepositoryManager) Storage {
	return Storage{DB: db, Tx: dbx.NewSQLTransactor(db, nil), Repos: repos}
}

type options struct {
	now    func() time.Time
	logger logging.Logger
}

type Option func(*options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(module string, opts []Option) options {
	o := options{now: time.Now, logger: logging.Nop()}
	for _, fn := range opts {
		fn(&o)
	}
	o.logger = o.logger.With("module", module)
	return o
}

// Mailer delivers one HTML message.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// TokenIssuer mints access tokens.
type TokenIssuer interface {
	Issue(userID, email, displayName string, roles []string) (string, error)
}

// RefreshTokenManager is the contract of RefreshTokenService.
type RefreshTokenManager interface {
	Generate(ctx context.Context, userID string) (string, error)
	Validate(ctx context.Context, token string) (string, bool, error)
	Rotate(ctx context.Context, oldToken, userID string) (string, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}

// CodeVerifier is the contract of VerificationService.
type CodeVerifier interface {
	IssueCode(ctx context.Context, user *models.User) error
	VerifyCode(ctx context.Context, userID, code string) (bool, error)
}

// CredentialStore is the contract of AccountStore.
type CredentialStore interface {
	CreateAccount(ctx context.Context, email, password string) (*models.User, error)
	ValidateCredentials(ctx context.Context, email, password string) (*models.User, error)
	ConfirmEmail(ctx context.Context, userID string) error
	GetRoles(ctx context.Context, userID string) ([]string, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, userID string) (*models.User, error)
	Delete(ctx context.Context, userID string) error
}
