package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// RegisterResult is returned by Register. Registration never signs the user in.
type RegisterResult struct {
	UserID               string
	RequiresVerification bool
}

// LoginResult carries the outcome of Login and Verify. When
// RequiresVerification is set no tokens are present.
type LoginResult struct {
	UserID               string
	RequiresVerification bool
	AccessToken          string
	RefreshToken         string
}

// TokenPair is returned by Refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Profile is the caller's identity and roles.
type Profile struct {
	ID    string
	Email string
	Roles []string
}

// SessionService drives register, login, email verification, refresh and
// logout on top of the credential store and the token managers.
type SessionService struct {
	accounts CredentialStore
	issuer   TokenIssuer
	refresh  RefreshTokenManager
	codes    CodeVerifier
	opts     options
}

func NewSessionService(accounts CredentialStore, issuer TokenIssuer, refresh RefreshTokenManager, codes CodeVerifier, opts ...Option) *SessionService {
	return &SessionService{
		accounts: accounts,
		issuer:   issuer,
		refresh:  refresh,
		codes:    codes,
		opts:     buildOptions("session", opts),
	}
}

// Register creates an unconfirmed account and mails its first code.
func (s *SessionService) Register(ctx context.Context, email, password string) (*RegisterResult, error) {
	if err := CheckCredentialsInput(email, password); err != nil {
		return nil, err
	}

	user, err := s.accounts.CreateAccount(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.codes.IssueCode(ctx, user); err != nil {
		return nil, err
	}

	s.opts.logger.Info(ctx, "user registered", "user_id", user.ID)
	return &RegisterResult{UserID: user.ID, RequiresVerification: true}, nil
}

// Login checks credentials. An unconfirmed account gets a new code instead of
// tokens.
func (s *SessionService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.accounts.ValidateCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if !user.EmailConfirmed {
		if err := s.codes.IssueCode(ctx, user); err != nil {
			return nil, err
		}
		return &LoginResult{UserID: user.ID, RequiresVerification: true}, nil
	}

	return s.signIn(ctx, user)
}

// Verify consumes a code, confirms the email and signs the user in.
func (s *SessionService) Verify(ctx context.Context, userID, code string) (*LoginResult, error) {
	ok, err := s.codes.VerifyCode(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInvalidCode
	}

	if err := s.accounts.ConfirmEmail(ctx, userID); err != nil {
		return nil, err
	}
	user, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.opts.logger.Info(ctx, "email verified", "user_id", userID)
	return s.signIn(ctx, user)
}

// ResendCode mails a new code to the account registered under email.
func (s *SessionService) ResendCode(ctx context.Context, email string) error {
	user, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.codes.IssueCode(ctx, user)
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked. Every failure is common.ErrorUnauthorized; store faults are logged.
func (s *SessionService) Refresh(ctx context.Context, token string) (*TokenPair, error) {
	pair, err := s.refreshPair(ctx, token)
	if err != nil {
		if !errors.Is(err, common.ErrorUnauthorized) {
			s.opts.logger.Error(ctx, "refresh failed", "error", err)
		}
		return nil, common.ErrorUnauthorized
	}
	return pair, nil
}

func (s *SessionService) refreshPair(ctx context.Context, token string) (*TokenPair, error) {
	userID, ok, err := s.refresh.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	roles, err := s.accounts.GetRoles(ctx, userID)
	if err != nil {
		return nil, err
	}

	next, err := s.refresh.Rotate(ctx, token, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	access, err := s.issuer.Issue(user.ID, user.Email, user.UserName, roles)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: next}, nil
}

// Logout revokes the token server side. It never fails from the caller's
// point of view; store faults are logged.
func (s *SessionService) Logout(ctx context.Context, token string) {
	if err := s.refresh.Revoke(ctx, token); err != nil {
		s.opts.logger.Error(ctx, "logout revoke failed", "error", err)
	}
}

// Profile returns the identity and roles of userID.
func (s *SessionService) Profile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles, err := s.accounts.GetRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{ID: user.ID, Email: user.Email, Roles: roles}, nil
}

// DeleteUser revokes every session of the user and removes the account.
func (s *SessionService) DeleteUser(ctx context.Context, userID string) error {
	if _, err := s.accounts.FindByID(ctx, userID); err != nil {
		return err
	}
	if _, err := s.refresh.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}
	return s.accounts.Delete(ctx, userID)
}

func (s *SessionService) signIn(ctx context.Context, user *models.User) (*LoginResult, error) {
	roles, err := s.accounts.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	access, err := s.issuer.Issue(user.ID, user.Email, user.UserName, roles)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.refresh.Generate(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{UserID: user.ID, AccessToken: access, RefreshToken: refresh}, nil
}
