package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const minPasswordLength = 6

// ValidationError lists every problem found with the submitted input.
// It matches common.ErrValidation and unwraps to its cause, if any.
type ValidationError struct {
	Problems []string
	Err      error
}

func (e *ValidationError) Error() string {
	return "validation error: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == common.ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Err }

var validate = validator.New(validator.WithRequiredStructEnabled())

// CheckCredentialsInput enforces the account rules: a valid email and a
// password of at least six characters mixing lower and upper case letters,
// digits and symbols.
func CheckCredentialsInput(email, password string) error {
	var problems []string
	if err := validate.Var(email, "required,email,max=256"); err != nil {
		problems = append(problems, "Email is invalid.")
	}
	problems = append(problems, passwordProblems(password)...)
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func passwordProblems(pw string) []string {
	var lower, upper, digit, other bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			other = true
		}
	}

	var out []string
	if len([]rune(pw)) < minPasswordLength {
		out = append(out, fmt.Sprintf("Passwords must be at least %d characters.", minPasswordLength))
	}
	if !other {
		out = append(out, "Passwords must have at least one non alphanumeric character.")
	}
	if !digit {
		out = append(out, "Passwords must have at least one digit ('0'-'9').")
	}
	if !lower {
		out = append(out, "Passwords must have at least one lowercase ('a'-'z').")
	}
	if !upper {
		out = append(out, "Passwords must have at least one uppercase ('A'-'Z').")
	}
	return out
}

// AccountStore is the bcrypt backed credential store.
type AccountStore struct {
	st   Storage
	opts options
}

func NewAccountStore(st Storage, opts ...Option) *AccountStore {
	return &AccountStore{st: st, opts: buildOptions("accounts", opts)}
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnPasswordCheck spends the same time as a real bcrypt comparison so that
// unknown emails cannot be told apart by latency.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = cryptox.HashPassword(uuid.NewString())
	})
	cryptox.CheckPassword(dummyHash, password)
}

// CreateAccount stores a new unconfirmed account with the default role.
// The email doubles as the user name.
func (s *AccountStore) CreateAccount(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		UserName:     email,
		PasswordHash: hash,
		CreatedAt:    s.opts.now(),
	}

	err = s.st.Tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.st.Repos.Users(tx)
		if err := repo.Create(ctx, user); err != nil {
			return err
		}
		return repo.AddRole(ctx, user.ID, common.DefaultRole)
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, &ValidationError{
				Problems: []string{fmt.Sprintf("Email '%s' is already taken.", email)},
				Err:      common.ErrAlreadyExists,
			}
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return user, nil
}

// ValidateCredentials returns the account when email and password match.
// Every mismatch is common.ErrInvalidCredentials.
func (s *AccountStore) ValidateCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			burnPasswordCheck(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}
	if !cryptox.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AccountStore) ConfirmEmail(ctx context.Context, userID string) error {
	if err := s.st.Repos.Users(s.st.DB).SetEmailConfirmed(ctx, userID); err != nil {
		return fmt.Errorf("confirm email: %w", err)
	}
	return nil
}

func (s *AccountStore) GetRoles(ctx context.Context, userID string) ([]string, error) {
	roles, err := s.st.Repos.Users(s.st.DB).GetRoles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get roles: %w", err)
	}
	return roles, nil
}

func (s *AccountStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.st.Repos.Users(s.st.DB).GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return user, nil
}

func (s *AccountStore) FindByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.st.Repos.Users(s.st.DB).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return user, nil
}

func (s *AccountStore) Delete(ctx context.Context, userID string) error {
	if err := s.st.Repos.Users(s.st.DB).Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.opts.logger.Info(ctx, "account deleted", "user_id", userID)
	return nil
}
