package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodPassword = "Passw0rd!"

func TestCheckCredentialsInput(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		problems int
	}{
		{"valid", "alice@example.com", goodPassword, 0},
		{"bad email", "alice", goodPassword, 1},
		{"empty email", "", goodPassword, 1},
		{"short", "a@b.co", "Aa1!", 1},
		{"no symbol", "a@b.co", "Passw0rd", 1},
		{"no digit", "a@b.co", "Password!", 1},
		{"lower only", "a@b.co", "password", 3},
		{"empty password", "a@b.co", "", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCredentialsInput(tt.email, tt.password)
			if tt.problems == 0 {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, common.ErrValidation)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Len(t, ve.Problems, tt.problems)
		})
	}
}

func TestAccountStore_CreateAndValidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.accounts.CreateAccount(ctx, " alice@example.com ", goodPassword)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, user.Email, user.UserName)
	assert.False(t, user.EmailConfirmed)
	assert.NotEqual(t, goodPassword, user.PasswordHash)

	roles, err := f.accounts.GetRoles(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{common.DefaultRole}, roles)

	got, err := f.accounts.ValidateCredentials(ctx, "ALICE@example.com", goodPassword)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestAccountStore_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.accounts.CreateAccount(ctx, "alice@example.com", goodPassword)
	require.NoError(t, err)

	_, errWrongPw := f.accounts.ValidateCredentials(ctx, "alice@example.com", "nope")
	_, errUnknown := f.accounts.ValidateCredentials(ctx, "bob@example.com", goodPassword)

	assert.ErrorIs(t, errWrongPw, common.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, common.ErrInvalidCredentials)
	assert.Equal(t, errWrongPw.Error(), errUnknown.Error())
}

func TestAccountStore_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.accounts.CreateAccount(ctx, "alice@example.com", goodPassword)
	require.NoError(t, err)

	_, err = f.accounts.CreateAccount(ctx, "Alice@Example.com", goodPassword)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestAccountStore_ConfirmAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, err := f.accounts.CreateAccount(ctx, "alice@example.com", goodPassword)
	require.NoError(t, err)

	require.NoError(t, f.accounts.ConfirmEmail(ctx, user.ID))
	got, err := f.accounts.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.EmailConfirmed)

	require.NoError(t, f.accounts.Delete(ctx, user.ID))
	_, err = f.accounts.FindByID(ctx, user.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, f.accounts.ConfirmEmail(ctx, user.ID), common.ErrorNotFound)
}
