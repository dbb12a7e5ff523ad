package services

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshToken_GenerateValidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := f.refresh.Generate(ctx, "u1")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(tok)
	require.NoError(t, err)
	assert.Len(t, raw, 64)

	userID, ok, err := f.refresh.Validate(ctx, tok)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "u1", userID)

	recs := f.mem.RefreshTokensOf("u1")
	require.Len(t, recs, 1)
	assert.Equal(t, cryptox.Hash(tok), recs[0].TokenHash)
	assert.NotEqual(t, tok, recs[0].TokenHash)
	assert.Equal(t, f.clock.Now().Add(30*24*time.Hour), recs[0].ExpiresAt)
}

func TestRefreshToken_ValidateUnknownAndEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, tok := range []string{"", "garbage"} {
		_, ok, err := f.refresh.Validate(ctx, tok)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestRefreshToken_Expires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := f.refresh.Generate(ctx, "u1")
	require.NoError(t, err)

	f.clock.Advance(30*24*time.Hour + time.Second)

	_, ok, err := f.refresh.Validate(ctx, tok)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.refresh.Rotate(ctx, tok, "u1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRefreshToken_Rotate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	old, err := f.refresh.Generate(ctx, "u1")
	require.NoError(t, err)

	next, err := f.refresh.Rotate(ctx, old, "u1")
	require.NoError(t, err)
	assert.NotEqual(t, old, next)

	_, ok, err := f.refresh.Validate(ctx, old)
	require.NoError(t, err)
	assert.False(t, ok, "old token must be dead")

	userID, ok, err := f.refresh.Validate(ctx, next)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "u1", userID)

	recs := f.mem.RefreshTokensOf("u1")
	require.Len(t, recs, 2)
	assert.True(t, recs[0].Revoked)
	require.NotNil(t, recs[0].RevokedAt)
}

func TestRefreshToken_RotateForeignTokenChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := f.refresh.Generate(ctx, "u1")
	require.NoError(t, err)

	_, err = f.refresh.Rotate(ctx, tok, "u2")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.Empty(t, f.mem.RefreshTokensOf("u2"))
	_, ok, err := f.refresh.Validate(ctx, tok)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRefreshToken_ConcurrentRotateHasOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := f.refresh.Generate(ctx, "u1")
	require.NoError(t, err)

	const racers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
		losers  int
	)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			next, err := f.refresh.Rotate(ctx, tok, "u1")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners = append(winners, next)
				return
			}
			if errors.Is(err, common.ErrorNotFound) {
				losers++
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, racers-1, losers)
	assert.Len(t, f.mem.RefreshTokensOf("u1"), 2)
}

func TestRefreshToken_RevokeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := f.refresh.Generate(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, f.refresh.Revoke(ctx, tok))
	require.NoError(t, f.refresh.Revoke(ctx, tok))
	require.NoError(t, f.refresh.Revoke(ctx, "unknown"))
	require.NoError(t, f.refresh.Revoke(ctx, ""))

	_, ok, err := f.refresh.Validate(ctx, tok)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshToken_RevokeAllForUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, _ := f.refresh.Generate(ctx, "u1")
	b, _ := f.refresh.Generate(ctx, "u1")
	c, _ := f.refresh.Generate(ctx, "u2")

	n, err := f.refresh.RevokeAllForUser(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	for _, tok := range []string{a, b} {
		_, ok, _ := f.refresh.Validate(ctx, tok)
		assert.False(t, ok)
	}
	_, ok, _ := f.refresh.Validate(ctx, c)
	assert.True(t, ok)
}

func TestRefreshToken_StoreFaultsSurface(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boom := errors.New("connection reset")

	f.mem.FailNext(1, boom)
	_, err := f.refresh.Generate(ctx, "u1")
	assert.ErrorIs(t, err, boom)

	f.mem.FailNext(1, boom)
	_, _, err = f.refresh.Validate(ctx, "x")
	assert.ErrorIs(t, err, boom)

	tok, err := f.refresh.Generate(ctx, "u1")
	require.NoError(t, err)
	f.mem.FailNext(1, boom)
	_, err = f.refresh.Rotate(ctx, tok, "u1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}
