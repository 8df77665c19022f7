package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationTokenRoundTrip(t *testing.T) {
	store := newMemoryStore()
	acct := store.addAccount(&Account{Email: "new@example.com"})
	mgr := &VerificationTokenManager{Store: store}
	ctx := context.Background()

	raw, err := mgr.IssueToken(ctx, acct.ID)
	require.NoError(t, err)
	assert.Len(t, raw, 64)
	assert.NotNil(t, acct.VerificationTokenHash)
	assert.NotEqual(t, raw, *acct.VerificationTokenHash)

	verified, err := mgr.Consume(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, verified.ID)
	assert.True(t, verified.EmailVerified)

	_, err = mgr.Consume(ctx, raw)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestVerificationTokenReissueInvalidatesPrior(t *testing.T) {
	store := newMemoryStore()
	acct := store.addAccount(&Account{Email: "new@example.com"})
	mgr := &VerificationTokenManager{Store: store}
	ctx := context.Background()

	first, err := mgr.IssueToken(ctx, acct.ID)
	require.NoError(t, err)
	second, err := mgr.IssueToken(ctx, acct.ID)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = mgr.Consume(ctx, first)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	verified, err := mgr.Consume(ctx, second)
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)
}

func TestVerificationTokenExpiry(t *testing.T) {
	store := newMemoryStore()
	acct := store.addAccount(&Account{Email: "new@example.com"})
	mgr := &VerificationTokenManager{Store: store}
	ctx := context.Background()

	raw, err := mgr.IssueToken(ctx, acct.ID)
	require.NoError(t, err)

	expired := time.Now().Add(-time.Minute)
	acct.VerificationExpiresAt = &expired

	_, err = mgr.Consume(ctx, raw)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	assert.False(t, acct.EmailVerified)
}

func TestVerificationTokenRejectsGarbage(t *testing.T) {
	store := newMemoryStore()
	mgr := &VerificationTokenManager{Store: store}
	ctx := context.Background()

	_, err := mgr.Consume(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	_, err = mgr.Consume(ctx, "not-a-real-token")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestVerificationTokenUnknownAccount(t *testing.T) {
	mgr := &VerificationTokenManager{Store: newMemoryStore()}

	_, err := mgr.IssueToken(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
