package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChallengeStore(t *testing.T) (*ChallengeStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &ChallengeStore{Redis: client}, mr
}

func TestChallengeIssueAndVerify(t *testing.T) {
	store, _ := newChallengeStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, PurposeDeviceOTP, "acct-1")
	require.NoError(t, err)
	assert.Len(t, code, 6)

	require.NoError(t, store.Verify(ctx, PurposeDeviceOTP, "acct-1", code))
}

func TestChallengeSingleUse(t *testing.T) {
	store, _ := newChallengeStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, PurposeDeviceOTP, "acct-1")
	require.NoError(t, err)

	require.NoError(t, store.Verify(ctx, PurposeDeviceOTP, "acct-1", code))

	err = store.Verify(ctx, PurposeDeviceOTP, "acct-1", code)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode, "a consumed code must never verify again")
}

func TestChallengeAttemptExhaustion(t *testing.T) {
	store, _ := newChallengeStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, PurposeDeviceOTP, "acct-1")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	for i := 0; i < ChallengeMaxAttempts; i++ {
		err := store.Verify(ctx, PurposeDeviceOTP, "acct-1", wrong)
		assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
	}

	// Correct and unexpired, but attempts are exhausted.
	err = store.Verify(ctx, PurposeDeviceOTP, "acct-1", code)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
}

func TestChallengeExpiry(t *testing.T) {
	store, mr := newChallengeStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, PurposeDeviceOTP, "acct-1")
	require.NoError(t, err)

	mr.FastForward(11 * time.Minute)

	err = store.Verify(ctx, PurposeDeviceOTP, "acct-1", code)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
}

func TestChallengeReissueInvalidatesPrior(t *testing.T) {
	store, _ := newChallengeStore(t)
	ctx := context.Background()

	first, err := store.Issue(ctx, PurposeDeviceOTP, "acct-1")
	require.NoError(t, err)
	second, err := store.Issue(ctx, PurposeDeviceOTP, "acct-1")
	require.NoError(t, err)

	if first != second {
		err = store.Verify(ctx, PurposeDeviceOTP, "acct-1", first)
		assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
	}
	require.NoError(t, store.Verify(ctx, PurposeDeviceOTP, "acct-1", second))
}

func TestChallengePurposesAreIsolated(t *testing.T) {
	store, _ := newChallengeStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, PurposeDeviceOTP, "acct-1")
	require.NoError(t, err)

	err = store.Verify(ctx, PurposeTwoFactorEmail, "acct-1", code)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode, "a device OTP must not satisfy an email 2FA challenge")
}

func TestChallengePending(t *testing.T) {
	store, _ := newChallengeStore(t)
	ctx := context.Background()

	pending, err := store.Pending(ctx, PurposeDeviceOTP, "acct-1")
	require.NoError(t, err)
	assert.False(t, pending)

	_, err = store.Issue(ctx, PurposeDeviceOTP, "acct-1")
	require.NoError(t, err)

	pending, err = store.Pending(ctx, PurposeDeviceOTP, "acct-1")
	require.NoError(t, err)
	assert.True(t, pending)

	require.NoError(t, store.Clear(ctx, PurposeDeviceOTP, "acct-1"))
	pending, err = store.Pending(ctx, PurposeDeviceOTP, "acct-1")
	require.NoError(t, err)
	assert.False(t, pending)
}

func TestChallengeVerifyConcurrentSingleWinner(t *testing.T) {
	store, _ := newChallengeStore(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		code, err := store.Issue(ctx, PurposeDeviceOTP, "acct-1")
		require.NoError(t, err)

		const workers = 8
		var wg sync.WaitGroup
		var successes atomic.Int32
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if store.Verify(ctx, PurposeDeviceOTP, "acct-1", code) == nil {
					successes.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), successes.Load(), "exactly one concurrent consumer may spend a code")
	}
}

func TestRandomSixDigitCodeFormat(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := randomSixDigitCode()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, code)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 150)
}
