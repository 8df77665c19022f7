package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChallengePurpose namespaces pending codes so a device-trust OTP can never
// satisfy an email 2FA challenge or vice versa.
type ChallengePurpose string

const (
	PurposeDeviceOTP      ChallengePurpose = "login_otp"
	PurposeTwoFactorEmail ChallengePurpose = "2fa_otp"
)

const (
	ChallengeTTL         = 10 * time.Minute
	ChallengeMaxAttempts = 3
)

// ChallengeStore keeps pending email OTPs in Redis as an expiring side-table
// keyed by account, so the account row never carries transient security
// material. At most one live code exists per (purpose, account): issuing a
// new one overwrites the old.
type ChallengeStore struct {
	Redis *redis.Client
}

func (s *ChallengeStore) key(purpose ChallengePurpose, accountID string) string {
	return string(purpose) + ":" + accountID
}

// Issue generates a fresh 6-digit code, stores only its digest and returns
// the raw code for out-of-band delivery.
func (s *ChallengeStore) Issue(ctx context.Context, purpose ChallengePurpose, accountID string) (string, error) {
	code, err := randomSixDigitCode()
	if err != nil {
		return "", err
	}

	key := s.key(purpose, accountID)
	pipe := s.Redis.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]interface{}{
		"codeHash":    HashCode(code),
		"attempts":    0,
		"maxAttempts": ChallengeMaxAttempts,
	})
	pipe.Expire(ctx, key, ChallengeTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("store challenge: %w", err)
	}

	return code, nil
}

// Verify fails closed: missing or expired key, exhausted attempts and digest
// mismatch all return ErrInvalidOrExpiredCode. A mismatch increments the
// attempt counter; a match deletes the pending code so it can never be
// replayed.
func (s *ChallengeStore) Verify(ctx context.Context, purpose ChallengePurpose, accountID, code string) error {
	key := s.key(purpose, accountID)

	vals, err := s.Redis.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("read challenge: %w", err)
	}
	if len(vals) == 0 {
		return ErrInvalidOrExpiredCode
	}

	attempts, _ := strconv.Atoi(vals["attempts"])
	maxAttempts, _ := strconv.Atoi(vals["maxAttempts"])
	if maxAttempts <= 0 {
		maxAttempts = ChallengeMaxAttempts
	}
	if attempts >= maxAttempts {
		return ErrInvalidOrExpiredCode
	}

	if !VerifyCode(code, vals["codeHash"]) {
		// HIncrBy keeps concurrent failures from losing increments.
		_ = s.Redis.HIncrBy(ctx, key, "attempts", 1).Err()
		return ErrInvalidOrExpiredCode
	}

	// The Del count arbitrates concurrent consumers: only the caller that
	// actually removed the key has consumed the code.
	deleted, err := s.Redis.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("clear challenge: %w", err)
	}
	if deleted == 0 {
		return ErrInvalidOrExpiredCode
	}
	return nil
}

// Clear drops any pending code without verifying it.
func (s *ChallengeStore) Clear(ctx context.Context, purpose ChallengePurpose, accountID string) error {
	return s.Redis.Del(ctx, s.key(purpose, accountID)).Err()
}

// Pending reports whether a live code exists for the account.
func (s *ChallengeStore) Pending(ctx context.Context, purpose ChallengePurpose, accountID string) (bool, error) {
	n, err := s.Redis.Exists(ctx, s.key(purpose, accountID)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func randomSixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("otp entropy: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
