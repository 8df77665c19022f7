package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// VerificationTokenTTL is how long an email-ownership token stays valid.
const VerificationTokenTTL = 24 * time.Hour

// VerificationStore is the repository slice the token manager needs.
type VerificationStore interface {
	FindByID(ctx context.Context, id string) (*Account, error)
	SaveVerificationToken(ctx context.Context, accountID, tokenHash string, expires time.Time) error
	ConsumeVerificationToken(ctx context.Context, tokenHash string) (*Account, error)
}

// VerificationTokenManager issues and consumes long-lived, single-use tokens
// proving email ownership. Only the digest is ever persisted.
type VerificationTokenManager struct {
	Store VerificationStore
}

// IssueToken generates a high-entropy token, stores its digest with a fresh
// expiry (overwriting any prior pending token) and returns the raw token for
// out-of-band delivery.
func (m *VerificationTokenManager) IssueToken(ctx context.Context, accountID string) (string, error) {
	acct, err := m.Store.FindByID(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("lookup account: %w", err)
	}
	if acct == nil {
		return "", ErrNotFound
	}

	raw, err := randomToken(32)
	if err != nil {
		return "", err
	}

	expires := time.Now().Add(VerificationTokenTTL)
	if err := m.Store.SaveVerificationToken(ctx, accountID, HashCode(raw), expires); err != nil {
		return "", fmt.Errorf("store verification token: %w", err)
	}
	return raw, nil
}

// Consume marks the owning account verified and clears the token, so the
// same raw token can never succeed twice.
func (m *VerificationTokenManager) Consume(ctx context.Context, rawToken string) (*Account, error) {
	if rawToken == "" {
		return nil, ErrInvalidOrExpiredToken
	}
	return m.Store.ConsumeVerificationToken(ctx, HashCode(rawToken))
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token entropy: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
