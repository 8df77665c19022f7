package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AccountStore is the slice of the repository the login flow needs. It is an
// interface so the state machine can be exercised against an in-memory store.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	TrustedDevice(ctx context.Context, accountID, deviceID string) (*DeviceTrustRecord, error)
	UpsertTrustedDevice(ctx context.Context, accountID string, desc DeviceDescriptor) error
	ConsumeBackupCode(ctx context.Context, accountID, codeHash string) (bool, error)
}

// ChallengeDeliverer hands generated codes to the delivery mechanism. The
// flow's contract ends once a code with its expiry has been handed over.
type ChallengeDeliverer interface {
	DeliverDeviceOTP(ctx context.Context, acct *Account, code string) error
	DeliverTwoFactorCode(ctx context.Context, acct *Account, code string) error
}

type LoginState string

const (
	StateIssued             LoginState = "issued"
	StateDeviceChallenge    LoginState = "device_challenge"
	StateTwoFactorChallenge LoginState = "two_factor_challenge"
)

type LoginResult struct {
	State   LoginState
	Account *Account
	Device  DeviceDescriptor

	// Method is set for StateTwoFactorChallenge.
	Method TwoFactorMethod

	// Token fields are set for StateIssued.
	Token          string
	TokenExpiresAt time.Time

	// NewTrustedDevice marks an issuance that just added the device to the
	// trust ledger, used to trigger a sign-in alert.
	NewTrustedDevice bool
}

// LoginFlow decides, per attempt, whether a password alone is enough or an
// additional proof is required before a session token is issued. Device trust
// and 2FA are independent checks: completing a 2FA challenge never implies
// device trust, and a trusted device never bypasses enabled 2FA.
type LoginFlow struct {
	Accounts   AccountStore
	Hasher     PasswordHasher
	Challenges *ChallengeStore
	TOTP       TOTPVerifier
	Tokens     *TokenIssuer
	Deliver    ChallengeDeliverer

	now func() time.Time
}

func NewLoginFlow(accounts AccountStore, hasher PasswordHasher, challenges *ChallengeStore, totp TOTPVerifier, tokens *TokenIssuer, deliver ChallengeDeliverer) *LoginFlow {
	return &LoginFlow{
		Accounts:   accounts,
		Hasher:     hasher,
		Challenges: challenges,
		TOTP:       totp,
		Tokens:     tokens,
		Deliver:    deliver,
		now:        time.Now,
	}
}

// Login evaluates the transition rules in fixed order: password, then 2FA,
// then device trust.
func (f *LoginFlow) Login(ctx context.Context, email, password string, device DeviceDescriptor) (*LoginResult, error) {
	acct, err := f.Accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if acct == nil || !f.Hasher.Compare(acct.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if !acct.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	if acct.TwoFactorEnabled {
		method := TwoFactorTOTP
		if acct.TwoFactorMethod != nil {
			method = *acct.TwoFactorMethod
		}
		if method == TwoFactorEmail {
			if err := f.sendTwoFactorCode(ctx, acct); err != nil {
				return nil, err
			}
		}
		return &LoginResult{
			State:   StateTwoFactorChallenge,
			Account: acct,
			Device:  device,
			Method:  method,
		}, nil
	}

	trusted, err := f.Accounts.TrustedDevice(ctx, acct.ID, device.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("check device trust: %w", err)
	}
	if trusted == nil {
		code, err := f.Challenges.Issue(ctx, PurposeDeviceOTP, acct.ID)
		if err != nil {
			return nil, err
		}
		if err := f.Deliver.DeliverDeviceOTP(ctx, acct, code); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrChallengeDeliveryFailed, err)
		}
		return &LoginResult{
			State:   StateDeviceChallenge,
			Account: acct,
			Device:  device,
		}, nil
	}

	if err := f.Accounts.UpsertTrustedDevice(ctx, acct.ID, device); err != nil {
		return nil, fmt.Errorf("refresh device trust: %w", err)
	}
	return f.issue(acct, device, false)
}

// VerifyDeviceOTP completes a device challenge: the code is consumed, the
// device joins the trust ledger and a session token is issued.
func (f *LoginFlow) VerifyDeviceOTP(ctx context.Context, accountID string, device DeviceDescriptor, code string) (*LoginResult, error) {
	acct, err := f.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if acct == nil {
		return nil, ErrNotFound
	}

	if err := f.Challenges.Verify(ctx, PurposeDeviceOTP, acct.ID, code); err != nil {
		return nil, err
	}

	if err := f.Accounts.UpsertTrustedDevice(ctx, acct.ID, device); err != nil {
		return nil, fmt.Errorf("add trusted device: %w", err)
	}
	return f.issue(acct, device, true)
}

// VerifyTwoFactor completes a 2FA challenge with a TOTP code, an email code
// or a single-use backup code. Success issues a token directly; it does not
// add the device to the trust ledger.
func (f *LoginFlow) VerifyTwoFactor(ctx context.Context, accountID, code string) (*LoginResult, error) {
	acct, err := f.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if acct == nil {
		return nil, ErrNotFound
	}
	if !acct.TwoFactorEnabled || acct.TwoFactorMethod == nil {
		return nil, ErrTwoFactorNotConfigured
	}

	switch *acct.TwoFactorMethod {
	case TwoFactorTOTP:
		if acct.TOTPSecret == nil {
			return nil, ErrTwoFactorNotConfigured
		}
		if f.TOTP.Verify(*acct.TOTPSecret, code, f.now()) {
			return f.issue(acct, DeviceDescriptor{}, false)
		}
		used, err := f.Accounts.ConsumeBackupCode(ctx, acct.ID, HashCode(canonicalBackupCode(code)))
		if err != nil {
			return nil, fmt.Errorf("check backup code: %w", err)
		}
		if used {
			return f.issue(acct, DeviceDescriptor{}, false)
		}
		return nil, ErrInvalidOrExpiredCode
	case TwoFactorEmail:
		if err := f.Challenges.Verify(ctx, PurposeTwoFactorEmail, acct.ID, code); err != nil {
			return nil, err
		}
		return f.issue(acct, DeviceDescriptor{}, false)
	default:
		return nil, ErrTwoFactorNotConfigured
	}
}

// ResendDeviceOTP issues a fresh device challenge code, invalidating any
// prior one.
func (f *LoginFlow) ResendDeviceOTP(ctx context.Context, accountID string) error {
	acct, err := f.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}
	if acct == nil {
		return ErrNotFound
	}

	code, err := f.Challenges.Issue(ctx, PurposeDeviceOTP, acct.ID)
	if err != nil {
		return err
	}
	if err := f.Deliver.DeliverDeviceOTP(ctx, acct, code); err != nil {
		return fmt.Errorf("%w: %v", ErrChallengeDeliveryFailed, err)
	}
	return nil
}

func (f *LoginFlow) sendTwoFactorCode(ctx context.Context, acct *Account) error {
	code, err := f.Challenges.Issue(ctx, PurposeTwoFactorEmail, acct.ID)
	if err != nil {
		return err
	}
	if err := f.Deliver.DeliverTwoFactorCode(ctx, acct, code); err != nil {
		return fmt.Errorf("%w: %v", ErrChallengeDeliveryFailed, err)
	}
	return nil
}

func (f *LoginFlow) issue(acct *Account, device DeviceDescriptor, newDevice bool) (*LoginResult, error) {
	token, expires, err := f.Tokens.Issue(acct.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		State:            StateIssued,
		Account:          acct,
		Device:           device,
		Token:            token,
		TokenExpiresAt:   expires,
		NewTrustedDevice: newDevice,
	}, nil
}

func canonicalBackupCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
