package auth

import "time"

type TwoFactorMethod string

const (
	TwoFactorEmail TwoFactorMethod = "email"
	TwoFactorTOTP  TwoFactorMethod = "totp"
)

// Account is the persisted identity record. Secret-bearing fields stay inside
// this package; anything returned to a client goes through View.
type Account struct {
	ID            string
	Email         string
	PasswordHash  string
	EmailVerified bool

	VerificationTokenHash *string
	VerificationExpiresAt *time.Time

	TwoFactorEnabled  bool
	TwoFactorMethod   *TwoFactorMethod
	TOTPSecret        *string
	PendingTOTPSecret *string

	ResetTokenHash *string
	ResetExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountView is the public projection of an Account. Omission of the hash
// and secret fields is structural, not a serialization flag.
type AccountView struct {
	ID               string           `json:"id"`
	Email            string           `json:"email"`
	EmailVerified    bool             `json:"emailVerified"`
	TwoFactorEnabled bool             `json:"twoFactorEnabled"`
	TwoFactorMethod  *TwoFactorMethod `json:"twoFactorMethod,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}

func (a *Account) View() AccountView {
	return AccountView{
		ID:               a.ID,
		Email:            a.Email,
		EmailVerified:    a.EmailVerified,
		TwoFactorEnabled: a.TwoFactorEnabled,
		TwoFactorMethod:  a.TwoFactorMethod,
		CreatedAt:        a.CreatedAt,
	}
}

// DeviceTrustRecord is one entry in an account's device-trust ledger.
// Presence of the device id is the sole trust criterion.
type DeviceTrustRecord struct {
	DeviceID    string    `json:"deviceId"`
	DisplayName string    `json:"displayName"`
	Browser     string    `json:"browser"`
	OS          string    `json:"os"`
	CreatedAt   time.Time `json:"createdAt"`
	LastUsedAt  time.Time `json:"lastUsedAt"`
}
