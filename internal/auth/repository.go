package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `id, email, password_hash, email_verified,
	verification_token_hash, verification_expires_at,
	two_factor_enabled, two_factor_method, totp_secret, pending_totp_secret,
	reset_token_hash, reset_expires_at, created_at, updated_at`

// AccountRepository owns all persisted auth state. Single-statement updates
// keep per-account mutations atomic without explicit locking.
type AccountRepository struct {
	DB *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{DB: db}
}

func (r *AccountRepository) Create(ctx context.Context, email, passwordHash string, verified bool) (*Account, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO accounts (id, email, password_hash, email_verified)
		VALUES ($1, $2, $3, $4)
		RETURNING `+accountColumns,
		uuid.NewString(), strings.ToLower(strings.TrimSpace(email)), passwordHash, verified)

	acct, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return acct, nil
}

// FindByEmail returns (nil, nil) when no account matches; callers decide
// whether that is an error.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE email=$1
	`, strings.ToLower(strings.TrimSpace(email)))
	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return acct, err
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*Account, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id=$1
	`, id)
	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return acct, err
}

func (r *AccountRepository) SetEmailVerified(ctx context.Context, accountID string) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE accounts
		SET email_verified=TRUE, updated_at=NOW()
		WHERE id=$1
	`, accountID)
	return err
}

// SaveVerificationToken overwrites any prior pending token; only one live
// verification token exists per account.
func (r *AccountRepository) SaveVerificationToken(ctx context.Context, accountID, tokenHash string, expires time.Time) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE accounts
		SET verification_token_hash=$1, verification_expires_at=$2, updated_at=NOW()
		WHERE id=$3
	`, tokenHash, expires, accountID)
	return err
}

// ConsumeVerificationToken marks the account verified and clears the token
// fields in one statement, so a matched token can never be replayed.
func (r *AccountRepository) ConsumeVerificationToken(ctx context.Context, tokenHash string) (*Account, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE accounts
		SET email_verified=TRUE,
		    verification_token_hash=NULL,
		    verification_expires_at=NULL,
		    updated_at=NOW()
		WHERE verification_token_hash=$1 AND verification_expires_at > NOW()
		RETURNING `+accountColumns,
		tokenHash)

	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidOrExpiredToken
	}
	return acct, err
}

// SavePendingTOTPSecret parks a freshly generated secret without enabling
// 2FA; an abandoned enrollment never activates.
func (r *AccountRepository) SavePendingTOTPSecret(ctx context.Context, accountID, secret string) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE accounts
		SET pending_totp_secret=$1, updated_at=NOW()
		WHERE id=$2
	`, secret, accountID)
	return err
}

// ConfirmTOTPSecret promotes the pending secret and switches 2FA on. Fails
// with ErrTwoFactorNotConfigured when no enrollment is pending.
func (r *AccountRepository) ConfirmTOTPSecret(ctx context.Context, accountID string) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE accounts
		SET two_factor_enabled=TRUE,
		    two_factor_method='totp',
		    totp_secret=pending_totp_secret,
		    pending_totp_secret=NULL,
		    updated_at=NOW()
		WHERE id=$1 AND pending_totp_secret IS NOT NULL
	`, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTwoFactorNotConfigured
	}
	return nil
}

func (r *AccountRepository) EnableEmailTwoFactor(ctx context.Context, accountID string) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE accounts
		SET two_factor_enabled=TRUE, two_factor_method='email', updated_at=NOW()
		WHERE id=$1
	`, accountID)
	return err
}

func (r *AccountRepository) DisableTwoFactor(ctx context.Context, accountID string) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		UPDATE accounts
		SET two_factor_enabled=FALSE,
		    two_factor_method=NULL,
		    totp_secret=NULL,
		    pending_totp_secret=NULL,
		    updated_at=NOW()
		WHERE id=$1
	`, accountID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		DELETE FROM backup_codes WHERE account_id=$1
	`, accountID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ReplaceBackupCodes swaps the full set atomically; hashes only.
func (r *AccountRepository) ReplaceBackupCodes(ctx context.Context, accountID string, codeHashes []string) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		DELETE FROM backup_codes WHERE account_id=$1
	`, accountID); err != nil {
		return err
	}
	for _, hash := range codeHashes {
		if _, err := tx.Exec(ctx, `
			INSERT INTO backup_codes (account_id, code_hash) VALUES ($1, $2)
		`, accountID, hash); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ConsumeBackupCode flips used in the same statement that matches, so a code
// is accepted at most once even under concurrent attempts.
func (r *AccountRepository) ConsumeBackupCode(ctx context.Context, accountID, codeHash string) (bool, error) {
	tag, err := r.DB.Exec(ctx, `
		UPDATE backup_codes
		SET used=TRUE
		WHERE account_id=$1 AND code_hash=$2 AND used=FALSE
	`, accountID, codeHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *AccountRepository) TrustedDevice(ctx context.Context, accountID, deviceID string) (*DeviceTrustRecord, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT device_id, display_name, browser, os, created_at, last_used_at
		FROM trusted_devices
		WHERE account_id=$1 AND device_id=$2
	`, accountID, deviceID)

	var rec DeviceTrustRecord
	err := row.Scan(&rec.DeviceID, &rec.DisplayName, &rec.Browser, &rec.OS, &rec.CreatedAt, &rec.LastUsedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpsertTrustedDevice adds the device to the trust ledger, refreshing
// last_used_at when it is already present.
func (r *AccountRepository) UpsertTrustedDevice(ctx context.Context, accountID string, desc DeviceDescriptor) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO trusted_devices (account_id, device_id, display_name, browser, os)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id, device_id) DO UPDATE SET last_used_at=NOW()
	`, accountID, desc.DeviceID, desc.DisplayName, desc.Browser, desc.OS)
	return err
}

func (r *AccountRepository) ListTrustedDevices(ctx context.Context, accountID string) ([]DeviceTrustRecord, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT device_id, display_name, browser, os, created_at, last_used_at
		FROM trusted_devices
		WHERE account_id=$1
		ORDER BY last_used_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []DeviceTrustRecord
	for rows.Next() {
		var rec DeviceTrustRecord
		if err := rows.Scan(&rec.DeviceID, &rec.DisplayName, &rec.Browser, &rec.OS, &rec.CreatedAt, &rec.LastUsedAt); err != nil {
			return nil, err
		}
		devices = append(devices, rec)
	}
	return devices, rows.Err()
}

func (r *AccountRepository) RemoveTrustedDevice(ctx context.Context, accountID, deviceID string) error {
	_, err := r.DB.Exec(ctx, `
		DELETE FROM trusted_devices WHERE account_id=$1 AND device_id=$2
	`, accountID, deviceID)
	return err
}

func (r *AccountRepository) RemoveAllTrustedDevices(ctx context.Context, accountID string) error {
	_, err := r.DB.Exec(ctx, `
		DELETE FROM trusted_devices WHERE account_id=$1
	`, accountID)
	return err
}

func (r *AccountRepository) SavePasswordReset(ctx context.Context, accountID, tokenHash string, expires time.Time) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE accounts
		SET reset_token_hash=$1, reset_expires_at=$2, updated_at=NOW()
		WHERE id=$3
	`, tokenHash, expires, accountID)
	return err
}

func (r *AccountRepository) FindByResetTokenHash(ctx context.Context, tokenHash string) (*Account, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE reset_token_hash=$1 AND reset_expires_at > NOW()
	`, tokenHash)
	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return acct, err
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, accountID, passwordHash string) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE accounts
		SET password_hash=$1, reset_token_hash=NULL, reset_expires_at=NULL, updated_at=NOW()
		WHERE id=$2
	`, passwordHash, accountID)
	return err
}

func scanAccount(row pgx.Row) (*Account, error) {
	var (
		acct                  Account
		verificationTokenHash sql.NullString
		verificationExpiresAt sql.NullTime
		twoFactorMethod       sql.NullString
		totpSecret            sql.NullString
		pendingTOTPSecret     sql.NullString
		resetTokenHash        sql.NullString
		resetExpiresAt        sql.NullTime
	)

	if err := row.Scan(
		&acct.ID,
		&acct.Email,
		&acct.PasswordHash,
		&acct.EmailVerified,
		&verificationTokenHash,
		&verificationExpiresAt,
		&acct.TwoFactorEnabled,
		&twoFactorMethod,
		&totpSecret,
		&pendingTOTPSecret,
		&resetTokenHash,
		&resetExpiresAt,
		&acct.CreatedAt,
		&acct.UpdatedAt,
	); err != nil {
		return nil, err
	}

	acct.VerificationTokenHash = nullStringPtr(verificationTokenHash)
	acct.VerificationExpiresAt = nullTimePtr(verificationExpiresAt)
	acct.TOTPSecret = nullStringPtr(totpSecret)
	acct.PendingTOTPSecret = nullStringPtr(pendingTOTPSecret)
	acct.ResetTokenHash = nullStringPtr(resetTokenHash)
	acct.ResetExpiresAt = nullTimePtr(resetExpiresAt)
	if twoFactorMethod.Valid {
		method := TwoFactorMethod(twoFactorMethod.String)
		acct.TwoFactorMethod = &method
	}

	return &acct, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}
