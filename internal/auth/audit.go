package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	AuditLoginIssued         = "login_issued"
	AuditLoginRejected       = "login_rejected"
	AuditDeviceChallenge     = "device_challenge"
	AuditDeviceTrusted       = "device_trusted"
	AuditDeviceRevoked       = "device_revoked"
	AuditTwoFactorChallenge  = "two_factor_challenge"
	AuditTwoFactorVerified   = "two_factor_verified"
	AuditTwoFactorEnabled    = "two_factor_enabled"
	AuditTwoFactorDisabled   = "two_factor_disabled"
	AuditEmailVerified       = "email_verified"
	AuditPasswordResetIssued = "password_reset_issued"
	AuditPasswordChanged     = "password_changed"
)

type AuditEvent struct {
	EventType string                 `json:"eventType"`
	AccountID string                 `json:"accountId,omitempty"`
	IP        string                 `json:"ip"`
	DeviceID  string                 `json:"deviceId,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// AuditLogger appends auth events to a capped per-account list in Redis.
// Best effort: callers ignore the error on the hot path.
type AuditLogger struct {
	Redis  *redis.Client
	MaxLen int64
}

func (a *AuditLogger) Log(ctx context.Context, e AuditEvent) error {
	e.Timestamp = time.Now().UTC()
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	key := "audit"
	if e.AccountID != "" {
		key = "audit:" + e.AccountID
	}

	pipe := a.Redis.Pipeline()
	pipe.RPush(ctx, key, data)
	if a.MaxLen > 0 {
		pipe.LTrim(ctx, key, -a.MaxLen, -1)
	}
	_, err = pipe.Exec(ctx)
	return err
}
