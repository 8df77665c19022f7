package auth

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTOTPGenerate(t *testing.T) {
	svc := NewTOTPService("Cyberverse")

	secret, uri, qr, err := svc.Generate("alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.Contains(t, uri, "otpauth://totp/")
	assert.Contains(t, uri, "Cyberverse")
	assert.Contains(t, qr, "data:image/png;base64,")
}

func TestTOTPVerifyCurrentStep(t *testing.T) {
	svc := NewTOTPService("Cyberverse")
	secret, _, _, err := svc.Generate("alice@example.com")
	require.NoError(t, err)

	now := time.Now()
	code, err := totp.GenerateCode(secret, now)
	require.NoError(t, err)

	assert.True(t, svc.Verify(secret, code, now))
}

func TestTOTPVerifyWithinSkew(t *testing.T) {
	svc := NewTOTPService("Cyberverse")
	secret, _, _, err := svc.Generate("alice@example.com")
	require.NoError(t, err)

	now := time.Now()
	code, err := totp.GenerateCode(secret, now.Add(-90*time.Second))
	require.NoError(t, err)

	assert.True(t, svc.Verify(secret, code, now), "codes within +-2 minutes must pass")
}

func TestTOTPVerifyRejectsStaleCode(t *testing.T) {
	svc := NewTOTPService("Cyberverse")
	secret, _, _, err := svc.Generate("alice@example.com")
	require.NoError(t, err)

	now := time.Now()
	code, err := totp.GenerateCode(secret, now.Add(-10*time.Minute))
	require.NoError(t, err)

	assert.False(t, svc.Verify(secret, code, now))
}

func TestTOTPVerifyRejectsGarbage(t *testing.T) {
	svc := NewTOTPService("Cyberverse")
	secret, _, _, err := svc.Generate("alice@example.com")
	require.NoError(t, err)

	assert.False(t, svc.Verify(secret, "000000", time.Now().Add(17*time.Hour)))
	assert.False(t, svc.Verify(secret, "not-a-code", time.Now()))
	assert.False(t, svc.Verify("", "123456", time.Now()))
}
