package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceOTPEmailRendersPlaceholders(t *testing.T) {
	content := DeviceOTPEmail("en", "482913", 10)
	assert.Contains(t, content.Text, "482913")
	assert.Contains(t, content.Text, "10 minutes")
	assert.Contains(t, content.HTML, "<strong>482913</strong>")
	assert.NotContains(t, content.HTML, "{code}")
}

func TestVerificationEmailRendersLink(t *testing.T) {
	link := "https://app.example.com/verify-email?token=abc"
	content := VerificationEmail("de", link, 24)
	assert.Contains(t, content.HTML, link)
	assert.Contains(t, content.Text, "24 Stunde")
}

func TestUnknownLocaleFallsBackToEnglish(t *testing.T) {
	content := TwoFactorEmail("pt-BR", "123456", 10)
	assert.Equal(t, "Your 2FA code", content.Subject)
}

func TestSignInAlertEmailFillsUnknowns(t *testing.T) {
	content := SignInAlertEmail("en", "alice@example.com", "Mon, 01 Sep 2025 10:00:00 UTC", "203.0.113.7", "", "")
	assert.Contains(t, content.Text, "Unknown location")
	assert.Contains(t, content.Text, "Unknown device")
	assert.Contains(t, content.Text, "alice@example.com")
}
