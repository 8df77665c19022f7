package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	chromeWindowsUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	firefoxLinuxUA  = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
	safariMacUA     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"
	edgeWindowsUA   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0"
)

func TestFingerprintDeterministic(t *testing.T) {
	d1 := Fingerprint(chromeWindowsUA, "203.0.113.7")
	d2 := Fingerprint(chromeWindowsUA, "203.0.113.7")
	assert.Equal(t, d1.DeviceID, d2.DeviceID)
	assert.Len(t, d1.DeviceID, 64)
}

func TestFingerprintDistinguishesInputs(t *testing.T) {
	base := Fingerprint(chromeWindowsUA, "203.0.113.7")

	otherIP := Fingerprint(chromeWindowsUA, "203.0.113.8")
	otherUA := Fingerprint(firefoxLinuxUA, "203.0.113.7")

	assert.NotEqual(t, base.DeviceID, otherIP.DeviceID)
	assert.NotEqual(t, base.DeviceID, otherUA.DeviceID)
}

func TestFingerprintDescriptors(t *testing.T) {
	tests := []struct {
		name    string
		ua      string
		browser string
		os      string
	}{
		{"chrome on windows", chromeWindowsUA, "Chrome", "Windows"},
		{"firefox on linux", firefoxLinuxUA, "Firefox", "Linux"},
		{"safari on macos", safariMacUA, "Safari", "macOS"},
		{"edge on windows", edgeWindowsUA, "Edge", "Windows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := Fingerprint(tt.ua, "198.51.100.1")
			assert.Equal(t, tt.browser, desc.Browser)
			assert.Equal(t, tt.os, desc.OS)
			assert.Equal(t, tt.browser+" on "+tt.os, desc.DisplayName)
		})
	}
}

func TestFingerprintUnknownUserAgent(t *testing.T) {
	desc := Fingerprint("", "198.51.100.1")

	assert.NotEmpty(t, desc.DeviceID, "fingerprinting must never fail")
	assert.Equal(t, "Unknown", desc.Browser)
	assert.Equal(t, "Unknown", desc.OS)
	assert.Equal(t, "Unknown device", desc.DisplayName)
}
