package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DeviceDescriptor identifies "the same browser on the same machine" across
// logins. The id is derived, never stored client-side PII.
type DeviceDescriptor struct {
	DeviceID    string `json:"deviceId"`
	Browser     string `json:"browser"`
	OS          string `json:"os"`
	DisplayName string `json:"displayName"`
}

// Fingerprint derives a stable device descriptor from connection attributes.
// Identical (userAgent, ip) pairs always produce the same id. Unparseable
// user agents degrade to "Unknown"; fingerprinting never blocks a login.
func Fingerprint(userAgent, ip string) DeviceDescriptor {
	if userAgent == "" {
		userAgent = "Unknown"
	}
	if ip == "" {
		ip = "Unknown"
	}

	sum := sha256.Sum256([]byte(userAgent + "-" + ip))

	browser := detectBrowser(userAgent)
	os := detectOS(userAgent)

	display := browser + " on " + os
	if browser == "Unknown" && os == "Unknown" {
		display = "Unknown device"
	}

	return DeviceDescriptor{
		DeviceID:    hex.EncodeToString(sum[:]),
		Browser:     browser,
		OS:          os,
		DisplayName: display,
	}
}

// Ordering matters: Edge and Opera ship a Chrome token, Chrome ships a
// Safari token.
func detectBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "Edg/"), strings.Contains(ua, "Edge/"):
		return "Edge"
	case strings.Contains(ua, "OPR/"), strings.Contains(ua, "Opera"):
		return "Opera"
	case strings.Contains(ua, "Firefox/"):
		return "Firefox"
	case strings.Contains(ua, "Chrome/"), strings.Contains(ua, "CriOS/"):
		return "Chrome"
	case strings.Contains(ua, "Safari/"):
		return "Safari"
	case strings.Contains(ua, "MSIE"), strings.Contains(ua, "Trident/"):
		return "Internet Explorer"
	default:
		return "Unknown"
	}
}

func detectOS(ua string) string {
	switch {
	case strings.Contains(ua, "Windows NT"):
		return "Windows"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		return "iOS"
	case strings.Contains(ua, "Mac OS X"), strings.Contains(ua, "Macintosh"):
		return "macOS"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "CrOS"):
		return "ChromeOS"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	default:
		return "Unknown"
	}
}
