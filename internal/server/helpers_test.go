package server

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, validatePassword("Str0ng!pass"))
	assert.Error(t, validatePassword("short1!"))
	assert.Error(t, validatePassword("alllowercase1!"))
	assert.Error(t, validatePassword("ALLUPPERCASE1!"))
	assert.Error(t, validatePassword("NoDigitsHere!"))
	assert.Error(t, validatePassword("NoSpecials123"))
	assert.Error(t, validatePassword("Aa1!"+strings.Repeat("x", 70)))
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, validateEmail("user@example.com"))
	assert.False(t, validateEmail(""))
	assert.False(t, validateEmail("not-an-email"))
}

func TestClientIPIgnoresHeadersFromUntrustedPeer(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:4242"
	r.Header.Set("X-Forwarded-For", "198.51.100.9")

	assert.Equal(t, "203.0.113.7", clientIP(r, nil))
}

func TestClientIPTrustsConfiguredProxy(t *testing.T) {
	trusted := parseProxyCIDRs([]string{"10.0.0.0/8"})

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.1.2.3:4242"
	r.Header.Set("X-Forwarded-For", "198.51.100.9, 10.1.2.3")

	assert.Equal(t, "198.51.100.9", clientIP(r, trusted))
}

func TestParseProxyCIDRsAcceptsBareIPs(t *testing.T) {
	nets := parseProxyCIDRs([]string{"192.0.2.1", "10.0.0.0/8", "", "garbage"})
	assert.Len(t, nets, 2)
	assert.True(t, isTrustedProxy("192.0.2.1", nets))
	assert.True(t, isTrustedProxy("10.255.0.1", nets))
	assert.False(t, isTrustedProxy("203.0.113.7", nets))
}

func TestDeriveLocation(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, "", deriveLocation(r))

	r.Header.Set("CF-IPCountry", "DE")
	assert.Equal(t, "DE", deriveLocation(r))

	r.Header.Set("X-City", "Berlin")
	assert.Equal(t, "Berlin, DE", deriveLocation(r))
}
