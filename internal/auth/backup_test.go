package auth

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBackupCodes(t *testing.T) {
	codes, err := GenerateBackupCodes()
	require.NoError(t, err)
	require.Len(t, codes, BackupCodeCount)

	format := regexp.MustCompile(`^[A-Z2-9]{4}-[A-Z2-9]{4}$`)
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		assert.Regexp(t, format, code)
		seen[code] = struct{}{}
	}
	assert.Len(t, seen, BackupCodeCount, "codes must be unique")
}

func TestBackupCodeCanonicalization(t *testing.T) {
	assert.Equal(t, "ABCD-EFGH", canonicalBackupCode("  abcd-efgh "))
	assert.Equal(t, HashCode("ABCD-EFGH"), HashCode(canonicalBackupCode("abcd-efgh")))
}
