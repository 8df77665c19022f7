package auth

import (
	"crypto/rand"
	"fmt"
)

const (
	// BackupCodeCount codes are minted once per enrollment; each is single use.
	BackupCodeCount = 8

	backupCodeGroupLen = 4
	// No 0/O, 1/I/L to keep codes transcribable from a printout.
	backupCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

// GenerateBackupCodes returns raw codes in XXXX-XXXX form. Callers store
// only HashCode of each and show the raw codes exactly once.
func GenerateBackupCodes() ([]string, error) {
	codes := make([]string, 0, BackupCodeCount)
	for i := 0; i < BackupCodeCount; i++ {
		a, err := randomGroup()
		if err != nil {
			return nil, err
		}
		b, err := randomGroup()
		if err != nil {
			return nil, err
		}
		codes = append(codes, a+"-"+b)
	}
	return codes, nil
}

func randomGroup() (string, error) {
	buf := make([]byte, backupCodeGroupLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("backup code entropy: %w", err)
	}
	out := make([]byte, backupCodeGroupLen)
	for i, b := range buf {
		out[i] = backupCodeAlphabet[int(b)%len(backupCodeAlphabet)]
	}
	return string(out), nil
}
