package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore mirrors the repository contract in memory for flow tests:
// overwrite-on-issue for verification tokens, expiry checked at consume time,
// single-statement semantics for backup codes.
type memoryStore struct {
	mu       sync.Mutex
	accounts map[string]*Account
	devices  map[string]map[string]DeviceTrustRecord
	backup   map[string]map[string]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		accounts: make(map[string]*Account),
		devices:  make(map[string]map[string]DeviceTrustRecord),
		backup:   make(map[string]map[string]bool),
	}
}

func (s *memoryStore) addAccount(acct *Account) *Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	s.accounts[acct.ID] = acct
	return acct
}

func (s *memoryStore) FindByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.Email == email {
			copied := *acct
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) FindByID(_ context.Context, id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	copied := *acct
	return &copied, nil
}

func (s *memoryStore) TrustedDevice(_ context.Context, accountID, deviceID string) (*DeviceTrustRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.devices[accountID][deviceID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *memoryStore) UpsertTrustedDevice(_ context.Context, accountID string, desc DeviceDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.devices[accountID] == nil {
		s.devices[accountID] = make(map[string]DeviceTrustRecord)
	}
	now := time.Now()
	rec, ok := s.devices[accountID][desc.DeviceID]
	if !ok {
		rec = DeviceTrustRecord{
			DeviceID:    desc.DeviceID,
			DisplayName: desc.DisplayName,
			Browser:     desc.Browser,
			OS:          desc.OS,
			CreatedAt:   now,
		}
	}
	rec.LastUsedAt = now
	s.devices[accountID][desc.DeviceID] = rec
	return nil
}

func (s *memoryStore) RemoveTrustedDevice(accountID, deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.devices[accountID], deviceID)
}

func (s *memoryStore) trustedCount(accountID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.devices[accountID])
}

func (s *memoryStore) setBackupCodes(accountID string, hashes []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		set[h] = false
	}
	s.backup[accountID] = set
}

func (s *memoryStore) ConsumeBackupCode(_ context.Context, accountID, codeHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	used, ok := s.backup[accountID][codeHash]
	if !ok || used {
		return false, nil
	}
	s.backup[accountID][codeHash] = true
	return true, nil
}

func (s *memoryStore) SaveVerificationToken(_ context.Context, accountID, tokenHash string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	acct.VerificationTokenHash = &tokenHash
	acct.VerificationExpiresAt = &expires
	return nil
}

func (s *memoryStore) ConsumeVerificationToken(_ context.Context, tokenHash string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.VerificationTokenHash == nil || *acct.VerificationTokenHash != tokenHash {
			continue
		}
		if acct.VerificationExpiresAt == nil || time.Now().After(*acct.VerificationExpiresAt) {
			return nil, ErrInvalidOrExpiredToken
		}
		acct.EmailVerified = true
		acct.VerificationTokenHash = nil
		acct.VerificationExpiresAt = nil
		copied := *acct
		return &copied, nil
	}
	return nil, ErrInvalidOrExpiredToken
}

// recordingDeliverer captures delivered codes; Fail makes every delivery
// error to exercise the delivery-failure path.
type recordingDeliverer struct {
	mu       sync.Mutex
	Fail     error
	device   []string
	twoFA    []string
	lastAcct string
}

func (d *recordingDeliverer) DeliverDeviceOTP(_ context.Context, acct *Account, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Fail != nil {
		return d.Fail
	}
	d.device = append(d.device, code)
	d.lastAcct = acct.ID
	return nil
}

func (d *recordingDeliverer) DeliverTwoFactorCode(_ context.Context, acct *Account, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Fail != nil {
		return d.Fail
	}
	d.twoFA = append(d.twoFA, code)
	d.lastAcct = acct.ID
	return nil
}

func (d *recordingDeliverer) lastDeviceCode() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.device) == 0 {
		return ""
	}
	return d.device[len(d.device)-1]
}

func (d *recordingDeliverer) lastTwoFactorCode() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.twoFA) == 0 {
		return ""
	}
	return d.twoFA[len(d.twoFA)-1]
}
