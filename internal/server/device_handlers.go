package server

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cyberverse/internal/auth"
)

func (s *Server) handleListTrustedDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	devices, err := s.Accounts.ListTrustedDevices(ctx, accountIDFromContext(ctx))
	if err != nil {
		log.Printf("trusted-devices: list failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load devices")
		return
	}
	if devices == nil {
		devices = []auth.DeviceTrustRecord{}
	}

	// The caller's current device is flagged so the UI can label it.
	currentID := auth.Fingerprint(r.UserAgent(), clientIP(r, s.trustedProxies)).DeviceID
	type deviceEntry struct {
		auth.DeviceTrustRecord
		Current bool `json:"current"`
	}
	entries := make([]deviceEntry, len(devices))
	for i, d := range devices {
		entries[i] = deviceEntry{DeviceTrustRecord: d, Current: d.DeviceID == currentID}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"devices": entries})
}

func (s *Server) handleRemoveTrustedDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")
	if deviceID == "" {
		writeError(w, http.StatusBadRequest, "Device id is required")
		return
	}

	ctx := r.Context()
	accountID := accountIDFromContext(ctx)
	if err := s.Accounts.RemoveTrustedDevice(ctx, accountID, deviceID); err != nil {
		log.Printf("trusted-devices: remove failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to remove device")
		return
	}

	s.audit(ctx, auth.AuditEvent{EventType: auth.AuditDeviceRevoked, AccountID: accountID, IP: clientIP(r, s.trustedProxies), DeviceID: deviceID})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Device removed."})
}

func (s *Server) handleRemoveAllTrustedDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := accountIDFromContext(ctx)
	if err := s.Accounts.RemoveAllTrustedDevices(ctx, accountID); err != nil {
		log.Printf("trusted-devices: remove all failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to remove devices")
		return
	}

	s.audit(ctx, auth.AuditEvent{EventType: auth.AuditDeviceRevoked, AccountID: accountID, IP: clientIP(r, s.trustedProxies)})
	writeJSON(w, http.StatusOK, map[string]string{"message": "All devices removed."})
}
