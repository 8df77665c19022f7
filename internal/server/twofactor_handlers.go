package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"cyberverse/internal/auth"
	"cyberverse/internal/i18n"
)

func (s *Server) handleTwoFactorStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acct, err := s.Accounts.FindByID(ctx, accountIDFromContext(ctx))
	if err != nil || acct == nil {
		writeError(w, http.StatusInternalServerError, "Account not found")
		return
	}

	var method auth.TwoFactorMethod
	if acct.TwoFactorMethod != nil {
		method = *acct.TwoFactorMethod
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"enabled":      acct.TwoFactorEnabled,
		"method":       method,
		"setupPending": acct.PendingTOTPSecret != nil,
	})
}

type twoFactorSetupRequest struct {
	Method string `json:"method"`
}

// handleTwoFactorSetup starts enrollment. TOTP hands back a provisioning QR
// but stays pending until the first code is verified; the email method sends
// a confirmation code right away.
func (s *Server) handleTwoFactorSetup(w http.ResponseWriter, r *http.Request) {
	var req twoFactorSetupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Method != string(auth.TwoFactorTOTP) && req.Method != string(auth.TwoFactorEmail) {
		writeError(w, http.StatusBadRequest, "Invalid 2FA method")
		return
	}

	ctx := r.Context()
	acct, err := s.Accounts.FindByID(ctx, accountIDFromContext(ctx))
	if err != nil || acct == nil {
		writeError(w, http.StatusInternalServerError, "Account not found")
		return
	}
	if acct.TwoFactorEnabled {
		writeError(w, http.StatusConflict, "Two-factor authentication is already enabled.")
		return
	}

	if req.Method == string(auth.TwoFactorTOTP) {
		secret, otpauth, qr, err := s.TOTP.Generate(acct.Email)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to generate secret")
			return
		}

		if err := s.Accounts.SavePendingTOTPSecret(ctx, acct.ID, secret); err != nil {
			log.Printf("2fa setup: store pending secret failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to store secret")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"qrCodeUrl":  qr,
			"secret":     secret,
			"otpauthUrl": otpauth,
			"message":    "Scan the QR code and confirm with a code to finish setup.",
		})
		return
	}

	code, err := s.Challenges.Issue(ctx, auth.PurposeTwoFactorEmail, acct.ID)
	if err != nil {
		log.Printf("2fa setup: issue code failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to store code")
		return
	}

	content := i18n.TwoFactorEmail(localeFromContext(ctx), code, int(auth.ChallengeTTL/time.Minute))
	if err := s.Mailer.Send(ctx, acct.Email, content.Subject, content.Text, content.HTML); err != nil {
		log.Printf("2fa setup: email send failed for %s: %v", acct.Email, err)
		writeError(w, http.StatusBadGateway, "Failed to send code")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("A code was sent to your email (%s).", acct.Email),
	})
}

type twoFactorConfirmRequest struct {
	Method string `json:"method"`
	Code   string `json:"code"`
}

// handleTwoFactorConfirm finishes enrollment and returns the backup codes.
// They are shown exactly once; only digests are stored.
func (s *Server) handleTwoFactorConfirm(w http.ResponseWriter, r *http.Request) {
	var req twoFactorConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Code) != 6 {
		writeError(w, http.StatusBadRequest, "Invalid code")
		return
	}

	ctx := r.Context()
	acct, err := s.Accounts.FindByID(ctx, accountIDFromContext(ctx))
	if err != nil || acct == nil {
		writeError(w, http.StatusInternalServerError, "Account not found")
		return
	}

	switch req.Method {
	case string(auth.TwoFactorTOTP):
		if acct.PendingTOTPSecret == nil {
			writeError(w, http.StatusConflict, "2FA setup has not been started.")
			return
		}
		if !s.TOTP.Verify(*acct.PendingTOTPSecret, req.Code, time.Now()) {
			writeError(w, http.StatusUnauthorized, "Invalid or expired code.")
			return
		}
		if err := s.Accounts.ConfirmTOTPSecret(ctx, acct.ID); err != nil {
			if errors.Is(err, auth.ErrTwoFactorNotConfigured) {
				writeError(w, http.StatusConflict, "2FA setup has not been started.")
				return
			}
			log.Printf("2fa confirm: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to enable 2FA")
			return
		}
	case string(auth.TwoFactorEmail):
		if err := s.Challenges.Verify(ctx, auth.PurposeTwoFactorEmail, acct.ID, req.Code); err != nil {
			if errors.Is(err, auth.ErrInvalidOrExpiredCode) {
				writeError(w, http.StatusUnauthorized, "Invalid or expired code.")
				return
			}
			log.Printf("2fa confirm: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to enable 2FA")
			return
		}
		if err := s.Accounts.EnableEmailTwoFactor(ctx, acct.ID); err != nil {
			log.Printf("2fa confirm: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to enable 2FA")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "Invalid 2FA method")
		return
	}

	codes, err := auth.GenerateBackupCodes()
	if err != nil {
		log.Printf("2fa confirm: backup codes failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate backup codes")
		return
	}
	hashes := make([]string, len(codes))
	for i, c := range codes {
		hashes[i] = auth.HashCode(c)
	}
	if err := s.Accounts.ReplaceBackupCodes(ctx, acct.ID, hashes); err != nil {
		log.Printf("2fa confirm: store backup codes failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to store backup codes")
		return
	}

	s.audit(ctx, auth.AuditEvent{EventType: auth.AuditTwoFactorEnabled, AccountID: acct.ID, IP: clientIP(r, s.trustedProxies)})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Two-factor authentication is now enabled.",
		"backupCodes": codes,
	})
}

type twoFactorDisableRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleTwoFactorDisable(w http.ResponseWriter, r *http.Request) {
	var req twoFactorDisableRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	acct, err := s.Accounts.FindByID(ctx, accountIDFromContext(ctx))
	if err != nil || acct == nil {
		writeError(w, http.StatusInternalServerError, "Account not found")
		return
	}
	if !acct.TwoFactorEnabled {
		writeError(w, http.StatusConflict, "Two-factor authentication is not enabled.")
		return
	}
	if !s.Hasher.Compare(acct.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid password.")
		return
	}

	if err := s.Accounts.DisableTwoFactor(ctx, acct.ID); err != nil {
		log.Printf("2fa disable: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to disable 2FA")
		return
	}
	_ = s.Challenges.Clear(ctx, auth.PurposeTwoFactorEmail, acct.ID)

	s.audit(ctx, auth.AuditEvent{EventType: auth.AuditTwoFactorDisabled, AccountID: acct.ID, IP: clientIP(r, s.trustedProxies)})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Two-factor authentication has been disabled."})
}
