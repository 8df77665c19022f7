package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"cyberverse/internal/auth"
	"cyberverse/internal/i18n"
)

const passwordResetTTL = time.Hour

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validateEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "Invalid email format")
		return
	}

	ctx := r.Context()
	ack := func() {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "If the email address exists, a password reset email has been sent with instructions.",
		})
	}

	acct, err := s.Accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		log.Printf("forgot-password: lookup failed: %v", err)
		ack()
		return
	}
	if acct == nil {
		ack()
		return
	}

	cooldownKey := "resend:reset:" + acct.ID
	if remaining := s.Cooldowns.Active(ctx, cooldownKey); remaining > 0 {
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"cooldown": int64(remaining.Seconds()),
			"message":  fmt.Sprintf("Please wait %d seconds before making another request.", int(remaining.Seconds())),
		})
		return
	}

	token, err := randomToken(32)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	expires := time.Now().Add(passwordResetTTL)
	if err := s.Accounts.SavePasswordReset(ctx, acct.ID, auth.HashCode(token), expires); err != nil {
		log.Printf("forgot-password: store token failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}

	resetLink := s.Config.BaseURL + "/reset-password?token=" + url.QueryEscape(token)
	content := i18n.PasswordResetEmail(localeFromContext(ctx), resetLink, int(passwordResetTTL/time.Hour))
	if err := s.Mailer.Send(ctx, acct.Email, content.Subject, content.Text, content.HTML); err != nil {
		log.Printf("forgot-password: send failed: %v", err)
	} else {
		s.Cooldowns.Set(ctx, cooldownKey, auth.EmailCooldown)
	}

	s.audit(ctx, auth.AuditEvent{EventType: auth.AuditPasswordResetIssued, AccountID: acct.ID, IP: clientIP(r, s.trustedProxies)})
	ack()
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "Token is required")
		return
	}
	if err := validatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	acct, err := s.Accounts.FindByResetTokenHash(ctx, auth.HashCode(req.Token))
	if err != nil {
		log.Printf("reset-password: lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to reset password")
		return
	}
	if acct == nil {
		writeError(w, http.StatusBadRequest, "Invalid or expired token.")
		return
	}

	hashed, err := s.Hasher.Hash(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}
	if err := s.Accounts.UpdatePassword(ctx, acct.ID, hashed); err != nil {
		log.Printf("reset-password: update failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update password")
		return
	}

	// A password reset also revokes all device trust.
	if err := s.Accounts.RemoveAllTrustedDevices(ctx, acct.ID); err != nil {
		log.Printf("reset-password: revoke devices failed: %v", err)
	}

	s.audit(ctx, auth.AuditEvent{EventType: auth.AuditPasswordChanged, AccountID: acct.ID, IP: clientIP(r, s.trustedProxies)})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password has been reset successfully."})
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
