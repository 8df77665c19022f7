package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"time"

	"cyberverse/internal/auth"
	"cyberverse/internal/i18n"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !validateEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "Invalid email format")
		return
	}
	if err := validatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()

	hashed, err := s.Hasher.Hash(req.Password)
	if err != nil {
		log.Printf("register: hash failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	acct, err := s.Accounts.Create(ctx, req.Email, hashed, s.Config.NoEmailVerify)
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "An account with this email already exists.")
			return
		}
		log.Printf("register: create account failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	if !s.Config.NoEmailVerify {
		if err := s.issueVerification(ctx, acct); err != nil {
			log.Printf("register: issue verification failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Registration failed: could not send verification email")
			return
		}
	}

	message := "Registration successful! Please check your email to verify your account."
	if s.Config.NoEmailVerify {
		message = "Registration successful! You can now sign in."
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":                   message,
		"emailVerificationRequired": !s.Config.NoEmailVerify,
		"account":                   acct.View(),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	ctx := r.Context()
	ip := clientIP(r, s.trustedProxies)
	device := auth.Fingerprint(r.UserAgent(), ip)

	res, err := s.Flow.Login(ctx, req.Email, req.Password, device)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			s.audit(ctx, auth.AuditEvent{EventType: auth.AuditLoginRejected, IP: ip, DeviceID: device.DeviceID})
			writeError(w, http.StatusUnauthorized, "Invalid email or password.")
		case errors.Is(err, auth.ErrEmailNotVerified):
			writeJSON(w, http.StatusForbidden, map[string]interface{}{
				"message":          "Please verify your email before signing in.",
				"emailNotVerified": true,
			})
		case errors.Is(err, auth.ErrChallengeDeliveryFailed):
			log.Printf("login: challenge delivery failed: %v", err)
			writeError(w, http.StatusBadGateway, "Could not send the verification code. Try again later.")
		default:
			log.Printf("login: %v", err)
			writeError(w, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	switch res.State {
	case auth.StateTwoFactorChallenge:
		s.audit(ctx, auth.AuditEvent{EventType: auth.AuditTwoFactorChallenge, AccountID: res.Account.ID, IP: ip, DeviceID: device.DeviceID})
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"requiresTwoFactor": true,
			"method":            res.Method,
			"accountId":         res.Account.ID,
		})
	case auth.StateDeviceChallenge:
		s.audit(ctx, auth.AuditEvent{EventType: auth.AuditDeviceChallenge, AccountID: res.Account.ID, IP: ip, DeviceID: device.DeviceID})
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"requiresOTP": true,
			"accountId":   res.Account.ID,
			"message":     "We sent a verification code to your email.",
		})
	default:
		s.audit(ctx, auth.AuditEvent{EventType: auth.AuditLoginIssued, AccountID: res.Account.ID, IP: ip, DeviceID: device.DeviceID})
		s.writeSession(w, r, res)
	}
}

type verifyOTPRequest struct {
	AccountID string `json:"accountId"`
	Code      string `json:"code"`
}

func (s *Server) handleVerifyDeviceOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AccountID == "" || len(req.Code) != 6 {
		writeError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	ctx := r.Context()
	ip := clientIP(r, s.trustedProxies)
	device := auth.Fingerprint(r.UserAgent(), ip)

	res, err := s.Flow.VerifyDeviceOTP(ctx, req.AccountID, device, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrNotFound):
			writeError(w, http.StatusNotFound, "Account not found")
		case errors.Is(err, auth.ErrInvalidOrExpiredCode):
			writeError(w, http.StatusUnauthorized, "Invalid or expired code.")
		default:
			log.Printf("verify-otp: %v", err)
			writeError(w, http.StatusInternalServerError, "Verification failed")
		}
		return
	}

	s.audit(ctx, auth.AuditEvent{EventType: auth.AuditDeviceTrusted, AccountID: res.Account.ID, IP: ip, DeviceID: device.DeviceID})
	s.writeSession(w, r, res)
}

type resendOTPRequest struct {
	AccountID string `json:"accountId"`
}

func (s *Server) handleResendDeviceOTP(w http.ResponseWriter, r *http.Request) {
	var req resendOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	ctx := r.Context()
	cooldownKey := "resend:otp:" + req.AccountID
	if remaining := s.Cooldowns.Active(ctx, cooldownKey); remaining > 0 {
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"message":  "Please wait before requesting another code.",
			"cooldown": int64(remaining.Seconds()),
		})
		return
	}

	if err := s.Flow.ResendDeviceOTP(ctx, req.AccountID); err != nil {
		switch {
		case errors.Is(err, auth.ErrNotFound):
			writeError(w, http.StatusNotFound, "Account not found")
		case errors.Is(err, auth.ErrChallengeDeliveryFailed):
			log.Printf("resend-otp: delivery failed: %v", err)
			writeError(w, http.StatusBadGateway, "Could not send the verification code. Try again later.")
		default:
			log.Printf("resend-otp: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to resend code")
		}
		return
	}

	s.Cooldowns.Set(ctx, cooldownKey, auth.EmailCooldown)
	writeJSON(w, http.StatusOK, map[string]string{"message": "A new code has been sent to your email."})
}

type verifyTwoFactorRequest struct {
	AccountID string `json:"accountId"`
	Code      string `json:"code"`
}

func (s *Server) handleVerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req verifyTwoFactorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AccountID == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	ctx := r.Context()
	ip := clientIP(r, s.trustedProxies)

	res, err := s.Flow.VerifyTwoFactor(ctx, req.AccountID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrNotFound):
			writeError(w, http.StatusNotFound, "Account not found")
		case errors.Is(err, auth.ErrTwoFactorNotConfigured):
			writeError(w, http.StatusConflict, "Two-factor authentication is not configured for this account.")
		case errors.Is(err, auth.ErrInvalidOrExpiredCode):
			writeError(w, http.StatusUnauthorized, "Invalid or expired code.")
		default:
			log.Printf("verify-2fa: %v", err)
			writeError(w, http.StatusInternalServerError, "Verification failed")
		}
		return
	}

	s.audit(ctx, auth.AuditEvent{EventType: auth.AuditTwoFactorVerified, AccountID: res.Account.ID, IP: ip})
	s.writeSession(w, r, res)
}

type requestVerificationRequest struct {
	Email string `json:"email"`
}

// handleRequestVerification responds identically whether or not the email is
// registered, so it cannot be used for account enumeration.
func (s *Server) handleRequestVerification(w http.ResponseWriter, r *http.Request) {
	var req requestVerificationRequest
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
			"message": "If an account with that email exists, a verification link has been sent.",
		})
	}

	acct, err := s.Accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		log.Printf("request-verification: lookup failed: %v", err)
		ack()
		return
	}
	if acct == nil || acct.EmailVerified {
		ack()
		return
	}

	cooldownKey := "resend:verify:" + acct.ID
	if remaining := s.Cooldowns.Active(ctx, cooldownKey); remaining > 0 {
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"message":  "Please wait before requesting another email.",
			"cooldown": int64(remaining.Seconds()),
		})
		return
	}

	if err := s.issueVerification(ctx, acct); err != nil {
		log.Printf("request-verification: %v", err)
	} else {
		s.Cooldowns.Set(ctx, cooldownKey, auth.EmailCooldown)
	}
	ack()
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	acct, err := s.Verifications.Consume(ctx, req.Token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidOrExpiredToken) {
			writeError(w, http.StatusBadRequest, "Invalid or expired verification link.")
			return
		}
		log.Printf("verify-email: %v", err)
		writeError(w, http.StatusInternalServerError, "Verification failed")
		return
	}

	s.audit(ctx, auth.AuditEvent{EventType: auth.AuditEmailVerified, AccountID: acct.ID, IP: clientIP(r, s.trustedProxies)})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Email verified. You can now sign in.",
		"account": acct.View(),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acct, err := s.Accounts.FindByID(ctx, accountIDFromContext(ctx))
	if err != nil {
		log.Printf("me: lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load account")
		return
	}
	if acct == nil {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"account": acct.View()})
}

// issueVerification stores a fresh token digest and emails the raw link.
func (s *Server) issueVerification(ctx context.Context, acct *auth.Account) error {
	raw, err := s.Verifications.IssueToken(ctx, acct.ID)
	if err != nil {
		return err
	}

	link := s.Config.BaseURL + "/verify-email?token=" + url.QueryEscape(raw)
	hours := int(auth.VerificationTokenTTL / time.Hour)
	content := i18n.VerificationEmail(localeFromContext(ctx), link, hours)
	return s.Mailer.Send(ctx, acct.Email, content.Subject, content.Text, content.HTML)
}

// writeSession renders an issued-token result and fires the sign-in alert
// for freshly trusted devices.
func (s *Server) writeSession(w http.ResponseWriter, r *http.Request, res *auth.LoginResult) {
	if res.NewTrustedDevice {
		if err := s.sendSignInAlert(r.Context(), res.Account, res.Device, clientIP(r, s.trustedProxies), deriveLocation(r)); err != nil {
			log.Printf("sign-in alert failed: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":     res.Token,
		"expiresAt": res.TokenExpiresAt.UTC().Format(time.RFC3339),
		"account":   res.Account.View(),
	})
}

func (s *Server) audit(ctx context.Context, e auth.AuditEvent) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Log(ctx, e); err != nil {
		log.Printf("audit: %v", err)
	}
}
