package server

import (
	"log"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cyberverse/internal/auth"
	"cyberverse/internal/config"
	"cyberverse/internal/email"
)

type Server struct {
	Accounts      *auth.AccountRepository
	Flow          *auth.LoginFlow
	Verifications *auth.VerificationTokenManager
	Challenges    *auth.ChallengeStore
	Cooldowns     *auth.CooldownGuard
	Audit         *auth.AuditLogger
	Mailer        email.Mailer
	TOTP          *auth.TOTPService
	Tokens        *auth.TokenIssuer
	Hasher        auth.PasswordHasher
	Config        config.Config

	trustedProxies []net.IPNet
}

func NewServer(cfg config.Config, accounts *auth.AccountRepository, flow *auth.LoginFlow, verifications *auth.VerificationTokenManager, challenges *auth.ChallengeStore, cooldowns *auth.CooldownGuard, audit *auth.AuditLogger, mailer email.Mailer, totp *auth.TOTPService, tokens *auth.TokenIssuer, hasher auth.PasswordHasher) *Server {
	return &Server{
		Accounts:       accounts,
		Flow:           flow,
		Verifications:  verifications,
		Challenges:     challenges,
		Cooldowns:      cooldowns,
		Audit:          audit,
		Mailer:         mailer,
		TOTP:           totp,
		Tokens:         tokens,
		Hasher:         hasher,
		Config:         cfg,
		trustedProxies: parseProxyCIDRs(cfg.TrustedProxies),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	formatter := &middleware.DefaultLogFormatter{
		Logger:  log.New(log.Writer(), "", log.Flags()),
		NoColor: true,
	}
	r.Use(middleware.RequestLogger(formatter))
	r.Use(middleware.Recoverer)
	r.Use(secureHeaders)
	r.Use(requestLocale)

	r.Post("/api/auth/register", s.handleRegister)
	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/auth/verify-otp", s.handleVerifyDeviceOTP)
	r.Post("/api/auth/resend-otp", s.handleResendDeviceOTP)
	r.Post("/api/auth/verify-2fa", s.handleVerifyTwoFactor)
	r.Post("/api/auth/request-verification", s.handleRequestVerification)
	r.Post("/api/auth/verify-email", s.handleVerifyEmail)
	r.Post("/api/auth/forgot-password", s.handleForgotPassword)
	r.Post("/api/auth/reset-password", s.handleResetPassword)

	r.Group(func(pr chi.Router) {
		pr.Use(s.requireSession)

		pr.Get("/api/auth/me", s.handleMe)

		pr.Get("/api/2fa/status", s.handleTwoFactorStatus)
		pr.Post("/api/2fa/setup", s.handleTwoFactorSetup)
		pr.Post("/api/2fa/verify", s.handleTwoFactorConfirm)
		pr.Post("/api/2fa/disable", s.handleTwoFactorDisable)

		pr.Get("/api/2fa/trusted-devices", s.handleListTrustedDevices)
		pr.Delete("/api/2fa/trusted-devices", s.handleRemoveAllTrustedDevices)
		pr.Delete("/api/2fa/trusted-devices/{deviceId}", s.handleRemoveTrustedDevice)
	})

	return r
}
