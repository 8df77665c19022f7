package main

import (
	"log"
	"net/http"
	"time"

	"cyberverse/internal/auth"
	"cyberverse/internal/config"
	"cyberverse/internal/database"
	"cyberverse/internal/email"
	"cyberverse/internal/logging"
	redisx "cyberverse/internal/redis"
	"cyberverse/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logCloser, err := logging.Setup(cfg.LogFile)
	if err != nil {
		log.Fatalf("log setup error: %v", err)
	}
	defer logCloser.Close()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	defer db.Close()

	redisClient, err := redisx.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis error: %v", err)
	}
	defer redisClient.Close()

	accounts := auth.NewAccountRepository(db)
	challenges := &auth.ChallengeStore{Redis: redisClient}
	cooldowns := &auth.CooldownGuard{Redis: redisClient}
	audit := &auth.AuditLogger{Redis: redisClient, MaxLen: 1000}
	mailer := email.NewSender(cfg.Email)
	totpSvc := auth.NewTOTPService(cfg.TOTPIssuer)
	tokens := auth.NewTokenIssuer(cfg.SessionSecret, cfg.SessionTTL)
	hasher := auth.NewBcryptHasher()

	flow := auth.NewLoginFlow(accounts, hasher, challenges, totpSvc, tokens, server.NewMailDeliverer(mailer))
	verifications := &auth.VerificationTokenManager{Store: accounts}

	api := server.NewServer(cfg, accounts, flow, verifications, challenges, cooldowns, audit, mailer, totpSvc, tokens, hasher)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.Router(),
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}

	log.Printf("Listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
