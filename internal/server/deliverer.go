package server

import (
	"context"
	"time"

	"cyberverse/internal/auth"
	"cyberverse/internal/email"
	"cyberverse/internal/i18n"
)

// mailDeliverer turns challenge codes into localized emails. The locale is
// carried in the request context by the requestLocale middleware.
type mailDeliverer struct {
	Mailer email.Mailer
}

func NewMailDeliverer(mailer email.Mailer) auth.ChallengeDeliverer {
	return &mailDeliverer{Mailer: mailer}
}

func (d *mailDeliverer) DeliverDeviceOTP(ctx context.Context, acct *auth.Account, code string) error {
	content := i18n.DeviceOTPEmail(localeFromContext(ctx), code, challengeMinutes())
	return d.Mailer.Send(ctx, acct.Email, content.Subject, content.Text, content.HTML)
}

func (d *mailDeliverer) DeliverTwoFactorCode(ctx context.Context, acct *auth.Account, code string) error {
	content := i18n.TwoFactorEmail(localeFromContext(ctx), code, challengeMinutes())
	return d.Mailer.Send(ctx, acct.Email, content.Subject, content.Text, content.HTML)
}

func challengeMinutes() int {
	return int(auth.ChallengeTTL / time.Minute)
}
