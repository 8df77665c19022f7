package server

import (
	"context"
	"time"

	"cyberverse/internal/auth"
	"cyberverse/internal/i18n"
)

func (s *Server) sendSignInAlert(ctx context.Context, acct *auth.Account, device auth.DeviceDescriptor, ip, location string) error {
	if s.Mailer == nil {
		return nil
	}

	content := i18n.SignInAlertEmail(
		localeFromContext(ctx),
		acct.Email,
		time.Now().UTC().Format(time.RFC1123),
		ip,
		location,
		device.DisplayName,
	)

	return s.Mailer.Send(ctx, acct.Email, content.Subject, content.Text, content.HTML)
}
