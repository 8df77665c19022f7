package i18n

import (
	"strconv"
	"strings"
)

type EmailContent struct {
	Subject string
	Text    string
	HTML    string
}

type emailStrings struct {
	VerificationSubject string
	VerificationText    string
	VerificationHTML    string

	DeviceOTPSubject string
	DeviceOTPText    string
	DeviceOTPHTML    string

	TwoFactorSubject string
	TwoFactorText    string
	TwoFactorHTML    string

	PasswordResetSubject string
	PasswordResetText    string
	PasswordResetHTML    string

	SignInSubject string
	SignInText    string
	SignInHTML    string

	UnknownLocation string
	UnknownDevice   string
}

var emailTranslations = map[string]emailStrings{
	"en": {
		VerificationSubject: "Verify your email",
		VerificationText:    "Verify your email address: {link}\nThe link expires in {hours} hour(s).\nIf you did not create an account, you can ignore this email.",
		VerificationHTML: "<p>Welcome!</p>" +
			"<p>Click the link below to verify your email address.</p>" +
			"<p><a href=\"{link}\">Verify email</a></p>" +
			"<p>The link expires in {hours} hour(s).</p>" +
			"<p>If you did not create an account, you can ignore this email.</p>",

		DeviceOTPSubject: "Confirm your sign-in",
		DeviceOTPText:    "You are signing in from a new device. Your code is {code}. It is valid for {minutes} minutes.",
		DeviceOTPHTML: "<p>New device sign-in</p>" +
			"<p>Use the code below to confirm it is you.</p>" +
			"<p><strong>{code}</strong></p>" +
			"<p>The code expires in {minutes} minutes.</p>" +
			"<p>If this wasn't you, please change your password.</p>",

		TwoFactorSubject: "Your 2FA code",
		TwoFactorText:    "Your 2FA code is {code} (valid for {minutes} minutes).",
		TwoFactorHTML:    "<p>Your 2FA code is <strong>{code}</strong> (valid for {minutes} minutes).</p>",

		PasswordResetSubject: "Reset your password",
		PasswordResetText:    "Reset your password: {link}\nThe link expires in {hours} hour(s).\nIf you did not request this, ignore this email.",
		PasswordResetHTML: "<p>Password reset</p>" +
			"<p>Click the button to reset your password.</p>" +
			"<p><a href=\"{link}\">Reset password</a></p>" +
			"<p>The link expires in {hours} hour(s).</p>" +
			"<p>If you did not request this, ignore this email.</p>",

		SignInSubject: "New sign-in to your account",
		SignInText: "Hi {email},\n\nA new sign-in occurred on {time}.\n\n" +
			"IP: {ip}\nLocation: {location}\nDevice: {device}\n\n" +
			"If this wasn't you, please reset your password and remove unknown devices.",
		SignInHTML: "<p>Hi {email},</p>" +
			"<p>A new sign-in occurred on <strong>{time}</strong>.</p>" +
			"<ul><li><strong>IP:</strong> {ip}</li>" +
			"<li><strong>Location:</strong> {location}</li>" +
			"<li><strong>Device:</strong> {device}</li></ul>" +
			"<p>If this wasn't you, please reset your password and remove unknown devices.</p>",

		UnknownLocation: "Unknown location",
		UnknownDevice:   "Unknown device",
	},
	"de": {
		VerificationSubject: "E-Mail verifizieren",
		VerificationText:    "Verifizieren Sie Ihre E-Mail-Adresse: {link}\nDer Link ist {hours} Stunde(n) gültig.\nWenn Sie kein Konto erstellt haben, können Sie diese E-Mail ignorieren.",
		VerificationHTML: "<p>Willkommen!</p>" +
			"<p>Klicken Sie auf den Link, um Ihre E-Mail-Adresse zu verifizieren.</p>" +
			"<p><a href=\"{link}\">E-Mail verifizieren</a></p>" +
			"<p>Der Link ist {hours} Stunde(n) gültig.</p>" +
			"<p>Wenn Sie kein Konto erstellt haben, können Sie diese E-Mail ignorieren.</p>",

		DeviceOTPSubject: "Anmeldung bestätigen",
		DeviceOTPText:    "Sie melden sich von einem neuen Gerät an. Ihr Code ist {code}. Er ist {minutes} Minuten gültig.",
		DeviceOTPHTML: "<p>Anmeldung von neuem Gerät</p>" +
			"<p>Verwenden Sie den untenstehenden Code zur Bestätigung.</p>" +
			"<p><strong>{code}</strong></p>" +
			"<p>Der Code ist in {minutes} Minuten abgelaufen.</p>" +
			"<p>Wenn Sie das nicht waren, ändern Sie bitte Ihr Passwort.</p>",

		TwoFactorSubject: "Ihr 2FA-Code",
		TwoFactorText:    "Ihr 2FA-Code ist {code} (gültig für {minutes} Minuten).",
		TwoFactorHTML:    "<p>Ihr 2FA-Code ist <strong>{code}</strong> (gültig für {minutes} Minuten).</p>",

		PasswordResetSubject: "Passwort zurücksetzen",
		PasswordResetText:    "Setzen Sie Ihr Passwort zurück: {link}\nDer Link ist {hours} Stunde(n) gültig.\nWenn Sie dies nicht angefordert haben, ignorieren Sie diese E-Mail.",
		PasswordResetHTML: "<p>Passwort zurücksetzen</p>" +
			"<p>Klicken Sie auf den Button, um Ihr Passwort zurückzusetzen.</p>" +
			"<p><a href=\"{link}\">Passwort zurücksetzen</a></p>" +
			"<p>Der Link ist {hours} Stunde(n) gültig.</p>" +
			"<p>Wenn Sie dies nicht angefordert haben, ignorieren Sie diese E-Mail.</p>",

		SignInSubject: "Neue Anmeldung in Ihrem Konto",
		SignInText: "Hallo {email},\n\nEine neue Anmeldung erfolgte am {time}.\n\n" +
			"IP: {ip}\nOrt: {location}\nGerät: {device}\n\n" +
			"Wenn Sie das nicht waren, setzen Sie bitte Ihr Passwort zurück und entfernen Sie unbekannte Geräte.",
		SignInHTML: "<p>Hallo {email},</p>" +
			"<p>Eine neue Anmeldung erfolgte am <strong>{time}</strong>.</p>" +
			"<ul><li><strong>IP:</strong> {ip}</li>" +
			"<li><strong>Ort:</strong> {location}</li>" +
			"<li><strong>Gerät:</strong> {device}</li></ul>" +
			"<p>Wenn Sie das nicht waren, setzen Sie bitte Ihr Passwort zurück und entfernen Sie unbekannte Geräte.</p>",

		UnknownLocation: "Unbekannter Ort",
		UnknownDevice:   "Unbekanntes Gerät",
	},
}

func emailStringsForLocale(locale string) emailStrings {
	key := NormalizeLocale(locale)
	if val, ok := emailTranslations[key]; ok {
		return val
	}
	return emailTranslations[DefaultLocale]
}

func renderTemplate(tmpl string, values map[string]string) string {
	if tmpl == "" || len(values) == 0 {
		return tmpl
	}

	replacements := make([]string, 0, len(values)*2)
	for key, value := range values {
		replacements = append(replacements, "{"+key+"}", value)
	}
	return strings.NewReplacer(replacements...).Replace(tmpl)
}

func VerificationEmail(locale, link string, hours int) EmailContent {
	templates := emailStringsForLocale(locale)
	values := map[string]string{
		"link":  link,
		"hours": strconv.Itoa(hours),
	}
	return EmailContent{
		Subject: templates.VerificationSubject,
		Text:    renderTemplate(templates.VerificationText, values),
		HTML:    renderTemplate(templates.VerificationHTML, values),
	}
}

func DeviceOTPEmail(locale, code string, minutes int) EmailContent {
	templates := emailStringsForLocale(locale)
	values := map[string]string{
		"code":    code,
		"minutes": strconv.Itoa(minutes),
	}
	return EmailContent{
		Subject: templates.DeviceOTPSubject,
		Text:    renderTemplate(templates.DeviceOTPText, values),
		HTML:    renderTemplate(templates.DeviceOTPHTML, values),
	}
}

func TwoFactorEmail(locale, code string, minutes int) EmailContent {
	templates := emailStringsForLocale(locale)
	values := map[string]string{
		"code":    code,
		"minutes": strconv.Itoa(minutes),
	}
	return EmailContent{
		Subject: templates.TwoFactorSubject,
		Text:    renderTemplate(templates.TwoFactorText, values),
		HTML:    renderTemplate(templates.TwoFactorHTML, values),
	}
}

func PasswordResetEmail(locale, link string, hours int) EmailContent {
	templates := emailStringsForLocale(locale)
	values := map[string]string{
		"link":  link,
		"hours": strconv.Itoa(hours),
	}
	return EmailContent{
		Subject: templates.PasswordResetSubject,
		Text:    renderTemplate(templates.PasswordResetText, values),
		HTML:    renderTemplate(templates.PasswordResetHTML, values),
	}
}

func SignInAlertEmail(locale, email, loginTime, ip, location, device string) EmailContent {
	templates := emailStringsForLocale(locale)
	if strings.TrimSpace(location) == "" {
		location = templates.UnknownLocation
	}
	if strings.TrimSpace(device) == "" {
		device = templates.UnknownDevice
	}
	values := map[string]string{
		"email":    email,
		"time":     loginTime,
		"ip":       ip,
		"location": location,
		"device":   device,
	}
	return EmailContent{
		Subject: templates.SignInSubject,
		Text:    renderTemplate(templates.SignInText, values),
		HTML:    renderTemplate(templates.SignInHTML, values),
	}
}
