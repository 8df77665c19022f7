package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"cyberverse/internal/auth"
	"cyberverse/internal/i18n"
)

type ctxKey string

const (
	accountContextKey ctxKey = "accountID"
	localeContextKey  ctxKey = "locale"
)

// requireSession validates the Bearer token and stores the account id in the
// request context.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		accountID, err := s.Tokens.Validate(strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, auth.ErrSessionExpired) {
				writeError(w, http.StatusUnauthorized, "Session expired")
				return
			}
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), accountContextKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), localeContextKey, i18n.LocaleFromRequest(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accountIDFromContext(ctx context.Context) string {
	if val, ok := ctx.Value(accountContextKey).(string); ok {
		return val
	}
	return ""
}

func localeFromContext(ctx context.Context) string {
	if val, ok := ctx.Value(localeContextKey).(string); ok {
		return val
	}
	return i18n.DefaultLocale
}
