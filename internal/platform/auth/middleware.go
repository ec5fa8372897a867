package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dentaldesk/clinic/internal/session"
)

// SessionSource reports the current lifecycle state of the terminal session.
// *session.Gate satisfies it.
type SessionSource interface {
	Snapshot() (session.State, *session.User)
}

// Echo context keys set by RequireSession.
const (
	TokenExpiryKey = "token_expires_at"
)

// RequireSession admits a request only when the session gate is
// authenticated and the bearer token belongs to the signed-in user. While the
// gate is still restoring its record every request gets 503. Routes listed
// by AuthSkipper pass through untouched.
func RequireSession(src SessionSource, issuer *Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if AuthSkipper(c) {
				return next(c)
			}

			state, user := src.Snapshot()
			switch state {
			case session.StateLoading:
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session is loading")
			case session.StateUnauthenticated:
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			}

			tokenStr, err := BearerToken(c.Request())
			if err != nil {
				return err
			}

			claims, err := issuer.Parse(tokenStr)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if user == nil || claims.Subject != user.ID {
				return echo.NewHTTPError(http.StatusUnauthorized, "token does not match signed-in user")
			}

			var expires time.Time
			if claims.ExpiresAt != nil {
				expires = claims.ExpiresAt.Time
			}
			c.Set(TokenExpiryKey, expires)

			ctx := WithUser(c.Request().Context(), user.ID, user.Username, string(user.Role))
			ctx = context.WithValue(ctx, TokenIDKey, claims.ID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}
