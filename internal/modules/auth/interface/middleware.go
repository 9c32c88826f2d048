package transport

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"mesaYaBooking/internal/modules/auth/domain"
	"mesaYaBooking/internal/modules/auth/session"
	"mesaYaBooking/internal/shared/auth"
)

const (
	contextKeySession = "session"
	contextKeyClaims  = "claims"
)

// SessionMiddleware resolves the bearer token into a session context. Requests
// without a valid, active session continue anonymously.
func SessionMiddleware(validator auth.TokenValidator, sessions *session.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := auth.ExtractEchoToken(c)
			if token == "" {
				return next(c)
			}
			claims, err := validator.Validate(token)
			if err != nil {
				slog.Debug("session token rejected", slog.String("path", c.Path()), slog.Any("error", err))
				return next(c)
			}
			sess, ok := sessions.Lookup(claims.SessionID)
			if !ok || !sess.IsAuthenticated() {
				slog.Debug("session not active", slog.String("sessionId", claims.SessionID))
				return next(c)
			}
			c.Set(contextKeySession, sess)
			c.Set(contextKeyClaims, claims)
			return next(c)
		}
	}
}

// RequireSignedIn rejects anonymous requests with 401.
func RequireSignedIn() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !SessionFrom(c).IsAuthenticated() {
				return authErrors.HTTPError(domain.ErrNotSignedIn)
			}
			return next(c)
		}
	}
}

// SessionFrom returns the request session, or a signed-out context.
func SessionFrom(c echo.Context) *session.Context {
	if sess, ok := c.Get(contextKeySession).(*session.Context); ok && sess != nil {
		return sess
	}
	return session.Anonymous()
}

// ClaimsFrom returns the validated token claims of the request, nil when anonymous.
func ClaimsFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(contextKeyClaims).(*auth.Claims)
	return claims
}
