package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"go.pilab.hu/moviecat/domain"
	apierrors "go.pilab.hu/moviecat/errors"
	"go.pilab.hu/moviecat/services"
)

// userIDKey is the echo.Context key holding the authenticated user id.
const userIDKey = "userID"

// SessionVerifier validates session tokens.
type SessionVerifier interface {
	Verify(token string) (*services.SessionClaims, error)
	CookieName() string
}

// tokenFromRequest reads the session token from the cookie, falling back to
// an "Authorization: Bearer" header for non-browser clients.
func tokenFromRequest(c echo.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func attachUser(c echo.Context, userID string) {
	c.Set(userIDKey, userID)
	c.SetRequest(c.Request().WithContext(domain.WithUserID(c.Request().Context(), userID)))
}

// Authn rejects requests without a valid session with 401. On success the
// user id, and nothing else, is attached to the request.
func Authn(sessions SessionVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := tokenFromRequest(c, sessions.CookieName())
			if token == "" {
				return c.JSON(http.StatusUnauthorized, apierrors.NewUnauthorized())
			}

			claims, err := sessions.Verify(token)
			if err != nil {
				log.Debug().Err(err).Str("path", c.Path()).Msg("Rejected session token")
				if errors.Is(err, services.ErrSessionExpired) {
					return c.JSON(http.StatusUnauthorized, apierrors.New(http.StatusUnauthorized, apierrors.MsgSessionExpired))
				}
				return c.JSON(http.StatusUnauthorized, apierrors.NewUnauthorized())
			}

			attachUser(c, claims.UserID)
			return next(c)
		}
	}
}

// OptionalAuthn attaches the user id when a valid session is present and
// lets every request through.
func OptionalAuthn(sessions SessionVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token := tokenFromRequest(c, sessions.CookieName()); token != "" {
				if claims, err := sessions.Verify(token); err == nil {
					attachUser(c, claims.UserID)
				}
			}
			return next(c)
		}
	}
}

// UserID returns the authenticated user id, or "" on anonymous requests.
func UserID(c echo.Context) string {
	if id, ok := c.Get(userIDKey).(string); ok {
		return id
	}
	id, _ := domain.UserIDFromContext(c.Request().Context())
	return id
}
