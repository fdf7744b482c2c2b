package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vibast-solutions/ms-go-jobtracker/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUserName  = "user_name"
	ContextClaims    = "session_claims"
)

type sessionValidator interface {
	ValidateSession(ctx context.Context, tokenString string) (*service.Claims, error)
}

type AuthMiddleware struct {
	authService sessionValidator
	cookieName  string
}

func NewAuthMiddleware(authService sessionValidator, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{authService: authService, cookieName: cookieName}
}

// RequireAuth accepts the session from the session cookie or, for API
// clients, from an Authorization: Bearer header.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString, ok := m.sessionToken(c)
		if !ok {
			logrus.Debug("Missing or malformed session credentials")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "authentication required",
			})
		}

		claims, err := m.authService.ValidateSession(c.Request().Context(), tokenString)
		if err != nil {
			logrus.WithError(err).Debug("Invalid or expired session")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "invalid or expired session",
			})
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Set(ContextUserName, claims.Name)
		c.Set(ContextClaims, claims)

		return next(c)
	}
}

func (m *AuthMiddleware) sessionToken(c echo.Context) (string, bool) {
	if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return "", false
		}
		return parts[1], true
	}

	cookie, err := c.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
