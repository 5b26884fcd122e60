package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gadgetguard/aegis/internal/auth"
)

// claimsContextKey is where the auth middleware stores the verified claims.
const claimsContextKey = "auth.claims"

// RequireAuth validates the bearer token before any protected handler runs.
func RequireAuth(tokens *auth.Manager, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if token == "" || token == header {
				return fail(c, http.StatusUnauthorized, "Authorization denied")
			}

			claims, err := tokens.ValidateToken(token)
			if err != nil {
				logger.Warn("Rejected invalid token", zap.Error(err))
				return fail(c, http.StatusUnauthorized, "Invalid token")
			}

			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

// ClaimsFromContext returns the verified claims set by RequireAuth, or nil.
func ClaimsFromContext(c echo.Context) *auth.Claims {
	claims, _ := c.Get(claimsContextKey).(*auth.Claims)
	return claims
}
