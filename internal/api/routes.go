package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gadgetguard/aegis/internal/auth"
)

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, users *UserHandler, devices *DeviceHandler, tokens *auth.Manager, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "aegis-server",
		})
	})

	// User APIs, no token required
	userGroup := e.Group("/users")
	userGroup.POST("/register", users.Register)
	userGroup.POST("/login", users.Login)
	userGroup.POST("/verifyJwt", users.VerifyJwt)

	// Device APIs behind bearer-token auth
	deviceGroup := e.Group("/devices", RequireAuth(tokens, logger))
	deviceGroup.POST("", devices.Add)
	deviceGroup.GET("", devices.List)
	deviceGroup.POST("/ai-recommendations", devices.Recommend)
	deviceGroup.PATCH("/:id", devices.Update)
	deviceGroup.DELETE("/:id", devices.Delete)
	deviceGroup.POST("/:id/protection-plan", devices.AddPlan)
	deviceGroup.PATCH("/:id/protection-plan/extend", devices.ExtendPlan)
}
