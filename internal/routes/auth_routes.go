package routes

import (
	"github.com/labstack/echo/v4"

	"launchkit/internal/api/middleware"
	"launchkit/internal/handlers"
)

func SetupAuthRoutes(api *echo.Group, h *handlers.AuthHandler, auth *middleware.AuthMiddleware) {
	group := api.Group("/auth")

	// Public routes (no auth required)
	group.POST("/sign-in", h.SignIn)
	group.POST("/magic-link", h.RequestMagicLink)
	group.GET("/magic-link/verify", h.VerifyMagicLink)
	group.GET("/session", h.Session)

	group.POST("/sign-out", h.SignOut, auth.RequireSession())
}
