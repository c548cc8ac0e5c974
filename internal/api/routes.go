package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "launchkit/docs/swagger"
	"launchkit/internal/api/registry"
	"launchkit/internal/handlers"
	"launchkit/internal/routes"
)

func (s *Server) registerRoutes() {
	s.echo.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "launchkit")
	})
	// Health check
	// @Summary Health check
	// @Description Check if the server is running
	// @Produce json
	// @Success 200 {object} map[string]string "OK"
	// @Router /health [get]
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)
	if s.deps.Metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	}

	api := s.echo.Group("/api")

	routes.SetupAuthRoutes(api, handlers.NewAuthHandler(s.deps.Sessions, s.config.Auth), s.auth)
	routes.SetupAdminRoutes(api, handlers.NewAdminHandler(
		s.deps.Users,
		s.deps.Reader,
		s.deps.Stats,
		s.deps.Exports,
		s.deps.Files,
	), s.auth)
	routes.SetupOrganizationRoutes(api, handlers.NewOrganizationHandler(
		s.deps.Orgs,
		s.deps.Prefs,
		s.deps.Reader,
		s.deps.Billing,
		s.config.Server.PublicURL,
	), s.auth)

	if s.deps.DB != nil {
		registry.RegisterReadRoutes(api, s.deps.DB, s.auth)
	}

	// Admin pages share the browser-facing guard.
	s.echo.GET("/admin", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/admin/panel")
	}, s.auth.AdminRoute())
}
