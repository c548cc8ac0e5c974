package routes

import (
	"github.com/labstack/echo/v4"

	"launchkit/internal/api/middleware"
	"launchkit/internal/handlers"
	"launchkit/internal/utils/logger"
)

func SetupAdminRoutes(api *echo.Group, h *handlers.AdminHandler, auth *middleware.AuthMiddleware) {
	log := logger.New("admin_routes")

	admin := api.Group("/admin")

	// User actions check the admin role themselves and audit their own outcome.
	users := admin.Group("/users")
	users.GET("", h.ListUsers)
	users.POST("", h.CreateUser)
	users.POST("/:id/ban", h.BanUser)
	users.POST("/:id/unban", h.UnbanUser)
	users.POST("/:id/role", h.SetRole)

	logs := admin.Group("/audit-logs", auth.AdminAPI())
	logs.GET("", h.ListAuditLogs)
	logs.POST("/export", h.ExportAuditLogs)
	logs.GET("/exports/:key", h.ExportURL)
	logs.GET("/:id", h.GetAuditLog)

	admin.GET("/stats", h.Stats, auth.AdminAPI())

	log.Success("Admin routes initialized successfully")
}
