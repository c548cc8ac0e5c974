package routes

import (
	"github.com/labstack/echo/v4"

	"launchkit/internal/access"
	"launchkit/internal/api/middleware"
	"launchkit/internal/handlers"
)

const orgParam = "orgId"

func SetupOrganizationRoutes(api *echo.Group, h *handlers.OrganizationHandler, auth *middleware.AuthMiddleware) {
	orgs := api.Group("/organizations")

	// Mutations authorize inside their actions so that outcomes are audited.
	orgs.POST("", h.Create)
	orgs.PATCH("/:orgId", h.Update)
	orgs.DELETE("/:orgId", h.Delete)
	orgs.POST("/:orgId/invitations", h.Invite)
	orgs.DELETE("/:orgId/members/:memberId", h.RemoveMember)
	orgs.POST("/:orgId/members/:memberId/role", h.UpdateMemberRole)
	orgs.GET("/:orgId/preferences", h.GetPreferences)
	orgs.PUT("/:orgId/preferences", h.UpdatePreferences)

	orgs.GET("/:orgId/activity", h.Activity, auth.RequirePermission(access.PermAdminViewAuditLogs, orgParam))
	orgs.POST("/:orgId/billing/portal", h.BillingPortal, auth.RequirePermission(access.PermBillingManage, orgParam))

	me := api.Group("/me", auth.RequireSession())
	me.GET("/preferences", h.GetMyPreferences)
	me.PUT("/preferences", h.UpdateMyPreferences)
}
