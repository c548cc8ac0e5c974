package registry

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"launchkit/internal/access"
	"launchkit/internal/api/controllers"
	"launchkit/internal/api/middleware"
	"launchkit/internal/models"
	"launchkit/internal/services"
)

func orgScope(c echo.Context) map[string]any {
	return map[string]any{"organization_id": c.Param("orgId")}
}

// 📝 RegisterReadRoutes registers the read-only model views.
func RegisterReadRoutes(g *echo.Group, db *gorm.DB, auth *middleware.AuthMiddleware) {
	orgController := controllers.NewBaseController(
		services.NewBaseService(db, models.Organization{}),
		controllers.WithIDParam[models.Organization]("orgId"),
		controllers.WithFilter[models.Organization]("slug", "slug"),
	)
	orgs := g.Group("/organizations")

	// @Summary Get organization
	// @Tags organizations
	// @Produce json
	// @Param orgId path string true "Organization ID"
	// @Success 200 {object} models.Organization
	// @Failure 403 {object} handlers.ErrorResponse
	// @Failure 404 {object} handlers.ErrorResponse
	// @Router /api/organizations/{orgId} [get]
	orgs.GET("/:orgId", orgController.Get, auth.RequirePermission(access.PermOrganizationView, "orgId"))

	memberController := controllers.NewBaseController(
		services.NewBaseService(db, models.Member{}),
		controllers.WithFilter[models.Member]("role", "role"),
		controllers.WithIncludes[models.Member]("User"),
		controllers.WithScope[models.Member](orgScope),
	)
	// @Summary List members
	// @Tags organizations
	// @Produce json
	// @Param orgId path string true "Organization ID"
	// @Param role query string false "Organization role"
	// @Param include query string false "User"
	// @Success 200 {object} map[string]interface{}
	// @Router /api/organizations/{orgId}/members [get]
	orgs.GET("/:orgId/members", memberController.List, auth.RequirePermission(access.PermMemberView, "orgId"))

	invitationController := controllers.NewBaseController(
		services.NewBaseService(db, models.Invitation{}),
		controllers.WithFilter[models.Invitation]("status", "status"),
		controllers.WithScope[models.Invitation](orgScope),
	)
	// @Summary List invitations
	// @Tags organizations
	// @Produce json
	// @Param orgId path string true "Organization ID"
	// @Param status query string false "Invitation status"
	// @Success 200 {object} map[string]interface{}
	// @Router /api/organizations/{orgId}/invitations [get]
	orgs.GET("/:orgId/invitations", invitationController.List, auth.RequirePermission(access.PermMemberInvite, "orgId"))

	// @Summary List all organizations
	// @Tags admin
	// @Produce json
	// @Param slug query string false "Slug"
	// @Success 200 {object} map[string]interface{}
	// @Router /api/admin/organizations [get]
	g.GET("/admin/organizations", orgController.List, auth.AdminAPI())
}
