package middleware

import (
	"github.com/labstack/echo/v4"

	"launchkit/internal/access"
	"launchkit/internal/apperr"
)

// RequirePermission checks that the caller holds p in the organization named
// by the orgParam path parameter. System admins always pass.
func (m *AuthMiddleware) RequirePermission(p access.Permission, orgParam string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			orgID := c.Param(orgParam)
			if orgID == "" {
				return apperr.Validation("missing organization id", nil)
			}
			r := c.Request()
			sd, err := m.guard.ValidateRequest(r.Context(), r,
				access.WithPermission(p),
				access.WithOrganization(orgID),
			)
			if err != nil {
				return err
			}
			c.Set(SessionKey, sd)
			return next(c)
		}
	}
}
