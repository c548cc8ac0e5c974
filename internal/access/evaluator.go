package access

import (
	"fmt"

	"launchkit/internal/apperr"
	"launchkit/internal/models"
)

// HasPermission reports whether role grants p. Unknown roles grant nothing.
func HasPermission(role models.OrgRole, p Permission) bool {
	set, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, ok = set[p]
	return ok
}

// RequirePermission returns a Forbidden error when role lacks p.
func RequirePermission(role models.OrgRole, p Permission) error {
	if HasPermission(role, p) {
		return nil
	}
	return apperr.Forbidden(fmt.Sprintf("missing permission %s", p))
}

// Authorize applies the system admin override before consulting the organization table.
func Authorize(system models.SystemRole, role models.OrgRole, p Permission) bool {
	if system == models.SystemRoleAdmin {
		return true
	}
	return HasPermission(role, p)
}
