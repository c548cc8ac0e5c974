// Package access holds the organization permission table, the permission
// evaluator and the request guard built on top of them.
package access

import (
	"sort"

	"launchkit/internal/models"
)

// Permission is a "<resource>:<action>" capability. Values only come from the constants below.
type Permission string

const (
	PermOrganizationView   Permission = "organization:view"
	PermOrganizationEdit   Permission = "organization:edit"
	PermOrganizationDelete Permission = "organization:delete"

	PermMemberView     Permission = "member:view"
	PermMemberInvite   Permission = "member:invite"
	PermMemberRemove   Permission = "member:remove"
	PermMemberEditRole Permission = "member:edit_role"

	PermBillingView   Permission = "billing:view"
	PermBillingManage Permission = "billing:manage"

	PermPreferencesManage Permission = "preferences:manage"

	PermAdminViewAuditLogs Permission = "admin:view_audit_logs"
)

var (
	guestPermissions = []Permission{
		PermOrganizationView,
	}
	memberPermissions = append(clone(guestPermissions),
		PermMemberView,
	)
	adminPermissions = append(clone(memberPermissions),
		PermOrganizationEdit,
		PermMemberInvite,
		PermMemberRemove,
		PermBillingView,
		PermAdminViewAuditLogs,
	)
	ownerPermissions = append(clone(adminPermissions),
		PermOrganizationDelete,
		PermMemberEditRole,
		PermBillingManage,
		PermPreferencesManage,
	)
)

// rolePermissions is built once at init and never written afterwards.
// Each role extends the set of the role below it: owner ⊇ admin ⊇ member ⊇ guest.
var rolePermissions = map[models.OrgRole]map[Permission]struct{}{
	models.OrgRoleGuest:  toSet(guestPermissions),
	models.OrgRoleMember: toSet(memberPermissions),
	models.OrgRoleAdmin:  toSet(adminPermissions),
	models.OrgRoleOwner:  toSet(ownerPermissions),
}

func clone(perms []Permission) []Permission {
	return append([]Permission(nil), perms...)
}

func toSet(perms []Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Permissions returns the sorted permissions of role, or nil for unknown roles.
func Permissions(role models.OrgRole) []Permission {
	set, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]Permission, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Roles returns the organization roles from most to least privileged.
func Roles() []models.OrgRole {
	return []models.OrgRole{models.OrgRoleOwner, models.OrgRoleAdmin, models.OrgRoleMember, models.OrgRoleGuest}
}

// ParseOrgRole accepts only the exact, case-sensitive role names.
func ParseOrgRole(s string) (models.OrgRole, bool) {
	r := models.OrgRole(s)
	return r, r.Valid()
}

// ParseSystemRole accepts only the exact, case-sensitive role names.
func ParseSystemRole(s string) (models.SystemRole, bool) {
	r := models.SystemRole(s)
	return r, r.Valid()
}
