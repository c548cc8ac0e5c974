// Package audit records and reads the append-only audit log.
package audit

// Action is one of the dotted audit action names.
type Action string

const (
	ActionUserCreate  Action = "user.create"
	ActionUserBan     Action = "user.ban"
	ActionUserUnban   Action = "user.unban"
	ActionUserSetRole Action = "user.set_role"

	ActionOrganizationCreate Action = "organization.create"
	ActionOrganizationUpdate Action = "organization.update"
	ActionOrganizationDelete Action = "organization.delete"

	ActionMemberInvite     Action = "member.invite"
	ActionMemberRemove     Action = "member.remove"
	ActionMemberUpdateRole Action = "member.update_role"

	ActionPreferencesUpdate Action = "preferences.update"

	ActionAdminAccess Action = "admin.access"
)

func (a Action) Valid() bool {
	switch a {
	case ActionUserCreate, ActionUserBan, ActionUserUnban, ActionUserSetRole,
		ActionOrganizationCreate, ActionOrganizationUpdate, ActionOrganizationDelete,
		ActionMemberInvite, ActionMemberRemove, ActionMemberUpdateRole,
		ActionPreferencesUpdate, ActionAdminAccess:
		return true
	default:
		return false
	}
}

type EntityType string

const (
	EntityUser         EntityType = "user"
	EntityOrganization EntityType = "organization"
	EntityMember       EntityType = "member"
	EntityAdmin        EntityType = "admin"
)

func (e EntityType) Valid() bool {
	switch e {
	case EntityUser, EntityOrganization, EntityMember, EntityAdmin:
		return true
	default:
		return false
	}
}

// Sentinel entity ids.
const (
	EntityIDFailedCreation = "failed_creation"
	EntityIDAnonymous      = "anonymous"
	EntityIDUnknown        = "unknown"
)

// Unknown is stored when the client IP or user agent cannot be determined.
const Unknown = "unknown"

// EventCreated is emitted on the event bus after every successful write.
const EventCreated = "audit.created"
