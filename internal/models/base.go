package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base contains common columns for all tables
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *Base) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}

// SystemRole is a user's platform-wide role.
type SystemRole string

const (
	SystemRoleAdmin     SystemRole = "admin"
	SystemRoleUser      SystemRole = "user"
	SystemRoleModerator SystemRole = "moderator"
)

func (r SystemRole) Valid() bool {
	switch r {
	case SystemRoleAdmin, SystemRoleUser, SystemRoleModerator:
		return true
	default:
		return false
	}
}

// OrgRole is a user's role inside one organization. It is never compared to a SystemRole.
type OrgRole string

const (
	OrgRoleOwner  OrgRole = "owner"
	OrgRoleAdmin  OrgRole = "admin"
	OrgRoleMember OrgRole = "member"
	OrgRoleGuest  OrgRole = "guest"
)

func (r OrgRole) Valid() bool {
	switch r {
	case OrgRoleOwner, OrgRoleAdmin, OrgRoleMember, OrgRoleGuest:
		return true
	default:
		return false
	}
}

type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusRejected InvitationStatus = "rejected"
	InvitationStatusCanceled InvitationStatus = "canceled"
)

type PreferenceScope string

const (
	PreferenceScopeUser         PreferenceScope = "user"
	PreferenceScopeOrganization PreferenceScope = "organization"
)

func (s PreferenceScope) Valid() bool {
	return s == PreferenceScopeUser || s == PreferenceScopeOrganization
}
