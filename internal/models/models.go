package models

import (
	"time"

	"gorm.io/datatypes"
)

type Organization struct {
	Base
	Name             string         `gorm:"not null" json:"name" validate:"required,min=2"`
	Slug             string         `gorm:"uniqueIndex;not null" json:"slug" validate:"required,slug"`
	Logo             string         `json:"logo,omitempty"`
	Metadata         datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	StripeCustomerID *string        `json:"-"`
	Members          []Member       `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Invitations      []Invitation   `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"invitations,omitempty"`
}

type Member struct {
	Base
	OrganizationID string        `gorm:"type:uuid;not null;uniqueIndex:idx_member_org_user" json:"organizationId"`
	Organization   *Organization `json:"organization,omitempty"`
	UserID         string        `gorm:"type:uuid;not null;uniqueIndex:idx_member_org_user" json:"userId"`
	User           *User         `json:"user,omitempty"`
	Role           OrgRole       `gorm:"not null;default:'member'" json:"role"`
}

type Invitation struct {
	Base
	OrganizationID string           `gorm:"type:uuid;not null;index" json:"organizationId"`
	Organization   *Organization    `json:"organization,omitempty"`
	Email          string           `gorm:"not null" json:"email"`
	Role           OrgRole          `gorm:"not null;default:'member'" json:"role"`
	Status         InvitationStatus `gorm:"not null;default:'pending'" json:"status"`
	InviterID      string           `gorm:"type:uuid;not null" json:"inviterId"`
	ExpiresAt      time.Time        `gorm:"not null" json:"expiresAt"`
}

// Preference is one key/value setting owned by a user or an organization.
type Preference struct {
	Base
	Scope   PreferenceScope `gorm:"not null;uniqueIndex:idx_preference_owner_key" json:"scope"`
	OwnerID string          `gorm:"type:uuid;not null;uniqueIndex:idx_preference_owner_key" json:"ownerId"`
	Key     string          `gorm:"not null;uniqueIndex:idx_preference_owner_key" json:"key"`
	Value   string          `gorm:"not null" json:"value"`
}
