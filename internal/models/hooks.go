package models

import (
	"launchkit/internal/events"

	"gorm.io/gorm"
)

const (
	EventUserCreated       = "user.created"
	EventInvitationCreated = "invitation.created"
	EventMemberCreated     = "member.created"
)

func (u *User) AfterCreate(tx *gorm.DB) error {
	events.Emit(EventUserCreated, *u)
	return nil
}

func (i *Invitation) AfterCreate(tx *gorm.DB) error {
	log.Info("Invitation created for organization %s", i.OrganizationID)
	events.Emit(EventInvitationCreated, *i)
	return nil
}

func (m *Member) AfterCreate(tx *gorm.DB) error {
	events.Emit(EventMemberCreated, *m)
	return nil
}
