package models

import (
	"time"
)

type User struct {
	Base
	Name          string     `gorm:"not null" json:"name"`
	Email         string     `gorm:"uniqueIndex;not null" json:"email"`
	EmailVerified bool       `gorm:"not null;default:false" json:"emailVerified"`
	Image         string     `json:"image,omitempty"`
	PasswordHash  string     `json:"-"`
	Role          SystemRole `gorm:"not null;default:'user'" json:"role"`
	Banned        bool       `gorm:"not null;default:false" json:"banned"`
	BanReason     *string    `json:"banReason,omitempty"`
	BanExpires    *time.Time `json:"banExpires,omitempty"`
}

// IsBanned reports whether the ban is in force at now. Bans without an expiry never lapse.
func (u *User) IsBanned(now time.Time) bool {
	if !u.Banned {
		return false
	}
	return u.BanExpires == nil || now.Before(*u.BanExpires)
}

// Session is a signed-in browser or API client. The bearer token is a JWT carrying the session ID.
type Session struct {
	Base
	UserID               string    `gorm:"type:uuid;not null;index" json:"userId"`
	User                 *User     `json:"user,omitempty"`
	ExpiresAt            time.Time `gorm:"not null" json:"expiresAt"`
	IPAddress            string    `json:"ipAddress"`
	UserAgent            string    `json:"userAgent"`
	ActiveOrganizationID *string   `gorm:"type:uuid" json:"activeOrganizationId,omitempty"`
}

// Verification stores single-use tokens such as magic links. Value holds the token hash.
type Verification struct {
	Base
	Identifier string    `gorm:"not null;index" json:"identifier"`
	Value      string    `gorm:"not null;uniqueIndex" json:"-"`
	ExpiresAt  time.Time `gorm:"not null" json:"expiresAt"`
}
