package models

import (
	"strings"

	"gorm.io/gorm"
)

// GetUserByEmail retrieves a user by email, case-insensitively.
func GetUserByEmail(email string, db *gorm.DB) (*User, error) {
	user := &User{}
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// GetOrganizationBySlug retrieves an organization from the database by its slug
func GetOrganizationBySlug(slug string, db *gorm.DB) (*Organization, error) {
	org := &Organization{}
	if err := db.Where("slug = ?", slug).First(org).Error; err != nil {
		return nil, err
	}
	return org, nil
}

// GetMember returns the membership of userID in orgID.
func GetMember(orgID, userID string, db *gorm.DB) (*Member, error) {
	member := &Member{}
	if err := db.Where("organization_id = ? AND user_id = ?", orgID, userID).First(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}
