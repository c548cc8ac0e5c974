package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"launchkit/internal/models"
)

// MemberService reads and changes organization memberships.
type MemberService struct {
	db *gorm.DB
}

func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{db: db}
}

func (s *MemberService) WithTx(tx *gorm.DB) *MemberService {
	return &MemberService{db: tx}
}

// GetMembership returns nil, nil when userID is not a member of orgID.
func (s *MemberService) GetMembership(ctx context.Context, userID, orgID string) (*models.Member, error) {
	member, err := models.GetMember(orgID, userID, s.db.WithContext(ctx))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (s *MemberService) ListMembers(ctx context.Context, orgID string) ([]models.Member, error) {
	var members []models.Member
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

// ListForUser returns the memberships of userID with their organizations.
func (s *MemberService) ListForUser(ctx context.Context, userID string) ([]models.Member, error) {
	var members []models.Member
	err := s.db.WithContext(ctx).
		Preload("Organization").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

func (s *MemberService) AddMember(ctx context.Context, member *models.Member) error {
	return s.db.WithContext(ctx).Create(member).Error
}

func (s *MemberService) CountOwners(ctx context.Context, orgID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("organization_id = ? AND role = ?", orgID, models.OrgRoleOwner).
		Count(&n).Error
	return n, err
}

func (s *MemberService) UpdateRole(ctx context.Context, memberID string, role models.OrgRole) error {
	return s.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", memberID).
		Update("role", role).Error
}

func (s *MemberService) Remove(ctx context.Context, memberID string) error {
	return s.db.WithContext(ctx).Where("id = ?", memberID).Delete(&models.Member{}).Error
}

// GetByID returns nil, nil when memberID does not belong to orgID.
func (s *MemberService) GetByID(ctx context.Context, orgID, memberID string) (*models.Member, error) {
	var member models.Member
	err := s.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", memberID, orgID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}
