package authprovider

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"launchkit/internal/models"
)

// Store persists users, sessions and verification tokens. Find methods return nil, nil when nothing matches.
type Store interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	SaveUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context, q ListUsersQuery) ([]models.User, int64, error)

	CreateSession(ctx context.Context, session *models.Session) error
	FindSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID string) error

	CreateVerification(ctx context.Context, v *models.Verification) error
	// ConsumeVerification deletes and returns the verification whose value is hash.
	ConsumeVerification(ctx context.Context, hash string) (*models.Verification, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func notFoundAsNil[T any](v *T, err error) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *GormStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	return notFoundAsNil(&u, err)
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := models.GetUserByEmail(email, s.db.WithContext(ctx))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return u, err
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *GormStore) SaveUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *GormStore) ListUsers(ctx context.Context, q ListUsersQuery) ([]models.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if q.Role != "" {
		query = query.Where("role = ?", q.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := query.Order("created_at DESC").Limit(q.Limit).Offset(q.Offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *GormStore) CreateSession(ctx context.Context, session *models.Session) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s *GormStore) FindSession(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&session).Error
	return notFoundAsNil(&session, err)
}

func (s *GormStore) DeleteSession(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{}).Error
}

func (s *GormStore) DeleteUserSessions(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Session{}).Error
}

func (s *GormStore) CreateVerification(ctx context.Context, v *models.Verification) error {
	return s.db.WithContext(ctx).Create(v).Error
}

func (s *GormStore) ConsumeVerification(ctx context.Context, hash string) (*models.Verification, error) {
	var v models.Verification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("value = ?", hash).First(&v).Error; err != nil {
			return err
		}
		return tx.Delete(&v).Error
	})
	return notFoundAsNil(&v, err)
}
