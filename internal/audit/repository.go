package audit

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"launchkit/internal/models"
)

// Filter narrows reads. Empty fields match everything.
type Filter struct {
	EntityType string `query:"entityType"`
	EntityID   string `query:"entityId"`
	ActorID    string `query:"actorId"`
	Action     string `query:"action"`
}

// Query is a filtered, offset-paginated read.
type Query struct {
	Filter
	Limit  int
	Offset int
}

// Activity is an audit entry joined with its actor for display.
type Activity struct {
	models.AuditLog
	ActorName  *string `json:"actorName"`
	ActorEmail *string `json:"actorEmail"`
}

// Repository is the append-only audit store. There is no update or delete.
type Repository interface {
	Insert(ctx context.Context, entry *models.AuditLog) error
	Get(ctx context.Context, id string) (*models.AuditLog, error)
	Recent(ctx context.Context, q Query) ([]Activity, error)
	Count(ctx context.Context, f Filter) (int64, error)
	// Each calls fn with batches of matching entries, oldest first.
	Each(ctx context.Context, f Filter, batchSize int, fn func([]models.AuditLog) error) error
	// WithTx returns a repository whose writes join tx.
	WithTx(tx *gorm.DB) Repository
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) WithTx(tx *gorm.DB) Repository {
	return &GormRepository{db: tx}
}

func (r *GormRepository) Insert(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Get returns nil, nil when no entry has id.
func (r *GormRepository) Get(ctx context.Context, id string) (*models.AuditLog, error) {
	var entry models.AuditLog
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func applyFilter(q *gorm.DB, f Filter) *gorm.DB {
	if f.EntityType != "" {
		q = q.Where("audit_logs.entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		q = q.Where("audit_logs.entity_id = ?", f.EntityID)
	}
	if f.ActorID != "" {
		q = q.Where("audit_logs.actor_id = ?", f.ActorID)
	}
	if f.Action != "" {
		q = q.Where("audit_logs.action = ?", f.Action)
	}
	return q
}

// Recent orders by created_at then id, both descending. IDs are ULIDs so the
// second key follows insertion order.
func (r *GormRepository) Recent(ctx context.Context, q Query) ([]Activity, error) {
	var out []Activity
	query := r.db.WithContext(ctx).
		Table("audit_logs").
		Select("audit_logs.*, users.name AS actor_name, users.email AS actor_email").
		Joins("LEFT JOIN users ON users.id::text = audit_logs.actor_id")
	query = applyFilter(query, q.Filter)
	err := query.
		Order("audit_logs.created_at DESC, audit_logs.id DESC").
		Limit(q.Limit).
		Offset(q.Offset).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepository) Count(ctx context.Context, f Filter) (int64, error) {
	var total int64
	err := applyFilter(r.db.WithContext(ctx).Model(&models.AuditLog{}), f).Count(&total).Error
	return total, err
}

func (r *GormRepository) Each(ctx context.Context, f Filter, batchSize int, fn func([]models.AuditLog) error) error {
	var batch []models.AuditLog
	res := applyFilter(r.db.WithContext(ctx).Model(&models.AuditLog{}), f).
		Order("audit_logs.id ASC").
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		})
	return res.Error
}
