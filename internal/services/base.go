package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"gorm.io/gorm"

	"launchkit/internal/apperr"
	"launchkit/internal/events"
)

// BaseService defines common CRUD operations over a gorm model.
type BaseService[T any] interface {
	Create(ctx context.Context, entity *T) error
	Get(ctx context.Context, id string, includes ...string) (*T, error)
	List(ctx context.Context, opts ListOptions) ([]T, int64, error)
	Update(ctx context.Context, id string, updates map[string]any) (*T, error)
	Delete(ctx context.Context, id string) error
	WithTx(tx *gorm.DB) BaseService[T]
}

// ListOptions is a page of rows matching equality filters.
type ListOptions struct {
	Page     int
	Limit    int
	Filters  map[string]any
	Order    string
	Includes []string
}

// BaseServiceImpl implements BaseService
type BaseServiceImpl[T any] struct {
	db    *gorm.DB
	table string
}

func GormTableName(db *gorm.DB, v any) string {
	return db.NamingStrategy.TableName(reflect.TypeOf(v).Name())
}

// NewBaseService creates a new base service
func NewBaseService[T any](db *gorm.DB, modelType T) BaseService[T] {
	return &BaseServiceImpl[T]{
		db:    db,
		table: GormTableName(db, modelType),
	}
}

func (s *BaseServiceImpl[T]) WithTx(tx *gorm.DB) BaseService[T] {
	cp := *s
	cp.db = tx
	return &cp
}

func (s *BaseServiceImpl[T]) applyIncludes(query *gorm.DB, includes ...string) *gorm.DB {
	for _, include := range includes {
		query = query.Preload(include)
	}
	return query
}

func (s *BaseServiceImpl[T]) Create(ctx context.Context, entity *T) error {
	if err := s.db.WithContext(ctx).Create(entity).Error; err != nil {
		return err
	}
	events.Emit(s.table+".created", *entity)
	return nil
}

// Get returns NotFound when no row has id.
func (s *BaseServiceImpl[T]) Get(ctx context.Context, id string, includes ...string) (*T, error) {
	var entity T
	query := s.applyIncludes(s.db.WithContext(ctx), includes...)
	err := query.First(&entity, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(fmt.Sprintf("%s not found", s.table))
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (s *BaseServiceImpl[T]) List(ctx context.Context, opts ListOptions) ([]T, int64, error) {
	var entities []T
	var total int64

	query := s.db.WithContext(ctx).Model(new(T))
	for key, value := range opts.Filters {
		query = query.Where(key+" = ?", value)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = s.applyIncludes(query, opts.Includes...)
	if opts.Page > 0 && opts.Limit > 0 {
		query = query.Offset((opts.Page - 1) * opts.Limit).Limit(opts.Limit)
	}
	order := opts.Order
	if order == "" {
		order = "created_at DESC"
	}
	if err := query.Order(order).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return entities, total, nil
}

// Update applies updates to the row with id and returns the reloaded row.
func (s *BaseServiceImpl[T]) Update(ctx context.Context, id string, updates map[string]any) (*T, error) {
	delete(updates, "id")
	res := s.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound(fmt.Sprintf("%s not found", s.table))
	}

	entity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	events.Emit(s.table+".updated", *entity)
	return entity, nil
}

func (s *BaseServiceImpl[T]) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(fmt.Sprintf("%s not found", s.table))
	}
	events.Emit(s.table+".deleted", id)
	return nil
}
