package audit

import (
	"context"
	"sort"
	"sync"

	"gorm.io/gorm"

	"launchkit/internal/models"
)

// memRepo is an in-memory Repository for tests.
type memRepo struct {
	mu        sync.Mutex
	entries   []models.AuditLog
	insertErr error
	readErr   error
}

func (m *memRepo) WithTx(*gorm.DB) Repository { return m }

func (m *memRepo) Insert(_ context.Context, e *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (*models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			cp := e
			return &cp, nil
		}
	}
	return nil, m.readErr
}

func matches(e models.AuditLog, f Filter) bool {
	return (f.EntityType == "" || e.EntityType == f.EntityType) &&
		(f.EntityID == "" || e.EntityID == f.EntityID) &&
		(f.ActorID == "" || e.ActorID == f.ActorID) &&
		(f.Action == "" || e.Action == f.Action)
}

func (m *memRepo) sorted(f Filter) []models.AuditLog {
	var out []models.AuditLog
	for _, e := range m.entries {
		if matches(e, f) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *memRepo) Recent(_ context.Context, q Query) ([]Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	all := m.sorted(q.Filter)
	var out []Activity
	for i := q.Offset; i < len(all) && i < q.Offset+q.Limit; i++ {
		out = append(out, Activity{AuditLog: all[i]})
	}
	return out, nil
}

func (m *memRepo) Count(_ context.Context, f Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return 0, m.readErr
	}
	return int64(len(m.sorted(f))), nil
}

func (m *memRepo) Each(_ context.Context, f Filter, batchSize int, fn func([]models.AuditLog) error) error {
	m.mu.Lock()
	all := m.sorted(f)
	m.mu.Unlock()
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	for start := 0; start < len(all); start += batchSize {
		end := start + batchSize
		if end > len(all) {
			end = len(all)
		}
		if err := fn(all[start:end]); err != nil {
			return err
		}
	}
	return nil
}
