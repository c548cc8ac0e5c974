package audit

import (
	"context"
	"fmt"

	"launchkit/internal/apperr"
	"launchkit/internal/utils/logger"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type PageResult struct {
	Logs       []Activity `json:"logs"`
	Pagination Pagination `json:"pagination"`
}

// Reader serves audit entries for display. Storage errors are logged and
// surfaced as a generic internal error.
type Reader struct {
	repo   Repository
	errors *logger.ErrorLogger
}

func NewReader(repo Repository, errs *logger.ErrorLogger) *Reader {
	return &Reader{repo: repo, errors: errs}
}

func (r *Reader) fail(op string, err error) error {
	if r.errors != nil {
		r.errors.Log("AUDIT_READ_FAILED", op, err)
	}
	return apperr.Internal(fmt.Errorf("audit: %s: %w", op, err))
}

// GetRecentActivity returns matching entries, most recent first.
func (r *Reader) GetRecentActivity(ctx context.Context, q Query) ([]Activity, error) {
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	out, err := r.repo.Recent(ctx, q)
	if err != nil {
		return nil, r.fail("recent activity", err)
	}
	if out == nil {
		out = []Activity{}
	}
	return out, nil
}

// ListPage converts a 1-based page into limit and offset and reports totals.
func (r *Reader) ListPage(ctx context.Context, page, limit int, f Filter) (*PageResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	total, err := r.repo.Count(ctx, f)
	if err != nil {
		return nil, r.fail("count", err)
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	res := &PageResult{
		Logs: []Activity{},
		Pagination: Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
		},
	}
	// Past the last page there is nothing to read, and the offset could overflow.
	if page > totalPages {
		return res, nil
	}

	res.Logs, err = r.GetRecentActivity(ctx, Query{Filter: f, Limit: limit, Offset: (page - 1) * limit})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Get returns one entry or NotFound.
func (r *Reader) Get(ctx context.Context, id string) (*Activity, error) {
	entry, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, r.fail("get", err)
	}
	if entry == nil {
		return nil, apperr.NotFound("audit entry not found")
	}
	return &Activity{AuditLog: *entry}, nil
}
