package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"launchkit/internal/apperr"
	"launchkit/internal/services"
)

const maxLimit = 100

// ScopeFunc returns filters every listed row must match, usually taken from
// path parameters.
type ScopeFunc func(ctx echo.Context) map[string]any

// BaseController serves read-only views of a model. Writes go through the
// audited actions instead.
type BaseController[T any] struct {
	service services.BaseService[T]
	// idParam names the path parameter holding the row id.
	idParam string
	// filterable lists query parameters accepted as equality filters, mapped to columns.
	filterable map[string]string
	includes   map[string]bool
	scope      ScopeFunc
}

type Option[T any] func(*BaseController[T])

func WithIDParam[T any](name string) Option[T] {
	return func(c *BaseController[T]) { c.idParam = name }
}

func WithFilter[T any](param, column string) Option[T] {
	return func(c *BaseController[T]) { c.filterable[param] = column }
}

// WithIncludes allows the named relations in ?include=.
func WithIncludes[T any](relations ...string) Option[T] {
	return func(c *BaseController[T]) {
		for _, r := range relations {
			c.includes[r] = true
		}
	}
}

func WithScope[T any](scope ScopeFunc) Option[T] {
	return func(c *BaseController[T]) { c.scope = scope }
}

// NewBaseController creates a new base controller
func NewBaseController[T any](service services.BaseService[T], opts ...Option[T]) *BaseController[T] {
	c := &BaseController[T]{
		service:    service,
		idParam:    "id",
		filterable: map[string]string{},
		includes:   map[string]bool{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// parseIncludes keeps the allowed relations of the include query parameter.
func (c *BaseController[T]) parseIncludes(ctx echo.Context) []string {
	include := ctx.QueryParam("include")
	if include == "" {
		return nil
	}
	var out []string
	for _, r := range strings.Split(include, ",") {
		if c.includes[strings.TrimSpace(r)] {
			out = append(out, strings.TrimSpace(r))
		}
	}
	return out
}

// Get handles retrieval of a single entity
func (c *BaseController[T]) Get(ctx echo.Context) error {
	id := ctx.Param(c.idParam)
	if id == "" {
		return apperr.Validation("missing id parameter", nil)
	}
	entity, err := c.service.Get(ctx.Request().Context(), id, c.parseIncludes(ctx)...)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entity)
}

// List handles retrieval of multiple entities with pagination and filtering
func (c *BaseController[T]) List(ctx echo.Context) error {
	page, _ := strconv.Atoi(ctx.QueryParam("page"))
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	filters := make(map[string]any)
	for param, column := range c.filterable {
		if v := ctx.QueryParam(param); v != "" {
			filters[column] = v
		}
	}
	// Scope filters win over query filters.
	if c.scope != nil {
		for column, v := range c.scope(ctx) {
			filters[column] = v
		}
	}

	entities, total, err := c.service.List(ctx.Request().Context(), services.ListOptions{
		Page:     page,
		Limit:    limit,
		Filters:  filters,
		Includes: c.parseIncludes(ctx),
	})
	if err != nil {
		return apperr.Internal(err)
	}
	if entities == nil {
		entities = []T{}
	}

	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"data":  entities,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}
