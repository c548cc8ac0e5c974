package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"launchkit/internal/apperr"
	"launchkit/internal/models"
	"launchkit/internal/services"
)

type stubService struct {
	services.BaseService[models.Member]
	got     services.ListOptions
	gotID   string
	gotIncl []string
}

func (s *stubService) Get(_ context.Context, id string, includes ...string) (*models.Member, error) {
	s.gotID = id
	s.gotIncl = includes
	if id == "missing" {
		return nil, apperr.NotFound("members not found")
	}
	return &models.Member{Role: models.OrgRoleAdmin}, nil
}

func (s *stubService) List(_ context.Context, opts services.ListOptions) ([]models.Member, int64, error) {
	s.got = opts
	return nil, 0, nil
}

func (s *stubService) WithTx(*gorm.DB) services.BaseService[models.Member] { return s }

func request(target string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(append(c.ParamNames(), params[i])...)
		c.SetParamValues(append(c.ParamValues(), params[i+1])...)
	}
	return c, rec
}

func TestListOnlyUsesAllowedFilters(t *testing.T) {
	svc := &stubService{}
	ctrl := NewBaseController[models.Member](svc,
		WithFilter[models.Member]("role", "role"),
		WithIncludes[models.Member]("User"),
		WithScope[models.Member](func(c echo.Context) map[string]any {
			return map[string]any{"organization_id": c.Param("orgId")}
		}),
	)

	c, rec := request("/?role=admin&organization_id=other&created_at=x&include=User,Secrets&limit=500", "orgId", "org-1")
	require.NoError(t, ctrl.List(c))

	assert.Equal(t, map[string]any{"role": "admin", "organization_id": "org-1"}, svc.got.Filters)
	assert.Equal(t, []string{"User"}, svc.got.Includes)
	assert.Equal(t, 1, svc.got.Page)
	assert.Equal(t, maxLimit, svc.got.Limit)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []any{}, body["data"])
}

func TestGetUsesConfiguredParam(t *testing.T) {
	svc := &stubService{}
	ctrl := NewBaseController[models.Member](svc, WithIDParam[models.Member]("memberId"))

	c, rec := request("/", "memberId", "m-1")
	require.NoError(t, ctrl.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "m-1", svc.gotID)

	c, _ = request("/", "memberId", "missing")
	assert.True(t, apperr.IsKind(ctrl.Get(c), apperr.KindNotFound))

	c, _ = request("/")
	assert.True(t, apperr.IsKind(ctrl.Get(c), apperr.KindValidation))
}
