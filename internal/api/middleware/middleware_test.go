package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchkit/internal/access"
	"launchkit/internal/apperr"
	"launchkit/internal/authprovider"
	"launchkit/internal/models"
)

type stubGuard struct {
	session  *authprovider.SessionData
	err      error
	gotOpts  int
	adminHit int
}

func (g *stubGuard) ValidateRequest(_ context.Context, _ *http.Request, opts ...access.Requirement) (*authprovider.SessionData, error) {
	g.gotOpts = len(opts)
	return g.session, g.err
}

func (g *stubGuard) GuardAdminRoute(context.Context, *http.Request) (*authprovider.SessionData, error) {
	g.adminHit++
	return g.session, g.err
}

func admin() *authprovider.SessionData {
	sd := &authprovider.SessionData{}
	sd.User.ID = "u-admin"
	sd.User.Role = models.SystemRoleAdmin
	return sd
}

func serve(t *testing.T, mw echo.MiddlewareFunc, accept string) (*httptest.ResponseRecorder, echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if accept != "" {
		req.Header.Set(echo.HeaderAccept, accept)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("orgId")
	c.SetParamValues("org-1")
	err := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, GetUserID(c))
	})(c)
	return rec, c, err
}

func TestRequireSessionStoresSession(t *testing.T) {
	m := NewAuthMiddleware(&stubGuard{session: admin()})

	rec, c, err := serve(t, m.RequireSession(), "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-admin", rec.Body.String())
	assert.NotNil(t, GetSession(c))
}

func TestRequireSessionPropagatesError(t *testing.T) {
	m := NewAuthMiddleware(&stubGuard{err: apperr.Unauthorized("")})

	_, c, err := serve(t, m.RequireSession(), "")
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
	assert.Nil(t, GetSession(c))
}

func TestRequirePermissionPassesOrganization(t *testing.T) {
	g := &stubGuard{session: admin()}
	m := NewAuthMiddleware(g)

	_, _, err := serve(t, m.RequirePermission(access.PermMemberInvite, "orgId"), "")
	require.NoError(t, err)
	assert.Equal(t, 2, g.gotOpts)
}

func TestRequirePermissionMissingParam(t *testing.T) {
	m := NewAuthMiddleware(&stubGuard{session: admin()})

	_, _, err := serve(t, m.RequirePermission(access.PermMemberInvite, "missing"), "")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestAdminRouteRedirectsBrowsers(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		location string
	}{
		{"signed out", apperr.Unauthorized(""), "/login"},
		{"not admin", apperr.Forbidden(""), "/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewAuthMiddleware(&stubGuard{err: tt.err})

			rec, _, err := serve(t, m.AdminRoute(), "text/html,application/xhtml+xml")
			require.NoError(t, err)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get(echo.HeaderLocation))
		})
	}
}

func TestAdminRouteJSONCallersGetError(t *testing.T) {
	m := NewAuthMiddleware(&stubGuard{err: apperr.Forbidden("")})

	_, _, err := serve(t, m.AdminRoute(), echo.MIMEApplicationJSON)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestAdminAPIUsesAdminGuard(t *testing.T) {
	g := &stubGuard{session: admin()}
	m := NewAuthMiddleware(g)

	rec, _, err := serve(t, m.AdminAPI(), "text/html")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, g.adminHit)

	g.session, g.err = nil, apperr.Unauthorized("")
	_, _, err = serve(t, m.AdminAPI(), "text/html")
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}
