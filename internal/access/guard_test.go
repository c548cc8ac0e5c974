package access

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchkit/internal/apperr"
	"launchkit/internal/audit"
	"launchkit/internal/authprovider"
	"launchkit/internal/models"
)

type stubSessions struct {
	session *authprovider.SessionData
	err     error
}

func (s stubSessions) GetSession(context.Context, http.Header) (*authprovider.SessionData, error) {
	return s.session, s.err
}

type stubMembers struct {
	member *models.Member
	err    error
	calls  int
}

func (s *stubMembers) GetMembership(_ context.Context, userID, orgID string) (*models.Member, error) {
	s.calls++
	return s.member, s.err
}

type recordingAudit struct {
	entries []audit.Params
	err     error
}

func (r *recordingAudit) CreateAuditLog(_ context.Context, p audit.Params) (*models.AuditLog, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.entries = append(r.entries, p)
	return &models.AuditLog{Action: string(p.Action)}, nil
}

func sessionFor(id string, role models.SystemRole) *authprovider.SessionData {
	return &authprovider.SessionData{User: models.User{Base: models.Base{ID: id}, Role: role}}
}

func member(role models.OrgRole) *models.Member {
	return &models.Member{OrganizationID: "org-1", UserID: "u1", Role: role}
}

func TestValidateRequestRequiresSession(t *testing.T) {
	for name, s := range map[string]stubSessions{
		"none":  {},
		"error": {err: errors.New("token parse failed")},
	} {
		t.Run(name, func(t *testing.T) {
			g := NewGuard(s, &stubMembers{}, &recordingAudit{}, nil)
			sd, err := g.ValidateRequest(context.Background(), httptest.NewRequest("GET", "/", nil))
			assert.Nil(t, sd)
			assert.ErrorIs(t, err, apperr.ErrUnauthorized)
		})
	}
}

func TestValidateRequestChecksOrganizationRole(t *testing.T) {
	tests := []struct {
		name    string
		member  *models.Member
		err     error
		perm    Permission
		wantErr *apperr.Error
	}{
		{"owner may delete", member(models.OrgRoleOwner), nil, PermOrganizationDelete, nil},
		{"admin may not delete", member(models.OrgRoleAdmin), nil, PermOrganizationDelete, apperr.ErrForbidden},
		{"member may not edit", member(models.OrgRoleMember), nil, PermOrganizationEdit, apperr.ErrForbidden},
		{"not a member", nil, nil, PermOrganizationView, apperr.ErrForbidden},
		{"unknown role", member("superuser"), nil, PermOrganizationView, apperr.ErrForbidden},
		{"lookup failure fails closed", nil, errors.New("db down"), PermOrganizationView, apperr.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGuard(stubSessions{session: sessionFor("u1", models.SystemRoleUser)}, &stubMembers{member: tt.member, err: tt.err}, nil, nil)
			sd, err := g.ValidateRequest(context.Background(), nil, WithPermission(tt.perm), WithOrganization("org-1"))
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, "u1", sd.User.ID)
				return
			}
			assert.Nil(t, sd)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateRequestAdminSkipsMembership(t *testing.T) {
	members := &stubMembers{err: errors.New("must not be called")}
	g := NewGuard(stubSessions{session: sessionFor("root", models.SystemRoleAdmin)}, members, nil, nil)

	sd, err := g.ValidateRequest(context.Background(), nil, WithPermission(PermOrganizationDelete), WithOrganization("org-9"))
	require.NoError(t, err)
	assert.Equal(t, "root", sd.User.ID)
	assert.Zero(t, members.calls)
}

func TestValidateRequestWithoutOrganizationOnlyNeedsSession(t *testing.T) {
	members := &stubMembers{}
	g := NewGuard(stubSessions{session: sessionFor("u1", models.SystemRoleUser)}, members, nil, nil)

	sd, err := g.ValidateRequest(context.Background(), nil, WithPermission(PermOrganizationEdit))
	require.NoError(t, err)
	assert.NotNil(t, sd)
	assert.Zero(t, members.calls)
}

func TestGuardAdminRouteAuditsEveryAttempt(t *testing.T) {
	tests := []struct {
		name     string
		sessions stubSessions
		wantErr  *apperr.Error
		entityID string
		reason   string
	}{
		{"admin", stubSessions{session: sessionFor("root", models.SystemRoleAdmin)}, nil, "root", ""},
		{"regular user", stubSessions{session: sessionFor("u1", models.SystemRoleUser)}, apperr.ErrForbidden, "u1", ReasonInsufficientPermissions},
		{"moderator", stubSessions{session: sessionFor("m1", models.SystemRoleModerator)}, apperr.ErrForbidden, "m1", ReasonInsufficientPermissions},
		{"anonymous", stubSessions{}, apperr.ErrUnauthorized, audit.EntityIDAnonymous, ReasonInvalidSession},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingAudit{}
			g := NewGuard(tt.sessions, &stubMembers{}, rec, nil)

			sd, err := g.GuardAdminRoute(context.Background(), httptest.NewRequest("GET", "/api/admin/stats", nil))
			require.Len(t, rec.entries, 1)
			entry := rec.entries[0]
			assert.Equal(t, audit.ActionAdminAccess, entry.Action)
			assert.Equal(t, audit.EntityAdmin, entry.EntityType)
			assert.Equal(t, tt.entityID, entry.EntityID)
			assert.Equal(t, "/api/admin/stats", entry.Metadata["path"])

			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.NotNil(t, sd)
				assert.Equal(t, true, entry.Metadata["success"])
				assert.NotContains(t, entry.Metadata, "reason")
				return
			}
			assert.Nil(t, sd)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, false, entry.Metadata["success"])
			assert.Equal(t, tt.reason, entry.Metadata["reason"])
		})
	}
}

func TestGuardAdminRoutePropagatesAuditFailure(t *testing.T) {
	cause := errors.New("insert failed")
	g := NewGuard(stubSessions{session: sessionFor("root", models.SystemRoleAdmin)}, &stubMembers{}, &recordingAudit{err: cause}, nil)

	sd, err := g.GuardAdminRoute(context.Background(), httptest.NewRequest("GET", "/admin/panel", nil))
	assert.Nil(t, sd)
	assert.ErrorIs(t, err, cause)
}
