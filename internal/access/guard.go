package access

import (
	"context"
	"net/http"

	"launchkit/internal/apperr"
	"launchkit/internal/audit"
	"launchkit/internal/authprovider"
	"launchkit/internal/metrics"
	"launchkit/internal/models"
	"launchkit/internal/utils/logger"
)

var log = logger.New("GUARD")

// SessionResolver resolves the session carried by request headers. It returns
// nil, nil when there is none.
type SessionResolver interface {
	GetSession(ctx context.Context, headers http.Header) (*authprovider.SessionData, error)
}

// MemberLookup returns the membership of a user in an organization, or nil, nil.
type MemberLookup interface {
	GetMembership(ctx context.Context, userID, orgID string) (*models.Member, error)
}

type AuditWriter interface {
	CreateAuditLog(ctx context.Context, p audit.Params) (*models.AuditLog, error)
}

// Reasons recorded on denied admin access.
const (
	ReasonInvalidSession          = "invalid_session"
	ReasonInsufficientPermissions = "insufficient_permissions"
)

type requirements struct {
	permission Permission
	orgID      string
}

type Requirement func(*requirements)

func WithPermission(p Permission) Requirement {
	return func(r *requirements) { r.permission = p }
}

func WithOrganization(orgID string) Requirement {
	return func(r *requirements) { r.orgID = orgID }
}

type Guard struct {
	sessions SessionResolver
	members  MemberLookup
	audit    AuditWriter
	metrics  *metrics.Metrics
}

func NewGuard(sessions SessionResolver, members MemberLookup, auditWriter AuditWriter, m *metrics.Metrics) *Guard {
	return &Guard{sessions: sessions, members: members, audit: auditWriter, metrics: m}
}

func (g *Guard) session(ctx context.Context, r *http.Request) (*authprovider.SessionData, error) {
	var headers http.Header
	if r != nil {
		headers = r.Header
	}
	sd, err := g.sessions.GetSession(ctx, headers)
	if err != nil || sd == nil {
		return nil, apperr.Unauthorized("")
	}
	return sd, nil
}

// ValidateRequest resolves the caller's session and, when both a permission and
// an organization are required, checks the caller's role in that organization.
// System admins pass every check.
func (g *Guard) ValidateRequest(ctx context.Context, r *http.Request, opts ...Requirement) (*authprovider.SessionData, error) {
	var req requirements
	for _, opt := range opts {
		opt(&req)
	}

	sd, err := g.session(ctx, r)
	if err != nil {
		g.metrics.AuthzDecision(false)
		return nil, err
	}
	if sd.User.Role == models.SystemRoleAdmin {
		g.metrics.AuthzDecision(true)
		return sd, nil
	}
	if req.permission == "" || req.orgID == "" {
		g.metrics.AuthzDecision(true)
		return sd, nil
	}

	member, err := g.members.GetMembership(ctx, sd.User.ID, req.orgID)
	if err != nil {
		// Callers only ever see Unauthorized or Forbidden.
		_ = log.Error("membership lookup failed for user %s in organization %s", err, sd.User.ID, req.orgID)
		g.metrics.AuthzDecision(false)
		return nil, apperr.Forbidden("")
	}
	if member == nil || !HasPermission(member.Role, req.permission) {
		g.metrics.AuthzDecision(false)
		return nil, apperr.Forbidden("")
	}
	g.metrics.AuthzDecision(true)
	return sd, nil
}

// GuardAdminRoute admits only system admins and records every attempt, allowed
// or not, as one admin.access entry.
func (g *Guard) GuardAdminRoute(ctx context.Context, r *http.Request) (*authprovider.SessionData, error) {
	path := ""
	if r != nil {
		ctx = audit.WithRequest(ctx, r)
		path = r.URL.Path
	}

	sd, denied := g.session(ctx, r)
	entityID := audit.EntityIDAnonymous
	reason := ReasonInvalidSession
	if denied == nil {
		entityID = sd.User.ID
		if sd.User.Role != models.SystemRoleAdmin {
			denied = apperr.Forbidden("")
			reason = ReasonInsufficientPermissions
		}
	}

	meta := map[string]any{"success": denied == nil, "path": path}
	if denied != nil {
		meta["reason"] = reason
	}
	if _, err := g.audit.CreateAuditLog(ctx, audit.Params{
		Action:     audit.ActionAdminAccess,
		EntityType: audit.EntityAdmin,
		EntityID:   entityID,
		ActorID:    entityID,
		Metadata:   meta,
	}); err != nil {
		return nil, err
	}

	g.metrics.AuthzDecision(denied == nil)
	if denied != nil {
		return nil, denied
	}
	return sd, nil
}
