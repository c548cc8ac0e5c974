package handlers

import (
	"context"
	"net/http"
	"time"

	"launchkit/internal/actions"
	"launchkit/internal/audit"
	"launchkit/internal/authprovider"
	"launchkit/internal/models"
	"launchkit/internal/stats"
	"launchkit/internal/tasks"
)

// SessionService is the sign-in surface of the authentication provider.
type SessionService interface {
	GetSession(ctx context.Context, headers http.Header) (*authprovider.SessionData, error)
	SignInWithPassword(ctx context.Context, email, password string, meta authprovider.RequestMeta) (*authprovider.SignInResult, error)
	SignOut(ctx context.Context, headers http.Header) error
	RequestMagicLink(ctx context.Context, email, callbackURL string) error
	VerifyMagicLink(ctx context.Context, token string, meta authprovider.RequestMeta) (*authprovider.SignInResult, error)
}

// UserActions are the audited admin operations on users.
type UserActions interface {
	CreateUser(ctx context.Context, r *http.Request, in actions.CreateUserInput) (*models.User, error)
	BanUser(ctx context.Context, r *http.Request, in actions.BanUserInput) (*models.User, error)
	UnbanUser(ctx context.Context, r *http.Request, userID string) (*models.User, error)
	SetUserRole(ctx context.Context, r *http.Request, in actions.SetRoleInput) (*models.User, error)
	ListUsers(ctx context.Context, r *http.Request, q authprovider.ListUsersQuery) (*authprovider.UserList, error)
}

// OrganizationActions are the audited organization operations.
type OrganizationActions interface {
	CreateOrganization(ctx context.Context, r *http.Request, in actions.CreateOrganizationInput) (*models.Organization, error)
	UpdateOrganization(ctx context.Context, r *http.Request, in actions.UpdateOrganizationInput) (*models.Organization, error)
	DeleteOrganization(ctx context.Context, r *http.Request, orgID string) error
	InviteMember(ctx context.Context, r *http.Request, in actions.InviteMemberInput) (*models.Invitation, error)
	RemoveMember(ctx context.Context, r *http.Request, in actions.RemoveMemberInput) error
	UpdateMemberRole(ctx context.Context, r *http.Request, in actions.UpdateMemberRoleInput) (*models.Member, error)
}

type PreferenceActions interface {
	GetPreferences(ctx context.Context, r *http.Request, scope models.PreferenceScope, ownerID string) (map[string]string, error)
	UpdatePreferences(ctx context.Context, r *http.Request, scope models.PreferenceScope, ownerID string, values map[string]string) error
}

// ActivityReader serves audit entries. *audit.Reader implements it.
type ActivityReader interface {
	GetRecentActivity(ctx context.Context, q audit.Query) ([]audit.Activity, error)
	ListPage(ctx context.Context, page, limit int, f audit.Filter) (*audit.PageResult, error)
	Get(ctx context.Context, id string) (*audit.Activity, error)
}

type StatsReader interface {
	Get(ctx context.Context) (*stats.Snapshot, error)
}

// ExportQueue schedules audit exports. *tasks.TaskClient implements it.
type ExportQueue interface {
	EnqueueAuditExport(ctx context.Context, p tasks.AuditExportPayload) (string, error)
}

// SignedURLs issues download links for stored objects.
type SignedURLs interface {
	GetSignedURL(ctx context.Context, key string, duration time.Duration) (string, error)
}

type BillingPortal interface {
	CreatePortalSession(ctx context.Context, orgID, returnURL string) (string, error)
}
