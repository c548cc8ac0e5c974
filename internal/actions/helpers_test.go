package actions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"launchkit/internal/access"
	"launchkit/internal/audit"
	"launchkit/internal/authprovider"
	"launchkit/internal/email"
	"launchkit/internal/events"
	"launchkit/internal/models"
)

type memAudit struct {
	mu        sync.Mutex
	entries   []models.AuditLog
	insertErr error
}

func (m *memAudit) WithTx(*gorm.DB) audit.Repository { return m }

func (m *memAudit) Insert(_ context.Context, e *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memAudit) Get(context.Context, string) (*models.AuditLog, error) { return nil, nil }

func (m *memAudit) Recent(context.Context, audit.Query) ([]audit.Activity, error) { return nil, nil }

func (m *memAudit) Count(context.Context, audit.Filter) (int64, error) {
	return int64(len(m.entries)), nil
}

func (m *memAudit) Each(context.Context, audit.Filter, int, func([]models.AuditLog) error) error {
	return nil
}

func metadata(t *testing.T, e models.AuditLog) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(e.Metadata, &out))
	return out
}

type stubSessions struct {
	session *authprovider.SessionData
}

func (s stubSessions) GetSession(context.Context, http.Header) (*authprovider.SessionData, error) {
	return s.session, nil
}

type stubMembers struct {
	member *models.Member
}

func (s stubMembers) GetMembership(context.Context, string, string) (*models.Member, error) {
	return s.member, nil
}

func sessionFor(id string, role models.SystemRole) *authprovider.SessionData {
	return &authprovider.SessionData{User: models.User{Base: models.Base{ID: id}, Name: "Grace", Role: role}}
}

func guardFor(sd *authprovider.SessionData, member *models.Member) *access.Guard {
	return access.NewGuard(stubSessions{session: sd}, stubMembers{member: member}, nil, nil)
}

type stubAdmin struct {
	user  *models.User
	err   *authprovider.ProviderError
	calls int
	ban   authprovider.BanUserRequest
}

func (s *stubAdmin) respond() authprovider.Response[models.User] {
	s.calls++
	if s.err != nil {
		return authprovider.ProviderResponse[models.User]{Error: s.err}
	}
	return authprovider.ProviderResponse[models.User]{Data: s.user}
}

func (s *stubAdmin) CreateUser(context.Context, authprovider.CreateUserRequest) authprovider.Response[models.User] {
	return s.respond()
}

func (s *stubAdmin) BanUser(_ context.Context, req authprovider.BanUserRequest) authprovider.Response[models.User] {
	s.ban = req
	return s.respond()
}

func (s *stubAdmin) UnbanUser(context.Context, string) authprovider.Response[models.User] {
	return s.respond()
}

func (s *stubAdmin) SetRole(context.Context, string, models.SystemRole) authprovider.Response[models.User] {
	return s.respond()
}

func (s *stubAdmin) ListUsers(context.Context, authprovider.ListUsersQuery) authprovider.Response[authprovider.UserList] {
	s.calls++
	return authprovider.ProviderResponse[authprovider.UserList]{Data: &authprovider.UserList{Users: []models.User{}}}
}

type stubUsers map[string]*models.User

func (s stubUsers) FindUserByID(_ context.Context, id string) (*models.User, error) {
	return s[id], nil
}

type recordingMailer struct {
	sent []string
}

func (m *recordingMailer) EnqueueEmail(_ context.Context, msg email.Message) error {
	m.sent = append(m.sent, msg.To)
	return nil
}

func newWriter(repo audit.Repository) *audit.Writer {
	return audit.NewWriter(repo, audit.WithEventBus(events.NewEventBus()))
}

func request() *http.Request {
	r := httptest.NewRequest("POST", "/api/admin/users", nil)
	r.Header.Set("User-Agent", "test")
	return r
}
