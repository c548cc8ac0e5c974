package authprovider

import (
	"context"
	"fmt"
	"time"

	"launchkit/internal/apperr"
	"launchkit/internal/models"
)

// AdminAPI is the user administration surface. Provider serves it in-process
// and RemoteAdmin over HTTP.
type AdminAPI interface {
	CreateUser(ctx context.Context, req CreateUserRequest) Response[models.User]
	BanUser(ctx context.Context, req BanUserRequest) Response[models.User]
	UnbanUser(ctx context.Context, userID string) Response[models.User]
	SetRole(ctx context.Context, userID string, role models.SystemRole) Response[models.User]
	ListUsers(ctx context.Context, q ListUsersQuery) Response[UserList]
}

var (
	_ AdminAPI = (*Provider)(nil)
	_ AdminAPI = (*RemoteAdmin)(nil)
)

type CreateUserRequest struct {
	Name     string            `json:"name"`
	Email    string            `json:"email"`
	Password string            `json:"password,omitempty"`
	Role     models.SystemRole `json:"role"`
}

type BanUserRequest struct {
	UserID    string        `json:"userId"`
	Reason    string        `json:"reason,omitempty"`
	ExpiresIn time.Duration `json:"expiresIn,omitempty"`
}

type ListUsersQuery struct {
	Search string            `query:"search"`
	Role   models.SystemRole `query:"role"`
	Limit  int               `query:"limit"`
	Offset int               `query:"offset"`
}

type UserList struct {
	Users  []models.User `json:"users"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

func (p *Provider) CreateUser(ctx context.Context, req CreateUserRequest) Response[models.User] {
	v, err := p.createUser(ctx, req)
	return respond(v, err)
}

func (p *Provider) createUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if req.Role == "" {
		req.Role = models.SystemRoleUser
	}
	if !req.Role.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown role %q", req.Role), nil)
	}
	emailAddr := normalizeEmail(req.Email)
	existing, err := p.store.FindUserByEmail(ctx, emailAddr)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("find user: %w", err))
	}
	if existing != nil {
		return nil, apperr.Validation("a user with this email already exists", nil)
	}

	user := &models.User{Name: req.Name, Email: emailAddr, Role: req.Role}
	if req.Password != "" {
		hash, err := p.hashPassword(req.Password)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		user.PasswordHash = hash
	}
	if err := p.store.CreateUser(ctx, user); err != nil {
		return nil, apperr.Internal(fmt.Errorf("create user: %w", err))
	}
	p.log.Info("created user %s with role %s", user.ID, user.Role)
	return user, nil
}

func (p *Provider) findUser(ctx context.Context, id string) (*models.User, error) {
	user, err := p.store.FindUserByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	return user, nil
}

// BanUser marks the user banned and revokes every session they hold.
func (p *Provider) BanUser(ctx context.Context, req BanUserRequest) Response[models.User] {
	v, err := p.banUser(ctx, req)
	return respond(v, err)
}

func (p *Provider) banUser(ctx context.Context, req BanUserRequest) (*models.User, error) {
	user, err := p.findUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user.Role == models.SystemRoleAdmin {
		return nil, apperr.Forbidden("administrators cannot be banned")
	}

	user.Banned = true
	user.BanReason = nil
	if req.Reason != "" {
		reason := req.Reason
		user.BanReason = &reason
	}
	user.BanExpires = nil
	if req.ExpiresIn > 0 {
		expires := p.now().Add(req.ExpiresIn)
		user.BanExpires = &expires
	}
	if err := p.store.SaveUser(ctx, user); err != nil {
		return nil, apperr.Internal(fmt.Errorf("ban user: %w", err))
	}
	if err := p.store.DeleteUserSessions(ctx, user.ID); err != nil {
		return nil, apperr.Internal(fmt.Errorf("revoke sessions: %w", err))
	}
	return user, nil
}

func (p *Provider) UnbanUser(ctx context.Context, userID string) Response[models.User] {
	v, err := p.unbanUser(ctx, userID)
	return respond(v, err)
}

func (p *Provider) unbanUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := p.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Banned = false
	user.BanReason = nil
	user.BanExpires = nil
	if err := p.store.SaveUser(ctx, user); err != nil {
		return nil, apperr.Internal(fmt.Errorf("unban user: %w", err))
	}
	return user, nil
}

func (p *Provider) SetRole(ctx context.Context, userID string, role models.SystemRole) Response[models.User] {
	v, err := p.setRole(ctx, userID, role)
	return respond(v, err)
}

func (p *Provider) setRole(ctx context.Context, userID string, role models.SystemRole) (*models.User, error) {
	if !role.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown role %q", role), nil)
	}
	user, err := p.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := p.store.SaveUser(ctx, user); err != nil {
		return nil, apperr.Internal(fmt.Errorf("set role: %w", err))
	}
	return user, nil
}

func (p *Provider) ListUsers(ctx context.Context, q ListUsersQuery) Response[UserList] {
	v, err := p.listUsers(ctx, q)
	return respond(v, err)
}

func (p *Provider) listUsers(ctx context.Context, q ListUsersQuery) (*UserList, error) {
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Role != "" && !q.Role.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown role %q", q.Role), nil)
	}
	users, total, err := p.store.ListUsers(ctx, q)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list users: %w", err))
	}
	if users == nil {
		users = []models.User{}
	}
	return &UserList{Users: users, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}
