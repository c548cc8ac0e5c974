package actions

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"launchkit/internal/apperr"
	"launchkit/internal/audit"
	"launchkit/internal/authprovider"
	"launchkit/internal/models"
)

type CreateUserInput struct {
	Name     string            `json:"name" validate:"required,max=100"`
	Email    string            `json:"email" validate:"required,email"`
	Role     models.SystemRole `json:"role" validate:"required,system_role"`
	Password string            `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
}

type BanUserInput struct {
	UserID string `json:"userId" validate:"required"`
	Reason string `json:"reason,omitempty" validate:"max=500"`
	// ExpiresIn is the ban length in seconds; zero bans indefinitely.
	ExpiresIn int64 `json:"expiresIn,omitempty" validate:"gte=0"`
}

type SetRoleInput struct {
	UserID string            `json:"userId" validate:"required"`
	Role   models.SystemRole `json:"role" validate:"required,system_role"`
}

// CreateUser creates a user through the auth provider. A failed creation is
// recorded against the failed_creation sentinel.
func (a *Actions) CreateUser(ctx context.Context, r *http.Request, in CreateUserInput) (*models.User, error) {
	sd, err := a.guard.ValidateRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	ctx = audit.WithRequest(ctx, r)

	user, opErr := a.createUser(ctx, sd, in)

	entityID := audit.EntityIDFailedCreation
	if opErr == nil {
		entityID = user.ID
	}
	err = record(ctx, a.audit, audit.Params{
		Action:     audit.ActionUserCreate,
		EntityType: audit.EntityUser,
		EntityID:   entityID,
		ActorID:    sd.User.ID,
		Metadata:   map[string]any{"name": in.Name, "email": in.Email, "role": string(in.Role)},
	}, opErr)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *Actions) createUser(ctx context.Context, sd *authprovider.SessionData, in CreateUserInput) (*models.User, error) {
	if err := requireAdmin(sd); err != nil {
		return nil, err
	}
	if err := a.check(in); err != nil {
		return nil, err
	}
	return authprovider.Normalize(a.admin.CreateUser(ctx, authprovider.CreateUserRequest{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Role:     in.Role,
	})).Unwrap()
}

// BanUser bans a user and revokes their sessions.
func (a *Actions) BanUser(ctx context.Context, r *http.Request, in BanUserInput) (*models.User, error) {
	sd, err := a.guard.ValidateRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	ctx = audit.WithRequest(ctx, r)

	user, opErr := a.banUser(ctx, sd, in)

	meta := map[string]any{}
	if in.Reason != "" {
		meta["reason"] = in.Reason
	}
	if in.ExpiresIn > 0 {
		meta["expiresIn"] = in.ExpiresIn
	}
	err = record(ctx, a.audit, audit.Params{
		Action:     audit.ActionUserBan,
		EntityType: audit.EntityUser,
		EntityID:   targetID(in.UserID),
		ActorID:    sd.User.ID,
		Metadata:   meta,
	}, opErr)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *Actions) banUser(ctx context.Context, sd *authprovider.SessionData, in BanUserInput) (*models.User, error) {
	if err := requireAdmin(sd); err != nil {
		return nil, err
	}
	if err := a.check(in); err != nil {
		return nil, err
	}
	if in.UserID == sd.User.ID {
		return nil, apperr.Validation("you cannot ban yourself", nil)
	}
	return authprovider.Normalize(a.admin.BanUser(ctx, authprovider.BanUserRequest{
		UserID:    in.UserID,
		Reason:    in.Reason,
		ExpiresIn: time.Duration(in.ExpiresIn) * time.Second,
	})).Unwrap()
}

func (a *Actions) UnbanUser(ctx context.Context, r *http.Request, userID string) (*models.User, error) {
	sd, err := a.guard.ValidateRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	ctx = audit.WithRequest(ctx, r)

	user, opErr := a.unbanUser(ctx, sd, userID)
	err = record(ctx, a.audit, audit.Params{
		Action:     audit.ActionUserUnban,
		EntityType: audit.EntityUser,
		EntityID:   targetID(userID),
		ActorID:    sd.User.ID,
	}, opErr)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *Actions) unbanUser(ctx context.Context, sd *authprovider.SessionData, userID string) (*models.User, error) {
	if err := requireAdmin(sd); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, apperr.Validation("userId is required", nil)
	}
	return authprovider.Normalize(a.admin.UnbanUser(ctx, userID)).Unwrap()
}

// SetUserRole changes a user's system role. The entry records the requested
// role and, when the user exists, the previous one.
func (a *Actions) SetUserRole(ctx context.Context, r *http.Request, in SetRoleInput) (*models.User, error) {
	sd, err := a.guard.ValidateRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	ctx = audit.WithRequest(ctx, r)

	meta := map[string]any{"newRole": string(in.Role)}
	user, opErr := a.setUserRole(ctx, sd, in, meta)
	err = record(ctx, a.audit, audit.Params{
		Action:     audit.ActionUserSetRole,
		EntityType: audit.EntityUser,
		EntityID:   targetID(in.UserID),
		ActorID:    sd.User.ID,
		Metadata:   meta,
	}, opErr)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *Actions) setUserRole(ctx context.Context, sd *authprovider.SessionData, in SetRoleInput, meta map[string]any) (*models.User, error) {
	if err := requireAdmin(sd); err != nil {
		return nil, err
	}
	if err := a.check(in); err != nil {
		return nil, err
	}
	if in.UserID == sd.User.ID && in.Role != models.SystemRoleAdmin {
		return nil, apperr.Validation("you cannot remove your own admin role", nil)
	}

	current, err := a.users.FindUserByID(ctx, in.UserID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("find user: %w", err))
	}
	if current == nil {
		return nil, apperr.NotFound("user not found")
	}
	meta["oldRole"] = string(current.Role)

	return authprovider.Normalize(a.admin.SetRole(ctx, in.UserID, in.Role)).Unwrap()
}

// ListUsers is a read; it is not audited.
func (a *Actions) ListUsers(ctx context.Context, r *http.Request, q authprovider.ListUsersQuery) (*authprovider.UserList, error) {
	sd, err := a.guard.ValidateRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(sd); err != nil {
		return nil, err
	}
	return authprovider.Normalize(a.admin.ListUsers(ctx, q)).Unwrap()
}
