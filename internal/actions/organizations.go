package actions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"gorm.io/gorm"

	"launchkit/internal/access"
	"launchkit/internal/apperr"
	"launchkit/internal/audit"
	"launchkit/internal/email"
	"launchkit/internal/models"
)

type CreateOrganizationInput struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
	Slug string `json:"slug" validate:"required,slug,max=64"`
	Logo string `json:"logo,omitempty" validate:"omitempty,url"`
}

// UpdateOrganizationInput changes the non-empty fields.
type UpdateOrganizationInput struct {
	OrganizationID string `json:"-" validate:"required"`
	Name           string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Slug           string `json:"slug,omitempty" validate:"omitempty,slug,max=64"`
	Logo           string `json:"logo,omitempty" validate:"omitempty,url"`
}

type InviteMemberInput struct {
	OrganizationID string         `json:"-" validate:"required"`
	Email          string         `json:"email" validate:"required,email"`
	Role           models.OrgRole `json:"role" validate:"required,oneof=admin member guest"`
}

type RemoveMemberInput struct {
	OrganizationID string `json:"-" validate:"required"`
	MemberID       string `json:"memberId" validate:"required"`
}

type UpdateMemberRoleInput struct {
	OrganizationID string         `json:"-" validate:"required"`
	MemberID       string         `json:"memberId" validate:"required"`
	Role           models.OrgRole `json:"role" validate:"required,org_role"`
}

func (a *Actions) authorizeOrg(ctx context.Context, r *http.Request, orgID string, p access.Permission) (string, error) {
	sd, err := a.guard.ValidateRequest(ctx, r, access.WithPermission(p), access.WithOrganization(orgID))
	if err != nil {
		return "", err
	}
	return sd.User.ID, nil
}

func (a *Actions) slugTaken(ctx context.Context, slug string) (bool, error) {
	_, err := models.GetOrganizationBySlug(slug, a.db.WithContext(ctx))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Internal(fmt.Errorf("find organization: %w", err))
	}
	return true, nil
}

// CreateOrganization creates the organization with the caller as its owner.
// The organization, the owner membership and the audit entry commit together.
func (a *Actions) CreateOrganization(ctx context.Context, r *http.Request, in CreateOrganizationInput) (*models.Organization, error) {
	sd, err := a.guard.ValidateRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := a.check(in); err != nil {
		return nil, err
	}
	taken, err := a.slugTaken(ctx, in.Slug)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Validation("organization slug is already taken", nil)
	}
	ctx = audit.WithRequest(ctx, r)

	org := &models.Organization{Name: in.Name, Slug: in.Slug, Logo: in.Logo}
	meta := map[string]any{"name": in.Name, "slug": in.Slug}
	err = a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := a.orgs.WithTx(tx).Create(ctx, org); err != nil {
			return fmt.Errorf("create organization: %w", err)
		}
		owner := &models.Member{OrganizationID: org.ID, UserID: sd.User.ID, Role: models.OrgRoleOwner}
		if err := a.members.WithTx(tx).AddMember(ctx, owner); err != nil {
			return fmt.Errorf("add owner: %w", err)
		}
		return record(ctx, a.audit.WithTx(tx), audit.Params{
			Action:     audit.ActionOrganizationCreate,
			EntityType: audit.EntityOrganization,
			EntityID:   org.ID,
			ActorID:    sd.User.ID,
			Metadata:   meta,
		}, nil)
	})
	if err != nil {
		return nil, a.failed(ctx, audit.Params{
			Action:     audit.ActionOrganizationCreate,
			EntityType: audit.EntityOrganization,
			EntityID:   audit.EntityIDFailedCreation,
			ActorID:    sd.User.ID,
			Metadata:   meta,
		}, err)
	}
	return org, nil
}

// failed records a rolled back transactional action outside the transaction.
func (a *Actions) failed(ctx context.Context, p audit.Params, err error) error {
	a.log.Warn("%s failed: %v", p.Action, err)
	return record(ctx, a.audit, p, apperr.As(err))
}

func (a *Actions) UpdateOrganization(ctx context.Context, r *http.Request, in UpdateOrganizationInput) (*models.Organization, error) {
	actorID, err := a.authorizeOrg(ctx, r, in.OrganizationID, access.PermOrganizationEdit)
	if err != nil {
		return nil, err
	}
	if err := a.check(in); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != "" {
		updates["name"] = in.Name
	}
	if in.Slug != "" {
		current, err := a.orgs.Get(ctx, in.OrganizationID)
		if err != nil {
			return nil, err
		}
		if current.Slug != in.Slug {
			taken, err := a.slugTaken(ctx, in.Slug)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, apperr.Validation("organization slug is already taken", nil)
			}
			updates["slug"] = in.Slug
		}
	}
	if in.Logo != "" {
		updates["logo"] = in.Logo
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("nothing to update", nil)
	}
	changed := make([]string, 0, len(updates))
	for k := range updates {
		changed = append(changed, k)
	}
	sort.Strings(changed)
	ctx = audit.WithRequest(ctx, r)

	org, opErr := a.orgs.Update(ctx, in.OrganizationID, updates)
	err = record(ctx, a.audit, audit.Params{
		Action:     audit.ActionOrganizationUpdate,
		EntityType: audit.EntityOrganization,
		EntityID:   in.OrganizationID,
		ActorID:    actorID,
		Metadata:   map[string]any{"changes": updates, "fields": changed},
	}, opErr)
	if err != nil {
		return nil, err
	}
	return org, nil
}

// DeleteOrganization removes the organization; memberships and invitations
// cascade. The delete and its audit entry commit together.
func (a *Actions) DeleteOrganization(ctx context.Context, r *http.Request, orgID string) error {
	actorID, err := a.authorizeOrg(ctx, r, orgID, access.PermOrganizationDelete)
	if err != nil {
		return err
	}
	org, err := a.orgs.Get(ctx, orgID)
	if err != nil {
		return err
	}
	ctx = audit.WithRequest(ctx, r)

	p := audit.Params{
		Action:     audit.ActionOrganizationDelete,
		EntityType: audit.EntityOrganization,
		EntityID:   orgID,
		ActorID:    actorID,
		Metadata:   map[string]any{"name": org.Name, "slug": org.Slug},
	}
	err = a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := a.orgs.WithTx(tx).Delete(ctx, orgID); err != nil {
			return err
		}
		return record(ctx, a.audit.WithTx(tx), p, nil)
	})
	if err != nil {
		p.Metadata = map[string]any{"name": org.Name, "slug": org.Slug}
		return a.failed(ctx, p, err)
	}
	return nil
}

// InviteMember stores a pending invitation and queues the invitation email.
func (a *Actions) InviteMember(ctx context.Context, r *http.Request, in InviteMemberInput) (*models.Invitation, error) {
	if err := a.check(in); err != nil {
		return nil, err
	}
	sd, err := a.guard.ValidateRequest(ctx, r, access.WithPermission(access.PermMemberInvite), access.WithOrganization(in.OrganizationID))
	if err != nil {
		return nil, err
	}
	org, err := a.orgs.Get(ctx, in.OrganizationID)
	if err != nil {
		return nil, err
	}
	ctx = audit.WithRequest(ctx, r)

	inv := &models.Invitation{
		OrganizationID: org.ID,
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		Role:           in.Role,
		Status:         models.InvitationStatusPending,
		InviterID:      sd.User.ID,
		ExpiresAt:      a.now().Add(a.invitationTTL),
	}
	opErr := a.invite(ctx, org, sd.User.Name, inv)

	entityID := audit.EntityIDFailedCreation
	if opErr == nil {
		entityID = inv.ID
	}
	err = record(ctx, a.audit, audit.Params{
		Action:     audit.ActionMemberInvite,
		EntityType: audit.EntityMember,
		EntityID:   entityID,
		ActorID:    sd.User.ID,
		Metadata:   map[string]any{"organizationId": org.ID, "email": inv.Email, "role": string(in.Role)},
	}, opErr)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (a *Actions) invite(ctx context.Context, org *models.Organization, inviter string, inv *models.Invitation) error {
	if err := a.db.WithContext(ctx).Create(inv).Error; err != nil {
		return apperr.Internal(fmt.Errorf("create invitation: %w", err))
	}
	url := fmt.Sprintf("%s/accept-invitation/%s", strings.TrimRight(a.publicURL, "/"), inv.ID)
	msg, err := email.Invitation(inv.Email, org.Name, inviter, string(inv.Role), url)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := a.mailer.EnqueueEmail(ctx, msg); err != nil {
		return apperr.Internal(fmt.Errorf("queue invitation email: %w", err))
	}
	return nil
}

// lastOwner reports whether member is the only owner of its organization.
func (a *Actions) lastOwner(ctx context.Context, member *models.Member) (bool, error) {
	if member.Role != models.OrgRoleOwner {
		return false, nil
	}
	n, err := a.members.CountOwners(ctx, member.OrganizationID)
	if err != nil {
		return false, apperr.Internal(fmt.Errorf("count owners: %w", err))
	}
	return n <= 1, nil
}

func (a *Actions) findMember(ctx context.Context, orgID, memberID string) (*models.Member, error) {
	member, err := a.members.GetByID(ctx, orgID, memberID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("find member: %w", err))
	}
	if member == nil {
		return nil, apperr.NotFound("member not found")
	}
	return member, nil
}

func (a *Actions) RemoveMember(ctx context.Context, r *http.Request, in RemoveMemberInput) error {
	if err := a.check(in); err != nil {
		return err
	}
	actorID, err := a.authorizeOrg(ctx, r, in.OrganizationID, access.PermMemberRemove)
	if err != nil {
		return err
	}
	member, err := a.findMember(ctx, in.OrganizationID, in.MemberID)
	if err != nil {
		return err
	}
	last, err := a.lastOwner(ctx, member)
	if err != nil {
		return err
	}
	if last {
		return apperr.Validation("the last owner cannot be removed", nil)
	}
	ctx = audit.WithRequest(ctx, r)

	var opErr error
	if err := a.members.Remove(ctx, member.ID); err != nil {
		opErr = apperr.Internal(fmt.Errorf("remove member: %w", err))
	}
	return record(ctx, a.audit, audit.Params{
		Action:     audit.ActionMemberRemove,
		EntityType: audit.EntityMember,
		EntityID:   member.ID,
		ActorID:    actorID,
		Metadata:   map[string]any{"organizationId": in.OrganizationID, "userId": member.UserID, "role": string(member.Role)},
	}, opErr)
}

// UpdateMemberRole changes a member's role. The last owner keeps the owner role.
func (a *Actions) UpdateMemberRole(ctx context.Context, r *http.Request, in UpdateMemberRoleInput) (*models.Member, error) {
	if err := a.check(in); err != nil {
		return nil, err
	}
	actorID, err := a.authorizeOrg(ctx, r, in.OrganizationID, access.PermMemberEditRole)
	if err != nil {
		return nil, err
	}
	member, err := a.findMember(ctx, in.OrganizationID, in.MemberID)
	if err != nil {
		return nil, err
	}
	if member.Role == in.Role {
		return member, nil
	}
	last, err := a.lastOwner(ctx, member)
	if err != nil {
		return nil, err
	}
	if last {
		return nil, apperr.Validation("the last owner cannot lose the owner role", nil)
	}
	ctx = audit.WithRequest(ctx, r)

	oldRole := member.Role
	var opErr error
	if err := a.members.UpdateRole(ctx, member.ID, in.Role); err != nil {
		opErr = apperr.Internal(fmt.Errorf("update member role: %w", err))
	}
	err = record(ctx, a.audit, audit.Params{
		Action:     audit.ActionMemberUpdateRole,
		EntityType: audit.EntityMember,
		EntityID:   member.ID,
		ActorID:    actorID,
		Metadata:   map[string]any{"organizationId": in.OrganizationID, "oldRole": string(oldRole), "newRole": string(in.Role)},
	}, opErr)
	if err != nil {
		return nil, err
	}
	member.Role = in.Role
	return member, nil
}
