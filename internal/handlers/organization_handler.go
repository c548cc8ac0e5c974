package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"launchkit/internal/actions"
	"launchkit/internal/api/middleware"
	"launchkit/internal/apperr"
	"launchkit/internal/audit"
	"launchkit/internal/models"
)

type OrganizationHandler struct {
	orgs      OrganizationActions
	prefs     PreferenceActions
	reader    ActivityReader
	billing   BillingPortal
	publicURL string
}

func NewOrganizationHandler(orgs OrganizationActions, prefs PreferenceActions, reader ActivityReader, billing BillingPortal, publicURL string) *OrganizationHandler {
	return &OrganizationHandler{
		orgs:      orgs,
		prefs:     prefs,
		reader:    reader,
		billing:   billing,
		publicURL: publicURL,
	}
}

// Create
// @Summary Create an organization
// @Tags organizations
// @Accept json
// @Produce json
// @Param request body actions.CreateOrganizationInput true "Organization"
// @Success 201 {object} models.Organization
// @Failure 400 {object} ErrorResponse
// @Router /api/organizations [post]
func (h *OrganizationHandler) Create(c echo.Context) error {
	var in actions.CreateOrganizationInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body", err)
	}
	org, err := h.orgs.CreateOrganization(c.Request().Context(), c.Request(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, org)
}

// Update
// @Summary Update an organization
// @Tags organizations
// @Accept json
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param request body actions.UpdateOrganizationInput true "Changes"
// @Success 200 {object} models.Organization
// @Router /api/organizations/{orgId} [patch]
func (h *OrganizationHandler) Update(c echo.Context) error {
	var in actions.UpdateOrganizationInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body", err)
	}
	in.OrganizationID = c.Param("orgId")
	org, err := h.orgs.UpdateOrganization(c.Request().Context(), c.Request(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, org)
}

// Delete
// @Summary Delete an organization
// @Tags organizations
// @Param orgId path string true "Organization ID"
// @Success 204
// @Router /api/organizations/{orgId} [delete]
func (h *OrganizationHandler) Delete(c echo.Context) error {
	if err := h.orgs.DeleteOrganization(c.Request().Context(), c.Request(), c.Param("orgId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Invite
// @Summary Invite a member
// @Tags organizations
// @Accept json
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param request body actions.InviteMemberInput true "Invitation"
// @Success 201 {object} models.Invitation
// @Router /api/organizations/{orgId}/invitations [post]
func (h *OrganizationHandler) Invite(c echo.Context) error {
	var in actions.InviteMemberInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body", err)
	}
	in.OrganizationID = c.Param("orgId")
	inv, err := h.orgs.InviteMember(c.Request().Context(), c.Request(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, inv)
}

// RemoveMember
// @Summary Remove a member
// @Tags organizations
// @Param orgId path string true "Organization ID"
// @Param memberId path string true "Member ID"
// @Success 204
// @Router /api/organizations/{orgId}/members/{memberId} [delete]
func (h *OrganizationHandler) RemoveMember(c echo.Context) error {
	err := h.orgs.RemoveMember(c.Request().Context(), c.Request(), actions.RemoveMemberInput{
		OrganizationID: c.Param("orgId"),
		MemberID:       c.Param("memberId"),
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateMemberRole
// @Summary Change a member's role
// @Tags organizations
// @Accept json
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param memberId path string true "Member ID"
// @Param request body actions.UpdateMemberRoleInput true "Role"
// @Success 200 {object} models.Member
// @Router /api/organizations/{orgId}/members/{memberId}/role [post]
func (h *OrganizationHandler) UpdateMemberRole(c echo.Context) error {
	var in actions.UpdateMemberRoleInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body", err)
	}
	in.OrganizationID = c.Param("orgId")
	in.MemberID = c.Param("memberId")
	member, err := h.orgs.UpdateMemberRole(c.Request().Context(), c.Request(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, member)
}

// Activity returns the recent audit entries of one organization. The route is
// guarded by admin:view_audit_logs within that organization.
// @Summary Organization activity
// @Tags organizations
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param limit query int false "Max entries" default(10)
// @Param offset query int false "Offset"
// @Success 200 {array} audit.Activity
// @Router /api/organizations/{orgId}/activity [get]
func (h *OrganizationHandler) Activity(c echo.Context) error {
	logs, err := h.reader.GetRecentActivity(c.Request().Context(), audit.Query{
		Filter: audit.Filter{
			EntityType: string(audit.EntityOrganization),
			EntityID:   c.Param("orgId"),
		},
		Limit:  queryInt(c, "limit", audit.DefaultLimit),
		Offset: queryInt(c, "offset", 0),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, logs)
}

type PortalRequest struct {
	ReturnURL string `json:"returnUrl"`
}

// BillingPortal opens a billing portal session for the organization's
// customer. The route is guarded by billing:manage.
// @Summary Open the billing portal
// @Tags organizations
// @Accept json
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param request body PortalRequest false "Return URL"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse "No billing customer"
// @Router /api/organizations/{orgId}/billing/portal [post]
func (h *OrganizationHandler) BillingPortal(c echo.Context) error {
	if h.billing == nil {
		return apperr.NotFound("billing is not configured")
	}
	var req PortalRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body", err)
	}
	if req.ReturnURL == "" {
		req.ReturnURL = h.publicURL + "/dashboard"
	}
	url, err := h.billing.CreatePortalSession(c.Request().Context(), c.Param("orgId"), req.ReturnURL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

// GetPreferences
// @Summary Organization preferences
// @Tags preferences
// @Produce json
// @Param orgId path string true "Organization ID"
// @Success 200 {object} map[string]string
// @Router /api/organizations/{orgId}/preferences [get]
func (h *OrganizationHandler) GetPreferences(c echo.Context) error {
	prefs, err := h.prefs.GetPreferences(c.Request().Context(), c.Request(), models.PreferenceScopeOrganization, c.Param("orgId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prefs)
}

// UpdatePreferences
// @Summary Replace organization preferences
// @Tags preferences
// @Accept json
// @Param orgId path string true "Organization ID"
// @Param request body map[string]string true "Values"
// @Success 204
// @Router /api/organizations/{orgId}/preferences [put]
func (h *OrganizationHandler) UpdatePreferences(c echo.Context) error {
	values := map[string]string{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &values); err != nil {
		return apperr.Validation("invalid request body", err)
	}
	err := h.prefs.UpdatePreferences(c.Request().Context(), c.Request(), models.PreferenceScopeOrganization, c.Param("orgId"), values)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// GetMyPreferences
// @Summary Preferences of the signed-in user
// @Tags preferences
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/me/preferences [get]
func (h *OrganizationHandler) GetMyPreferences(c echo.Context) error {
	prefs, err := h.prefs.GetPreferences(c.Request().Context(), c.Request(), models.PreferenceScopeUser, middleware.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prefs)
}

// UpdateMyPreferences
// @Summary Replace the signed-in user's preferences
// @Tags preferences
// @Accept json
// @Param request body map[string]string true "Values"
// @Success 204
// @Router /api/me/preferences [put]
func (h *OrganizationHandler) UpdateMyPreferences(c echo.Context) error {
	values := map[string]string{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &values); err != nil {
		return apperr.Validation("invalid request body", err)
	}
	err := h.prefs.UpdatePreferences(c.Request().Context(), c.Request(), models.PreferenceScopeUser, middleware.GetUserID(c), values)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
