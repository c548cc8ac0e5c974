// Package billing opens Stripe billing portal sessions for organizations.
package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	portalsession "github.com/stripe/stripe-go/v76/billingportal/session"

	"launchkit/internal/apperr"
	"launchkit/internal/models"
	"launchkit/internal/utils/logger"
)

// PortalSessions creates billing portal sessions. *portalsession.Client implements it.
type PortalSessions interface {
	New(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error)
}

type OrganizationLookup interface {
	Get(ctx context.Context, id string, includes ...string) (*models.Organization, error)
}

type Service struct {
	orgs   OrganizationLookup
	portal PortalSessions
	logger *logger.Logger
}

// NewStripePortal returns a portal client bound to secretKey.
func NewStripePortal(secretKey string) *portalsession.Client {
	return &portalsession.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey}
}

func NewService(orgs OrganizationLookup, portal PortalSessions) *Service {
	return &Service{orgs: orgs, portal: portal, logger: logger.New("BILLING")}
}

// CreatePortalSession returns the portal URL for the organization's Stripe customer.
func (s *Service) CreatePortalSession(ctx context.Context, orgID, returnURL string) (string, error) {
	org, err := s.orgs.Get(ctx, orgID)
	if err != nil {
		return "", err
	}
	if org.StripeCustomerID == nil || *org.StripeCustomerID == "" {
		return "", apperr.NotFound("organization has no billing account")
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(*org.StripeCustomerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	session, err := s.portal.New(params)
	if err != nil {
		return "", apperr.Internal(s.logger.Error(fmt.Sprintf("Failed to create portal session for %s ❌", orgID), err))
	}
	return session.URL, nil
}
