// Package actions implements the server actions behind the admin panel and
// organization settings. Every admin action called with a session records
// exactly one audit entry describing the outcome, denials included.
package actions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"launchkit/internal/access"
	"launchkit/internal/api/validator"
	"launchkit/internal/apperr"
	"launchkit/internal/audit"
	"launchkit/internal/authprovider"
	"launchkit/internal/models"
	"launchkit/internal/services"
	"launchkit/internal/utils/logger"
)

// Guard authorizes a request. *access.Guard implements it.
type Guard interface {
	ValidateRequest(ctx context.Context, r *http.Request, opts ...access.Requirement) (*authprovider.SessionData, error)
}

type UserLookup interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

type Deps struct {
	DB            *gorm.DB
	Guard         Guard
	Admin         authprovider.AdminAPI
	Users         UserLookup
	Audit         *audit.Writer
	Mailer        authprovider.Mailer
	Validator     *validator.CustomValidator
	PublicURL     string
	InvitationTTL time.Duration
}

type Actions struct {
	db            *gorm.DB
	guard         Guard
	admin         authprovider.AdminAPI
	users         UserLookup
	audit         *audit.Writer
	mailer        authprovider.Mailer
	validate      *validator.CustomValidator
	orgs          services.BaseService[models.Organization]
	members       *services.MemberService
	publicURL     string
	invitationTTL time.Duration
	now           func() time.Time
	log           *logger.Logger
}

func New(d Deps) *Actions {
	if d.Validator == nil {
		d.Validator = validator.NewValidator()
	}
	if d.InvitationTTL <= 0 {
		d.InvitationTTL = 7 * 24 * time.Hour
	}
	a := &Actions{
		db:            d.DB,
		guard:         d.Guard,
		admin:         d.Admin,
		users:         d.Users,
		audit:         d.Audit,
		mailer:        d.Mailer,
		validate:      d.Validator,
		publicURL:     d.PublicURL,
		invitationTTL: d.InvitationTTL,
		now:           time.Now,
		log:           logger.New("ACTIONS"),
	}
	if d.DB != nil {
		a.orgs = services.NewBaseService(d.DB, models.Organization{})
		a.members = services.NewMemberService(d.DB)
	}
	return a
}

// requireAdmin requires the system admin role on a resolved session.
func requireAdmin(sd *authprovider.SessionData) error {
	if sd.User.Role != models.SystemRoleAdmin {
		return apperr.Forbidden("")
	}
	return nil
}

// targetID is the audited entity id for a user-supplied target.
func targetID(id string) string {
	if id == "" {
		return audit.EntityIDUnknown
	}
	return id
}

func (a *Actions) check(input any) error {
	if err := a.validate.Validate(input); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return apperr.Validation("invalid input", ve)
		}
		return apperr.Validation("invalid input", err)
	}
	return nil
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, p audit.Params) (*models.AuditLog, error)
}

// record writes the audit entry for an action outcome and returns opErr, or
// the audit error when the action itself succeeded.
func record(ctx context.Context, w auditWriter, p audit.Params, opErr error) error {
	if p.Metadata == nil {
		p.Metadata = map[string]any{}
	}
	p.Metadata["success"] = opErr == nil
	if opErr != nil {
		p.Metadata["error"] = errorMessage(opErr)
	}

	_, err := w.CreateAuditLog(ctx, p)
	if err != nil {
		err = fmt.Errorf("record %s: %w", p.Action, err)
	}
	if opErr != nil {
		if err != nil {
			return errors.Join(opErr, err)
		}
		return opErr
	}
	return err
}

// errorMessage is the text stored in failed audit entries.
func errorMessage(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Kind != apperr.KindInternal {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	if e != nil && e.Err != nil {
		return e.Err.Error()
	}
	return err.Error()
}
