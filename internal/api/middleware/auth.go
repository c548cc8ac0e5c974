package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"launchkit/internal/access"
	"launchkit/internal/apperr"
	"launchkit/internal/authprovider"
	"launchkit/internal/utils/logger"
)

var log = logger.New("auth_middleware")

// SessionKey is the echo context key holding the resolved *authprovider.SessionData.
const SessionKey = "session"

// Guard is the part of *access.Guard the middleware needs.
type Guard interface {
	ValidateRequest(ctx context.Context, r *http.Request, opts ...access.Requirement) (*authprovider.SessionData, error)
	GuardAdminRoute(ctx context.Context, r *http.Request) (*authprovider.SessionData, error)
}

type AuthMiddleware struct {
	guard Guard
}

func NewAuthMiddleware(guard Guard) *AuthMiddleware {
	return &AuthMiddleware{guard: guard}
}

// RequireSession rejects requests without a valid session.
func (m *AuthMiddleware) RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			sd, err := m.guard.ValidateRequest(r.Context(), r)
			if err != nil {
				return err
			}
			c.Set(SessionKey, sd)
			return next(c)
		}
	}
}

// AdminRoute protects pages of the admin area. Browsers are redirected to
// /login when signed out and to /dashboard when signed in without the admin
// role; other callers get the error body.
func (m *AuthMiddleware) AdminRoute() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			sd, err := m.guard.GuardAdminRoute(r.Context(), r)
			if err != nil {
				if !wantsHTML(r) {
					return err
				}
				switch {
				case apperr.IsKind(err, apperr.KindUnauthorized):
					return c.Redirect(http.StatusFound, "/login")
				case apperr.IsKind(err, apperr.KindForbidden):
					return c.Redirect(http.StatusFound, "/dashboard")
				default:
					return err
				}
			}
			c.Set(SessionKey, sd)
			return next(c)
		}
	}
}

// AdminAPI protects JSON endpoints of the admin area.
func (m *AuthMiddleware) AdminAPI() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			sd, err := m.guard.GuardAdminRoute(r.Context(), r)
			if err != nil {
				log.Debug("admin api denied for %s", r.URL.Path)
				return err
			}
			c.Set(SessionKey, sd)
			return next(c)
		}
	}
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}

// GetSession returns the session stored by one of the middlewares, or nil.
func GetSession(c echo.Context) *authprovider.SessionData {
	sd, _ := c.Get(SessionKey).(*authprovider.SessionData)
	return sd
}

// GetUserID returns the id of the signed-in user, or "".
func GetUserID(c echo.Context) string {
	if sd := GetSession(c); sd != nil {
		return sd.User.ID
	}
	return ""
}
