package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-advanced-admin/admin"
	admingorm "github.com/go-advanced-admin/orm-gorm"
	adminecho "github.com/go-advanced-admin/web-echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	authmw "launchkit/internal/api/middleware"
	"launchkit/internal/api/validator"
	"launchkit/internal/apperr"
	"launchkit/internal/config"
	"launchkit/internal/handlers"
	"launchkit/internal/metrics"
	"launchkit/internal/models"
	console "launchkit/internal/utils/logger"
)

var log = console.New("API-Server")

// Dependencies are the collaborators the HTTP layer is built from. Optional
// collaborators (Exports, Files, Billing) may be nil.
type Dependencies struct {
	DB       *gorm.DB
	Guard    authmw.Guard
	Sessions handlers.SessionService
	Users    handlers.UserActions
	Orgs     handlers.OrganizationActions
	Prefs    handlers.PreferenceActions
	Reader   handlers.ActivityReader
	Stats    handlers.StatsReader
	Exports  handlers.ExportQueue
	Files    handlers.SignedURLs
	Billing  handlers.BillingPortal
	Metrics  *metrics.Metrics
	Errors   *console.ErrorLogger
}

type Server struct {
	echo   *echo.Echo
	config *config.Config
	deps   Dependencies
	auth   *authmw.AuthMiddleware
}

// NewServer @title Launchkit API
// @version 1.0
// @description Authentication, organizations, audit log and administration API.
// @host localhost:8080
// @BasePath /
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Validator = validator.NewValidator()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.Server.PublicURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentLength},
		AllowCredentials: true,
	}))
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
	}))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
	}))
	e.Use(middleware.BodyLimit("10M"))
	e.Use(deps.Metrics.Middleware())

	if cfg.Server.RequestsPerSecond > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.Server.RequestsPerSecond))))
	}

	s := &Server{
		echo:   e,
		config: cfg,
		deps:   deps,
		auth:   authmw.NewAuthMiddleware(deps.Guard),
	}
	e.HTTPErrorHandler = s.httpErrorHandler

	if deps.DB != nil {
		if err := models.CreateSuperAdminFromEnv(deps.DB, cfg); err != nil {
			log.Warn("Warning: Failed to create super admin: %v", err)
		} else {
			log.Success("Super admin present")
		}
		if err := s.mountAdminPanel(); err != nil {
			_ = log.Error("Failed to create admin panel", err)
		}
	}

	s.registerRoutes()
	return s
}

// adminPanelAccessKey caches the guard decision for one panel request.
const adminPanelAccessKey = "admin_panel_access"

type panelAccess struct {
	allowed bool
	err     error
}

// adminPanelAccess runs the admin guard once per request. A page render asks
// for many permissions but writes a single admin.access entry.
func (s *Server) adminPanelAccess(c echo.Context) (bool, error) {
	if cached, ok := c.Get(adminPanelAccessKey).(panelAccess); ok {
		return cached.allowed, cached.err
	}
	r := c.Request()
	res := panelAccess{allowed: true}
	if _, err := s.deps.Guard.GuardAdminRoute(r.Context(), r); err != nil {
		res.allowed = false
		if !apperr.IsKind(err, apperr.KindUnauthorized) && !apperr.IsKind(err, apperr.KindForbidden) {
			res.err = err
		}
	}
	c.Set(adminPanelAccessKey, res)
	return res.allowed, res.err
}

// Panel permission actions. go-advanced-admin defines these in an internal
// package, so the values are mirrored here.
const (
	panelReadAction   = "read"
	panelCreateAction = "create"
	panelUpdateAction = "update"
	panelDeleteAction = "delete"
)

// panelActionAllowed keeps read-only models read-only in the panel.
func panelActionAllowed(readOnly map[string]bool, model, action string) bool {
	if !readOnly[model] {
		return true
	}
	return action == panelReadAction
}

// mountAdminPanel serves the go-advanced-admin panel under /admin/panel for
// users, organizations, members, invitations and the audit log.
func (s *Server) mountAdminPanel() error {
	gormIntegrator := admingorm.NewIntegrator(s.deps.DB)
	echoIntegrator := adminecho.NewIntegrator(s.echo.Group("/admin/panel"))

	readOnly := map[string]bool{}
	permissionChecker := func(request admin.PermissionRequest, ctx interface{}) (bool, error) {
		c, ok := ctx.(echo.Context)
		if !ok {
			return false, nil
		}
		allowed, err := s.adminPanelAccess(c)
		if err != nil || !allowed {
			return false, err
		}
		if request.ModelName != nil && request.Action != nil {
			return panelActionAllowed(readOnly, *request.ModelName, string(*request.Action)), nil
		}
		return true, nil
	}

	adminPanel, err := admin.NewPanel(gormIntegrator, echoIntegrator, permissionChecker, nil)
	if err != nil {
		return err
	}
	app, err := adminPanel.RegisterApp("Launchkit", "Launchkit Admin Panel", nil)
	if err != nil {
		return err
	}
	for _, m := range []interface{}{&models.User{}, &models.Organization{}, &models.Member{}, &models.Invitation{}} {
		if _, err := app.RegisterModel(m, nil); err != nil {
			return err
		}
	}
	// Audit entries are append-only.
	auditModel, err := app.RegisterModel(&models.AuditLog{}, nil)
	if err != nil {
		return err
	}
	readOnly[auditModel.Name] = true
	return nil
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Health check endpoint
func (s *Server) healthCheck(c echo.Context) error {
	status := "healthy"
	if s.deps.DB != nil {
		if sqlDB, err := s.deps.DB.DB(); err != nil || sqlDB.PingContext(c.Request().Context()) != nil {
			status = "degraded"
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  status,
		"version": "1.0.0",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// httpErrorHandler renders every error as {code, message}. Internal causes are
// logged and never sent to the client.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := s.errorResponse(err)
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		log.Warn("failed to write error response: %v", err)
	}
}

func (s *Server) errorResponse(err error) (int, handlers.ErrorResponse) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return http.StatusBadRequest, handlers.ErrorResponse{
			Code:    apperr.CodeValidation,
			Message: ve.Error(),
			Fields:  ve.Fields(),
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			s.logInternal(err)
			return he.Code, handlers.ErrorResponse{Code: statusCode(he.Code), Message: http.StatusText(he.Code)}
		}
		return he.Code, handlers.ErrorResponse{Code: statusCode(he.Code), Message: fmt.Sprint(he.Message)}
	}

	e := apperr.As(err)
	if e.Kind == apperr.KindInternal {
		s.logInternal(err)
	}
	return e.Status(), handlers.ErrorResponse{Code: e.Code, Message: e.Message}
}

func (s *Server) logInternal(err error) {
	if s.deps.Errors != nil {
		s.deps.Errors.Log(apperr.CodeInternal, "request failed", err)
		return
	}
	_ = log.Error("request failed", err)
}

// statusCode names a status that did not come from an *apperr.Error.
func statusCode(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return apperr.CodeUnauthorized
	case http.StatusForbidden:
		return apperr.CodeForbidden
	case http.StatusNotFound:
		return apperr.CodeNotFound
	case http.StatusTooManyRequests:
		return apperr.CodeRateLimited
	case http.StatusInternalServerError:
		return apperr.CodeInternal
	}
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
