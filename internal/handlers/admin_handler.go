package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"launchkit/internal/actions"
	"launchkit/internal/api/middleware"
	"launchkit/internal/apperr"
	"launchkit/internal/audit"
	"launchkit/internal/authprovider"
	"launchkit/internal/tasks"
	"launchkit/internal/utils/logger"
)

const exportURLTTL = time.Hour

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type AdminHandler struct {
	users   UserActions
	reader  ActivityReader
	stats   StatsReader
	exports ExportQueue
	files   SignedURLs
	log     *logger.Logger
}

func NewAdminHandler(users UserActions, reader ActivityReader, stats StatsReader, exports ExportQueue, files SignedURLs) *AdminHandler {
	return &AdminHandler{
		users:   users,
		reader:  reader,
		stats:   stats,
		exports: exports,
		files:   files,
		log:     logger.New("AdminHandler"),
	}
}

func queryInt(c echo.Context, name string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return def
	}
	return v
}

// ListUsers
// @Summary List users
// @Tags admin
// @Produce json
// @Param search query string false "Name or email contains"
// @Param role query string false "System role"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} authprovider.UserList
// @Failure 403 {object} ErrorResponse
// @Router /api/admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	var q authprovider.ListUsersQuery
	if err := c.Bind(&q); err != nil {
		return apperr.Validation("invalid query", err)
	}
	list, err := h.users.ListUsers(c.Request().Context(), c.Request(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// CreateUser
// @Summary Create a user
// @Tags admin
// @Accept json
// @Produce json
// @Param request body actions.CreateUserInput true "User"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Router /api/admin/users [post]
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var in actions.CreateUserInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body", err)
	}
	user, err := h.users.CreateUser(c.Request().Context(), c.Request(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// BanUser
// @Summary Ban a user
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body actions.BanUserInput true "Ban details"
// @Success 200 {object} models.User
// @Router /api/admin/users/{id}/ban [post]
func (h *AdminHandler) BanUser(c echo.Context) error {
	var in actions.BanUserInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body", err)
	}
	in.UserID = c.Param("id")
	user, err := h.users.BanUser(c.Request().Context(), c.Request(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UnbanUser
// @Summary Lift a ban
// @Tags admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Router /api/admin/users/{id}/unban [post]
func (h *AdminHandler) UnbanUser(c echo.Context) error {
	user, err := h.users.UnbanUser(c.Request().Context(), c.Request(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// SetRole
// @Summary Change a user's system role
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body actions.SetRoleInput true "Role"
// @Success 200 {object} models.User
// @Router /api/admin/users/{id}/role [post]
func (h *AdminHandler) SetRole(c echo.Context) error {
	var in actions.SetRoleInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body", err)
	}
	in.UserID = c.Param("id")
	user, err := h.users.SetUserRole(c.Request().Context(), c.Request(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ListAuditLogs
// @Summary List audit entries
// @Tags admin
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Param entityType query string false "Entity type"
// @Param entityId query string false "Entity ID"
// @Param actorId query string false "Actor ID"
// @Param action query string false "Action"
// @Success 200 {object} audit.PageResult
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/admin/audit-logs [get]
func (h *AdminHandler) ListAuditLogs(c echo.Context) error {
	var f audit.Filter
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &f); err != nil {
		return apperr.Validation("invalid query", err)
	}
	page, err := h.reader.ListPage(c.Request().Context(),
		queryInt(c, "page", 1),
		queryInt(c, "limit", audit.DefaultLimit),
		f,
	)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// GetAuditLog
// @Summary Get one audit entry
// @Tags admin
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} audit.Activity
// @Failure 404 {object} ErrorResponse
// @Router /api/admin/audit-logs/{id} [get]
func (h *AdminHandler) GetAuditLog(c echo.Context) error {
	entry, err := h.reader.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry)
}

type ExportRequest struct {
	audit.Filter
	Notify bool `json:"notify"`
}

// ExportAuditLogs queues an export of the matching entries.
// @Summary Export audit entries
// @Tags admin
// @Accept json
// @Produce json
// @Param request body ExportRequest false "Filter"
// @Success 202 {object} map[string]string
// @Router /api/admin/audit-logs/export [post]
func (h *AdminHandler) ExportAuditLogs(c echo.Context) error {
	if h.exports == nil {
		return apperr.NotFound("exports are not configured")
	}
	var req ExportRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body", err)
	}

	payload := tasks.AuditExportPayload{Filter: req.Filter}
	if sd := middleware.GetSession(c); sd != nil {
		payload.RequestedBy = sd.User.ID
		if req.Notify {
			payload.NotifyEmail = sd.User.Email
		}
	}
	key, err := h.exports.EnqueueAuditExport(c.Request().Context(), payload)
	if err != nil {
		return apperr.Internal(err)
	}
	h.log.Info("audit export %s queued by %s", key, payload.RequestedBy)
	return c.JSON(http.StatusAccepted, map[string]string{"key": key})
}

// ExportURL returns a short-lived download link for a finished export.
// @Summary Get an export download link
// @Tags admin
// @Produce json
// @Param key path string true "Export key"
// @Success 200 {object} map[string]string
// @Router /api/admin/audit-logs/exports/{key} [get]
func (h *AdminHandler) ExportURL(c echo.Context) error {
	if h.files == nil {
		return apperr.NotFound("exports are not configured")
	}
	url, err := h.files.GetSignedURL(c.Request().Context(), tasks.ExportKey(c.Param("key")), exportURLTTL)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

// Stats
// @Summary System statistics
// @Tags admin
// @Produce json
// @Success 200 {object} stats.Snapshot
// @Router /api/admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	snap, err := h.stats.Get(c.Request().Context())
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, snap)
}
