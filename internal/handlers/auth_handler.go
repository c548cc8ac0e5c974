package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"launchkit/internal/apperr"
	"launchkit/internal/audit"
	"launchkit/internal/authprovider"
	"launchkit/internal/config"
	"launchkit/internal/utils/logger"
)

type AuthHandler struct {
	sessions SessionService
	cfg      config.AuthConfig
	log      *logger.Logger
}

func NewAuthHandler(sessions SessionService, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{sessions: sessions, cfg: cfg, log: logger.New("AuthHandler")}
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type MagicLinkRequest struct {
	Email       string `json:"email" validate:"required,email"`
	CallbackURL string `json:"callbackUrl,omitempty" validate:"omitempty,url"`
}

type VerifyMagicLinkRequest struct {
	Token string `json:"token" query:"token" validate:"required"`
}

// bind decodes and validates the request body into req.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperr.Validation("invalid request body", err)
	}
	return c.Validate(req)
}

func requestMeta(c echo.Context) authprovider.RequestMeta {
	return authprovider.RequestMeta{
		IPAddress: audit.ClientIP(c.Request()),
		UserAgent: c.Request().UserAgent(),
	}
}

func (h *AuthHandler) setSessionCookie(c echo.Context, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SignIn authenticates with email and password.
// @Summary Sign in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignInRequest true "Credentials"
// @Success 200 {object} authprovider.SignInResult
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 429 {object} ErrorResponse "Too many attempts"
// @Router /api/auth/sign-in [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req SignInRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.sessions.SignInWithPassword(c.Request().Context(), req.Email, req.Password, requestMeta(c))
	if err != nil {
		return err
	}
	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	return c.JSON(http.StatusOK, result)
}

// SignOut ends the current session.
// @Summary Sign out
// @Tags auth
// @Success 204
// @Router /api/auth/sign-out [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	if err := h.sessions.SignOut(c.Request().Context(), c.Request().Header); err != nil {
		return err
	}
	h.setSessionCookie(c, "", time.Unix(0, 0))
	return c.NoContent(http.StatusNoContent)
}

// Session returns the current session.
// @Summary Get the current session
// @Tags auth
// @Produce json
// @Success 200 {object} authprovider.SessionData
// @Failure 401 {object} ErrorResponse
// @Router /api/auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	sd, err := h.sessions.GetSession(c.Request().Context(), c.Request().Header)
	if err != nil {
		return apperr.Internal(err)
	}
	if sd == nil {
		return apperr.Unauthorized("")
	}
	return c.JSON(http.StatusOK, sd)
}

// RequestMagicLink emails a one-time sign-in link. The response does not
// reveal whether the address is registered.
// @Summary Request a magic sign-in link
// @Tags auth
// @Accept json
// @Param request body MagicLinkRequest true "Email address"
// @Success 202
// @Router /api/auth/magic-link [post]
func (h *AuthHandler) RequestMagicLink(c echo.Context) error {
	var req MagicLinkRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.sessions.RequestMagicLink(c.Request().Context(), req.Email, req.CallbackURL); err != nil {
		return err
	}
	return c.NoContent(http.StatusAccepted)
}

// VerifyMagicLink exchanges a magic link token for a session.
// @Summary Verify a magic link
// @Tags auth
// @Produce json
// @Param token query string true "Magic link token"
// @Success 200 {object} authprovider.SignInResult
// @Failure 401 {object} ErrorResponse
// @Router /api/auth/magic-link/verify [get]
func (h *AuthHandler) VerifyMagicLink(c echo.Context) error {
	var req VerifyMagicLinkRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.sessions.VerifyMagicLink(c.Request().Context(), req.Token, requestMeta(c))
	if err != nil {
		return err
	}
	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	h.log.Debug("magic link verified for %s", result.Session.User.ID)
	return c.JSON(http.StatusOK, result)
}
