package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesavista/storefront-core/internal/api/metrics"
	"github.com/mesavista/storefront-core/internal/api/middleware"
	"github.com/mesavista/storefront-core/internal/api/runtime"
	"github.com/mesavista/storefront-core/internal/core/domain"
	"github.com/mesavista/storefront-core/internal/core/ports"
)

// Runtimes resolves the per-browser runtime for a request. Satisfied by
// *runtime.Manager; narrowed to an interface so handler tests can stub it.
type Runtimes interface {
	Get(ctx context.Context, sessionID string) *runtime.Runtime
}

// AuthHandler exposes the auth state machine over the BFF API.
type AuthHandler struct {
	runtimes Runtimes
}

func NewAuthHandler(runtimes Runtimes) *AuthHandler {
	return &AuthHandler{runtimes: runtimes}
}

type loginRequest struct {
	Identity string `json:"identity" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type adminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Success bool              `json:"success"`
	IsAdmin bool              `json:"is_admin,omitempty"`
	Error   string            `json:"error,omitempty"`
	State   *domain.AuthState `json:"state,omitempty"`
}

func (h *AuthHandler) auth(c echo.Context) ports.AuthService {
	return h.runtimes.Get(c.Request().Context(), middleware.SessionID(c)).Auth
}

// Login authenticates a customer by username or email.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	auth := h.auth(c)
	res := auth.Login(c.Request().Context(), req.Identity, req.Password)
	return h.respondLogin(c, auth, res, "login")
}

// AdminLogin authenticates an administrator.
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var req adminLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	auth := h.auth(c)
	res := auth.AdminLogin(c.Request().Context(), req.Email, req.Password)
	return h.respondLogin(c, auth, res, "admin_login")
}

func (h *AuthHandler) respondLogin(c echo.Context, auth ports.AuthService, res domain.LoginResult, trigger string) error {
	st := auth.State()
	if !res.Success {
		status := http.StatusUnauthorized
		if res.Error == domain.ErrLoginInFlight.Error() {
			status = http.StatusConflict
		}
		metrics.AuthTransitionsTotal.WithLabelValues("anonymous", trigger).Inc()
		return c.JSON(status, loginResponse{Error: res.Error, State: &st})
	}
	metrics.AuthTransitionsTotal.WithLabelValues("authenticated", trigger).Inc()
	return c.JSON(http.StatusOK, loginResponse{Success: true, IsAdmin: res.IsAdmin, State: &st})
}

// Logout clears the session. Always succeeds from the client's perspective.
func (h *AuthHandler) Logout(c echo.Context) error {
	auth := h.auth(c)
	auth.Logout(c.Request().Context())
	metrics.AuthTransitionsTotal.WithLabelValues("anonymous", "logout").Inc()

	st := auth.State()
	return c.JSON(http.StatusOK, loginResponse{Success: true, State: &st})
}

// Session returns the current auth snapshot. The runtime is bootstrapped on
// first touch, so the snapshot is always initialized by the time it renders.
func (h *AuthHandler) Session(c echo.Context) error {
	st := h.auth(c).State()
	return c.JSON(http.StatusOK, st)
}
