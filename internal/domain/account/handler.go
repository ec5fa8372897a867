// Package account exposes the terminal session over HTTP: its current
// state, login and logout.
package account

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dentaldesk/clinic/internal/platform/apperr"
	"github.com/dentaldesk/clinic/internal/platform/auth"
	"github.com/dentaldesk/clinic/internal/session"
)

// Gate is the part of *session.Gate the handler drives.
type Gate interface {
	Login(ctx context.Context, username, password string) (*session.User, error)
	Logout(ctx context.Context) error
	Snapshot() (session.State, *session.User)
}

type Handler struct {
	gate   Gate
	issuer *auth.Issuer
	logger zerolog.Logger
}

func NewHandler(gate Gate, issuer *auth.Issuer, logger zerolog.Logger) *Handler {
	return &Handler{
		gate:   gate,
		issuer: issuer,
		logger: logger.With().Str("component", "account").Logger(),
	}
}

// RegisterRoutes mounts the session routes. login is wrapped by loginLimit
// when it is non-nil.
func (h *Handler) RegisterRoutes(api *echo.Group, loginLimit echo.MiddlewareFunc) {
	api.GET("/session", h.GetSession)
	if loginLimit != nil {
		api.POST("/session/login", h.Login, loginLimit)
	} else {
		api.POST("/session/login", h.Login)
	}
	api.POST("/session/logout", h.Logout)
}

type stateResponse struct {
	State    session.State `json:"state"`
	User     *session.User `json:"user"`
	Redirect string        `json:"redirect,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User      *session.User `json:"user"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// GetSession reports the gate state. With ?route=<first path segment> it
// also says where the front-end router should go.
func (h *Handler) GetSession(c echo.Context) error {
	state, user := h.gate.Snapshot()
	resp := stateResponse{State: state, User: user}
	if route, ok := c.QueryParams()["route"]; ok {
		first := ""
		if len(route) > 0 {
			first = strings.Trim(route[0], "/")
		}
		if target, move := session.Redirect(state, first); move {
			resp.Redirect = target
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.gate.Login(c.Request().Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case apperr.IsValidation(err):
		return apperr.ToHTTP(err)
	case errors.Is(err, session.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, session.ErrInvalidCredentials.Error())
	case errors.Is(err, session.ErrAlreadySignedIn):
		return echo.NewHTTPError(http.StatusConflict, session.ErrAlreadySignedIn.Error())
	default:
		return echo.NewHTTPError(http.StatusServiceUnavailable, session.ErrLoginFailed.Error())
	}

	token, claims, err := h.issuer.Issue(user)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to issue session token")
		return echo.NewHTTPError(http.StatusServiceUnavailable, session.ErrLoginFailed.Error())
	}
	return c.JSON(http.StatusOK, loginResponse{User: user, Token: token, ExpiresAt: claims.ExpiresAt.Time})
}

// Logout signs the terminal out and revokes the caller's tokens. While a
// user is signed in the request must carry that user's token.
func (h *Handler) Logout(c echo.Context) error {
	state, user := h.gate.Snapshot()

	var claims *auth.Claims
	if tokenStr, err := auth.BearerToken(c.Request()); err == nil {
		claims, _ = h.issuer.Parse(tokenStr)
	}
	if state == session.StateAuthenticated {
		if claims == nil || user == nil || claims.Subject != user.ID {
			return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
		}
	}

	err := h.gate.Logout(c.Request().Context())
	if claims != nil {
		var exp time.Time
		if claims.ExpiresAt != nil {
			exp = claims.ExpiresAt.Time
		}
		n, perr := h.issuer.RevokeUser(c.Request().Context(), claims.Subject, claims.ID, exp)
		if perr != nil {
			h.logger.Error().Err(perr).Str("user_id", claims.Subject).Msg("failed to persist token revocation")
		}
		h.logger.Debug().Str("user_id", claims.Subject).Int("revoked", n).Msg("session tokens revoked")
	}
	if err != nil {
		if errors.Is(err, session.ErrStorage) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "signed out, but the stored session could not be cleared, try again")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "an error occurred, try again")
	}
	return c.NoContent(http.StatusNoContent)
}
