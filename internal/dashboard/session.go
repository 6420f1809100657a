package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinithetics/emr/internal/domain/identity"
	"github.com/clinithetics/emr/internal/platform/auth"
)

type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*identity.Identity, error)
}

// SessionHandler serves sign-in, sign-out and the current session. A
// session's workspace is opened at sign-in and closed at sign-out.
type SessionHandler struct {
	auth     Authenticator
	tokens   *auth.TokenIssuer
	revoked  auth.RevocationStore
	registry *Registry
	log      zerolog.Logger
}

func NewSessionHandler(a Authenticator, tokens *auth.TokenIssuer, revoked auth.RevocationStore, reg *Registry, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{auth: a, tokens: tokens, revoked: revoked, registry: reg, log: log}
}

func (h *SessionHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/signin", h.SignIn)
	g.POST("/signout", h.SignOut)
	g.GET("/session", h.Session)
}

type SessionResponse struct {
	Token     string            `json:"token,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`
	Identity  identity.Identity `json:"identity"`
	Route     Route             `json:"route"`
	Role      *identity.Role    `json:"role,omitempty"`
}

func sessionResponse(w *Workspace) SessionResponse {
	resp := SessionResponse{ExpiresAt: w.ExpiresAt(), Identity: w.Identity(), Route: w.Route()}
	if w.Route().IsView() {
		role := w.Role()
		resp.Role = &role
	}
	return resp
}

func (h *SessionHandler) SignIn(c echo.Context) error {
	var req identity.SignInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	id, err := h.auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return identity.AuthHTTPError(err)
	}
	token, claims, err := h.tokens.Issue(id.ID.String(), id.Email)
	if err != nil {
		h.log.Error().Err(err).Msg("issue session token")
		return echo.NewHTTPError(http.StatusInternalServerError, identity.MsgUnexpected)
	}

	w := h.registry.Open(ctx, claims.ID, *id, claims.ExpiresAt.Time)
	resp := sessionResponse(w)
	resp.Token = token
	return c.JSON(http.StatusOK, resp)
}

func (h *SessionHandler) SignOut(c echo.Context) error {
	claims := auth.ClaimsFromContext(c)
	if claims == nil {
		return auth.Unauthenticated("authentication required")
	}
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := h.revoked.Revoke(c.Request().Context(), claims.ID, claims.Subject, expiresAt); err != nil {
		h.log.Error().Err(err).Str("session_id", claims.ID).Msg("revoke session token")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable")
	}
	h.registry.Close(claims.ID)
	return c.NoContent(http.StatusNoContent)
}

func (h *SessionHandler) Session(c echo.Context) error {
	claims := auth.ClaimsFromContext(c)
	if claims == nil {
		return auth.Unauthenticated("authentication required")
	}
	w, err := h.registry.Ensure(c.Request().Context(), claims)
	if err != nil {
		return auth.Unauthenticated("invalid session")
	}
	return c.JSON(http.StatusOK, sessionResponse(w))
}
