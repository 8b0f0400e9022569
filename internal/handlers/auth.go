package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gocard/gateway/internal/middleware"
	"gocard/gateway/internal/models"
	"gocard/gateway/internal/session"
	"gocard/gateway/internal/upstream"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token      string      `json:"token"`
	Role       models.Role `json:"role"`
	RedirectTo string      `json:"redirectTo"`
}

// Login forwards the credentials to the backend sign-in endpoint, resolves
// the role embedded in the issued token, and tells the client where to
// navigate. The token also lands in a cookie so plain browser navigation to
// the guarded views carries it.
func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, err := h.client.SignIn(c.Request.Context(), h.cfg.Upstream.LoginPath, req.Username, req.Password)
	if err != nil {
		// Only an upstream rejection of the credentials reads as a bad
		// login; a broken backend must not masquerade as one.
		if upstream.IsKind(err, upstream.KindUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		h.respondError(c, err)
		return
	}

	sess := h.resolver.Resolve(c.Request.Context(), token)

	redirectTo := "/"
	switch sess.Role {
	case models.RoleAdmin:
		redirectTo = "/dashboard-admin"
	case models.RoleEmployee:
		redirectTo = "/dashboard-employee"
	}

	c.SetCookie(middleware.CredentialCookie, token, 0, "/", "", false, true)
	c.JSON(http.StatusOK, loginResponse{
		Token:      token,
		Role:       sess.Role,
		RedirectTo: redirectTo,
	})
}

// Logout signs out upstream (best effort), wipes the caller's persisted
// client state including any clock-in instant, and drops the cookie.
func (h HandlerSet) Logout(c *gin.Context) {
	sess := mustSession(c)
	ctx := upstream.WithCredential(c.Request.Context(), middleware.Credential(c))

	if err := h.client.Post(ctx, h.cfg.Upstream.LogoutPath, nil, nil); err != nil {
		h.log.Warn().Err(err).Msg("upstream sign-out failed")
	}

	if err := h.state.Clear(c.Request.Context(), sess.UserID); err != nil {
		h.log.Warn().Err(err).Int("user_id", sess.UserID).Msg("clear client state failed")
	}
	if err := session.EvictIdentity(c.Request.Context(), h.state, middleware.Credential(c)); err != nil {
		h.log.Warn().Err(err).Msg("evict cached identity failed")
	}

	c.SetCookie(middleware.CredentialCookie, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}
