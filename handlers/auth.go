package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/postflow/internal/config"
	"github.com/gogotex/postflow/internal/sessions"
	"github.com/gogotex/postflow/internal/tokens"
	"github.com/gogotex/postflow/pkg/logger"
	"github.com/gogotex/postflow/pkg/middleware"
)

// AuthHandler serves token revocation and, in development, token minting.
type AuthHandler struct {
	cfg      *config.Config
	verifier middleware.Verifier
}

func NewAuthHandler(cfg *config.Config, v middleware.Verifier) *AuthHandler {
	return &AuthHandler{cfg: cfg, verifier: v}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg gin.IRouter) {
	a := rg.Group("/auth")
	a.POST("/revoke", middleware.AuthMiddleware(h.verifier), h.Revoke)
	if h.cfg.Auth.DevTokens {
		logger.Warnf("dev token endpoint enabled: POST /auth/token mints tokens without credentials")
		a.POST("/token", h.Token)
	}
}

// Token mints an HS256 access token for the given subject (development only).
func (h *AuthHandler) Token(c *gin.Context) {
	var req struct {
		Sub   string `json:"sub" binding:"required"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ttl := h.cfg.JWT.AccessTokenTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	access, err := tokens.GenerateAccessToken(h.cfg, tokens.Subject{Sub: req.Sub, Name: req.Name, Email: req.Email}, ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": access, "expiresIn": int(ttl.Seconds())})
}

// Revoke withdraws the bearer token used for this request until it expires.
func (h *AuthHandler) Revoke(c *gin.Context) {
	var raw string
	if n, _ := fmt.Sscanf(c.GetHeader("Authorization"), "Bearer %s", &raw); n != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
		return
	}
	tok, err := h.verifier.Verify(c.Request.Context(), raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	exp, err := tokens.ExpiresAt(tok)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token has no expiry"})
		return
	}
	if err := sessions.RevokeAccessToken(c.Request.Context(), raw, time.Until(exp)); err != nil {
		if errors.Is(err, sessions.ErrRevocationDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "token revocation unavailable"})
			return
		}
		logger.Errorf("revoke token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "revoked"})
}
