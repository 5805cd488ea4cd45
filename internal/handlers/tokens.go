package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gridbase/gridbase/internal/auth"
	"github.com/gridbase/gridbase/internal/middleware"
)

// TokenHandler handles API token management endpoints
type TokenHandler struct {
	tokenService *auth.TokenService
}

// NewTokenHandler creates a new TokenHandler
func NewTokenHandler(tokenService *auth.TokenService) *TokenHandler {
	return &TokenHandler{tokenService: tokenService}
}

// CreateTokenRequest represents a token creation request
type CreateTokenRequest struct {
	Name string `json:"name"`
}

// List lists the user's API tokens
func (h *TokenHandler) List(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	tokens, err := h.tokenService.ListTokens(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// Create issues a new API token. The signed JWT is only returned here.
func (h *TokenHandler) Create(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	var req CreateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	signed, record, err := h.tokenService.CreateToken(c.Request.Context(), user.ID, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": signed, "record": record})
}

// Delete revokes an API token
func (h *TokenHandler) Delete(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	if err := h.tokenService.RevokeToken(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "token not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}
