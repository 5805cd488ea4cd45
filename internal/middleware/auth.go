package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gridbase/gridbase/internal/auth"
	"github.com/gridbase/gridbase/internal/models"
)

const userContextName = "user"

// AuthMiddleware validates session cookies and sets the user in the Gin context
func AuthMiddleware(authService *auth.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionTokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		user, err := authService.ValidateSession(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(userContextName, user)
		c.Next()
	}
}

// AuthAnyMiddleware accepts either a session cookie or a Bearer API token
func AuthAnyMiddleware(authService *auth.Auth, tokenService *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := sessionTokenFromRequest(c); token != "" {
			if user, err := authService.ValidateSession(c.Request.Context(), token); err == nil {
				c.Set(userContextName, user)
				c.Next()
				return
			}
		}

		if bearer := bearerToken(c); bearer != "" {
			if user, err := tokenService.ValidateToken(c.Request.Context(), bearer); err == nil {
				c.Set(userContextName, user)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
}

// GetUserFromContext retrieves the user from the Gin context
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	val, ok := c.Get(userContextName)
	if !ok {
		return nil, false
	}
	user, ok := val.(*models.User)
	return user, ok
}

// RequireAuth is a helper that checks if a user is authenticated, writing an
// error response if not
func RequireAuth(c *gin.Context) (*models.User, bool) {
	user, ok := GetUserFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	return user, true
}

func sessionTokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie("session_token"); err == nil && cookie != "" {
		return cookie
	}
	return ""
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
