package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gridbase/gridbase/internal/authz"
	"github.com/gridbase/gridbase/internal/middleware"
	"github.com/gridbase/gridbase/internal/services"
)

// DatabaseHandler handles tenant database endpoints
type DatabaseHandler struct {
	databaseService *services.DatabaseService
	enforcer        *authz.Enforcer
}

// NewDatabaseHandler creates a new DatabaseHandler
func NewDatabaseHandler(databaseService *services.DatabaseService, enforcer *authz.Enforcer) *DatabaseHandler {
	return &DatabaseHandler{databaseService: databaseService, enforcer: enforcer}
}

// CreateDatabaseRequest represents a database creation request
type CreateDatabaseRequest struct {
	Name string `json:"name"`
}

// UpdateDatabaseRequest represents a database update request
type UpdateDatabaseRequest struct {
	Name string `json:"name"`
}

// AddMemberRequest represents a membership grant request
type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// allow checks the caller's role in a database, writing the error response on denial.
func (h *DatabaseHandler) allow(c *gin.Context, userID, databaseID, resource, action string) bool {
	allowed, err := h.enforcer.Enforce(c.Request.Context(), userID, databaseID, resource, action)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return false
	}
	return true
}

// List lists the databases the user owns or is a member of
func (h *DatabaseHandler) List(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	databases, err := h.databaseService.ListDatabasesByUser(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, databases)
}

// Create creates a new database owned by the user
func (h *DatabaseHandler) Create(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	var req CreateDatabaseRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	database, err := h.databaseService.CreateDatabase(c.Request.Context(), req.Name, user.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, database)
}

// Get retrieves a database
func (h *DatabaseHandler) Get(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	databaseID := c.Param("id")
	database, err := h.databaseService.GetDatabaseByID(c.Request.Context(), databaseID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "database not found"})
		return
	}

	if !h.allow(c, user.ID, databaseID, "database", "read") {
		return
	}
	c.JSON(http.StatusOK, database)
}

// Update renames a database
func (h *DatabaseHandler) Update(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	databaseID := c.Param("id")
	if !h.allow(c, user.ID, databaseID, "database", "update") {
		return
	}

	var req UpdateDatabaseRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	database, err := h.databaseService.UpdateDatabase(c.Request.Context(), databaseID, req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, database)
}

// Delete removes a database
func (h *DatabaseHandler) Delete(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	databaseID := c.Param("id")
	if !h.allow(c, user.ID, databaseID, "database", "delete") {
		return
	}

	if err := h.databaseService.DeleteDatabase(c.Request.Context(), databaseID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "database deleted"})
}

// AddMember grants a user a role in the database
func (h *DatabaseHandler) AddMember(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	databaseID := c.Param("id")
	if !h.allow(c, user.ID, databaseID, "database", "manage_members") {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	switch req.Role {
	case "owner", "editor", "viewer":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be owner, editor or viewer"})
		return
	}

	if err := h.databaseService.AddMember(c.Request.Context(), databaseID, req.UserID, req.Role); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member added"})
}
