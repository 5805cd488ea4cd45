package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gridbase/gridbase/internal/authz"
	"github.com/gridbase/gridbase/internal/middleware"
	"github.com/gridbase/gridbase/internal/schema"
	"github.com/gridbase/gridbase/internal/services"
)

// TableHandler handles table and column endpoints
type TableHandler struct {
	tableService  *services.TableService
	schemaService *schema.Service
	enforcer      *authz.Enforcer
}

// NewTableHandler creates a new TableHandler
func NewTableHandler(tableService *services.TableService, schemaService *schema.Service, enforcer *authz.Enforcer) *TableHandler {
	return &TableHandler{tableService: tableService, schemaService: schemaService, enforcer: enforcer}
}

// CreateTableRequest represents a table creation request
type CreateTableRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateColumnRequest represents a column creation request
type CreateColumnRequest struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	ReferenceTableID *int64 `json:"referenceTableId"`
	Position         int    `json:"position"`
	Required         bool   `json:"required"`
}

// UpdateColumnRequest represents a column update request
type UpdateColumnRequest struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
	Required bool   `json:"required"`
}

func (h *TableHandler) allow(c *gin.Context, userID, databaseID, resource, action string) bool {
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

func tableIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("tableId"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table id"})
		return 0, false
	}
	return id, true
}

// List lists the tables of a database
func (h *TableHandler) List(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	databaseID := c.Param("id")
	if !h.allow(c, user.ID, databaseID, "table", "read") {
		return
	}

	tables, err := h.tableService.ListTables(c.Request.Context(), databaseID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, tables)
}

// Create creates a table
func (h *TableHandler) Create(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	databaseID := c.Param("id")
	if !h.allow(c, user.ID, databaseID, "table", "write") {
		return
	}

	var req CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	table, err := h.tableService.CreateTable(c.Request.Context(), databaseID, req.Name, req.Description)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, table)
}

// Get retrieves a table with its column schema
func (h *TableHandler) Get(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	databaseID := c.Param("id")
	tableID, ok := tableIDParam(c)
	if !ok {
		return
	}
	if !h.allow(c, user.ID, databaseID, "table", "read") {
		return
	}

	table, err := h.tableService.GetTable(c.Request.Context(), databaseID, tableID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
		return
	}

	columns, err := h.schemaService.Columns(c.Request.Context(), tableID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"table": table, "columns": columns})
}

// Update renames a table
func (h *TableHandler) Update(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	databaseID := c.Param("id")
	tableID, ok := tableIDParam(c)
	if !ok {
		return
	}
	if !h.allow(c, user.ID, databaseID, "table", "write") {
		return
	}

	var req CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	table, err := h.tableService.UpdateTable(c.Request.Context(), databaseID, tableID, req.Name, req.Description)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
		return
	}
	c.JSON(http.StatusOK, table)
}

// Delete removes a table and its rows
func (h *TableHandler) Delete(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	databaseID := c.Param("id")
	tableID, ok := tableIDParam(c)
	if !ok {
		return
	}
	if !h.allow(c, user.ID, databaseID, "table", "delete") {
		return
	}

	if err := h.tableService.DeleteTable(c.Request.Context(), databaseID, tableID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "table deleted"})
}

// ListColumns returns the table's column schema
func (h *TableHandler) ListColumns(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	databaseID := c.Param("id")
	tableID, ok := tableIDParam(c)
	if !ok {
		return
	}
	if !h.allow(c, user.ID, databaseID, "table", "read") {
		return
	}

	columns, err := h.schemaService.Columns(c.Request.Context(), tableID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, columns)
}

// CreateColumn adds a typed column to a table
func (h *TableHandler) CreateColumn(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	databaseID := c.Param("id")
	tableID, ok := tableIDParam(c)
	if !ok {
		return
	}
	if !h.allow(c, user.ID, databaseID, "table", "write") {
		return
	}

	var req CreateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and type are required"})
		return
	}

	colType := schema.ColumnType(req.Type)
	if colType.Family() == schema.FamilyUnknown {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown column type"})
		return
	}
	if colType == schema.TypeReference && req.ReferenceTableID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "referenceTableId is required for reference columns"})
		return
	}

	column, err := h.schemaService.CreateColumn(c.Request.Context(), schema.Column{
		TableID:          tableID,
		Name:             req.Name,
		Type:             colType,
		ReferenceTableID: req.ReferenceTableID,
		Position:         req.Position,
		Required:         req.Required,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, column)
}

// UpdateColumn updates a column's name, position and required flag
func (h *TableHandler) UpdateColumn(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	databaseID := c.Param("id")
	tableID, ok := tableIDParam(c)
	if !ok {
		return
	}
	columnID, err := strconv.ParseInt(c.Param("columnId"), 10, 64)
	if err != nil || columnID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid column id"})
		return
	}
	if !h.allow(c, user.ID, databaseID, "table", "write") {
		return
	}

	var req UpdateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	column, err := h.schemaService.UpdateColumn(c.Request.Context(), tableID, columnID, req.Name, req.Position, req.Required)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "column not found"})
		return
	}
	c.JSON(http.StatusOK, column)
}

// DeleteColumn removes a column
func (h *TableHandler) DeleteColumn(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	databaseID := c.Param("id")
	tableID, ok := tableIDParam(c)
	if !ok {
		return
	}
	columnID, err := strconv.ParseInt(c.Param("columnId"), 10, 64)
	if err != nil || columnID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid column id"})
		return
	}
	if !h.allow(c, user.ID, databaseID, "table", "write") {
		return
	}

	if err := h.schemaService.DeleteColumn(c.Request.Context(), tableID, columnID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "column not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "column deleted"})
}
