package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gridbase/gridbase/internal/filter"
	"github.com/gridbase/gridbase/internal/middleware"
	"github.com/gridbase/gridbase/internal/models"
	"github.com/gridbase/gridbase/internal/schema"
	"github.com/gridbase/gridbase/internal/services"
	"github.com/gridbase/gridbase/internal/store"
	"github.com/gridbase/gridbase/pkg/logger"
)

const (
	defaultPage     = 1
	defaultPageSize = 25
	maxPageSize     = 100
)

// AccessChecker enforces database-level role permissions.
type AccessChecker interface {
	Enforce(ctx context.Context, userID, databaseID, resource, action string) (bool, error)
}

// TableGetter resolves a table within a database.
type TableGetter interface {
	GetTable(ctx context.Context, databaseID string, tableID int64) (*models.Table, error)
}

// RowHandler handles row CRUD and filtered listing endpoints
type RowHandler struct {
	rowService *services.RowService
	tables     TableGetter
	enforcer   AccessChecker
}

// NewRowHandler creates a new RowHandler
func NewRowHandler(rowService *services.RowService, tables TableGetter, enforcer AccessChecker) *RowHandler {
	return &RowHandler{rowService: rowService, tables: tables, enforcer: enforcer}
}

// queryError is one field-level query parameter failure.
type queryError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// parseListQuery validates the listing query parameters. Malformed filters
// JSON is not an error: it degrades to no filters.
func parseListQuery(c *gin.Context) (filter.PageRequest, []queryError) {
	var errs []queryError
	req := filter.PageRequest{
		Page:         defaultPage,
		PageSize:     defaultPageSize,
		SortBy:       "id",
		SortOrder:    "asc",
		IncludeCells: true,
	}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			errs = append(errs, queryError{Field: "page", Message: "must be an integer >= 1"})
		} else {
			req.Page = page
		}
	}

	if raw := c.Query("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > maxPageSize {
			errs = append(errs, queryError{Field: "pageSize", Message: "must be an integer between 1 and 100"})
		} else {
			req.PageSize = size
		}
	}

	if raw := c.Query("includeCells"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, queryError{Field: "includeCells", Message: "must be a boolean"})
		} else {
			req.IncludeCells = include
		}
	}

	if raw := c.Query("sortOrder"); raw != "" {
		if raw != "asc" && raw != "desc" {
			errs = append(errs, queryError{Field: "sortOrder", Message: "must be asc or desc"})
		} else {
			req.SortOrder = raw
		}
	}

	if raw := c.Query("sortBy"); raw != "" {
		req.SortBy = raw
	}

	req.GlobalSearch = c.Query("globalSearch")
	req.Criteria = filter.ParseCriteria(c.Query("filters"))

	return req, errs
}

func (h *RowHandler) resolveTable(c *gin.Context, action string) (string, int64, bool) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return "", 0, false
	}

	databaseID := c.Param("id")
	tableID, err := strconv.ParseInt(c.Param("tableId"), 10, 64)
	if err != nil || tableID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table id"})
		return "", 0, false
	}

	allowed, err := h.enforcer.Enforce(c.Request.Context(), user.ID, databaseID, "row", action)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return "", 0, false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return "", 0, false
	}

	if _, err := h.tables.GetTable(c.Request.Context(), databaseID, tableID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
		return "", 0, false
	}

	return databaseID, tableID, true
}

// List runs the filter pipeline and returns one page of rows.
func (h *RowHandler) List(c *gin.Context) {
	_, tableID, ok := h.resolveTable(c, "read")
	if !ok {
		return
	}

	req, queryErrs := parseListQuery(c)
	if len(queryErrs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_query", "details": queryErrs},
		})
		return
	}

	result, err := h.rowService.ListRows(c.Request.Context(), tableID, req)
	if err != nil {
		logger.Error("row listing failed", "table_id", tableID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	rows := result.Rows
	if rows == nil {
		rows = []models.Row{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       rows,
		"pagination": result.Pagination,
		"filters": gin.H{
			"applied":           len(req.Criteria) > 0 || req.GlobalSearch != "",
			"globalSearch":      req.GlobalSearch,
			"columnFilters":     req.Criteria,
			"validFiltersCount": result.ValidFilters,
		},
		"performance": gin.H{
			"queryTime":         result.QueryTime.Milliseconds(),
			"filteredRows":      len(rows),
			"originalTableSize": result.OriginalTableSize,
		},
	})
}

// Get returns one row
func (h *RowHandler) Get(c *gin.Context) {
	_, tableID, ok := h.resolveTable(c, "read")
	if !ok {
		return
	}

	rowID, err := strconv.ParseInt(c.Param("rowId"), 10, 64)
	if err != nil || rowID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid row id"})
		return
	}

	row, err := h.rowService.GetRow(c.Request.Context(), tableID, rowID)
	if err != nil {
		if errors.Is(err, store.ErrRowNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "row not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, row)
}

// Create inserts a row from a name-keyed payload
func (h *RowHandler) Create(c *gin.Context) {
	_, tableID, ok := h.resolveTable(c, "write")
	if !ok {
		return
	}

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	row, err := h.rowService.CreateRow(c.Request.Context(), tableID, payload)
	if err != nil {
		h.writeRowError(c, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

// Update updates the given cells of a row
func (h *RowHandler) Update(c *gin.Context) {
	_, tableID, ok := h.resolveTable(c, "write")
	if !ok {
		return
	}

	rowID, err := strconv.ParseInt(c.Param("rowId"), 10, 64)
	if err != nil || rowID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid row id"})
		return
	}

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	row, err := h.rowService.UpdateRow(c.Request.Context(), tableID, rowID, payload)
	if err != nil {
		h.writeRowError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// Delete removes a row
func (h *RowHandler) Delete(c *gin.Context) {
	_, tableID, ok := h.resolveTable(c, "delete")
	if !ok {
		return
	}

	rowID, err := strconv.ParseInt(c.Param("rowId"), 10, 64)
	if err != nil || rowID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid row id"})
		return
	}

	if err := h.rowService.DeleteRow(c.Request.Context(), tableID, rowID); err != nil {
		if errors.Is(err, store.ErrRowNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "row not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "row deleted"})
}

func (h *RowHandler) writeRowError(c *gin.Context, err error) {
	var verr *schema.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_payload", "details": verr.Fields},
		})
	case errors.Is(err, store.ErrRowNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "row not found"})
	default:
		logger.Error("row operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
