package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/gridbase/gridbase/internal/models"
	"github.com/gridbase/gridbase/internal/schema"
	"github.com/gridbase/gridbase/internal/services"
	"github.com/gridbase/gridbase/internal/store"
)

var rowTestColumns = []schema.Column{
	{ID: 1, TableID: 7, Name: "name", Type: schema.TypeText, Position: 0, Required: true},
	{ID: 2, TableID: 7, Name: "age", Type: schema.TypeNumber, Position: 1},
}

type fakeSchema struct{ columns []schema.Column }

func (f *fakeSchema) Columns(ctx context.Context, tableID int64) ([]schema.Column, error) {
	return f.columns, nil
}

type allowAll struct{}

func (allowAll) Enforce(ctx context.Context, userID, databaseID, resource, action string) (bool, error) {
	return true, nil
}

type fakeTables struct{}

func (fakeTables) GetTable(ctx context.Context, databaseID string, tableID int64) (*models.Table, error) {
	if tableID != 7 {
		return nil, fmt.Errorf("table not found")
	}
	return &models.Table{ID: tableID, DatabaseID: databaseID, Name: "people"}, nil
}

func newRowRouter(t *testing.T) (*gin.Engine, *store.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	memStore := store.NewMemoryStore()
	rowService := services.NewRowService(memStore, &fakeSchema{columns: rowTestColumns})
	handler := NewRowHandler(rowService, fakeTables{}, allowAll{})

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user", &models.User{ID: "u1", Email: "u1@example.com"})
	})
	rows := router.Group("/api/databases/:id/tables/:tableId/rows")
	rows.GET("", handler.List)
	rows.POST("", handler.Create)
	rows.GET("/:rowId", handler.Get)
	rows.PATCH("/:rowId", handler.Update)
	rows.DELETE("/:rowId", handler.Delete)
	return router, memStore
}

func seedRows(t *testing.T, s *store.MemoryStore) {
	t.Helper()
	people := []struct {
		name string
		age  float64
	}{
		{"John Doe", 25},
		{"Jane Smith", 30},
		{"Bob Johnson", 35},
	}
	for _, p := range people {
		_, err := s.InsertRow(context.Background(), 7, []models.Cell{
			{ColumnID: 1, Value: p.name},
			{ColumnID: 2, Value: p.age},
		}, rowTestColumns)
		if err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type listEnvelope struct {
	Data       []models.Row `json:"data"`
	Pagination struct {
		Page       int   `json:"page"`
		PageSize   int   `json:"pageSize"`
		TotalRows  int64 `json:"totalRows"`
		TotalPages int   `json:"totalPages"`
		HasNext    bool  `json:"hasNext"`
		HasPrev    bool  `json:"hasPrev"`
	} `json:"pagination"`
	Filters struct {
		Applied           bool   `json:"applied"`
		GlobalSearch      string `json:"globalSearch"`
		ValidFiltersCount int    `json:"validFiltersCount"`
	} `json:"filters"`
	Performance struct {
		FilteredRows      int   `json:"filteredRows"`
		OriginalTableSize int64 `json:"originalTableSize"`
	} `json:"performance"`
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) listEnvelope {
	t.Helper()
	var envelope listEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("bad envelope: %v\n%s", err, w.Body.String())
	}
	return envelope
}

func TestListRowsDefaults(t *testing.T) {
	router, s := newRowRouter(t)
	seedRows(t, s)

	w := doJSON(router, http.MethodGet, "/api/databases/d1/tables/7/rows", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	envelope := decodeList(t, w)
	if len(envelope.Data) != 3 {
		t.Errorf("data length = %d, want 3", len(envelope.Data))
	}
	p := envelope.Pagination
	if p.Page != 1 || p.PageSize != 25 || p.TotalRows != 3 || p.TotalPages != 1 {
		t.Errorf("pagination defaults: %+v", p)
	}
	if envelope.Filters.Applied {
		t.Error("filters.applied should be false without criteria")
	}
	if envelope.Performance.OriginalTableSize != 3 {
		t.Errorf("originalTableSize = %d, want 3", envelope.Performance.OriginalTableSize)
	}
}

func TestListRowsWithFilters(t *testing.T) {
	router, s := newRowRouter(t)
	seedRows(t, s)

	filters := url.QueryEscape(`[{"columnId":2,"operator":"greater_than","value":25}]`)
	w := doJSON(router, http.MethodGet, "/api/databases/d1/tables/7/rows?filters="+filters, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	envelope := decodeList(t, w)
	if len(envelope.Data) != 2 {
		t.Errorf("data length = %d, want 2", len(envelope.Data))
	}
	if !envelope.Filters.Applied || envelope.Filters.ValidFiltersCount != 1 {
		t.Errorf("filters meta: %+v", envelope.Filters)
	}
}

func TestListRowsMalformedFiltersDegrade(t *testing.T) {
	router, s := newRowRouter(t)
	seedRows(t, s)

	w := doJSON(router, http.MethodGet, "/api/databases/d1/tables/7/rows?filters="+url.QueryEscape("{broken"), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("malformed filters should degrade to none: %d %s", w.Code, w.Body.String())
	}
	if envelope := decodeList(t, w); len(envelope.Data) != 3 {
		t.Errorf("data length = %d, want unfiltered 3", len(envelope.Data))
	}
}

func TestListRowsInvalidQueryParams(t *testing.T) {
	router, _ := newRowRouter(t)

	for _, query := range []string{"page=0", "page=abc", "pageSize=0", "pageSize=101", "sortOrder=sideways", "includeCells=maybe"} {
		w := doJSON(router, http.MethodGet, "/api/databases/d1/tables/7/rows?"+query, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", query, w.Code)
			continue
		}
		var body struct {
			Error struct {
				Code    string `json:"code"`
				Details []struct {
					Field   string `json:"field"`
					Message string `json:"message"`
				} `json:"details"`
			} `json:"error"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Errorf("%s: bad error body: %v", query, err)
			continue
		}
		if body.Error.Code != "invalid_query" || len(body.Error.Details) == 0 {
			t.Errorf("%s: error body = %s", query, w.Body.String())
		}
	}
}

func TestListRowsPaging(t *testing.T) {
	router, s := newRowRouter(t)
	seedRows(t, s)

	w := doJSON(router, http.MethodGet, "/api/databases/d1/tables/7/rows?page=2&pageSize=2", nil)
	envelope := decodeList(t, w)
	if len(envelope.Data) != 1 {
		t.Errorf("page 2 length = %d, want 1", len(envelope.Data))
	}
	if !envelope.Pagination.HasPrev || envelope.Pagination.HasNext {
		t.Errorf("page 2 of 2: %+v", envelope.Pagination)
	}
}

func TestListRowsUnknownTable(t *testing.T) {
	router, _ := newRowRouter(t)
	w := doJSON(router, http.MethodGet, "/api/databases/d1/tables/99/rows", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCreateRow(t *testing.T) {
	router, _ := newRowRouter(t)

	w := doJSON(router, http.MethodPost, "/api/databases/d1/tables/7/rows", map[string]any{
		"name": "Alice", "age": 28,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var row models.Row
	if err := json.Unmarshal(w.Body.Bytes(), &row); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if row.ID == 0 || len(row.Cells) != 2 {
		t.Errorf("unexpected row: %+v", row)
	}
}

func TestCreateRowValidationFailure(t *testing.T) {
	router, _ := newRowRouter(t)

	// name is required; age must be numeric.
	w := doJSON(router, http.MethodPost, "/api/databases/d1/tables/7/rows", map[string]any{
		"age": "old",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Error struct {
			Code    string            `json:"code"`
			Details []json.RawMessage `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad error body: %v", err)
	}
	if body.Error.Code != "invalid_payload" || len(body.Error.Details) == 0 {
		t.Errorf("error body = %s", w.Body.String())
	}
}

func TestUpdateAndDeleteRow(t *testing.T) {
	router, s := newRowRouter(t)
	seedRows(t, s)

	w := doJSON(router, http.MethodPatch, "/api/databases/d1/tables/7/rows/1", map[string]any{"age": 26})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(router, http.MethodDelete, "/api/databases/d1/tables/7/rows/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(router, http.MethodGet, "/api/databases/d1/tables/7/rows/1", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}

	w = doJSON(router, http.MethodDelete, "/api/databases/d1/tables/7/rows/1", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("double delete = %d, want 404", w.Code)
	}
}
