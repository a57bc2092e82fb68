package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appcosting "github.com/erp/costing/internal/application/costing"
	"github.com/erp/costing/internal/infrastructure/persistence"
	"github.com/erp/costing/internal/infrastructure/strategy"
	"github.com/erp/costing/internal/interfaces/http/handler"
	"github.com/erp/costing/internal/interfaces/http/middleware"
	"github.com/erp/costing/internal/interfaces/http/router"
	"github.com/erp/costing/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type api struct {
	engine *gin.Engine
	db     *persistence.Database
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details []map[string]any  `json:"details"`
		Context map[string]string `json:"context"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	registry, err := strategy.NewRegistryWithDefaults()
	require.NoError(t, err)
	repos := persistence.NewRepositories(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)
	svc := appcosting.NewService(scope, repos, registry, appcosting.ServiceConfig{DefaultMethod: "fifo", MaxRetries: 3}, nil)
	catalog := appcosting.NewCatalogService(scope, repos, nil)

	engine, err := router.NewEngine(router.EngineConfig{
		Mode:        gin.TestMode,
		MaxBodySize: 1 << 16,
		CORS:        middleware.DefaultCORSConfig(),
	}, zap.NewNop())
	require.NoError(t, err)

	system := handler.NewSystemHandler("costing-engine", "test", map[string]handler.Pinger{"database": db})
	router.NewRouter(engine).
		Register(router.CostingRoutes(handler.NewCostingHandler(svc), handler.NewCatalogHandler(catalog), system)).
		Setup()

	return &api{engine: engine, db: db}
}

// call sends body as JSON (raw when it is a string) and decodes the envelope
func (a *api) call(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, "/api/v1/costing"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

// ok asserts the expected status and decodes data into out
func (a *api) ok(t *testing.T, status int, method, path string, body, out any) {
	t.Helper()
	code, env := a.call(t, method, path, body)
	require.Equal(t, status, code, "%s %s: %+v", method, path, env.Error)
	require.True(t, env.Success)
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
}

// position registers a unit, product and packaging and returns the key fields
func (a *api) position(t *testing.T, warehouseID string) map[string]string {
	t.Helper()
	var unit, product, pkg struct {
		ID string `json:"id"`
	}
	a.ok(t, http.StatusCreated, http.MethodPost, "/catalog/units", map[string]any{"name": "Piece", "symbol": "pc"}, &unit)
	a.ok(t, http.StatusCreated, http.MethodPost, "/catalog/products", map[string]any{"code": "SKU-1", "name": "Widget"}, &product)
	a.ok(t, http.StatusCreated, http.MethodPost, "/catalog/packagings", map[string]any{
		"product_id": product.ID, "unit_id": unit.ID, "quantity_per_package": "1",
	}, &pkg)
	return map[string]string{"warehouse_id": warehouseID, "product_id": product.ID, "packaging_id": pkg.ID}
}

func with(base map[string]string, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func query(key map[string]string) string {
	return "warehouse_id=" + key["warehouse_id"] + "&product_id=" + key["product_id"] + "&packaging_id=" + key["packaging_id"]
}
