package router

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/costing/internal/interfaces/http/middleware"
)

func TestMountSwagger_ServesCostingDocument(t *testing.T) {
	engine := gin.New()
	MountSwagger(engine, middleware.SwaggerConfig{Enabled: true})

	w := serve(engine, http.MethodGet, "/swagger/doc.json")
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		BasePath string                                `json:"basePath"`
		Paths    map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "/api/v1", doc.BasePath)
	for path, method := range map[string]string{
		"/costing/receipts":        "post",
		"/costing/consumptions":    "post",
		"/costing/cost-preview":    "get",
		"/costing/reservations":    "delete",
		"/costing/methods/default": "put",
	} {
		require.Contains(t, doc.Paths, path)
		assert.Contains(t, doc.Paths[path], method, path)
	}
}

func TestMountSwagger_Disabled(t *testing.T) {
	engine := gin.New()
	MountSwagger(engine, middleware.SwaggerConfig{Enabled: false})

	w := serve(engine, http.MethodGet, "/swagger/doc.json")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
}
