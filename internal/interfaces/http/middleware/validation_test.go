package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stockQuery struct {
	WarehouseID string `form:"warehouse_id" binding:"required,uuid"`
	Method      string `form:"method" binding:"omitempty,oneof=fifo lifo"`
}

func TestValidationDetails(t *testing.T) {
	SetupValidator()

	var got error
	router := gin.New()
	router.GET("/x", func(c *gin.Context) {
		var q stockQuery
		got = c.ShouldBindQuery(&q)
		c.Status(http.StatusOK)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x?warehouse_id=nope&method=avg", nil))

	require.Error(t, got)
	details := ValidationDetails(got)
	require.Len(t, details, 2)
	assert.Equal(t, "warehouse_id", details[0].Field)
	assert.Equal(t, "Invalid UUID format", details[0].Message)
	assert.Equal(t, "method", details[1].Field)
	assert.Equal(t, "Must be one of: fifo lifo", details[1].Message)
}

func TestValidationDetails_NotValidationError(t *testing.T) {
	assert.Nil(t, ValidationDetails(assert.AnError))
}
