package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newSwaggerRouter(cfg SwaggerConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg), func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})
	return router
}

func TestSwaggerProtection(t *testing.T) {
	tests := []struct {
		name       string
		cfg        SwaggerConfig
		remoteAddr string
		wantStatus int
		wantBody   string
	}{
		{"disabled", SwaggerConfig{Enabled: false}, "127.0.0.1:1234", http.StatusNotFound, "ERR_NOT_FOUND"},
		{"open", SwaggerConfig{Enabled: true}, "192.168.1.1:1234", http.StatusOK, "docs"},
		{"whitelisted ip", SwaggerConfig{Enabled: true, AllowedIPs: []string{"127.0.0.1"}}, "127.0.0.1:1234", http.StatusOK, "docs"},
		{"ip outside whitelist", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, "192.168.1.1:1234", http.StatusForbidden, "ERR_FORBIDDEN"},
		{"inside cidr", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}, "10.50.100.200:1234", http.StatusOK, "docs"},
		{"outside cidr", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}, "11.0.0.1:1234", http.StatusForbidden, "ERR_FORBIDDEN"},
		{"malformed entries only", SwaggerConfig{Enabled: true, AllowedIPs: []string{"not-an-ip", "10.0.0.0/99"}}, "10.0.0.1:1234", http.StatusForbidden, "ERR_FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
			req.RemoteAddr = tt.remoteAddr
			w := httptest.NewRecorder()
			newSwaggerRouter(tt.cfg).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestIsIPAllowed(t *testing.T) {
	_, private, _ := net.ParseCIDR("10.0.0.0/8")
	ips := []net.IP{net.ParseIP("192.168.1.1"), net.ParseIP("::1")}
	nets := []*net.IPNet{private}

	assert.True(t, isIPAllowed(net.ParseIP("192.168.1.1"), ips, nets))
	assert.True(t, isIPAllowed(net.ParseIP("::1"), ips, nets))
	assert.True(t, isIPAllowed(net.ParseIP("10.1.2.3"), ips, nets))
	assert.False(t, isIPAllowed(net.ParseIP("192.168.1.2"), ips, nets))
	assert.False(t, isIPAllowed(nil, ips, nets))
}
