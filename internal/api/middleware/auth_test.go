package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/taoyao-code/aks-gateway/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(cfg config.AuthConfig) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), APIKeyAuth(cfg, zap.NewNop()))
	r.GET("/api/x", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(KeyRequestID))
	})
	return r
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := config.AuthConfig{Enabled: true, APIKeys: []string{"sk_test_12345678"}}

	tests := []struct {
		name   string
		header map[string]string
		code   int
	}{
		{"缺少密钥", nil, http.StatusUnauthorized},
		{"错误密钥", map[string]string{"X-API-Key": "nope"}, http.StatusForbidden},
		{"X-API-Key", map[string]string{"X-API-Key": "sk_test_12345678"}, http.StatusOK},
		{"Bearer", map[string]string{"Authorization": "Bearer sk_test_12345678"}, http.StatusOK},
		{"非Bearer格式", map[string]string{"Authorization": "Basic sk_test_12345678"}, http.StatusUnauthorized},
	}
	r := newRouter(cfg)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, tt.code, rr.Code)
		})
	}

	t.Run("未启用时放行", func(t *testing.T) {
		rr := httptest.NewRecorder()
		newRouter(config.AuthConfig{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/x", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestRequestID(t *testing.T) {
	r := newRouter(config.AuthConfig{})

	t.Run("沿用请求头", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
		req.Header.Set("X-Request-ID", "abc")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, "abc", rr.Body.String())
		assert.Equal(t, "abc", rr.Header().Get("X-Request-ID"))
	})

	t.Run("自动生成", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/x", nil))
		assert.Len(t, rr.Body.String(), 36)
		assert.Equal(t, rr.Body.String(), rr.Header().Get("X-Request-ID"))
	})
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk_t****5678", maskAPIKey("sk_test_12345678"))
}
