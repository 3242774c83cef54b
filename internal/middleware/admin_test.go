package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newAdminRouter(authed bool, isAdmin bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if authed {
			c.Set("user_id", uint(1))
			c.Set("username", "alice")
			c.Set("is_admin", isAdmin)
		}
	})
	r.Use(AdminMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func TestAdminMiddlewareAllowsAdmin(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	newAdminRouter(true, true).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminMiddlewareForbidsNonAdmin(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	newAdminRouter(true, false).ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminMiddlewareRequiresAuth(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	newAdminRouter(false, false).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
