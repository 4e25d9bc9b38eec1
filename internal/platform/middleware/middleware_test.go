package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/casa-guarda/service-listing/internal/platform/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(jwt *auth.JWTManager) *gin.Engine {
	r := gin.New()
	r.Use(RecoveryMiddleware(zap.NewNop()), RequestIDMiddleware())
	admin := r.Group("/admin", AuthMiddleware(jwt), RequireRole(auth.RoleAdmin))
	admin.GET("/me", func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.String(http.StatusOK, id.String())
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	jwt := auth.NewJWTManager("secret", time.Minute, time.Hour)
	r := newRouter(jwt)
	adminID := uuid.New()

	adminToken, err := jwt.GenerateAccessToken(adminID, "a@example.com", auth.RoleAdmin)
	require.NoError(t, err)
	userToken, err := jwt.GenerateAccessToken(uuid.New(), "u@example.com", auth.RoleUser)
	require.NoError(t, err)
	refreshToken, err := jwt.GenerateRefreshToken(adminID, "a@example.com", auth.RoleAdmin)
	require.NoError(t, err)

	w := do(r, "/admin/me", adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, adminID.String(), w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin/me", "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin/me", refreshToken).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/admin/me", userToken).Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	r := newRouter(auth.NewJWTManager("secret", time.Minute, time.Hour))
	w := do(r, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(4)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"))

	now = now.Add(15 * time.Second)
	assert.True(t, l.Allow("1.2.3.4"))

	now = now.Add(limiterIdle + time.Second)
	l.Allow("9.9.9.9")
	assert.Len(t, l.clients, 1)
}
