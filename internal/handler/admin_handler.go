package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/casa-guarda/service-listing/internal/application"
	"github.com/casa-guarda/service-listing/internal/platform/auth"
	"github.com/casa-guarda/service-listing/internal/platform/middleware"
	"github.com/casa-guarda/service-listing/internal/platform/response"
)

// AdminHandler handles the admin dashboard requests.
type AdminHandler struct {
	stats *application.StatsService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(stats *application.StatsService) *AdminHandler {
	return &AdminHandler{stats: stats}
}

// RegisterRoutes registers admin dashboard routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/stats", h.Stats)
	}
}

// Stats handles GET /api/v1/admin/stats.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.stats.GetStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
