package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/casa-guarda/service-listing/internal/application"
	"github.com/casa-guarda/service-listing/internal/platform/auth"
	"github.com/casa-guarda/service-listing/internal/platform/middleware"
	"github.com/casa-guarda/service-listing/internal/platform/response"
)

// HouseHandler handles HTTP requests for houses.
type HouseHandler struct {
	service *application.HouseService
}

// NewHouseHandler creates a new HouseHandler.
func NewHouseHandler(service *application.HouseService) *HouseHandler {
	return &HouseHandler{service: service}
}

// RegisterRoutes registers public and admin house routes.
func (h *HouseHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	houses := r.Group("/api/v1/houses")
	{
		houses.GET("", h.ListHouses)
		houses.GET("/:id", h.GetHouse)
	}

	admin := r.Group("/api/v1/admin/houses")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("", h.ListAllHouses)
		admin.POST("/sessions", h.OpenCreateSession)
		admin.POST("/:id/sessions", h.OpenEditSession)
		admin.POST("/sessions/:sessionId/commit", h.CommitSession)
		admin.DELETE("/:id", h.DeleteHouse)
	}
}

// ListHouses handles GET /api/v1/houses.
func (h *HouseHandler) ListHouses(c *gin.Context) {
	page, limit := parsePagination(c, listingPageSize)

	result, err := h.service.ListHouses(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetHouse handles GET /api/v1/houses/:id.
func (h *HouseHandler) GetHouse(c *gin.Context) {
	id, ok := parseID(c, "id", "house")
	if !ok {
		return
	}

	result, err := h.service.GetHouse(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListAllHouses handles GET /api/v1/admin/houses.
func (h *HouseHandler) ListAllHouses(c *gin.Context) {
	page, limit := parsePagination(c, defaultPageSize)
	showInactive, _ := strconv.ParseBool(c.DefaultQuery("show_inactive", "true"))

	result, err := h.service.ListAllHouses(c.Request.Context(), c.Query("search"), showInactive, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// OpenCreateSession handles POST /api/v1/admin/houses/sessions.
func (h *HouseHandler) OpenCreateSession(c *gin.Context) {
	result, err := h.service.OpenSession(c.Request.Context(), nil)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// OpenEditSession handles POST /api/v1/admin/houses/:id/sessions.
func (h *HouseHandler) OpenEditSession(c *gin.Context) {
	id, ok := parseID(c, "id", "house")
	if !ok {
		return
	}

	result, err := h.service.OpenSession(c.Request.Context(), &id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// CommitSession handles POST /api/v1/admin/houses/sessions/:sessionId/commit.
func (h *HouseHandler) CommitSession(c *gin.Context) {
	sessionID, ok := parseID(c, "sessionId", "session")
	if !ok {
		return
	}

	var req application.HouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CommitSession(c.Request.Context(), sessionID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Created {
		response.Created(c, result)
		return
	}
	response.Success(c, result)
}

// DeleteHouse handles DELETE /api/v1/admin/houses/:id.
func (h *HouseHandler) DeleteHouse(c *gin.Context) {
	id, ok := parseID(c, "id", "house")
	if !ok {
		return
	}

	result, err := h.service.DeleteHouse(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
