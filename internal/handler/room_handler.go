package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/casa-guarda/service-listing/internal/application"
	"github.com/casa-guarda/service-listing/internal/platform/auth"
	"github.com/casa-guarda/service-listing/internal/platform/middleware"
	"github.com/casa-guarda/service-listing/internal/platform/response"
)

// RoomHandler handles HTTP requests for rooms.
type RoomHandler struct {
	service *application.RoomService
}

// NewRoomHandler creates a new RoomHandler.
func NewRoomHandler(service *application.RoomService) *RoomHandler {
	return &RoomHandler{service: service}
}

// RegisterRoutes registers public and admin room routes.
func (h *RoomHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	rooms := r.Group("/api/v1/rooms")
	{
		rooms.GET("", h.ListRooms)
		rooms.GET("/:id", h.GetRoom)
	}

	admin := r.Group("/api/v1/admin/rooms")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("", h.ListAllRooms)
		admin.POST("/sessions", h.OpenCreateSession)
		admin.POST("/:id/sessions", h.OpenEditSession)
		admin.POST("/sessions/:sessionId/commit", h.CommitSession)
		admin.DELETE("/:id", h.DeleteRoom)
	}
}

// ListRooms handles GET /api/v1/rooms.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	page, limit := parsePagination(c, listingPageSize)
	minPrice, ok := parseOptionalFloat(c, "min_price")
	if !ok {
		return
	}
	maxPrice, ok := parseOptionalFloat(c, "max_price")
	if !ok {
		return
	}

	result, err := h.service.ListRooms(c.Request.Context(), application.RoomQuery{
		Availability: c.Query("availability"),
		Type:         c.Query("type"),
		MinPrice:     minPrice,
		MaxPrice:     maxPrice,
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetRoom handles GET /api/v1/rooms/:id.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	id, ok := parseID(c, "id", "room")
	if !ok {
		return
	}

	result, err := h.service.GetRoom(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListAllRooms handles GET /api/v1/admin/rooms.
func (h *RoomHandler) ListAllRooms(c *gin.Context) {
	page, limit := parsePagination(c, defaultPageSize)

	result, err := h.service.ListAllRooms(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// OpenCreateSession handles POST /api/v1/admin/rooms/sessions.
func (h *RoomHandler) OpenCreateSession(c *gin.Context) {
	result, err := h.service.OpenSession(c.Request.Context(), nil)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// OpenEditSession handles POST /api/v1/admin/rooms/:id/sessions.
func (h *RoomHandler) OpenEditSession(c *gin.Context) {
	id, ok := parseID(c, "id", "room")
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

// CommitSession handles POST /api/v1/admin/rooms/sessions/:sessionId/commit.
func (h *RoomHandler) CommitSession(c *gin.Context) {
	sessionID, ok := parseID(c, "sessionId", "session")
	if !ok {
		return
	}

	var req application.RoomRequest
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

// DeleteRoom handles DELETE /api/v1/admin/rooms/:id.
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	id, ok := parseID(c, "id", "room")
	if !ok {
		return
	}

	result, err := h.service.DeleteRoom(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
