package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casa-guarda/service-listing/internal/application"
	"github.com/casa-guarda/service-listing/internal/platform/auth"
	"github.com/casa-guarda/service-listing/internal/platform/middleware"
	"github.com/casa-guarda/service-listing/internal/platform/response"
)

// imagesField is the multipart field carrying staged files.
const imagesField = "images"

// RemoveStagedRequest identifies a staged file by preview handle or by position.
type RemoveStagedRequest struct {
	Handle string `json:"handle"`
	Index  *int   `json:"index"`
}

// ImageRefRequest carries one image reference.
type ImageRefRequest struct {
	Ref string `json:"ref"`
}

// StageFilesResponse lists the handles of the files staged by one upload.
type StageFilesResponse struct {
	Handles []string                `json:"handles"`
	Session *application.SessionDTO `json:"session"`
}

// ImageSessionHandler handles the edits of an open image session.
type ImageSessionHandler struct {
	service        *application.ImageSessionService
	maxUploadBytes int64
}

// NewImageSessionHandler creates a new ImageSessionHandler. Uploads larger
// than maxUploadBytes are rejected.
func NewImageSessionHandler(service *application.ImageSessionService, maxUploadBytes int64) *ImageSessionHandler {
	return &ImageSessionHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes registers image session routes.
func (h *ImageSessionHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	sessions := r.Group("/api/v1/admin/sessions")
	sessions.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		sessions.GET("/:id", h.GetSession)
		sessions.POST("/:id/files", h.StageFiles)
		sessions.POST("/:id/staged/remove", h.RemoveStagedFile)
		sessions.POST("/:id/existing/remove", h.RemoveExistingImage)
		sessions.PUT("/:id/main", h.SetMainImage)
		sessions.DELETE("/:id", h.CloseSession)
	}
}

// GetSession handles GET /api/v1/admin/sessions/:id.
func (h *ImageSessionHandler) GetSession(c *gin.Context) {
	id, ok := parseID(c, "id", "session")
	if !ok {
		return
	}

	result, err := h.service.GetSession(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// StageFiles handles POST /api/v1/admin/sessions/:id/files (multipart).
func (h *ImageSessionHandler) StageFiles(c *gin.Context) {
	id, ok := parseID(c, "id", "session")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		abortBadForm(c, err)
		return
	}
	files := form.File[imagesField]
	if len(files) == 0 {
		response.BadRequest(c, "no files in field "+imagesField)
		return
	}

	result := StageFilesResponse{Handles: make([]string, 0, len(files))}
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			response.BadRequest(c, "failed to read "+fh.Filename)
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			response.BadRequest(c, "failed to read "+fh.Filename)
			return
		}

		staged, err := h.service.StageFile(c.Request.Context(), id, fh.Filename, data)
		if err != nil {
			response.Error(c, err)
			return
		}
		result.Handles = append(result.Handles, staged.Handle)
		result.Session = staged.Session
	}

	response.Created(c, result)
}

// abortBadForm answers a failed multipart parse, with 413 when the body
// exceeded the upload limit.
func abortBadForm(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, response.Envelope{
			Error: &response.ErrorBody{Code: "TOO_LARGE", Message: "upload exceeds the size limit"},
		})
		return
	}
	response.BadRequest(c, "invalid multipart form")
}

// RemoveStagedFile handles POST /api/v1/admin/sessions/:id/staged/remove.
func (h *ImageSessionHandler) RemoveStagedFile(c *gin.Context) {
	id, ok := parseID(c, "id", "session")
	if !ok {
		return
	}

	var req RemoveStagedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var (
		result *application.SessionDTO
		err    error
	)
	switch {
	case req.Handle != "":
		result, err = h.service.RemoveStagedFile(c.Request.Context(), id, req.Handle)
	case req.Index != nil:
		result, err = h.service.RemoveStagedFileAt(c.Request.Context(), id, *req.Index)
	default:
		response.BadRequest(c, "handle or index is required")
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RemoveExistingImage handles POST /api/v1/admin/sessions/:id/existing/remove.
func (h *ImageSessionHandler) RemoveExistingImage(c *gin.Context) {
	id, ok := parseID(c, "id", "session")
	if !ok {
		return
	}

	var req ImageRefRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Ref == "" {
		response.BadRequest(c, "ref is required")
		return
	}

	result, err := h.service.RemoveExistingImage(c.Request.Context(), id, req.Ref)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// SetMainImage handles PUT /api/v1/admin/sessions/:id/main. An empty ref
// clears the main image.
func (h *ImageSessionHandler) SetMainImage(c *gin.Context) {
	id, ok := parseID(c, "id", "session")
	if !ok {
		return
	}

	var req ImageRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.SetMainImage(c.Request.Context(), id, req.Ref)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CloseSession handles DELETE /api/v1/admin/sessions/:id.
func (h *ImageSessionHandler) CloseSession(c *gin.Context) {
	id, ok := parseID(c, "id", "session")
	if !ok {
		return
	}

	if err := h.service.CloseSession(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
