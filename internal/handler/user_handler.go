package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casa-guarda/service-listing/internal/application"
	"github.com/casa-guarda/service-listing/internal/platform/auth"
	"github.com/casa-guarda/service-listing/internal/platform/middleware"
	"github.com/casa-guarda/service-listing/internal/platform/response"
)

// pictureField is the multipart field carrying the sign-up picture.
const pictureField = "picture"

// UserHandler handles authentication, sign-up, the caller's profile and user administration.
type UserHandler struct {
	auth           *application.AuthService
	profiles       *application.ProfileService
	registration   *application.RegistrationService
	maxUploadBytes int64
}

// NewUserHandler creates a new UserHandler. Sign-up bodies larger than
// maxUploadBytes are rejected.
func NewUserHandler(
	authService *application.AuthService,
	profiles *application.ProfileService,
	registration *application.RegistrationService,
	maxUploadBytes int64,
) *UserHandler {
	return &UserHandler{auth: authService, profiles: profiles, registration: registration, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes registers auth, profile and admin user routes.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	authGroup := r.Group("/api/v1/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/register", h.Register)
	}

	r.GET("/api/v1/profile", authMW, h.GetProfile)

	admin := r.Group("/api/v1/admin/users")
	admin.Use(authMW, middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("", h.ListUsers)
		admin.POST("/:id/activation", h.ToggleActivation)
	}
}

// Login handles POST /api/v1/auth/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req application.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Refresh handles POST /api/v1/auth/refresh.
func (h *UserHandler) Refresh(c *gin.Context) {
	var req application.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Register handles POST /api/v1/auth/register (multipart).
func (h *UserHandler) Register(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		abortBadForm(c, err)
		return
	}
	field := func(name string) string {
		if v := form.Value[name]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	req := application.RegisterRequest{
		Email:             field("email"),
		Password:          field("password"),
		RepeatPassword:    field("repeat_password"),
		FirstName:         field("first_name"),
		LastName:          field("last_name"),
		PhoneNumber:       field("phone_number"),
		Country:           field("country"),
		PreferredLanguage: field("preferred_language"),
	}
	if files := form.File[pictureField]; len(files) > 0 {
		fh := files[0]
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
		req.Picture = &application.PictureUpload{Name: fh.Filename, Data: data}
	}

	result, err := h.registration.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetProfile handles GET /api/v1/profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListUsers handles GET /api/v1/admin/users.
func (h *UserHandler) ListUsers(c *gin.Context) {
	result, err := h.profiles.ListUsers(c.Request.Context(), c.Query("search"), c.Query("filter"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ToggleActivation handles POST /api/v1/admin/users/:id/activation.
func (h *UserHandler) ToggleActivation(c *gin.Context) {
	id, ok := parseID(c, "id", "user")
	if !ok {
		return
	}

	result, err := h.profiles.ToggleActivation(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
