package response

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casa-guarda/service-listing/internal/domain"
	"github.com/casa-guarda/service-listing/internal/domain/gallery"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Meta carries pagination details.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Success writes 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// NoContent writes 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated writes 200 with items and page metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Meta:    &Meta{Page: page, Limit: limit, Total: total, TotalPages: pages},
	})
}

// BadRequest writes 400 with msg.
func BadRequest(c *gin.Context, msg string) {
	abort(c, http.StatusBadRequest, "BAD_REQUEST", msg, nil)
}

// Unauthorized writes 401 with msg.
func Unauthorized(c *gin.Context, msg string) {
	abort(c, http.StatusUnauthorized, string(domain.CodeUnauthorized), msg, nil)
}

// Forbidden writes 403 with msg.
func Forbidden(c *gin.Context, msg string) {
	abort(c, http.StatusForbidden, string(domain.CodeForbidden), msg, nil)
}

// TooManyRequests writes 429.
func TooManyRequests(c *gin.Context) {
	abort(c, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", nil)
}

// Error maps err to a status code and writes it.
func Error(c *gin.Context, err error) {
	status, body := Classify(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: body})
}

// Classify returns the status code and error body for err.
func Classify(err error) (int, *ErrorBody) {
	var (
		domainErr  *domain.DomainError
		validErr   *gallery.ValidationError
		precondErr *gallery.PreconditionError
		uploadErr  *gallery.UploadError
		persistErr *gallery.PersistenceError
	)

	switch {
	case errors.As(err, &validErr):
		return http.StatusUnprocessableEntity, &ErrorBody{
			Code:    "VALIDATION",
			Message: validErr.Error(),
			Details: gin.H{"field": validErr.Field},
		}
	case errors.As(err, &precondErr):
		return http.StatusConflict, &ErrorBody{Code: "PRECONDITION", Message: precondErr.Error()}
	case errors.Is(err, gallery.ErrSessionBusy):
		return http.StatusConflict, &ErrorBody{Code: "SESSION_BUSY", Message: err.Error()}
	case errors.Is(err, gallery.ErrSessionClosed):
		return http.StatusGone, &ErrorBody{Code: "SESSION_CLOSED", Message: err.Error()}
	case errors.As(err, &uploadErr):
		return http.StatusBadGateway, &ErrorBody{
			Code:    "UPLOAD_FAILED",
			Message: uploadErr.Error(),
			Details: gin.H{"failed": uploadErr.Failed, "uploaded": uploadErr.Uploaded},
		}
	case errors.As(err, &persistErr):
		return http.StatusInternalServerError, &ErrorBody{
			Code:    "PERSISTENCE_FAILED",
			Message: persistErr.Error(),
		}
	case errors.As(err, &domainErr):
		return domainStatus(domainErr.Code), &ErrorBody{Code: string(domainErr.Code), Message: domainErr.Message}
	default:
		return http.StatusInternalServerError, &ErrorBody{Code: "INTERNAL", Message: "internal server error"}
	}
}

func domainStatus(code domain.ErrorCode) int {
	switch code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeConflict:
		return http.StatusConflict
	case domain.CodeValidation:
		return http.StatusUnprocessableEntity
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, status int, code, msg string, details interface{}) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: msg, Details: details},
	})
}
