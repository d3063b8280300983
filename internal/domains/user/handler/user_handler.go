package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/domains/user/model"
	"storefront-backend/internal/domains/user/service"
	"storefront-backend/internal/shared/middleware"
	"storefront-backend/internal/shared/response"
	"storefront-backend/pkg/logger"
)

// Handler handles HTTP requests for accounts
type Handler struct {
	service service.UserService
}

// NewHandler creates handler instance
func NewHandler(service service.UserService) *Handler {
	return &Handler{service: service}
}

// =====================================================
// API: POST /auth/register
// =====================================================

// Register creates an account. The caller logs in separately; the
// guest session carried on the request keeps working either way.
func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	dto, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, dto)
}

// =====================================================
// API: POST /auth/login
// =====================================================

// Login verifies credentials and returns the JWT pair
func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// =====================================================
// API: GET /users/me
// =====================================================

// Me returns the authenticated account
func (h *Handler) Me(c *gin.Context) {
	userID, ok := middleware.MustGetUserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	dto, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, dto)
}

// handleError maps user error codes to HTTP statuses
func (h *Handler) handleError(c *gin.Context, err error) {
	var userErr *model.UserError
	if errors.As(err, &userErr) {
		status, ok := statusForCode[userErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		if status == http.StatusInternalServerError {
			logger.Error("User operation failed", err)
		}
		response.ErrorResponse(c, status, userErr.Code, userErr.Message)
		return
	}

	logger.Error("Unexpected user error", err)
	response.InternalServerError(c, "Something went wrong")
}

var statusForCode = map[string]int{
	model.ErrCodeEmailTaken:         http.StatusConflict,
	model.ErrCodeInvalidCredentials: http.StatusUnauthorized,
	model.ErrCodeUserNotFound:       http.StatusNotFound,
	model.ErrCodeInternalError:      http.StatusInternalServerError,
}
