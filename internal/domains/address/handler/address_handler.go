package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-backend/internal/domains/address/model"
	"storefront-backend/internal/domains/address/service"
	"storefront-backend/internal/shared/middleware"
	"storefront-backend/internal/shared/response"
	"storefront-backend/pkg/logger"
)

// Handler handles HTTP requests for the address book.
// All routes sit behind AuthMiddleware; the session-only guest flow
// uses inline addresses instead.
type Handler struct {
	service service.ServiceInterface
}

// NewHandler creates handler instance
func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// CreateAddress handles POST /addresses
func (h *Handler) CreateAddress(c *gin.Context) {
	userID, ok := middleware.MustGetUserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	var req model.CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	addr, err := h.service.CreateAddress(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, addr)
}

// ListAddresses handles GET /addresses
func (h *Handler) ListAddresses(c *gin.Context) {
	userID, ok := middleware.MustGetUserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	addresses, err := h.service.ListAddresses(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, addresses)
}

// GetAddress handles GET /addresses/:addressId
func (h *Handler) GetAddress(c *gin.Context) {
	userID, ok := middleware.MustGetUserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	addressID, err := uuid.Parse(c.Param("addressId"))
	if err != nil {
		response.BadRequest(c, "Invalid address ID")
		return
	}

	addr, err := h.service.GetAddress(c.Request.Context(), userID, addressID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, addr)
}

// UpdateAddress handles PUT /addresses/:addressId
func (h *Handler) UpdateAddress(c *gin.Context) {
	userID, ok := middleware.MustGetUserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	addressID, err := uuid.Parse(c.Param("addressId"))
	if err != nil {
		response.BadRequest(c, "Invalid address ID")
		return
	}

	var req model.UpdateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	addr, err := h.service.UpdateAddress(c.Request.Context(), userID, addressID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, addr)
}

// DeleteAddress handles DELETE /addresses/:addressId
func (h *Handler) DeleteAddress(c *gin.Context) {
	userID, ok := middleware.MustGetUserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	addressID, err := uuid.Parse(c.Param("addressId"))
	if err != nil {
		response.BadRequest(c, "Invalid address ID")
		return
	}

	if err := h.service.DeleteAddress(c.Request.Context(), userID, addressID); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// SetDefaultAddress handles PUT /addresses/:addressId/default
func (h *Handler) SetDefaultAddress(c *gin.Context) {
	userID, ok := middleware.MustGetUserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	addressID, err := uuid.Parse(c.Param("addressId"))
	if err != nil {
		response.BadRequest(c, "Invalid address ID")
		return
	}

	addr, err := h.service.SetDefaultAddress(c.Request.Context(), userID, addressID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, addr)
}

// handleError maps address errors onto HTTP statuses
func (h *Handler) handleError(c *gin.Context, err error) {
	var addrErr *model.AddressError
	if errors.As(err, &addrErr) {
		status := http.StatusInternalServerError
		switch addrErr.Code {
		case model.ErrCodeAddressNotFound:
			status = http.StatusNotFound
		case model.ErrCodeAddressNotOwned:
			status = http.StatusForbidden
		case model.ErrCodeInvalidAddress:
			status = http.StatusBadRequest
		}
		response.ErrorResponse(c, status, addrErr.Code, addrErr.Message)
		return
	}

	logger.Error("address operation failed", err)
	response.InternalServerError(c, "Address operation failed")
}
