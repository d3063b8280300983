package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/domains/checkout/model"
	"storefront-backend/internal/domains/checkout/service"
	"storefront-backend/internal/shared/middleware"
	"storefront-backend/internal/shared/response"
	"storefront-backend/pkg/logger"
)

// Handler handles HTTP requests for checkout staging
type Handler struct {
	service service.ServiceInterface
}

// NewHandler creates handler instance
func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// ===================================
// API: POST /checkout-intent
// ===================================

// CreateIntent handles POST /checkout-intent
// Stages the submitted cart snapshot and returns the server-priced
// totals plus the single-use intent id the order call will redeem.
func (h *Handler) CreateIntent(c *gin.Context) {
	var req model.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	cartCtx := middleware.GetCartContext(c)

	resp, err := h.service.CreateIntent(c.Request.Context(), cartCtx, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp)
}

// handleError maps checkout errors onto HTTP statuses
func (h *Handler) handleError(c *gin.Context, err error) {
	var checkoutErr *model.CheckoutError
	if errors.As(err, &checkoutErr) {
		response.ErrorResponse(c, checkoutStatusFor(checkoutErr.Code), checkoutErr.Code, checkoutErr.Message)
		return
	}

	logger.Error("checkout intent failed", err)
	response.InternalServerError(c, "Failed to stage checkout")
}

func checkoutStatusFor(code string) int {
	switch code {
	case model.ErrCodeIntentNotFound:
		return http.StatusNotFound
	case model.ErrCodeIntentConsumed:
		return http.StatusConflict
	case model.ErrCodeEmptyItems,
		model.ErrCodeInvalidOffer,
		model.ErrCodeOfferExpired,
		model.ErrCodeOfferUsageLimit,
		model.ErrCodeOfferMinAmount,
		model.ErrCodeInvalidAddress,
		model.ErrCodeInvalidPaymentMethod:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
