package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/domains/order/service"
	"storefront-backend/internal/shared/middleware"
	"storefront-backend/internal/shared/response"
	"storefront-backend/pkg/logger"
)

// =====================================================
// ORDER HANDLER
// =====================================================
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// =====================================================
// API: POST /orders
// =====================================================

// CreateOrder redeems a staged checkout intent into an order. Guest and
// signed-in callers both land here; ownership comes from the cart
// context, never from the body.
//
// Partial success is still HTTP 201: when the gateway stays down the
// order exists and the body carries cashfreeCreated=false plus the
// gateway error.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req model.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	cartCtx := middleware.GetCartContext(c)

	result, err := h.orderService.CreateOrder(c.Request.Context(), cartCtx, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// =====================================================
// API: GET /orders/:orderId
// =====================================================

// GetOrderDetail returns one order with its item lines
func (h *OrderHandler) GetOrderDetail(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	cartCtx := middleware.GetCartContext(c)

	result, err := h.orderService.GetOrderDetail(c.Request.Context(), cartCtx, orderID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// =====================================================
// API: GET /orders
// =====================================================

// ListOrders pages through the caller's orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req model.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	cartCtx := middleware.GetCartContext(c)

	result, err := h.orderService.ListOrders(c.Request.Context(), cartCtx, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// =====================================================
// API: POST /orders/:orderId/cancel
// =====================================================

// CancelOrder cancels a not-yet-paid order on the customer's request
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	var req model.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	cartCtx := middleware.GetCartContext(c)

	if err := h.orderService.CancelOrder(c.Request.Context(), cartCtx, orderID, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"cancelled": true})
}

// =====================================================
// ERROR HANDLING
// =====================================================

// handleServiceError maps order errors onto HTTP statuses
func (h *OrderHandler) handleServiceError(c *gin.Context, err error) {
	var orderErr *model.OrderError
	if errors.As(err, &orderErr) {
		response.ErrorResponse(c, h.statusForCode(orderErr.Code), orderErr.Code, orderErr.Message)
		return
	}

	logger.Error("order operation failed", err)
	response.InternalServerError(c, "Internal server error")
}

// statusForCode maps business error codes to HTTP status codes
func (h *OrderHandler) statusForCode(code string) int {
	statusMap := map[string]int{
		model.ErrCodeOrderNotFound:          http.StatusNotFound,
		model.ErrCodeOrderCannotCancel:      http.StatusConflict,
		model.ErrCodeVersionMismatch:        http.StatusConflict,
		model.ErrCodeCartEmpty:              http.StatusBadRequest,
		model.ErrCodeOfferInvalid:           http.StatusBadRequest,
		model.ErrCodeOfferExpired:           http.StatusBadRequest,
		model.ErrCodeOfferUsageLimitReached: http.StatusBadRequest,
		model.ErrCodeOfferMinAmount:         http.StatusBadRequest,
		model.ErrCodeInvalidAddress:         http.StatusBadRequest,
		model.ErrCodeInvalidPaymentMethod:   http.StatusBadRequest,
		model.ErrCodeUnauthorized:           http.StatusForbidden,
		model.ErrCodeInvalidStatus:          http.StatusBadRequest,
		model.ErrCodeIntentInvalid:          http.StatusBadRequest,
		model.ErrCodeIntentAlreadyProcessed: http.StatusConflict,
		model.ErrCodeInvalidOrder:           http.StatusBadRequest,
	}

	if status, exists := statusMap[code]; exists {
		return status
	}

	return http.StatusInternalServerError
}
