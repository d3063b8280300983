package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-backend/internal/domains/payment/model"
	"storefront-backend/internal/domains/payment/service"
	"storefront-backend/internal/shared/middleware"
	"storefront-backend/internal/shared/response"
	"storefront-backend/pkg/logger"
)

// =====================================================
// PAYMENT HANDLER
// =====================================================
type PaymentHandler struct {
	paymentService service.PaymentService
	reportService  service.ReportService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(
	paymentService service.PaymentService,
	reportService service.ReportService,
) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		reportService:  reportService,
	}
}

// =====================================================
// API: GET /payments/order-info/:orderId
// =====================================================

// GetOrderInfo is the polling endpoint. It returns the order, its
// payment attempts and, while an attempt is in flight, a reconciliation
// block telling the client when to poll next. No reconciliation block
// means there is nothing left to poll for.
func (h *PaymentHandler) GetOrderInfo(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	cartCtx := middleware.GetCartContext(c)

	result, err := h.paymentService.GetOrderInfo(c.Request.Context(), cartCtx, orderID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// =====================================================
// API: GET /payments/:provider/return
// =====================================================

// HandleReturn is the browser landing after the provider checkout. It
// verifies the return parameters, triggers one reconcile attempt and
// answers with a probe status. The redirect never decides the payment
// outcome; reconciliation against the provider API does.
func (h *PaymentHandler) HandleReturn(c *gin.Context) {
	provider := c.Param("provider")

	result, err := h.paymentService.HandleReturn(c.Request.Context(), provider, c.Request.URL.Query())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// =====================================================
// API: POST /payments/:provider/retry
// =====================================================

// RetryPayment opens a fresh payment attempt after a failed, cancelled
// or expired one
func (h *PaymentHandler) RetryPayment(c *gin.Context) {
	provider := c.Param("provider")

	var req model.RetryPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	cartCtx := middleware.GetCartContext(c)

	result, err := h.paymentService.RetryPayment(c.Request.Context(), cartCtx, provider, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// =====================================================
// API: GET /admin/payments/report
// =====================================================

// SettlementReport streams the settlement workbook for a date range
func (h *PaymentHandler) SettlementReport(c *gin.Context) {
	var req model.SettlementReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters, expected from/to as YYYY-MM-DD")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	f, _, err := h.reportService.BuildSettlementReport(c.Request.Context(), req.From, req.To)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("settlements_%s_%s.xlsx",
		req.From.Format("2006-01-02"), req.To.Format("2006-01-02"))

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		// Headers are already gone, nothing more to send the client
		logger.Error("Failed to stream settlement report", err)
	}
}

// =====================================================
// ERROR HANDLING
// =====================================================

// handleServiceError maps payment errors onto HTTP statuses
func (h *PaymentHandler) handleServiceError(c *gin.Context, err error) {
	var payErr *model.PaymentError
	if errors.As(err, &payErr) {
		response.ErrorResponse(c, h.statusForCode(payErr.Code), payErr.Code, payErr.Message)
		return
	}

	logger.Error("payment operation failed", err)
	response.InternalServerError(c, "Internal server error")
}

// statusForCode maps business error codes to HTTP status codes
func (h *PaymentHandler) statusForCode(code string) int {
	statusMap := map[string]int{
		model.ErrCodeTransactionNotFound: http.StatusNotFound,
		model.ErrCodeOrderNotFound:       http.StatusNotFound,
		model.ErrCodeUnauthorized:        http.StatusForbidden,
		model.ErrCodeOrderAlreadyPaid:    http.StatusConflict,
		model.ErrCodeInvalidProvider:     http.StatusBadRequest,
		model.ErrCodeNoProviderEnabled:   http.StatusServiceUnavailable,
		model.ErrCodeRetryNotAllowed:     http.StatusConflict,
		model.ErrCodeInvalidTransition:   http.StatusConflict,
		model.ErrCodeProviderMismatch:    http.StatusConflict,
		model.ErrCodeReturnParamsInvalid: http.StatusBadRequest,
		model.ErrCodeRetryLimitExceeded:  http.StatusConflict,
		model.ErrCodeGatewayTimeout:      http.StatusBadGateway,
		model.ErrCodeGatewayUnavailable:  http.StatusBadGateway,
		model.ErrCodeGatewayRejected:     http.StatusBadGateway,
	}

	if status, exists := statusMap[code]; exists {
		return status
	}

	return http.StatusInternalServerError
}
