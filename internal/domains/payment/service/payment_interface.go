package service

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"storefront-backend/internal/domains/payment/model"
	"storefront-backend/internal/shared/types"
)

// =====================================================
// PAYMENT SERVICE INTERFACE
// =====================================================
type PaymentService interface {
	// ============================================
	// CLIENT ENDPOINTS
	// ============================================

	// GetOrderInfo returns the order with its payment attempts, paid and
	// refunded totals, and a reconciliation hint while a provider-backed
	// attempt is in flight. This is the polling endpoint.
	GetOrderInfo(ctx context.Context, cartCtx types.CartContext, orderID uuid.UUID) (*model.OrderInfoResponse, error)

	// HandleReturn probes the gateway once after the customer's browser
	// is redirected back. Idempotent; the transaction settles only
	// through the gateway status fetch, never from the redirect params.
	HandleReturn(ctx context.Context, provider string, params url.Values) (*model.ReturnProbeResponse, error)

	// RetryPayment opens a fresh payment attempt for an order whose
	// previous attempt failed, was cancelled or expired
	RetryPayment(ctx context.Context, cartCtx types.CartContext, provider string, req *model.RetryPaymentRequest) (*model.RetryPaymentResponse, error)

	// ============================================
	// RECONCILIATION (shared with worker jobs)
	// ============================================

	// ReconcileTransaction fetches the gateway's view of one transaction
	// and applies it. Returns the transaction status after the attempt.
	ReconcileTransaction(ctx context.Context, txn *model.PaymentTransaction) (string, error)

	// ExpireStaleTransactions settles in-flight transactions past their
	// payment window, returning how many were finalized
	ExpireStaleTransactions(ctx context.Context, limit int) (int, error)

	// ReconcilePendingTransactions re-checks in-flight transactions
	// against their gateways, returning how many reached a terminal state
	ReconcilePendingTransactions(ctx context.Context, limit int) (int, error)
}
