package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-backend/internal/domains/payment/model"
)

// =====================================================
// PAYMENT TRANSACTION REPOSITORY INTERFACE
// =====================================================
type PaymentRepoInterface interface {
	// Create creates a payment transaction
	Create(ctx context.Context, txn *model.PaymentTransaction) error

	// GetByID gets a payment transaction by ID
	GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentTransaction, error)

	// GetLatestByOrderID gets the most recent transaction for an order
	GetLatestByOrderID(ctx context.Context, orderID uuid.UUID) (*model.PaymentTransaction, error)

	// GetByMerchantTransactionID gets a transaction by the merchant
	// reference we handed to the provider
	GetByMerchantTransactionID(ctx context.Context, merchantTxnID string) (*model.PaymentTransaction, error)

	// ListByOrderID lists every payment attempt for an order, newest
	// first
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*model.PaymentTransaction, error)

	// CountByOrderID counts payment attempts for an order
	CountByOrderID(ctx context.Context, orderID uuid.UUID) (int, error)

	// HasCompletedTransaction checks whether the order already has a
	// settled payment
	HasCompletedTransaction(ctx context.Context, orderID uuid.UUID) (bool, error)

	// SumCompletedByOrderID totals the settled amounts for an order
	SumCompletedByOrderID(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)

	// TransitionStatus moves a transaction to toStatus through a
	// guarded UPDATE. A transition from a state the machine does not
	// allow returns ErrInvalidTransition; re-applying the current
	// status is a no-op.
	TransitionStatus(ctx context.Context, id uuid.UUID, toStatus string, update *model.TransactionUpdate) error

	// SetReceiptURL stores the uploaded receipt location
	SetReceiptURL(ctx context.Context, id uuid.UUID, url string) error

	// ============================================
	// MAINTENANCE / REPORTING
	// ============================================

	// ListExpiredInFlight lists in-flight transactions past their
	// expiry window
	ListExpiredInFlight(ctx context.Context, limit int) ([]*model.PaymentTransaction, error)

	// ListInFlight lists transactions still awaiting provider
	// confirmation, oldest first
	ListInFlight(ctx context.Context, limit int) ([]*model.PaymentTransaction, error)

	// ListCompletedBetween lists settled transactions in a time range
	// for settlement reporting
	ListCompletedBetween(ctx context.Context, from, to time.Time) ([]*model.PaymentTransaction, error)
}

// =====================================================
// REFUND REPOSITORY INTERFACE
// =====================================================
// Refund rows are written by back-office tooling; this service only
// aggregates and lists them.
type RefundRepoInterface interface {
	// Create creates a refund row
	Create(ctx context.Context, refund *model.PaymentRefund) error

	// GetByID gets a refund by ID
	GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentRefund, error)

	// ListByTransactionID lists refunds against a transaction
	ListByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*model.PaymentRefund, error)

	// SumProcessedByOrderID totals the settled refunds for an order
	SumProcessedByOrderID(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
}

// =====================================================
// CALLBACK LOG REPOSITORY INTERFACE
// =====================================================
type CallbackLogRepoInterface interface {
	// Create records a provider callback or reconcile fetch
	Create(ctx context.Context, log *model.ProviderCallbackLog) error

	// ListByTransactionID lists callback logs for a transaction
	ListByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*model.ProviderCallbackLog, error)
}
