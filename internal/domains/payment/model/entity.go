package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// PAYMENT TRANSACTION ENTITY
// =====================================================
// The authoritative record of a single provider attempt. Created before
// the outbound provider call; the client polls against this row until a
// terminal status is reached.
type PaymentTransaction struct {
	ID      uuid.UUID `json:"id" db:"id"`
	OrderID uuid.UUID `json:"orderId" db:"order_id"`

	// Provider information
	Provider string `json:"provider" db:"provider"`

	// Caller-generated idempotency key sent to the provider, distinct
	// from any provider-issued identifier
	MerchantTransactionID string `json:"merchantTransactionId" db:"merchant_transaction_id"`

	// Provider-issued identifiers, populated only once known
	ProviderPaymentID     *string `json:"providerPaymentId,omitempty" db:"provider_payment_id"`
	ProviderTransactionID *string `json:"providerTransactionId,omitempty" db:"provider_transaction_id"`
	ProviderReferenceID   *string `json:"providerReferenceId,omitempty" db:"provider_reference_id"`

	// Amount
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	AmountMinor int64           `json:"amountMinor" db:"amount_minor"`
	Currency    string          `json:"currency" db:"currency"`

	// Status tracking
	Status        string  `json:"status" db:"status"`
	FailureReason *string `json:"failureReason,omitempty" db:"failure_reason"`

	// UPI metadata, set when the provider reports it
	PayerVPA          *string `json:"payerVpa,omitempty" db:"payer_vpa"`
	UTR               *string `json:"utr,omitempty" db:"utr"`
	PaymentInstrument *string `json:"paymentInstrument,omitempty" db:"payment_instrument"`

	// Receipt generated after completion
	ReceiptURL *string `json:"receiptUrl,omitempty" db:"receipt_url"`

	// Raw provider response (latest)
	ProviderResponse map[string]interface{} `json:"providerResponse,omitempty" db:"provider_response"`

	// Timestamps
	InitiatedAt time.Time  `json:"initiatedAt" db:"initiated_at"`
	PendingAt   *time.Time `json:"pendingAt,omitempty" db:"pending_at"`
	CompletedAt *time.Time `json:"completedAt,omitempty" db:"completed_at"`
	FailedAt    *time.Time `json:"failedAt,omitempty" db:"failed_at"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty" db:"cancelled_at"`
	ExpiresAt   time.Time  `json:"expiresAt" db:"expires_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// IsTerminal checks if the transaction reached a final state
func (t *PaymentTransaction) IsTerminal() bool {
	return IsTerminalTxnStatus(t.Status)
}

// IsInFlight checks if the transaction is still awaiting an outcome
func (t *PaymentTransaction) IsInFlight() bool {
	return t.Status == TxnStatusInitiated || t.Status == TxnStatusPending
}

// IsExpired checks if an in-flight transaction outlived its window.
// Terminal transactions never expire.
func (t *PaymentTransaction) IsExpired(now time.Time) bool {
	if !t.IsInFlight() {
		return false
	}
	return now.After(t.ExpiresAt)
}

// IsSuccessful checks if the payment completed
func (t *PaymentTransaction) IsSuccessful() bool {
	return t.Status == TxnStatusCompleted
}

// =====================================================
// PAYMENT REFUND ENTITY
// =====================================================
// Data shape only: rows are written by back-office tooling, this
// service reads them for order-info totals and the settlement report.
type PaymentRefund struct {
	ID            uuid.UUID `json:"id" db:"id"`
	TransactionID uuid.UUID `json:"transactionId" db:"transaction_id"`
	OrderID       uuid.UUID `json:"orderId" db:"order_id"`

	Status      string          `json:"status" db:"status"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	AmountMinor int64           `json:"amountMinor" db:"amount_minor"`

	// Refund identifiers mirror the transaction split: merchant key
	// first, provider id once issued
	MerchantRefundID string  `json:"merchantRefundId" db:"merchant_refund_id"`
	ProviderRefundID *string `json:"providerRefundId,omitempty" db:"provider_refund_id"`

	Reason *string `json:"reason,omitempty" db:"reason"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IsProcessed checks if the refund settled
func (r *PaymentRefund) IsProcessed() bool {
	return r.Status == RefundStatusProcessed
}

// =====================================================
// PROVIDER CALLBACK LOG ENTITY
// =====================================================
// Audit row recorded for every return probe and reconcile fetch.
type ProviderCallbackLog struct {
	ID                    uuid.UUID  `json:"id" db:"id"`
	TransactionID         *uuid.UUID `json:"transactionId,omitempty" db:"transaction_id"`
	Provider              string     `json:"provider" db:"provider"`
	MerchantTransactionID string     `json:"merchantTransactionId" db:"merchant_transaction_id"`

	// return | reconcile
	Kind string `json:"kind" db:"kind"`

	Payload map[string]interface{} `json:"payload" db:"payload"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// =====================================================
// TRANSACTION UPDATE
// =====================================================
// Optional fields written together with a status transition. Nil
// pointers leave the stored column untouched.
type TransactionUpdate struct {
	ProviderPaymentID     *string
	ProviderTransactionID *string
	ProviderReferenceID   *string
	FailureReason         *string
	PayerVPA              *string
	UTR                   *string
	PaymentInstrument     *string
	ProviderResponse      map[string]interface{}
}
