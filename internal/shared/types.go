package shared

import "github.com/shopspring/decimal"

// =====================================================
// ASYNQ TASK TYPES
// =====================================================
const (
	// Fired after an order is confirmed (COD at intake, UPI on settlement)
	TypeSendOrderConfirmation = "email:order_confirmation"

	// Fired after a transaction settles; builds and uploads the receipt
	TypeGenerateReceipt = "payment:generate_receipt"

	// Scheduler-driven safety nets, no payload
	TypeExpireStaleTransactions = "payment:expire_stale"
	TypeReconcilePending        = "payment:reconcile_pending"
)

// =====================================================
// QUEUE NAMES
// =====================================================
// Weights are set on the worker; enqueue sites only pick the lane.
const (
	QueueHigh    = "high"
	QueueDefault = "default"
	QueueLow     = "low"
)

// SendOrderConfirmationPayload carries everything the email template
// needs. UserID may be empty for guest orders; the handler skips those
// because there is no address to send to.
type SendOrderConfirmationPayload struct {
	OrderID       string          `json:"orderId"`
	OrderNumber   string          `json:"orderNumber"`
	UserID        string          `json:"userId,omitempty"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"paymentMethod"`
	PlacedAt      string          `json:"placedAt"`
}

// GenerateReceiptPayload identifies the settled transaction a receipt
// is generated for
type GenerateReceiptPayload struct {
	TransactionID string `json:"transactionId"`
	OrderID       string `json:"orderId"`
}
