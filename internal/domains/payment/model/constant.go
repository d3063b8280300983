package model

// =====================================================
// PAYMENT PROVIDERS
// =====================================================
const (
	ProviderCashfree = "cashfree"
	ProviderPhonePe  = "phonepe"
)

var ValidProviders = []string{
	ProviderCashfree,
	ProviderPhonePe,
}

// IsValidProvider reports whether name is a known concrete provider.
func IsValidProvider(name string) bool {
	for _, p := range ValidProviders {
		if p == name {
			return true
		}
	}
	return false
}

// =====================================================
// TRANSACTION STATUS
// =====================================================
// initiated -> pending -> {completed | failed | cancelled}
// A terminal transaction is never reopened; a new payment attempt
// creates a new transaction row.
const (
	TxnStatusInitiated = "initiated"
	TxnStatusPending   = "pending"
	TxnStatusCompleted = "completed"
	TxnStatusFailed    = "failed"
	TxnStatusCancelled = "cancelled"
)

var ValidTxnStatuses = []string{
	TxnStatusInitiated,
	TxnStatusPending,
	TxnStatusCompleted,
	TxnStatusFailed,
	TxnStatusCancelled,
}

// =====================================================
// RECONCILIATION STATUS (client-facing polling hint)
// =====================================================
const (
	ReconcileStatusPending   = "pending"
	ReconcileStatusCompleted = "completed"
	ReconcileStatusFailed    = "failed"
	ReconcileStatusExpired   = "expired"
)

// =====================================================
// REFUND STATUS
// =====================================================
const (
	RefundStatusPending   = "pending"
	RefundStatusProcessed = "processed"
	RefundStatusFailed    = "failed"
)

// =====================================================
// CALLBACK LOG KINDS
// =====================================================
const (
	CallbackKindReturn    = "return"
	CallbackKindReconcile = "reconcile"
)

// =====================================================
// INTERNAL ERROR CODES
// =====================================================
const (
	// Lookup / ownership errors
	ErrCodeTransactionNotFound = "PAY001"
	ErrCodeOrderNotFound       = "PAY002"
	ErrCodeUnauthorized        = "PAY003"

	// Intake / retry errors
	ErrCodeOrderAlreadyPaid    = "PAY004"
	ErrCodeInvalidProvider     = "PAY005"
	ErrCodeNoProviderEnabled   = "PAY006"
	ErrCodeRetryNotAllowed     = "PAY007"
	ErrCodeInvalidTransition   = "PAY008"
	ErrCodeProviderMismatch    = "PAY009"
	ErrCodeReturnParamsInvalid = "PAY010"
	ErrCodeRetryLimitExceeded  = "PAY011"

	// Provider errors
	ErrCodeGatewayTimeout     = "PAY012"
	ErrCodeGatewayUnavailable = "PAY013"
	ErrCodeGatewayRejected    = "PAY014"

	// System errors
	ErrCodeInternalError = "PAY015"
)

// =====================================================
// CASHFREE ORDER STATUS MAPPING
// =====================================================
// Cashfree reports order-level states on its PG orders API.
var CashfreeStatusMap = map[string]string{
	"ACTIVE":                TxnStatusPending,
	"PAID":                  TxnStatusCompleted,
	"EXPIRED":               TxnStatusCancelled,
	"TERMINATED":            TxnStatusCancelled,
	"TERMINATION_REQUESTED": TxnStatusPending,
}

// MapCashfreeStatus maps a Cashfree order status to an internal
// transaction status. Unknown values stay pending so reconciliation
// keeps polling rather than guessing a terminal state.
func MapCashfreeStatus(providerStatus string) string {
	if mapped, exists := CashfreeStatusMap[providerStatus]; exists {
		return mapped
	}
	return TxnStatusPending
}

// =====================================================
// PHONEPE RESPONSE CODE MAPPING
// =====================================================
var PhonePeCodeMap = map[string]string{
	"PAYMENT_SUCCESS":       TxnStatusCompleted,
	"PAYMENT_PENDING":       TxnStatusPending,
	"PAYMENT_INITIATED":     TxnStatusPending,
	"PAYMENT_DECLINED":      TxnStatusFailed,
	"PAYMENT_ERROR":         TxnStatusFailed,
	"TIMED_OUT":             TxnStatusCancelled,
	"TRANSACTION_NOT_FOUND": TxnStatusFailed,
}

// MapPhonePeCode maps a PhonePe response code to an internal
// transaction status.
func MapPhonePeCode(code string) string {
	if mapped, exists := PhonePeCodeMap[code]; exists {
		return mapped
	}
	return TxnStatusPending
}

// =====================================================
// PAYMENT CONFIGURATION
// =====================================================
const (
	// In-flight transactions past this window reconcile as expired
	TransactionExpiryMinutes = 15

	// Hard ceiling on transaction rows per order, counting the initial
	// attempt and every retry after failure or expiry
	MaxPaymentAttempts = 5

	// Default currency
	DefaultCurrency = "INR"
)

// =====================================================
// POLLING HINTS
// =====================================================
const (
	// Bounds the client applies to nextPollAt-derived delays
	PollMinIntervalMs     = 1000
	PollMaxIntervalMs     = 60000
	PollDefaultIntervalMs = 5000

	// Poll attempt counters expire a day after the last poll
	PollAttemptTTLHours = 24
)

// NextPollDelaySeconds returns the server-suggested delay before the
// given poll attempt (1-indexed). The schedule backs off as attempts
// accumulate so long-pending UPI collects do not hammer the API.
func NextPollDelaySeconds(attempt int) int {
	switch {
	case attempt <= 2:
		return 5
	case attempt == 3:
		return 10
	case attempt == 4:
		return 15
	case attempt == 5:
		return 30
	default:
		return 60
	}
}
