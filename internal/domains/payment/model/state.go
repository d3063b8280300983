package model

// =====================================================
// TRANSACTION STATE MACHINE
// =====================================================

// txnTransitions lists the valid next states per current state.
// initiated may settle directly when the provider rejects at create or
// a return callback lands before the pending mark.
var txnTransitions = map[string][]string{
	TxnStatusInitiated: {TxnStatusPending, TxnStatusCompleted, TxnStatusFailed, TxnStatusCancelled},
	TxnStatusPending:   {TxnStatusCompleted, TxnStatusFailed, TxnStatusCancelled},
	TxnStatusCompleted: {},
	TxnStatusFailed:    {},
	TxnStatusCancelled: {},
}

// IsTerminalTxnStatus reports whether status is final. Terminal
// transactions are never reopened; a new attempt creates a new row.
func IsTerminalTxnStatus(status string) bool {
	return status == TxnStatusCompleted || status == TxnStatusFailed || status == TxnStatusCancelled
}

// CanTransition reports whether a transaction may move from one status
// to another.
func CanTransition(from, to string) bool {
	for _, allowed := range txnTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedSourceStatuses returns every status from which `to` is
// reachable. Repositories use this to guard UPDATEs so a lost race
// never reopens a terminal row.
func AllowedSourceStatuses(to string) []string {
	var sources []string
	for from, targets := range txnTransitions {
		for _, t := range targets {
			if t == to {
				sources = append(sources, from)
			}
		}
	}
	return sources
}

// =====================================================
// PROJECTION TO ORDER
// =====================================================

// OrderProjection is what a transaction status implies for the owning
// order. Order.paymentStatus is never written except through this
// projection (plus the pending default at creation).
type OrderProjection struct {
	PaymentStatus string

	// OrderStatus is set only when the projection forces the order
	// status; empty means "leave unchanged"
	OrderStatus string
}

// ProjectOrderStatus maps a transaction status onto the order fields:
//
//	initiated/pending -> paymentStatus=pending, status unchanged
//	completed         -> paymentStatus=paid,    status=confirmed (forced)
//	failed/cancelled  -> paymentStatus=failed,  status unchanged
//
// Failed payment leaves the order retryable; cancelling an order is an
// explicit separate action, never a side effect of payment failure.
func ProjectOrderStatus(txnStatus string) OrderProjection {
	switch txnStatus {
	case TxnStatusCompleted:
		return OrderProjection{PaymentStatus: OrderPaymentStatusPaid, OrderStatus: OrderStatusConfirmed}
	case TxnStatusFailed, TxnStatusCancelled:
		return OrderProjection{PaymentStatus: OrderPaymentStatusFailed}
	default:
		return OrderProjection{PaymentStatus: OrderPaymentStatusPending}
	}
}

// Order-side status values the projection writes. Declared here so the
// projection stays a pure function without importing the order domain.
const (
	OrderPaymentStatusPending = "pending"
	OrderPaymentStatusPaid    = "paid"
	OrderPaymentStatusFailed  = "failed"

	OrderStatusConfirmed = "confirmed"
)
