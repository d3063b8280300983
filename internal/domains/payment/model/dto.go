package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	orderModel "storefront-backend/internal/domains/order/model"
)

// =====================================================
// RECONCILIATION HINT
// =====================================================

// Reconciliation is attached to order-info responses while a
// provider-backed attempt is in flight. Absence of this object tells
// the client no further provider confirmation is expected.
type Reconciliation struct {
	Status     string    `json:"status"`
	NextPollAt time.Time `json:"nextPollAt"`
	Attempt    int       `json:"attempt"`
}

// =====================================================
// ORDER INFO (polling endpoint)
// =====================================================

type OrderInfoResponse struct {
	Order             *orderModel.Order     `json:"order"`
	Transactions      []*PaymentTransaction `json:"transactions"`
	LatestTransaction *PaymentTransaction   `json:"latestTransaction,omitempty"`
	TotalPaid         decimal.Decimal       `json:"totalPaid"`
	TotalRefunded     decimal.Decimal       `json:"totalRefunded"`
	Reconciliation    *Reconciliation       `json:"reconciliation,omitempty"`
}

// =====================================================
// RETURN PROBE
// =====================================================

const (
	ProbeStatusProcessing = "processing"
	ProbeStatusComplete   = "complete"
)

// ReturnProbeQuery carries the query parameters the provider appends
// when redirecting the customer back to the shop.
type ReturnProbeQuery struct {
	MerchantTransactionID string `form:"merchantTransactionId"`
	ProviderReferenceID   string `form:"providerReferenceId"`
}

func (q ReturnProbeQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.MerchantTransactionID, validation.Required, validation.Length(6, 64)),
	)
}

type ReturnProbeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// =====================================================
// RETRY AFTER EXPIRY
// =====================================================

type RetryPaymentRequest struct {
	OrderID uuid.UUID `json:"orderId"`
}

func (r RetryPaymentRequest) Validate() error {
	if r.OrderID == uuid.Nil {
		return validation.NewError("validation_required", "orderId is required")
	}
	return nil
}

type RetryPaymentResponse struct {
	Order              *orderModel.Order       `json:"order"`
	Transaction        *PaymentTransaction     `json:"transaction"`
	Payment            *orderModel.PaymentInit `json:"payment"`
	Reconciliation     *Reconciliation         `json:"reconciliation"`
	ShouldStartPolling bool                    `json:"shouldStartPolling"`
}

// =====================================================
// SETTLEMENT REPORT (admin)
// =====================================================

type SettlementReportRequest struct {
	From time.Time `form:"from" time_format:"2006-01-02"`
	To   time.Time `form:"to" time_format:"2006-01-02"`
}

func (r SettlementReportRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.From, validation.Required),
		validation.Field(&r.To, validation.Required, validation.By(func(interface{}) error {
			if r.To.Before(r.From) {
				return validation.NewError("validation_range", "to must not be before from")
			}
			return nil
		})),
	)
}
