package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// CREATE ORDER REQUEST
// =====================================================

// CreateOrderRequest turns a staged checkout intent into an order.
// The intent snapshot is authoritative for items and amounts; the
// request may only pick the delivery target and override the payment
// method captured at checkout.
type CreateOrderRequest struct {
	IntentID          uuid.UUID        `json:"intentId"`
	PaymentMethod     *string          `json:"paymentMethod,omitempty"`
	SelectedAddressID *uuid.UUID       `json:"selectedAddressId,omitempty"`
	Address           *ShippingAddress `json:"address,omitempty"`
	CustomerNote      *string          `json:"customerNote,omitempty"`
}

// Validate validates CreateOrderRequest
func (req CreateOrderRequest) Validate() error {
	if req.IntentID == uuid.Nil {
		return validation.NewError("validation_required", "intentId is required")
	}
	if req.PaymentMethod != nil {
		if err := validation.Validate(*req.PaymentMethod, validation.In(
			PaymentMethodCOD,
			PaymentMethodUPI,
		)); err != nil {
			return NewOrderError(ErrCodeInvalidPaymentMethod, "unsupported payment method", err)
		}
	}
	if req.Address != nil {
		return req.Address.Validate()
	}
	return nil
}

// Validate validates an inline shipping address
func (a ShippingAddress) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&a.Phone, validation.Required, validation.Length(8, 15)),
		validation.Field(&a.Line1, validation.Required, validation.Length(3, 200)),
		validation.Field(&a.City, validation.Required, validation.Length(2, 100)),
		validation.Field(&a.State, validation.Required, validation.Length(2, 100)),
		validation.Field(&a.Pincode, validation.Required, validation.Length(4, 10)),
	)
}

// =====================================================
// CREATE ORDER RESPONSE
// =====================================================

// PaymentInit is what the client needs to hand off to the gateway.
type PaymentInit struct {
	Provider              string     `json:"provider"`
	MerchantTransactionID string     `json:"merchantTransactionId"`
	RedirectURL           string     `json:"redirectUrl,omitempty"`
	SessionToken          string     `json:"sessionToken,omitempty"`
	ExpiresAt             *time.Time `json:"expiresAt,omitempty"`
}

type CreateOrderResponse struct {
	Order   *Order       `json:"order"`
	Payment *PaymentInit `json:"payment,omitempty"`
	Message string       `json:"message"`

	// Legacy wire key kept for client compatibility; reports whether the
	// gateway-side order was created, whichever provider served it.
	CashfreeCreated bool   `json:"cashfreeCreated"`
	Error           string `json:"error,omitempty"`
}

// =====================================================
// ORDER DETAIL RESPONSE
// =====================================================
type OrderDetailResponse struct {
	Order *Order       `json:"order"`
	Items []*OrderItem `json:"items"`
}

// =====================================================
// LIST ORDERS REQUEST
// =====================================================
type ListOrdersRequest struct {
	Status string `form:"status"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// Validate validates ListOrdersRequest
func (req *ListOrdersRequest) Validate() error {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20 // Default
	}

	if req.Status != "" {
		return validation.Validate(req.Status, validation.In(
			OrderStatusPending,
			OrderStatusConfirmed,
			OrderStatusProcessing,
			OrderStatusShipped,
			OrderStatusDelivered,
			OrderStatusCancelled,
		))
	}

	return nil
}

// =====================================================
// LIST ORDERS RESPONSE
// =====================================================
type ListOrdersResponse struct {
	Orders     []OrderSummaryResponse `json:"orders"`
	Pagination PaginationMeta         `json:"pagination"`
}

type OrderSummaryResponse struct {
	ID            uuid.UUID       `json:"id"`
	OrderNumber   string          `json:"orderNumber"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"paymentMethod"`
	PaymentStatus string          `json:"paymentStatus"`
	Total         decimal.Decimal `json:"total"`
	ItemsCount    int             `json:"itemsCount"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// =====================================================
// CANCEL ORDER REQUEST
// =====================================================
type CancelOrderRequest struct {
	Reason  string `json:"reason"`
	Version int    `json:"version"`
}

// Validate validates CancelOrderRequest
func (req CancelOrderRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Reason, validation.Required, validation.Length(5, 500)),
		validation.Field(&req.Version, validation.Min(0)),
	)
}
