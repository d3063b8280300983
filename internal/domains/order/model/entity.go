package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// ORDER STATUS CONSTANTS
// =====================================================
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// =====================================================
// PAYMENT METHOD CONSTANTS
// =====================================================
const (
	PaymentMethodCOD = "cash_on_delivery"

	// Generic method; resolved to one concrete enabled provider at
	// order creation, never re-dispatched downstream
	PaymentMethodUPI = "upi"
)

var ValidPaymentMethods = []string{
	PaymentMethodCOD,
	PaymentMethodUPI,
}

// =====================================================
// PAYMENT STATUS CONSTANTS
// =====================================================
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// DefaultCurrency is the currency every order is priced in
const DefaultCurrency = "INR"

// =====================================================
// ENTITY: Order
// =====================================================
// Created once per successful checkout. paymentStatus/status are the
// only fields mutated afterwards, and only by the transaction
// projection or explicit status actions. Never deleted.
type Order struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"orderNumber"`

	// Ownership: a registered user, a guest session, or both
	UserID    *uuid.UUID `json:"userId,omitempty"`
	SessionID *string    `json:"sessionId,omitempty"`

	// Delivery target: a saved address reference or an inline snapshot
	AddressID       *uuid.UUID       `json:"addressId,omitempty"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`

	// Offer applied at checkout, if any
	OfferID   *uuid.UUID `json:"offerId,omitempty"`
	OfferCode *string    `json:"offerCode,omitempty"`

	// Amounts
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount"`
	ShippingCharge decimal.Decimal `json:"shippingCharge"`
	Total          decimal.Decimal `json:"total"`
	AmountMinor    int64           `json:"amountMinor"`
	Currency       string          `json:"currency"`

	// Payment
	PaymentMethod   string     `json:"paymentMethod"`
	PaymentProvider *string    `json:"paymentProvider,omitempty"`
	PaymentStatus   string     `json:"paymentStatus"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`

	Status string `json:"status"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
	Version     int        `json:"version"`
}

// RequiresProvider checks if the order needs an external payment
// provider to confirm payment
func (o *Order) RequiresProvider() bool {
	return o.PaymentMethod == PaymentMethodUPI
}

// IsCOD checks if order is cash on delivery
func (o *Order) IsCOD() bool {
	return o.PaymentMethod == PaymentMethodCOD
}

// IsPaid checks if payment is completed
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// CanBeCancelled checks if order can be cancelled by the customer
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// OwnedBy checks caller access: a registered owner matches on userId,
// a guest matches on the checkout session
func (o *Order) OwnedBy(userID *uuid.UUID, sessionID string) bool {
	if o.UserID != nil && userID != nil && *o.UserID == *userID {
		return true
	}
	if o.SessionID != nil && sessionID != "" && *o.SessionID == sessionID {
		return true
	}
	return false
}

// =====================================================
// ENTITY: OrderItem
// =====================================================
// Immutable snapshot of the purchased line at checkout time. Written
// together with the order in one transaction, never mutated.
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"orderId"`
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	ImageURL  *string         `json:"imageUrl,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	CreatedAt time.Time       `json:"createdAt"`
}

// CalculateLineTotal calculates quantity * unit price
func (oi *OrderItem) CalculateLineTotal() decimal.Decimal {
	return oi.UnitPrice.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

// =====================================================
// ENTITY: OrderStatusHistory
// =====================================================
type OrderStatusHistory struct {
	ID         uuid.UUID  `json:"id"`
	OrderID    uuid.UUID  `json:"orderId"`
	FromStatus *string    `json:"fromStatus,omitempty"`
	ToStatus   string     `json:"toStatus"`
	ChangedBy  *uuid.UUID `json:"changedBy,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	ChangedAt  time.Time  `json:"changedAt"`
}

// =====================================================
// VALUE: ShippingAddress
// =====================================================
// Inline address snapshot stored on the order so later edits to the
// customer's address book never rewrite order history.
type ShippingAddress struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}
