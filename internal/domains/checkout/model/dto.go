package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ordermodel "storefront-backend/internal/domains/order/model"
)

// =====================================================
// CREATE INTENT REQUEST
// =====================================================

// CreateIntentRequest stages a checkout. The client sends its cart
// snapshot; subtotal, discount, shipping and total are recomputed
// server-side and the client never dictates an amount.
type CreateIntentRequest struct {
	Items             []IntentItemRequest         `json:"items"`
	PaymentMethod     string                      `json:"paymentMethod"`
	OfferCode         *string                     `json:"offerCode,omitempty"`
	SelectedAddressID *uuid.UUID                  `json:"selectedAddressId,omitempty"`
	Address           *ordermodel.ShippingAddress `json:"address,omitempty"`
}

type IntentItemRequest struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	ImageURL  *string         `json:"imageUrl,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Validate validates CreateIntentRequest
func (req CreateIntentRequest) Validate() error {
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Items, validation.Required, validation.Length(1, MaxItemsPerIntent)),
		validation.Field(&req.PaymentMethod, validation.Required, validation.In(
			ordermodel.PaymentMethodCOD,
			ordermodel.PaymentMethodUPI,
		)),
	); err != nil {
		return err
	}

	for _, item := range req.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	if req.Address != nil {
		return req.Address.Validate()
	}
	return nil
}

// Validate validates a single cart line
func (i IntentItemRequest) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ProductID, validation.Required, validation.Length(1, 100)),
		validation.Field(&i.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&i.Quantity, validation.Required, validation.Min(1), validation.Max(MaxQuantityPerItem)),
		validation.Field(&i.UnitPrice, validation.By(validatePrice)),
	)
}

func validatePrice(value interface{}) error {
	price, ok := value.(decimal.Decimal)
	if !ok {
		return errors.New("must be a decimal amount")
	}
	if price.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}

// =====================================================
// CREATE INTENT RESPONSE
// =====================================================

// CreateIntentResponse echoes the server-priced snapshot so the client
// can render the exact amount the order will charge.
type CreateIntentResponse struct {
	IntentID       uuid.UUID       `json:"intentId"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	ShippingCharge decimal.Decimal `json:"shippingCharge"`
	Total          decimal.Decimal `json:"total"`
	AmountMinor    int64           `json:"amountMinor"`
	Currency       string          `json:"currency"`
	ExpiresAt      time.Time       `json:"expiresAt"`
}
