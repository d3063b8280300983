package model

import (
	"time"

	"github.com/google/uuid"

	ordermodel "storefront-backend/internal/domains/order/model"
)

// Address represents a saved delivery address in the user's address book
type Address struct {
	ID     uuid.UUID `json:"id" db:"id"`
	UserID uuid.UUID `json:"userId" db:"user_id"`

	Name  string `json:"name" db:"name"`
	Phone string `json:"phone" db:"phone"`

	Line1   string  `json:"line1" db:"line1"`
	Line2   *string `json:"line2,omitempty" db:"line2"`
	City    string  `json:"city" db:"city"`
	State   string  `json:"state" db:"state"`
	Pincode string  `json:"pincode" db:"pincode"`

	IsDefault bool      `json:"isDefault" db:"is_default"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// OwnedBy checks the address belongs to the given user
func (a *Address) OwnedBy(userID uuid.UUID) bool {
	return a.UserID == userID
}

// ToShippingAddress snapshots the address onto an order. Orders keep
// the copy, so later address-book edits never rewrite order history.
func (a *Address) ToShippingAddress() *ordermodel.ShippingAddress {
	snapshot := &ordermodel.ShippingAddress{
		Name:    a.Name,
		Phone:   a.Phone,
		Line1:   a.Line1,
		City:    a.City,
		State:   a.State,
		Pincode: a.Pincode,
	}
	if a.Line2 != nil {
		snapshot.Line2 = *a.Line2
	}
	return snapshot
}
