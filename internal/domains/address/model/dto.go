package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// =====================================================
// REQUEST DTOs
// =====================================================

type CreateAddressRequest struct {
	Name      string  `json:"name"`
	Phone     string  `json:"phone"`
	Line1     string  `json:"line1"`
	Line2     *string `json:"line2,omitempty"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Pincode   string  `json:"pincode"`
	IsDefault bool    `json:"isDefault"`
}

// Validate validates CreateAddressRequest
func (req CreateAddressRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Phone, validation.Required, validation.Length(8, 15)),
		validation.Field(&req.Line1, validation.Required, validation.Length(3, 200)),
		validation.Field(&req.Line2, validation.Length(0, 200)),
		validation.Field(&req.City, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.State, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Pincode, validation.Required, validation.Length(4, 10)),
	)
}

// ToAddress builds the entity for insertion
func (req CreateAddressRequest) ToAddress(userID uuid.UUID) *Address {
	return &Address{
		UserID:    userID,
		Name:      req.Name,
		Phone:     req.Phone,
		Line1:     req.Line1,
		Line2:     req.Line2,
		City:      req.City,
		State:     req.State,
		Pincode:   req.Pincode,
		IsDefault: req.IsDefault,
	}
}

type UpdateAddressRequest struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Line1   string  `json:"line1"`
	Line2   *string `json:"line2,omitempty"`
	City    string  `json:"city"`
	State   string  `json:"state"`
	Pincode string  `json:"pincode"`
}

// Validate validates UpdateAddressRequest
func (req UpdateAddressRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Phone, validation.Required, validation.Length(8, 15)),
		validation.Field(&req.Line1, validation.Required, validation.Length(3, 200)),
		validation.Field(&req.Line2, validation.Length(0, 200)),
		validation.Field(&req.City, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.State, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Pincode, validation.Required, validation.Length(4, 10)),
	)
}

// Apply copies the updatable fields onto an existing address
func (req UpdateAddressRequest) Apply(addr *Address) {
	addr.Name = req.Name
	addr.Phone = req.Phone
	addr.Line1 = req.Line1
	addr.Line2 = req.Line2
	addr.City = req.City
	addr.State = req.State
	addr.Pincode = req.Pincode
}
