package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	addressmodel "storefront-backend/internal/domains/address/model"
	addressrepo "storefront-backend/internal/domains/address/repository"
	"storefront-backend/internal/domains/checkout/model"
	"storefront-backend/internal/domains/checkout/repository"
	offermodel "storefront-backend/internal/domains/offer/model"
	offerservice "storefront-backend/internal/domains/offer/service"
	ordermodel "storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/domains/shipping"
	"storefront-backend/internal/shared/types"
)

type checkoutService struct {
	store        repository.IntentStore
	offerService offerservice.ServiceInterface
	addressRepo  addressrepo.RepositoryInterface
	shipping     *shipping.Calculator
}

// NewCheckoutService creates service instance
func NewCheckoutService(
	store repository.IntentStore,
	offerService offerservice.ServiceInterface,
	addressRepo addressrepo.RepositoryInterface,
	shippingCalc *shipping.Calculator,
) ServiceInterface {
	return &checkoutService{
		store:        store,
		offerService: offerService,
		addressRepo:  addressRepo,
		shipping:     shippingCalc,
	}
}

// CreateIntent stages a checkout.
//
// Business Logic Flow:
// 1. Resolve the delivery target (saved address or inline snapshot)
// 2. Snapshot the cart lines and derive the subtotal from them
// 3. Resolve and validate the offer code, compute the discount
// 4. Compute the shipping charge for the delivery pincode
// 5. Store the priced snapshot in Redis with a 1h TTL
//
// Amounts are computed here and frozen; the client never dictates a
// price, it only confirms the one echoed back.
func (s *checkoutService) CreateIntent(ctx context.Context, cartCtx types.CartContext, req *model.CreateIntentRequest) (*model.CreateIntentResponse, error) {
	if cartCtx.SessionID == "" {
		return nil, model.NewCheckoutError(model.ErrCodeInternalError, "checkout session missing", nil)
	}

	// Step 1: Resolve delivery target
	addressID, address, err := s.resolveAddress(ctx, cartCtx, req)
	if err != nil {
		return nil, err
	}
	pincode := ""
	if address != nil {
		pincode = address.Pincode
	}

	// Step 2: Snapshot items and derive subtotal
	items := make([]model.IntentItem, 0, len(req.Items))
	subtotal := decimal.Zero
	for _, line := range req.Items {
		item := model.IntentItem{
			ProductID: line.ProductID,
			Title:     line.Title,
			ImageURL:  line.ImageURL,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
		items = append(items, item)
		subtotal = subtotal.Add(item.LineTotal())
	}
	if len(items) == 0 {
		return nil, model.NewCheckoutError(model.ErrCodeEmptyItems, "checkout has no items", model.ErrEmptyItems)
	}

	// Step 3: Apply offer
	var offerID *uuid.UUID
	var offerCode *string
	discount := decimal.Zero
	if req.OfferCode != nil && *req.OfferCode != "" {
		offer, err := s.resolveOffer(ctx, *req.OfferCode, subtotal)
		if err != nil {
			return nil, err
		}
		discount = s.offerService.CalculateDiscount(offer, subtotal)
		offerID = &offer.ID
		code := offer.Code
		offerCode = &code
	}

	// Step 4: Shipping charge against the discounted order value
	itemCount := 0
	for _, item := range items {
		itemCount += item.Quantity
	}
	shippingCharge := s.shipping.Calculate(itemCount, pincode, subtotal.Sub(discount))

	total := ordermodel.CalculateTotal(subtotal, discount, shippingCharge)
	amountMinor := ordermodel.ToMinorUnits(total)

	// Step 5: Stage the intent
	now := time.Now()
	intent := &model.CheckoutIntent{
		ID:             uuid.New(),
		SessionID:      cartCtx.SessionID,
		UserID:         cartCtx.UserID,
		Items:          items,
		Subtotal:       subtotal,
		Discount:       discount,
		ShippingCharge: shippingCharge,
		Total:          total,
		AmountMinor:    amountMinor,
		Currency:       ordermodel.DefaultCurrency,
		PaymentMethod:  req.PaymentMethod,
		AddressID:      addressID,
		Address:        address,
		OfferID:        offerID,
		OfferCode:      offerCode,
		CreatedAt:      now,
		ExpiresAt:      now.Add(model.DefaultIntentTTL),
	}

	if err := s.store.Save(ctx, intent, model.DefaultIntentTTL); err != nil {
		return nil, model.NewCheckoutError(model.ErrCodeInternalError, "failed to stage checkout", err)
	}

	return &model.CreateIntentResponse{
		IntentID:       intent.ID,
		Subtotal:       intent.Subtotal,
		Discount:       intent.Discount,
		ShippingCharge: intent.ShippingCharge,
		Total:          intent.Total,
		AmountMinor:    intent.AmountMinor,
		Currency:       intent.Currency,
		ExpiresAt:      intent.ExpiresAt,
	}, nil
}

// resolveAddress picks the saved address (ownership checked) or the
// inline snapshot. Both may be absent; intake accepts the address then.
func (s *checkoutService) resolveAddress(ctx context.Context, cartCtx types.CartContext, req *model.CreateIntentRequest) (*uuid.UUID, *ordermodel.ShippingAddress, error) {
	if req.SelectedAddressID != nil {
		if cartCtx.UserID == nil {
			return nil, nil, model.NewCheckoutError(model.ErrCodeInvalidAddress, "saved addresses require a signed-in user", model.ErrInvalidAddress)
		}

		saved, err := s.addressRepo.GetByID(ctx, *req.SelectedAddressID)
		if err != nil {
			if errors.Is(err, addressmodel.ErrAddressNotFound) {
				return nil, nil, model.NewCheckoutError(model.ErrCodeInvalidAddress, "selected address not found", model.ErrInvalidAddress)
			}
			return nil, nil, model.NewCheckoutError(model.ErrCodeInternalError, "failed to load address", err)
		}
		if !saved.OwnedBy(*cartCtx.UserID) {
			return nil, nil, model.NewCheckoutError(model.ErrCodeInvalidAddress, "selected address not found", model.ErrInvalidAddress)
		}

		return &saved.ID, saved.ToShippingAddress(), nil
	}

	if req.Address != nil {
		return nil, req.Address, nil
	}

	return nil, nil, nil
}

// resolveOffer loads and validates the offer, mapping offer sentinels
// onto checkout error codes
func (s *checkoutService) resolveOffer(ctx context.Context, code string, subtotal decimal.Decimal) (*offermodel.Offer, error) {
	offer, err := s.offerService.GetOfferByCode(ctx, code)
	if err != nil {
		if errors.Is(err, offermodel.ErrOfferNotFound) {
			return nil, model.NewCheckoutError(model.ErrCodeInvalidOffer, "offer code is not valid", err)
		}
		return nil, model.NewCheckoutError(model.ErrCodeInternalError, "failed to load offer", err)
	}

	if err := s.offerService.ValidateOffer(offer, subtotal); err != nil {
		switch {
		case errors.Is(err, offermodel.ErrOfferExpired):
			return nil, model.NewCheckoutError(model.ErrCodeOfferExpired, "offer code has expired", err)
		case errors.Is(err, offermodel.ErrOfferUsageExceeded):
			return nil, model.NewCheckoutError(model.ErrCodeOfferUsageLimit, "offer usage limit reached", err)
		case errors.Is(err, offermodel.ErrOfferMinAmount):
			return nil, model.NewCheckoutError(model.ErrCodeOfferMinAmount, "order amount is below the offer minimum", err)
		default:
			return nil, model.NewCheckoutError(model.ErrCodeInvalidOffer, "offer code is not valid", err)
		}
	}

	return offer, nil
}
