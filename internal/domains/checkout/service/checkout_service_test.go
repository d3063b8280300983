package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	addressmodel "storefront-backend/internal/domains/address/model"
	"storefront-backend/internal/domains/checkout/model"
	offermodel "storefront-backend/internal/domains/offer/model"
	offerservice "storefront-backend/internal/domains/offer/service"
	ordermodel "storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/domains/shipping"
	"storefront-backend/internal/shared/types"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ===================================
// Fakes
// ===================================

type fakeStore struct {
	saved *model.CheckoutIntent
	ttl   time.Duration
	err   error
}

func (f *fakeStore) Save(ctx context.Context, intent *model.CheckoutIntent, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.saved = intent
	f.ttl = ttl
	return nil
}

func (f *fakeStore) Fetch(ctx context.Context, intentID uuid.UUID, sessionID string) (*model.CheckoutIntent, error) {
	return nil, model.ErrIntentNotFound
}

func (f *fakeStore) Consume(ctx context.Context, intentID uuid.UUID) (bool, error) {
	return false, nil
}

type fakeOfferRepo struct {
	offers map[string]*offermodel.Offer
}

func (f *fakeOfferRepo) GetByID(ctx context.Context, id uuid.UUID) (*offermodel.Offer, error) {
	for _, o := range f.offers {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, offermodel.ErrOfferNotFound
}

func (f *fakeOfferRepo) GetByCode(ctx context.Context, code string) (*offermodel.Offer, error) {
	if o, ok := f.offers[strings.ToLower(code)]; ok {
		return o, nil
	}
	return nil, offermodel.ErrOfferNotFound
}

func (f *fakeOfferRepo) IncrementUsage(ctx context.Context, id uuid.UUID) error { return nil }

type fakeAddressRepo struct {
	byID map[uuid.UUID]*addressmodel.Address
}

func (f *fakeAddressRepo) Create(ctx context.Context, address *addressmodel.Address) (*addressmodel.Address, error) {
	return address, nil
}

func (f *fakeAddressRepo) GetByID(ctx context.Context, id uuid.UUID) (*addressmodel.Address, error) {
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return nil, addressmodel.ErrAddressNotFound
}

func (f *fakeAddressRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*addressmodel.Address, error) {
	return nil, nil
}

func (f *fakeAddressRepo) GetDefaultByUserID(ctx context.Context, userID uuid.UUID) (*addressmodel.Address, error) {
	return nil, addressmodel.ErrAddressNotFound
}

func (f *fakeAddressRepo) CountByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	return len(f.byID), nil
}

func (f *fakeAddressRepo) Update(ctx context.Context, address *addressmodel.Address) (*addressmodel.Address, error) {
	return address, nil
}

func (f *fakeAddressRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeAddressRepo) SetDefault(ctx context.Context, addressID, userID uuid.UUID) error {
	return nil
}

// ===================================
// Fixtures
// ===================================

// Shipping for tests: free at 500, base 40, north-east surcharge 30.
func newFixture(offers []*offermodel.Offer, addresses []*addressmodel.Address) (*fakeStore, ServiceInterface) {
	store := &fakeStore{}

	offerMap := map[string]*offermodel.Offer{}
	for _, o := range offers {
		offerMap[strings.ToLower(o.Code)] = o
	}
	addrMap := map[uuid.UUID]*addressmodel.Address{}
	for _, a := range addresses {
		addrMap[a.ID] = a
	}

	svc := NewCheckoutService(
		store,
		offerservice.NewOfferService(&fakeOfferRepo{offers: offerMap}),
		&fakeAddressRepo{byID: addrMap},
		shipping.NewCalculator(shipping.Config{
			FreeShippingThreshold: d("500"),
			BaseRate:              d("40"),
			ZoneSurcharges:        map[string]decimal.Decimal{"79": d("30")},
		}),
	)
	return store, svc
}

func intentRequest() *model.CreateIntentRequest {
	return &model.CreateIntentRequest{
		Items: []model.IntentItemRequest{
			{ProductID: "prod-9", Title: "Wireless Mouse", Quantity: 2, UnitPrice: d("199.50")},
			{ProductID: "prod-3", Title: "USB-C Cable", Quantity: 1, UnitPrice: d("100.00")},
		},
		PaymentMethod: ordermodel.PaymentMethodUPI,
		Address: &ordermodel.ShippingAddress{
			Name:    "Asha Rao",
			Phone:   "9876543210",
			Line1:   "12 MG Road",
			City:    "Bengaluru",
			State:   "Karnataka",
			Pincode: "560001",
		},
	}
}

func liveOffer(code, offerType, value string) *offermodel.Offer {
	return &offermodel.Offer{
		ID:             uuid.New(),
		Code:           code,
		Type:           offerType,
		Value:          d(value),
		MinOrderAmount: d("200"),
		ValidFrom:      time.Now().Add(-time.Hour),
		ValidUntil:     time.Now().Add(time.Hour),
		Active:         true,
	}
}

func requireCheckoutCode(t *testing.T, err error, code string) {
	t.Helper()
	var checkoutErr *model.CheckoutError
	require.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, code, checkoutErr.Code)
}

// ===================================
// Tests
// ===================================

func TestCreateIntent_PricesCart(t *testing.T) {
	store, svc := newFixture(nil, nil)
	cartCtx := types.CartContext{SessionID: "sess-1"}

	resp, err := svc.CreateIntent(context.Background(), cartCtx, intentRequest())
	require.NoError(t, err)

	// 2x199.50 + 100.00 = 499.00, below the free-shipping line.
	assert.True(t, resp.Subtotal.Equal(d("499")), "subtotal %s", resp.Subtotal)
	assert.True(t, resp.Discount.IsZero())
	assert.True(t, resp.ShippingCharge.Equal(d("40")), "shipping %s", resp.ShippingCharge)
	assert.True(t, resp.Total.Equal(d("539")), "total %s", resp.Total)
	assert.Equal(t, int64(53900), resp.AmountMinor)
	assert.Equal(t, ordermodel.DefaultCurrency, resp.Currency)

	require.NotNil(t, store.saved)
	assert.Equal(t, resp.IntentID, store.saved.ID)
	assert.Equal(t, "sess-1", store.saved.SessionID)
	assert.Equal(t, ordermodel.PaymentMethodUPI, store.saved.PaymentMethod)
	assert.Equal(t, model.DefaultIntentTTL, store.saved.ExpiresAt.Sub(store.saved.CreatedAt))
	assert.Equal(t, model.DefaultIntentTTL, store.ttl)
}

func TestCreateIntent_FreeShippingAtThreshold(t *testing.T) {
	_, svc := newFixture(nil, nil)

	req := intentRequest()
	req.Items = []model.IntentItemRequest{
		{ProductID: "prod-1", Title: "Mechanical Keyboard", Quantity: 1, UnitPrice: d("520.00")},
	}

	resp, err := svc.CreateIntent(context.Background(), types.CartContext{SessionID: "sess-1"}, req)
	require.NoError(t, err)

	assert.True(t, resp.ShippingCharge.IsZero(), "shipping %s", resp.ShippingCharge)
	assert.True(t, resp.Total.Equal(d("520")), "total %s", resp.Total)
}

func TestCreateIntent_AppliesOffer(t *testing.T) {
	offer := liveOffer("SAVE10", offermodel.OfferTypePercent, "10")
	maxDiscount := d("50")
	offer.MaxDiscount = &maxDiscount

	store, svc := newFixture([]*offermodel.Offer{offer}, nil)

	req := intentRequest()
	req.Items = []model.IntentItemRequest{
		{ProductID: "prod-1", Title: "Mechanical Keyboard", Quantity: 3, UnitPrice: d("200.00")},
	}
	code := "save10"
	req.OfferCode = &code

	resp, err := svc.CreateIntent(context.Background(), types.CartContext{SessionID: "sess-1"}, req)
	require.NoError(t, err)

	// 10% of 600 is 60, capped at 50. Discounted value 550 still clears
	// the free-shipping line.
	assert.True(t, resp.Discount.Equal(d("50")), "discount %s", resp.Discount)
	assert.True(t, resp.ShippingCharge.IsZero())
	assert.True(t, resp.Total.Equal(d("550")), "total %s", resp.Total)

	require.NotNil(t, store.saved)
	require.NotNil(t, store.saved.OfferID)
	assert.Equal(t, offer.ID, *store.saved.OfferID)
	require.NotNil(t, store.saved.OfferCode)
	assert.Equal(t, "SAVE10", *store.saved.OfferCode)
}

// The discount pulls the order value back under the free-shipping line,
// so the shipping charge comes back.
func TestCreateIntent_ShippingOnDiscountedValue(t *testing.T) {
	offer := liveOffer("FLAT30", offermodel.OfferTypeFlat, "30")
	_, svc := newFixture([]*offermodel.Offer{offer}, nil)

	req := intentRequest()
	req.Items = []model.IntentItemRequest{
		{ProductID: "prod-1", Title: "Mechanical Keyboard", Quantity: 1, UnitPrice: d("520.00")},
	}
	code := "FLAT30"
	req.OfferCode = &code

	resp, err := svc.CreateIntent(context.Background(), types.CartContext{SessionID: "sess-1"}, req)
	require.NoError(t, err)

	assert.True(t, resp.Discount.Equal(d("30")))
	assert.True(t, resp.ShippingCharge.Equal(d("40")), "shipping %s", resp.ShippingCharge)
	assert.True(t, resp.Total.Equal(d("530")), "total %s", resp.Total)
}

func TestCreateIntent_OfferErrors(t *testing.T) {
	expired := liveOffer("OLD", offermodel.OfferTypeFlat, "30")
	expired.ValidUntil = time.Now().Add(-time.Minute)

	highMinimum := liveOffer("BIGCART", offermodel.OfferTypeFlat, "30")
	highMinimum.MinOrderAmount = d("1000")

	_, svc := newFixture([]*offermodel.Offer{expired, highMinimum}, nil)

	tests := []struct {
		name     string
		code     string
		wantCode string
	}{
		{"unknown code", "NOPE", model.ErrCodeInvalidOffer},
		{"expired", "OLD", model.ErrCodeOfferExpired},
		{"below minimum", "BIGCART", model.ErrCodeOfferMinAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := intentRequest()
			req.OfferCode = &tt.code

			_, err := svc.CreateIntent(context.Background(), types.CartContext{SessionID: "sess-1"}, req)
			requireCheckoutCode(t, err, tt.wantCode)
		})
	}
}

func TestCreateIntent_SavedAddress(t *testing.T) {
	userID := uuid.New()
	saved := &addressmodel.Address{
		ID:      uuid.New(),
		UserID:  userID,
		Name:    "Asha Rao",
		Phone:   "9876543210",
		Line1:   "12 Hill View",
		City:    "Itanagar",
		State:   "Arunachal Pradesh",
		Pincode: "791111",
	}

	store, svc := newFixture(nil, []*addressmodel.Address{saved})

	req := intentRequest()
	req.Address = nil
	req.SelectedAddressID = &saved.ID
	cartCtx := types.CartContext{SessionID: "sess-1", UserID: &userID}

	resp, err := svc.CreateIntent(context.Background(), cartCtx, req)
	require.NoError(t, err)

	// Pincode 791111 carries the north-east surcharge.
	assert.True(t, resp.ShippingCharge.Equal(d("70")), "shipping %s", resp.ShippingCharge)

	require.NotNil(t, store.saved)
	require.NotNil(t, store.saved.AddressID)
	assert.Equal(t, saved.ID, *store.saved.AddressID)
	require.NotNil(t, store.saved.Address)
	assert.Equal(t, "791111", store.saved.Address.Pincode)
}

func TestCreateIntent_SavedAddressRequiresAuth(t *testing.T) {
	addressID := uuid.New()
	_, svc := newFixture(nil, nil)

	req := intentRequest()
	req.Address = nil
	req.SelectedAddressID = &addressID

	_, err := svc.CreateIntent(context.Background(), types.CartContext{SessionID: "sess-1"}, req)
	requireCheckoutCode(t, err, model.ErrCodeInvalidAddress)
}

func TestCreateIntent_SavedAddressForeignUser(t *testing.T) {
	owner := uuid.New()
	saved := &addressmodel.Address{ID: uuid.New(), UserID: owner, Pincode: "560001"}
	_, svc := newFixture(nil, []*addressmodel.Address{saved})

	caller := uuid.New()
	req := intentRequest()
	req.Address = nil
	req.SelectedAddressID = &saved.ID

	_, err := svc.CreateIntent(context.Background(), types.CartContext{SessionID: "sess-1", UserID: &caller}, req)
	requireCheckoutCode(t, err, model.ErrCodeInvalidAddress)
}

func TestCreateIntent_MissingSession(t *testing.T) {
	_, svc := newFixture(nil, nil)

	_, err := svc.CreateIntent(context.Background(), types.CartContext{}, intentRequest())
	requireCheckoutCode(t, err, model.ErrCodeInternalError)
}

func TestCreateIntent_StoreFailure(t *testing.T) {
	store, svc := newFixture(nil, nil)
	store.err = errors.New("redis down")

	_, err := svc.CreateIntent(context.Background(), types.CartContext{SessionID: "sess-1"}, intentRequest())
	requireCheckoutCode(t, err, model.ErrCodeInternalError)
}
