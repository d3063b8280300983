package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	addressmodel "storefront-backend/internal/domains/address/model"
	checkoutmodel "storefront-backend/internal/domains/checkout/model"
	checkoutrepo "storefront-backend/internal/domains/checkout/repository"
	offermodel "storefront-backend/internal/domains/offer/model"
	offerservice "storefront-backend/internal/domains/offer/service"
	"storefront-backend/internal/domains/order/model"
	paymentmodel "storefront-backend/internal/domains/payment/model"
	"storefront-backend/internal/domains/payment/provider"
	providermock "storefront-backend/internal/domains/payment/provider/mock"
	pcmodel "storefront-backend/internal/domains/providerconfig/model"
	"storefront-backend/internal/domains/shipping"
	infracache "storefront-backend/internal/infrastructure/cache"
	"storefront-backend/internal/shared/types"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// =====================================================
// FAKE ORDER REPOSITORY
// =====================================================

// fakeOrderRepo buffers tx-scoped writes and promotes them on commit,
// so a failed commit leaves nothing visible, like the real pool does.
type fakeOrderRepo struct {
	orders  map[uuid.UUID]*model.Order
	items   map[uuid.UUID][]model.OrderItem
	history map[uuid.UUID][]model.OrderStatusHistory

	pendingOrder   *model.Order
	pendingItems   []model.OrderItem
	pendingHistory []model.OrderStatusHistory

	beginErr  error
	commitErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:  make(map[uuid.UUID]*model.Order),
		items:   make(map[uuid.UUID][]model.OrderItem),
		history: make(map[uuid.UUID][]model.OrderStatusHistory),
	}
}

func (f *fakeOrderRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return nil, nil
}

func (f *fakeOrderRepo) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	if f.pendingOrder != nil {
		stored := *f.pendingOrder
		f.orders[stored.ID] = &stored
		f.items[stored.ID] = f.pendingItems
		for _, h := range f.pendingHistory {
			f.history[h.OrderID] = append(f.history[h.OrderID], h)
		}
	}
	f.pendingOrder, f.pendingItems, f.pendingHistory = nil, nil, nil
	return nil
}

func (f *fakeOrderRepo) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	f.pendingOrder, f.pendingItems, f.pendingHistory = nil, nil, nil
	return nil
}

func (f *fakeOrderRepo) CreateOrderWithTx(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	f.pendingOrder = order
	return nil
}

func (f *fakeOrderRepo) CreateOrderItemsWithTx(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	f.pendingItems = append(f.pendingItems, items...)
	return nil
}

func (f *fakeOrderRepo) CreateOrderStatusHistoryWithTx(ctx context.Context, tx pgx.Tx, history *model.OrderStatusHistory) error {
	history.ChangedAt = time.Now()
	f.pendingHistory = append(f.pendingHistory, *history)
	return nil
}

func (f *fakeOrderRepo) CreateOrderStatusHistory(ctx context.Context, history *model.OrderStatusHistory) error {
	history.ChangedAt = time.Now()
	f.history[history.OrderID] = append(f.history[history.OrderID], *history)
	return nil
}

func (f *fakeOrderRepo) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderRepo) GetOrderByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	for _, order := range f.orders {
		if order.OrderNumber == orderNumber {
			copied := *order
			return &copied, nil
		}
	}
	return nil, model.ErrOrderNotFound
}

func (f *fakeOrderRepo) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string, version int) error {
	order, ok := f.orders[orderID]
	if !ok || order.Version != version {
		return model.ErrVersionMismatch
	}
	order.Status = status
	order.Version++
	return nil
}

func (f *fakeOrderRepo) CancelOrder(ctx context.Context, orderID uuid.UUID, version int) error {
	order, ok := f.orders[orderID]
	if !ok || order.Version != version {
		return model.ErrVersionMismatch
	}
	now := time.Now()
	order.Status = model.OrderStatusCancelled
	order.CancelledAt = &now
	order.Version++
	return nil
}

func (f *fakeOrderRepo) ApplyPaymentProjection(ctx context.Context, orderID uuid.UUID, paymentStatus, orderStatus string, paymentProvider *string) error {
	order, ok := f.orders[orderID]
	if !ok {
		return model.ErrOrderNotFound
	}
	now := time.Now()
	order.PaymentStatus = paymentStatus
	if orderStatus != "" {
		order.Status = orderStatus
	}
	if paymentProvider != nil {
		order.PaymentProvider = paymentProvider
	}
	if paymentStatus == model.PaymentStatusPaid && order.PaidAt == nil {
		order.PaidAt = &now
	}
	if orderStatus == model.OrderStatusConfirmed && order.ConfirmedAt == nil {
		order.ConfirmedAt = &now
	}
	order.Version++
	return nil
}

func (f *fakeOrderRepo) GetOrderItemsByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	return f.items[orderID], nil
}

func (f *fakeOrderRepo) CountOrderItemsByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	for _, id := range orderIDs {
		counts[id] = len(f.items[id])
	}
	return counts, nil
}

func (f *fakeOrderRepo) ListOrdersByOwner(ctx context.Context, userID *uuid.UUID, sessionID, status string, page, limit int) ([]model.Order, int, error) {
	var matched []model.Order
	for _, order := range f.orders {
		if userID != nil {
			if order.UserID == nil || *order.UserID != *userID {
				continue
			}
		} else if order.SessionID == nil || *order.SessionID != sessionID {
			continue
		}
		if status != "" && order.Status != status {
			continue
		}
		matched = append(matched, *order)
	}
	return matched, len(matched), nil
}

func (f *fakeOrderRepo) ListAllOrders(ctx context.Context, status string, page, limit int) ([]model.Order, int, error) {
	var matched []model.Order
	for _, order := range f.orders {
		if status == "" || order.Status == status {
			matched = append(matched, *order)
		}
	}
	return matched, len(matched), nil
}

func (f *fakeOrderRepo) GetOrderStatusHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error) {
	return f.history[orderID], nil
}

// =====================================================
// FAKE PAYMENT REPOSITORY
// =====================================================

type fakePaymentRepo struct {
	txns      []*paymentmodel.PaymentTransaction
	createErr error
}

func (f *fakePaymentRepo) Create(ctx context.Context, txn *paymentmodel.PaymentTransaction) error {
	if f.createErr != nil {
		return f.createErr
	}
	now := time.Now()
	txn.CreatedAt = now
	txn.UpdatedAt = now
	f.txns = append(f.txns, txn)
	return nil
}

func (f *fakePaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*paymentmodel.PaymentTransaction, error) {
	for _, txn := range f.txns {
		if txn.ID == id {
			return txn, nil
		}
	}
	return nil, paymentmodel.ErrTransactionNotFound
}

func (f *fakePaymentRepo) GetLatestByOrderID(ctx context.Context, orderID uuid.UUID) (*paymentmodel.PaymentTransaction, error) {
	for i := len(f.txns) - 1; i >= 0; i-- {
		if f.txns[i].OrderID == orderID {
			return f.txns[i], nil
		}
	}
	return nil, paymentmodel.ErrTransactionNotFound
}

func (f *fakePaymentRepo) GetByMerchantTransactionID(ctx context.Context, merchantTxnID string) (*paymentmodel.PaymentTransaction, error) {
	for _, txn := range f.txns {
		if txn.MerchantTransactionID == merchantTxnID {
			return txn, nil
		}
	}
	return nil, paymentmodel.ErrTransactionNotFound
}

func (f *fakePaymentRepo) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*paymentmodel.PaymentTransaction, error) {
	var out []*paymentmodel.PaymentTransaction
	for i := len(f.txns) - 1; i >= 0; i-- {
		if f.txns[i].OrderID == orderID {
			out = append(out, f.txns[i])
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) CountByOrderID(ctx context.Context, orderID uuid.UUID) (int, error) {
	count := 0
	for _, txn := range f.txns {
		if txn.OrderID == orderID {
			count++
		}
	}
	return count, nil
}

func (f *fakePaymentRepo) HasCompletedTransaction(ctx context.Context, orderID uuid.UUID) (bool, error) {
	for _, txn := range f.txns {
		if txn.OrderID == orderID && txn.Status == paymentmodel.TxnStatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePaymentRepo) SumCompletedByOrderID(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, txn := range f.txns {
		if txn.OrderID == orderID && txn.Status == paymentmodel.TxnStatusCompleted {
			sum = sum.Add(txn.Amount)
		}
	}
	return sum, nil
}

// TransitionStatus mirrors the guarded UPDATE of the real repository:
// the state machine is enforced, re-applying the current status only
// merges the update fields.
func (f *fakePaymentRepo) TransitionStatus(ctx context.Context, id uuid.UUID, toStatus string, update *paymentmodel.TransactionUpdate) error {
	txn, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if txn.Status != toStatus {
		if !paymentmodel.CanTransition(txn.Status, toStatus) {
			return paymentmodel.ErrInvalidTransition
		}
		now := time.Now()
		txn.Status = toStatus
		switch toStatus {
		case paymentmodel.TxnStatusPending:
			txn.PendingAt = &now
		case paymentmodel.TxnStatusCompleted:
			txn.CompletedAt = &now
		case paymentmodel.TxnStatusFailed:
			txn.FailedAt = &now
		case paymentmodel.TxnStatusCancelled:
			txn.CancelledAt = &now
		}
	}
	if update != nil {
		if update.ProviderPaymentID != nil {
			txn.ProviderPaymentID = update.ProviderPaymentID
		}
		if update.ProviderTransactionID != nil {
			txn.ProviderTransactionID = update.ProviderTransactionID
		}
		if update.ProviderReferenceID != nil {
			txn.ProviderReferenceID = update.ProviderReferenceID
		}
		if update.FailureReason != nil {
			txn.FailureReason = update.FailureReason
		}
		if update.PayerVPA != nil {
			txn.PayerVPA = update.PayerVPA
		}
		if update.UTR != nil {
			txn.UTR = update.UTR
		}
		if update.PaymentInstrument != nil {
			txn.PaymentInstrument = update.PaymentInstrument
		}
		if update.ProviderResponse != nil {
			txn.ProviderResponse = update.ProviderResponse
		}
	}
	txn.UpdatedAt = time.Now()
	return nil
}

func (f *fakePaymentRepo) SetReceiptURL(ctx context.Context, id uuid.UUID, url string) error {
	txn, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	txn.ReceiptURL = &url
	return nil
}

func (f *fakePaymentRepo) ListExpiredInFlight(ctx context.Context, limit int) ([]*paymentmodel.PaymentTransaction, error) {
	now := time.Now()
	var out []*paymentmodel.PaymentTransaction
	for _, txn := range f.txns {
		if txn.IsInFlight() && txn.ExpiresAt.Before(now) {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) ListInFlight(ctx context.Context, limit int) ([]*paymentmodel.PaymentTransaction, error) {
	var out []*paymentmodel.PaymentTransaction
	for _, txn := range f.txns {
		if txn.IsInFlight() {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) ListCompletedBetween(ctx context.Context, from, to time.Time) ([]*paymentmodel.PaymentTransaction, error) {
	var out []*paymentmodel.PaymentTransaction
	for _, txn := range f.txns {
		if txn.CompletedAt != nil && !txn.CompletedAt.Before(from) && !txn.CompletedAt.After(to) {
			out = append(out, txn)
		}
	}
	return out, nil
}

// =====================================================
// FAKE OFFER / ADDRESS / RESOLVER COLLABORATORS
// =====================================================

// fakeOfferRepo matches on lowercase codes, like the LOWER() lookup in
// the real repository.
type fakeOfferRepo struct {
	offers      map[string]*offermodel.Offer
	incremented []uuid.UUID
}

func (f *fakeOfferRepo) GetByID(ctx context.Context, id uuid.UUID) (*offermodel.Offer, error) {
	for _, offer := range f.offers {
		if offer.ID == id {
			return offer, nil
		}
	}
	return nil, offermodel.ErrOfferNotFound
}

func (f *fakeOfferRepo) GetByCode(ctx context.Context, code string) (*offermodel.Offer, error) {
	if offer, ok := f.offers[strings.ToLower(code)]; ok {
		return offer, nil
	}
	return nil, offermodel.ErrOfferNotFound
}

func (f *fakeOfferRepo) IncrementUsage(ctx context.Context, offerID uuid.UUID) error {
	f.incremented = append(f.incremented, offerID)
	if offer, err := f.GetByID(ctx, offerID); err == nil {
		offer.UsageCount++
	}
	return nil
}

type fakeAddressRepo struct {
	byID map[uuid.UUID]*addressmodel.Address
}

func (f *fakeAddressRepo) Create(ctx context.Context, address *addressmodel.Address) (*addressmodel.Address, error) {
	f.byID[address.ID] = address
	return address, nil
}

func (f *fakeAddressRepo) GetByID(ctx context.Context, id uuid.UUID) (*addressmodel.Address, error) {
	if address, ok := f.byID[id]; ok {
		return address, nil
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

func (f *fakeAddressRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeAddressRepo) SetDefault(ctx context.Context, addressID, userID uuid.UUID) error {
	return nil
}

type fakeResolver struct {
	names []string
	err   error
}

func (f *fakeResolver) GetEnabledProviders(ctx context.Context, env, tenant string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.names, nil
}

func (f *fakeResolver) ResolveConfig(ctx context.Context, providerName, env, tenant string) (*pcmodel.ProviderConfig, error) {
	return nil, pcmodel.ErrConfigNotFound
}

// =====================================================
// FIXTURE
// =====================================================

type orderFixture struct {
	svc       OrderService
	store     checkoutrepo.IntentStore
	orderRepo *fakeOrderRepo
	payRepo   *fakePaymentRepo
	offerRepo *fakeOfferRepo
	addrRepo  *fakeAddressRepo
	gateway   *providermock.Provider
	resolver  *fakeResolver
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: srv.Addr()})
	t.Cleanup(func() { asynqClient.Close() })

	orderRepo := newFakeOrderRepo()
	payRepo := &fakePaymentRepo{}
	offerRepo := &fakeOfferRepo{offers: make(map[string]*offermodel.Offer)}
	addrRepo := &fakeAddressRepo{byID: make(map[uuid.UUID]*addressmodel.Address)}
	gateway := providermock.NewProvider(paymentmodel.ProviderCashfree)
	resolver := &fakeResolver{names: []string{paymentmodel.ProviderCashfree}}
	store := checkoutrepo.NewRedisIntentStore(infracache.NewRedisCacheWithClient(client))

	calc := shipping.NewCalculator(&shipping.Config{
		FreeShippingThreshold: d("500"),
		BaseRate:              d("40"),
		ZoneSurcharges:        map[string]decimal.Decimal{"79": d("30")},
	})

	svc := NewOrderService(
		orderRepo,
		payRepo,
		store,
		offerservice.NewOfferService(offerRepo),
		addrRepo,
		calc,
		resolver,
		provider.NewRegistry(gateway),
		asynqClient,
		pcmodel.EnvSandbox,
	)

	return &orderFixture{
		svc:       svc,
		store:     store,
		orderRepo: orderRepo,
		payRepo:   payRepo,
		offerRepo: offerRepo,
		addrRepo:  addrRepo,
		gateway:   gateway,
		resolver:  resolver,
	}
}

// stageIntent stores a priced snapshot the way checkout would:
// two lines totalling 499.00, shipping 40 for pincode 560001.
func (fx *orderFixture) stageIntent(t *testing.T, mutate func(*checkoutmodel.CheckoutIntent)) *checkoutmodel.CheckoutIntent {
	t.Helper()

	now := time.Now()
	image := "https://cdn.example.com/p/sku-1.jpg"
	intent := &checkoutmodel.CheckoutIntent{
		ID:        uuid.New(),
		SessionID: "sess-1",
		Items: []checkoutmodel.IntentItem{
			{ProductID: "sku-1", Title: "Wireless Mouse", ImageURL: &image, Quantity: 2, UnitPrice: d("199.50")},
			{ProductID: "sku-2", Title: "USB-C Cable", Quantity: 1, UnitPrice: d("100.00")},
		},
		Subtotal:       d("499.00"),
		ShippingCharge: d("40.00"),
		Total:          d("539.00"),
		AmountMinor:    53900,
		Currency:       "INR",
		PaymentMethod:  model.PaymentMethodUPI,
		Address: &model.ShippingAddress{
			Name:    "Asha Rao",
			Phone:   "9876543210",
			Line1:   "12 MG Road",
			City:    "Bengaluru",
			State:   "Karnataka",
			Pincode: "560001",
		},
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	if mutate != nil {
		mutate(intent)
	}
	require.NoError(t, fx.store.Save(context.Background(), intent, 0))
	return intent
}

func (fx *orderFixture) liveOffer(code string) *offermodel.Offer {
	now := time.Now()
	offer := &offermodel.Offer{
		ID:             uuid.New(),
		Code:           code,
		Type:           offermodel.OfferTypePercent,
		Value:          d("10"),
		MinOrderAmount: d("200"),
		ValidFrom:      now.Add(-time.Hour),
		ValidUntil:     now.Add(time.Hour),
		Active:         true,
	}
	fx.offerRepo.offers[strings.ToLower(code)] = offer
	return offer
}

func guestCtx() types.CartContext {
	return types.CartContext{SessionID: "sess-1"}
}

func userCtx(userID uuid.UUID) types.CartContext {
	return types.CartContext{SessionID: "sess-1", UserID: &userID}
}

func requireOrderCode(t *testing.T, err error, code string) {
	t.Helper()
	var orderErr *model.OrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, code, orderErr.Code)
}

// =====================================================
// CREATE ORDER
// =====================================================

func TestCreateOrderCODHappyPath(t *testing.T) {
	fx := newOrderFixture(t)
	ctx := context.Background()
	cod := model.PaymentMethodCOD
	intent := fx.stageIntent(t, func(i *checkoutmodel.CheckoutIntent) {
		i.PaymentMethod = cod
	})

	resp, err := fx.svc.CreateOrder(ctx, guestCtx(), &model.CreateOrderRequest{IntentID: intent.ID})
	require.NoError(t, err)
	require.NotNil(t, resp.Order)

	assert.True(t, strings.HasPrefix(resp.Order.OrderNumber, "ORD-"))
	assert.Equal(t, model.OrderStatusConfirmed, resp.Order.Status)
	assert.Equal(t, model.PaymentStatusPending, resp.Order.PaymentStatus)
	assert.NotNil(t, resp.Order.ConfirmedAt)
	assert.True(t, d("499.00").Equal(resp.Order.Subtotal))
	assert.True(t, d("40").Equal(resp.Order.ShippingCharge))
	assert.True(t, d("539.00").Equal(resp.Order.Total))
	assert.Equal(t, int64(53900), resp.Order.AmountMinor)

	// COD never touches the gateway
	assert.Nil(t, resp.Payment)
	assert.False(t, resp.CashfreeCreated)
	assert.Empty(t, fx.payRepo.txns)
	assert.Equal(t, 0, fx.gateway.CreateCalls())

	stored := fx.orderRepo.orders[resp.Order.ID]
	require.NotNil(t, stored)
	assert.Len(t, fx.orderRepo.items[resp.Order.ID], 2)
	require.Len(t, fx.orderRepo.history[resp.Order.ID], 1)
	assert.Equal(t, model.OrderStatusConfirmed, fx.orderRepo.history[resp.Order.ID][0].ToStatus)

	// intent is gone for good
	_, err = fx.store.Fetch(ctx, intent.ID, "sess-1")
	assert.ErrorIs(t, err, checkoutmodel.ErrIntentConsumed)
}

func TestCreateOrderUPIHappyPath(t *testing.T) {
	fx := newOrderFixture(t)
	ctx := context.Background()
	intent := fx.stageIntent(t, nil)

	resp, err := fx.svc.CreateOrder(ctx, guestCtx(), &model.CreateOrderRequest{IntentID: intent.ID})
	require.NoError(t, err)
	require.NotNil(t, resp.Order)
	require.NotNil(t, resp.Payment)

	assert.True(t, resp.CashfreeCreated)
	assert.Equal(t, paymentmodel.ProviderCashfree, resp.Payment.Provider)
	assert.True(t, strings.HasPrefix(resp.Payment.MerchantTransactionID, "CF"))
	assert.Contains(t, resp.Payment.RedirectURL, "mock-gateway.test")
	assert.NotEmpty(t, resp.Payment.SessionToken)
	require.NotNil(t, resp.Payment.ExpiresAt)

	// transaction row reflects the gateway handoff
	require.Len(t, fx.payRepo.txns, 1)
	txn := fx.payRepo.txns[0]
	assert.Equal(t, resp.Order.ID, txn.OrderID)
	assert.Equal(t, paymentmodel.TxnStatusPending, txn.Status)
	assert.Equal(t, int64(53900), txn.AmountMinor)
	require.NotNil(t, txn.ProviderReferenceID)
	assert.Equal(t, "MOCK_"+txn.MerchantTransactionID, *txn.ProviderReferenceID)
	assert.WithinDuration(t, time.Now().Add(paymentmodel.TransactionExpiryMinutes*time.Minute), txn.ExpiresAt, 5*time.Second)
	assert.Equal(t, 1, fx.gateway.CreateCalls())

	// order stays pending until the payment settles, provider stamped
	stored := fx.orderRepo.orders[resp.Order.ID]
	require.NotNil(t, stored)
	assert.Equal(t, model.OrderStatusPending, stored.Status)
	assert.Equal(t, model.PaymentStatusPending, stored.PaymentStatus)
	require.NotNil(t, stored.PaymentProvider)
	assert.Equal(t, paymentmodel.ProviderCashfree, *stored.PaymentProvider)
	assert.Nil(t, stored.ConfirmedAt)
}

func TestCreateOrderRederivesAmountsFromSnapshot(t *testing.T) {
	fx := newOrderFixture(t)
	cod := model.PaymentMethodCOD
	// a tampered client can rewrite the stored aggregates but not the
	// per-line snapshot the amounts are derived from
	intent := fx.stageIntent(t, func(i *checkoutmodel.CheckoutIntent) {
		i.PaymentMethod = cod
		i.Subtotal = d("1.00")
		i.Total = d("1.00")
		i.AmountMinor = 100
	})

	resp, err := fx.svc.CreateOrder(context.Background(), guestCtx(), &model.CreateOrderRequest{IntentID: intent.ID})
	require.NoError(t, err)

	assert.True(t, d("499.00").Equal(resp.Order.Subtotal))
	assert.True(t, d("539.00").Equal(resp.Order.Total))
	assert.Equal(t, int64(53900), resp.Order.AmountMinor)
}

func TestCreateOrderAppliesOfferAtIntake(t *testing.T) {
	fx := newOrderFixture(t)
	cod := model.PaymentMethodCOD
	offer := fx.liveOffer("SAVE10")
	intent := fx.stageIntent(t, func(i *checkoutmodel.CheckoutIntent) {
		i.PaymentMethod = cod
		code := offer.Code
		i.OfferCode = &code
		i.OfferID = &offer.ID
	})

	resp, err := fx.svc.CreateOrder(context.Background(), guestCtx(), &model.CreateOrderRequest{IntentID: intent.ID})
	require.NoError(t, err)

	// 499 - 10% = 449.10, still under the free-shipping threshold
	assert.True(t, d("49.90").Equal(resp.Order.DiscountAmount))
	assert.True(t, d("40").Equal(resp.Order.ShippingCharge))
	assert.True(t, d("489.10").Equal(resp.Order.Total))
	assert.Equal(t, int64(48910), resp.Order.AmountMinor)
	require.NotNil(t, resp.Order.OfferID)
	assert.Equal(t, offer.ID, *resp.Order.OfferID)
	require.NotNil(t, resp.Order.OfferCode)
	assert.Equal(t, "SAVE10", *resp.Order.OfferCode)

	require.Len(t, fx.offerRepo.incremented, 1)
	assert.Equal(t, offer.ID, fx.offerRepo.incremented[0])
}

func TestCreateOrderOfferDiedBetweenStagingAndIntake(t *testing.T) {
	fx := newOrderFixture(t)
	ctx := context.Background()
	cod := model.PaymentMethodCOD
	offer := fx.liveOffer("SAVE10")
	intent := fx.stageIntent(t, func(i *checkoutmodel.CheckoutIntent) {
		i.PaymentMethod = cod
		code := offer.Code
		i.OfferCode = &code
		i.OfferID = &offer.ID
	})

	// offer expires after staging but before intake
	offer.ValidUntil = time.Now().Add(-time.Minute)

	_, err := fx.svc.CreateOrder(ctx, guestCtx(), &model.CreateOrderRequest{IntentID: intent.ID})
	requireOrderCode(t, err, model.ErrCodeOfferExpired)

	// repricing fails before the intent is consumed, so the client can
	// fix the offer and retry the same intent
	_, err = fx.store.Fetch(ctx, intent.ID, "sess-1")
	assert.NoError(t, err)
	assert.Empty(t, fx.orderRepo.orders)
	assert.Empty(t, fx.offerRepo.incremented)
}

func TestCreateOrderUnknownIntent(t *testing.T) {
	fx := newOrderFixture(t)

	_, err := fx.svc.CreateOrder(context.Background(), guestCtx(), &model.CreateOrderRequest{IntentID: uuid.New()})
	requireOrderCode(t, err, model.ErrCodeIntentInvalid)
}

func TestCreateOrderForeignSessionIntent(t *testing.T) {
	fx := newOrderFixture(t)
	intent := fx.stageIntent(t, nil)

	// a foreign session is indistinguishable from a missing intent
	_, err := fx.svc.CreateOrder(context.Background(), types.CartContext{SessionID: "sess-2"}, &model.CreateOrderRequest{IntentID: intent.ID})
	requireOrderCode(t, err, model.ErrCodeIntentInvalid)
}

func TestCreateOrderDuplicateIntake(t *testing.T) {
	fx := newOrderFixture(t)
	ctx := context.Background()
	cod := model.PaymentMethodCOD
	intent := fx.stageIntent(t, func(i *checkoutmodel.CheckoutIntent) {
		i.PaymentMethod = cod
	})

	_, err := fx.svc.CreateOrder(ctx, guestCtx(), &model.CreateOrderRequest{IntentID: intent.ID})
	require.NoError(t, err)

	_, err = fx.svc.CreateOrder(ctx, guestCtx(), &model.CreateOrderRequest{IntentID: intent.ID})
	requireOrderCode(t, err, model.ErrCodeIntentAlreadyProcessed)

	// the duplicate did not create a second order
	assert.Len(t, fx.orderRepo.orders, 1)
}

func TestCreateOrderGatewayDownPartialSuccess(t *testing.T) {
	fx := newOrderFixture(t)
	fx.gateway.SetFailCreates(3)
	intent := fx.stageIntent(t, nil)

	resp, err := fx.svc.CreateOrder(context.Background(), guestCtx(), &model.CreateOrderRequest{IntentID: intent.ID})
	require.NoError(t, err)
	require.NotNil(t, resp.Order)

	assert.Equal(t, "saved but gateway unavailable", resp.Message)
	assert.False(t, resp.CashfreeCreated)
	assert.Contains(t, resp.Error, "mock gateway unavailable")
	assert.Nil(t, resp.Payment)

	// all three attempts burned before giving up
	assert.Equal(t, 3, fx.gateway.CreateCalls())

	require.Len(t, fx.payRepo.txns, 1)
	txn := fx.payRepo.txns[0]
	assert.Equal(t, paymentmodel.TxnStatusFailed, txn.Status)
	require.NotNil(t, txn.FailureReason)
	assert.Contains(t, *txn.FailureReason, "mock gateway unavailable")
	assert.NotNil(t, txn.FailedAt)

	// the order survives with the failure projected onto it
	stored := fx.orderRepo.orders[resp.Order.ID]
	require.NotNil(t, stored)
	assert.Equal(t, model.PaymentStatusFailed, stored.PaymentStatus)
	assert.Equal(t, model.OrderStatusPending, stored.Status)
	assert.Equal(t, model.PaymentStatusFailed, resp.Order.PaymentStatus)
}

func TestCreateOrderGatewayRecoversWithinRetryBudget(t *testing.T) {
	fx := newOrderFixture(t)
	fx.gateway.SetFailCreates(1)
	intent := fx.stageIntent(t, nil)

	resp, err := fx.svc.CreateOrder(context.Background(), guestCtx(), &model.CreateOrderRequest{IntentID: intent.ID})
	require.NoError(t, err)

	assert.True(t, resp.CashfreeCreated)
	require.NotNil(t, resp.Payment)
	assert.Equal(t, 2, fx.gateway.CreateCalls())

	require.Len(t, fx.payRepo.txns, 1)
	assert.Equal(t, paymentmodel.TxnStatusPending, fx.payRepo.txns[0].Status)
}

func TestCreateOrderNoProviderEnabled(t *testing.T) {
	fx := newOrderFixture(t)
	fx.resolver.err = pcmodel.ErrNoProviderEnabled
	intent := fx.stageIntent(t, nil)

	resp, err := fx.svc.CreateOrder(context.Background(), guestCtx(), &model.CreateOrderRequest{IntentID: intent.ID})
	require.NoError(t, err)

	assert.Equal(t, "saved but gateway unavailable", resp.Message)
	assert.False(t, resp.CashfreeCreated)
	assert.NotEmpty(t, resp.Error)

	// no transaction row when no provider could be resolved
	assert.Empty(t, fx.payRepo.txns)
	assert.Equal(t, 0, fx.gateway.CreateCalls())

	stored := fx.orderRepo.orders[resp.Order.ID]
	require.NotNil(t, stored)
	assert.Equal(t, model.PaymentStatusPending, stored.PaymentStatus)
}

func TestCreateOrderEnabledProviderWithoutAdapter(t *testing.T) {
	fx := newOrderFixture(t)
	// config says phonepe but only the cashfree adapter is registered,
	// so resolution skips it and comes up empty
	fx.resolver.names = []string{paymentmodel.ProviderPhonePe}
	intent := fx.stageIntent(t, nil)

	resp, err := fx.svc.CreateOrder(context.Background(), guestCtx(), &model.CreateOrderRequest{IntentID: intent.ID})
	require.NoError(t, err)

	assert.Equal(t, "saved but gateway unavailable", resp.Message)
	assert.Empty(t, fx.payRepo.txns)
}

func TestCreateOrderInlineAddressOverridesIntent(t *testing.T) {
	fx := newOrderFixture(t)
	cod := model.PaymentMethodCOD
	intent := fx.stageIntent(t, func(i *checkoutmodel.CheckoutIntent) {
		i.PaymentMethod = cod
	})

	// north-east pincode picks up the zone surcharge
	req := &model.CreateOrderRequest{
		IntentID: intent.ID,
		Address: &model.ShippingAddress{
			Name:    "Ringmu Apang",
			Phone:   "9876500001",
			Line1:   "7 Hill View",
			City:    "Itanagar",
			State:   "Arunachal Pradesh",
			Pincode: "791111",
		},
	}

	resp, err := fx.svc.CreateOrder(context.Background(), guestCtx(), req)
	require.NoError(t, err)

	require.NotNil(t, resp.Order.ShippingAddress)
	assert.Equal(t, "791111", resp.Order.ShippingAddress.Pincode)
	assert.True(t, d("70").Equal(resp.Order.ShippingCharge))
	assert.True(t, d("569.00").Equal(resp.Order.Total))
	assert.Nil(t, resp.Order.AddressID)
}

func TestCreateOrderSavedAddress(t *testing.T) {
	fx := newOrderFixture(t)
	userID := uuid.New()
	saved := &addressmodel.Address{
		ID:      uuid.New(),
		UserID:  userID,
		Name:    "Asha Rao",
		Phone:   "9876543210",
		Line1:   "221 Lake View",
		City:    "Guwahati",
		State:   "Assam",
		Pincode: "791111",
	}
	fx.addrRepo.byID[saved.ID] = saved

	cod := model.PaymentMethodCOD
	intent := fx.stageIntent(t, func(i *checkoutmodel.CheckoutIntent) {
		i.PaymentMethod = cod
		i.UserID = &userID
	})

	resp, err := fx.svc.CreateOrder(context.Background(), userCtx(userID), &model.CreateOrderRequest{
		IntentID:          intent.ID,
		SelectedAddressID: &saved.ID,
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Order.AddressID)
	assert.Equal(t, saved.ID, *resp.Order.AddressID)
	require.NotNil(t, resp.Order.ShippingAddress)
	assert.Equal(t, "221 Lake View", resp.Order.ShippingAddress.Line1)
	assert.True(t, d("70").Equal(resp.Order.ShippingCharge))
	require.NotNil(t, resp.Order.UserID)
	assert.Equal(t, userID, *resp.Order.UserID)
}

func TestCreateOrderSavedAddressRequiresSignIn(t *testing.T) {
	fx := newOrderFixture(t)
	intent := fx.stageIntent(t, nil)
	addressID := uuid.New()

	_, err := fx.svc.CreateOrder(context.Background(), guestCtx(), &model.CreateOrderRequest{
		IntentID:          intent.ID,
		SelectedAddressID: &addressID,
	})
	requireOrderCode(t, err, model.ErrCodeInvalidAddress)
}

func TestCreateOrderSavedAddressForeignUser(t *testing.T) {
	fx := newOrderFixture(t)
	owner := uuid.New()
	caller := uuid.New()
	saved := &addressmodel.Address{
		ID:      uuid.New(),
		UserID:  owner,
		Name:    "Asha Rao",
		Phone:   "9876543210",
		Line1:   "221 Lake View",
		City:    "Guwahati",
		State:   "Assam",
		Pincode: "781001",
	}
	fx.addrRepo.byID[saved.ID] = saved
	intent := fx.stageIntent(t, nil)

	_, err := fx.svc.CreateOrder(context.Background(), userCtx(caller), &model.CreateOrderRequest{
		IntentID:          intent.ID,
		SelectedAddressID: &saved.ID,
	})
	requireOrderCode(t, err, model.ErrCodeInvalidAddress)
}

func TestCreateOrderNoDeliveryAddress(t *testing.T) {
	fx := newOrderFixture(t)
	ctx := context.Background()
	intent := fx.stageIntent(t, func(i *checkoutmodel.CheckoutIntent) {
		i.Address = nil
	})

	_, err := fx.svc.CreateOrder(ctx, guestCtx(), &model.CreateOrderRequest{IntentID: intent.ID})
	requireOrderCode(t, err, model.ErrCodeInvalidAddress)

	// rejected before consumption, the intent survives
	_, err = fx.store.Fetch(ctx, intent.ID, "sess-1")
	assert.NoError(t, err)
}

func TestCreateOrderUnsupportedPaymentMethod(t *testing.T) {
	fx := newOrderFixture(t)
	intent := fx.stageIntent(t, nil)
	method := "crypto"

	_, err := fx.svc.CreateOrder(context.Background(), guestCtx(), &model.CreateOrderRequest{
		IntentID:      intent.ID,
		PaymentMethod: &method,
	})
	requireOrderCode(t, err, model.ErrCodeInvalidPaymentMethod)
}

func TestCreateOrderCommitFailure(t *testing.T) {
	fx := newOrderFixture(t)
	fx.orderRepo.commitErr = errors.New("connection reset by peer")
	cod := model.PaymentMethodCOD
	intent := fx.stageIntent(t, func(i *checkoutmodel.CheckoutIntent) {
		i.PaymentMethod = cod
	})

	_, err := fx.svc.CreateOrder(context.Background(), guestCtx(), &model.CreateOrderRequest{IntentID: intent.ID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit transaction")

	// nothing became visible
	assert.Empty(t, fx.orderRepo.orders)
}

// =====================================================
// READ OPERATIONS
// =====================================================

func TestGetOrderDetail(t *testing.T) {
	fx := newOrderFixture(t)
	ctx := context.Background()
	cod := model.PaymentMethodCOD
	intent := fx.stageIntent(t, func(i *checkoutmodel.CheckoutIntent) {
		i.PaymentMethod = cod
	})
	created, err := fx.svc.CreateOrder(ctx, guestCtx(), &model.CreateOrderRequest{IntentID: intent.ID})
	require.NoError(t, err)

	t.Run("owner sees the order with items", func(t *testing.T) {
		detail, err := fx.svc.GetOrderDetail(ctx, guestCtx(), created.Order.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Order.ID, detail.Order.ID)
		require.Len(t, detail.Items, 2)
		assert.Equal(t, "sku-1", detail.Items[0].ProductID)
		assert.True(t, d("399.00").Equal(detail.Items[0].LineTotal))
	})

	t.Run("foreign session is rejected", func(t *testing.T) {
		_, err := fx.svc.GetOrderDetail(ctx, types.CartContext{SessionID: "sess-2"}, created.Order.ID)
		requireOrderCode(t, err, model.ErrCodeUnauthorized)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := fx.svc.GetOrderDetail(ctx, guestCtx(), uuid.New())
		requireOrderCode(t, err, model.ErrCodeOrderNotFound)
	})
}

func TestListOrders(t *testing.T) {
	fx := newOrderFixture(t)
	ctx := context.Background()
	cod := model.PaymentMethodCOD
	for i := 0; i < 2; i++ {
		intent := fx.stageIntent(t, func(it *checkoutmodel.CheckoutIntent) {
			it.PaymentMethod = cod
		})
		_, err := fx.svc.CreateOrder(ctx, guestCtx(), &model.CreateOrderRequest{IntentID: intent.ID})
		require.NoError(t, err)
	}

	resp, err := fx.svc.ListOrders(ctx, guestCtx(), &model.ListOrdersRequest{Page: 1, Limit: 20})
	require.NoError(t, err)

	require.Len(t, resp.Orders, 2)
	for _, summary := range resp.Orders {
		assert.Equal(t, 2, summary.ItemsCount)
		assert.Equal(t, model.OrderStatusConfirmed, summary.Status)
		assert.True(t, d("539.00").Equal(summary.Total))
	}
	assert.Equal(t, 2, resp.Pagination.Total)
	assert.Equal(t, 1, resp.Pagination.TotalPages)

	// another session sees nothing
	other, err := fx.svc.ListOrders(ctx, types.CartContext{SessionID: "sess-2"}, &model.ListOrdersRequest{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, other.Orders)
}

// =====================================================
// CANCEL ORDER
// =====================================================

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()
	cod := model.PaymentMethodCOD

	createCOD := func(t *testing.T, fx *orderFixture) *model.Order {
		t.Helper()
		intent := fx.stageIntent(t, func(i *checkoutmodel.CheckoutIntent) {
			i.PaymentMethod = cod
		})
		resp, err := fx.svc.CreateOrder(ctx, guestCtx(), &model.CreateOrderRequest{IntentID: intent.ID})
		require.NoError(t, err)
		return resp.Order
	}

	t.Run("confirmed unpaid order cancels and records history", func(t *testing.T) {
		fx := newOrderFixture(t)
		order := createCOD(t, fx)

		err := fx.svc.CancelOrder(ctx, guestCtx(), order.ID, &model.CancelOrderRequest{Reason: "changed my mind"})
		require.NoError(t, err)

		stored := fx.orderRepo.orders[order.ID]
		assert.Equal(t, model.OrderStatusCancelled, stored.Status)
		assert.NotNil(t, stored.CancelledAt)

		history := fx.orderRepo.history[order.ID]
		require.Len(t, history, 2)
		last := history[len(history)-1]
		require.NotNil(t, last.FromStatus)
		assert.Equal(t, model.OrderStatusConfirmed, *last.FromStatus)
		assert.Equal(t, model.OrderStatusCancelled, last.ToStatus)
		require.NotNil(t, last.Notes)
		assert.Equal(t, "changed my mind", *last.Notes)
	})

	t.Run("paid order is refused", func(t *testing.T) {
		fx := newOrderFixture(t)
		order := createCOD(t, fx)
		fx.orderRepo.orders[order.ID].PaymentStatus = model.PaymentStatusPaid

		err := fx.svc.CancelOrder(ctx, guestCtx(), order.ID, &model.CancelOrderRequest{Reason: "changed my mind"})
		requireOrderCode(t, err, model.ErrCodeOrderCannotCancel)
	})

	t.Run("in-flight payment attempt blocks cancellation", func(t *testing.T) {
		fx := newOrderFixture(t)
		intent := fx.stageIntent(t, nil)
		resp, err := fx.svc.CreateOrder(ctx, guestCtx(), &model.CreateOrderRequest{IntentID: intent.ID})
		require.NoError(t, err)
		require.Len(t, fx.payRepo.txns, 1)
		require.True(t, fx.payRepo.txns[0].IsInFlight())

		err = fx.svc.CancelOrder(ctx, guestCtx(), resp.Order.ID, &model.CancelOrderRequest{Reason: "changed my mind"})
		requireOrderCode(t, err, model.ErrCodeOrderCannotCancel)
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		fx := newOrderFixture(t)
		order := createCOD(t, fx)

		err := fx.svc.CancelOrder(ctx, guestCtx(), order.ID, &model.CancelOrderRequest{Reason: "changed my mind", Version: 99})
		requireOrderCode(t, err, model.ErrCodeVersionMismatch)
	})

	t.Run("foreign session cannot cancel", func(t *testing.T) {
		fx := newOrderFixture(t)
		order := createCOD(t, fx)

		err := fx.svc.CancelOrder(ctx, types.CartContext{SessionID: "sess-2"}, order.ID, &model.CancelOrderRequest{Reason: "changed my mind"})
		requireOrderCode(t, err, model.ErrCodeUnauthorized)
	})
}
