package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	addressmodel "storefront-backend/internal/domains/address/model"
	addressrepo "storefront-backend/internal/domains/address/repository"
	checkoutmodel "storefront-backend/internal/domains/checkout/model"
	checkoutrepo "storefront-backend/internal/domains/checkout/repository"
	offermodel "storefront-backend/internal/domains/offer/model"
	offerservice "storefront-backend/internal/domains/offer/service"
	"storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/domains/order/repository"
	paymentmodel "storefront-backend/internal/domains/payment/model"
	"storefront-backend/internal/domains/payment/provider"
	paymentrepo "storefront-backend/internal/domains/payment/repository"
	pcmodel "storefront-backend/internal/domains/providerconfig/model"
	pcservice "storefront-backend/internal/domains/providerconfig/service"
	"storefront-backend/internal/domains/shipping"
	"storefront-backend/internal/shared"
	"storefront-backend/internal/shared/types"
	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/retry"
)

// =====================================================
// ORDER SERVICE IMPLEMENTATION
// =====================================================
type orderService struct {
	orderRepo    repository.OrderRepository
	paymentRepo  paymentrepo.PaymentRepoInterface
	intentStore  checkoutrepo.IntentStore
	offerService offerservice.ServiceInterface
	addressRepo  addressrepo.RepositoryInterface
	shipping     *shipping.Calculator
	resolver     pcservice.Resolver
	providers    *provider.Registry
	asynq        *asynq.Client
	providerEnv  string
}

// NewOrderService creates a new order service
func NewOrderService(
	orderRepo repository.OrderRepository,
	paymentRepo paymentrepo.PaymentRepoInterface,
	intentStore checkoutrepo.IntentStore,
	offerService offerservice.ServiceInterface,
	addressRepo addressrepo.RepositoryInterface,
	shippingCalc *shipping.Calculator,
	resolver pcservice.Resolver,
	providers *provider.Registry,
	asynqClient *asynq.Client,
	providerEnv string,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		paymentRepo:  paymentRepo,
		intentStore:  intentStore,
		offerService: offerService,
		addressRepo:  addressRepo,
		shipping:     shippingCalc,
		resolver:     resolver,
		providers:    providers,
		asynq:        asynqClient,
		providerEnv:  providerEnv,
	}
}

// =====================================================
// CREATE ORDER
// =====================================================

// CreateOrder turns a staged checkout intent into a persisted order.
//
// Business Logic Flow:
// 1. Load the intent, scoped to the caller's session
// 2. Resolve payment method and delivery target
// 3. Re-derive every amount from the frozen snapshot
// 4. Consume the intent (single use, first caller wins)
// 5. Persist order + items + history in one transaction
// 6. COD: confirm immediately, done
// 7. UPI: resolve the enabled provider once, create the transaction
//    row and register the payment with the gateway (retried inline)
//
// A gateway that stays down after the retries does NOT fail the
// request: the order is already committed, the transaction row records
// the failure and the client receives a partial-success response it
// can drive a payment retry from.
func (s *orderService) CreateOrder(ctx context.Context, cartCtx types.CartContext, req *model.CreateOrderRequest) (*model.CreateOrderResponse, error) {
	// ==================== STEP 1: LOAD CHECKOUT INTENT ====================
	intent, err := s.intentStore.Fetch(ctx, req.IntentID, cartCtx.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, checkoutmodel.ErrIntentNotFound):
			return nil, model.NewOrderError(model.ErrCodeIntentInvalid, "checkout intent invalid or expired", err)
		case errors.Is(err, checkoutmodel.ErrIntentConsumed):
			return nil, model.NewOrderError(model.ErrCodeIntentAlreadyProcessed, "checkout intent already processed", err)
		default:
			return nil, fmt.Errorf("failed to load checkout intent: %w", err)
		}
	}

	// ==================== STEP 2: RESOLVE METHOD + DELIVERY ====================
	paymentMethod := intent.PaymentMethod
	if req.PaymentMethod != nil && *req.PaymentMethod != "" {
		paymentMethod = *req.PaymentMethod
	}
	if paymentMethod != model.PaymentMethodCOD && paymentMethod != model.PaymentMethodUPI {
		return nil, model.NewOrderError(model.ErrCodeInvalidPaymentMethod, "unsupported payment method", model.ErrInvalidPaymentMethod)
	}

	addressID, shippingAddress, err := s.resolveDelivery(ctx, cartCtx, req, intent)
	if err != nil {
		return nil, err
	}

	// ==================== STEP 3: REPRICE THE SNAPSHOT ====================
	// Amounts always come from the staged snapshot, never from the
	// request body. The shipping charge follows the delivery pincode
	// resolved above, which may differ from the one staged.
	priced, err := s.repriceIntent(ctx, intent, shippingAddress.Pincode)
	if err != nil {
		return nil, err
	}

	// ==================== STEP 4: CONSUME INTENT ====================
	first, err := s.intentStore.Consume(ctx, req.IntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to consume checkout intent: %w", err)
	}
	if !first {
		return nil, model.NewOrderError(model.ErrCodeIntentAlreadyProcessed, "checkout intent already processed", checkoutmodel.ErrIntentConsumed)
	}

	// ==================== STEP 5: PERSIST ORDER ====================
	now := time.Now()
	sessionID := cartCtx.SessionID
	order := &model.Order{
		ID:              uuid.New(),
		OrderNumber:     model.GenerateOrderNumber(),
		UserID:          cartCtx.UserID,
		SessionID:       &sessionID,
		AddressID:       addressID,
		ShippingAddress: shippingAddress,
		Subtotal:        priced.Subtotal,
		DiscountAmount:  priced.Discount,
		ShippingCharge:  priced.ShippingCharge,
		Total:           priced.Total,
		AmountMinor:     priced.AmountMinor,
		Currency:        model.DefaultCurrency,
		PaymentMethod:   paymentMethod,
		PaymentStatus:   model.PaymentStatusPending,
		Status:          model.OrderStatusPending,
		Version:         1,
	}
	if priced.Offer != nil {
		order.OfferID = &priced.Offer.ID
		code := priced.Offer.Code
		order.OfferCode = &code
	}

	// COD orders are accepted immediately; online orders confirm only
	// when the payment settles
	if order.IsCOD() {
		order.Status = model.OrderStatusConfirmed
		order.ConfirmedAt = &now
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.orderRepo.RollbackTx(ctx, tx)

	if err := s.orderRepo.CreateOrderWithTx(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	items := make([]model.OrderItem, 0, len(intent.Items))
	for _, line := range intent.Items {
		item := model.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Title:     line.Title,
			ImageURL:  line.ImageURL,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
		item.LineTotal = item.CalculateLineTotal()
		items = append(items, item)
	}
	if err := s.orderRepo.CreateOrderItemsWithTx(ctx, tx, items); err != nil {
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	history := &model.OrderStatusHistory{
		ID:        uuid.New(),
		OrderID:   order.ID,
		ToStatus:  order.Status,
		ChangedBy: cartCtx.UserID,
		Notes:     req.CustomerNote,
	}
	if err := s.orderRepo.CreateOrderStatusHistoryWithTx(ctx, tx, history); err != nil {
		return nil, fmt.Errorf("failed to create order status history: %w", err)
	}

	if err := s.orderRepo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Offer usage is recorded post-commit; a failure here is logged and
	// the order stands
	if priced.Offer != nil {
		if err := s.offerService.IncrementUsage(ctx, priced.Offer.ID); err != nil {
			logger.Error("Failed to increment offer usage after order", err)
		}
	}

	// ==================== STEP 6: COD SHORT-CIRCUIT ====================
	if order.IsCOD() {
		s.enqueueOrderConfirmation(order)
		return &model.CreateOrderResponse{
			Order:           order,
			Message:         "Order placed successfully",
			CashfreeCreated: false,
		}, nil
	}

	// ==================== STEP 7: RESOLVE PROVIDER ====================
	// "upi" resolves to one concrete enabled provider here; the result
	// is carried on the transaction row and nothing downstream
	// dispatches on the generic method again.
	adapter, err := s.resolveProvider(ctx)
	if err != nil {
		logger.Error("No payment provider available for order", err)
		return gatewayUnavailableResponse(order, err), nil
	}
	providerName := adapter.Name()

	// ==================== STEP 8: CREATE TRANSACTION ROW ====================
	txnNow := time.Now()
	txn := &paymentmodel.PaymentTransaction{
		ID:                    uuid.New(),
		OrderID:               order.ID,
		Provider:              providerName,
		MerchantTransactionID: paymentmodel.NewMerchantTransactionID(providerName),
		Amount:                order.Total,
		AmountMinor:           order.AmountMinor,
		Currency:              order.Currency,
		Status:                paymentmodel.TxnStatusInitiated,
		InitiatedAt:           txnNow,
		ExpiresAt:             txnNow.Add(paymentmodel.TransactionExpiryMinutes * time.Minute),
	}
	if err := s.paymentRepo.Create(ctx, txn); err != nil {
		logger.Error("Failed to create payment transaction", err)
		return gatewayUnavailableResponse(order, err), nil
	}

	// ==================== STEP 9: REGISTER WITH GATEWAY ====================
	customerID := cartCtx.SessionID
	if cartCtx.UserID != nil {
		customerID = cartCtx.UserID.String()
	}
	params := provider.CreatePaymentParams{
		MerchantTransactionID: txn.MerchantTransactionID,
		Amount:                txn.Amount,
		AmountMinor:           txn.AmountMinor,
		Currency:              txn.Currency,
		CustomerID:            customerID,
		CustomerPhone:         shippingAddress.Phone,
	}

	opts := retry.DefaultOptions()
	opts.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Info("Retrying gateway payment create", map[string]interface{}{
			"order_id": order.ID,
			"provider": providerName,
			"attempt":  attempt,
			"delay":    delay.String(),
			"error":    err.Error(),
		})
	}

	result, provErr := retry.Do(ctx, opts, func(ctx context.Context) (*provider.CreatePaymentResult, error) {
		return adapter.CreatePayment(ctx, params)
	})
	if provErr != nil {
		s.recordGatewayFailure(ctx, order, txn, provErr)
		return gatewayUnavailableResponse(order, provErr), nil
	}

	// ==================== STEP 10: RECORD GATEWAY HANDOFF ====================
	status := result.Status
	if status == "" || status == paymentmodel.TxnStatusInitiated {
		status = paymentmodel.TxnStatusPending
	}
	update := &paymentmodel.TransactionUpdate{ProviderResponse: result.RawResponse}
	if result.ProviderReferenceID != "" {
		refID := result.ProviderReferenceID
		update.ProviderReferenceID = &refID
	}
	if err := s.paymentRepo.TransitionStatus(ctx, txn.ID, status, update); err != nil {
		logger.Error("Failed to record gateway handoff on transaction", err)
	}
	txn.Status = status

	proj := paymentmodel.ProjectOrderStatus(status)
	if err := s.orderRepo.ApplyPaymentProjection(ctx, order.ID, proj.PaymentStatus, proj.OrderStatus, &providerName); err != nil {
		logger.Error("Failed to project payment state onto order", err)
	}
	order.PaymentStatus = proj.PaymentStatus
	if proj.OrderStatus != "" {
		order.Status = proj.OrderStatus
	}
	order.PaymentProvider = &providerName

	payment := &model.PaymentInit{
		Provider:              providerName,
		MerchantTransactionID: txn.MerchantTransactionID,
		RedirectURL:           result.RedirectURL,
		SessionToken:          result.SessionToken,
		ExpiresAt:             &txn.ExpiresAt,
	}

	return &model.CreateOrderResponse{
		Order:           order,
		Payment:         payment,
		Message:         "Order created, complete the payment to confirm",
		CashfreeCreated: true,
	}, nil
}

// gatewayUnavailableResponse is the partial-success answer: the order
// is saved, the payment attempt is not usable. The legacy
// cashfreeCreated key stays false and the client's cart is left alone
// so a payment retry needs no re-staging.
func gatewayUnavailableResponse(order *model.Order, err error) *model.CreateOrderResponse {
	return &model.CreateOrderResponse{
		Order:           order,
		Message:         "saved but gateway unavailable",
		CashfreeCreated: false,
		Error:           err.Error(),
	}
}

// =====================================================
// INTAKE HELPERS
// =====================================================

// resolveDelivery picks the delivery target by precedence: a saved
// address named in the request, an inline request address, then
// whatever the intent staged. The returned snapshot is always non-nil.
func (s *orderService) resolveDelivery(ctx context.Context, cartCtx types.CartContext, req *model.CreateOrderRequest, intent *checkoutmodel.CheckoutIntent) (*uuid.UUID, *model.ShippingAddress, error) {
	if req.SelectedAddressID != nil {
		if cartCtx.UserID == nil {
			return nil, nil, model.NewOrderError(model.ErrCodeInvalidAddress, "saved addresses require a signed-in user", model.ErrInvalidAddress)
		}

		saved, err := s.addressRepo.GetByID(ctx, *req.SelectedAddressID)
		if err != nil {
			if errors.Is(err, addressmodel.ErrAddressNotFound) {
				return nil, nil, model.NewOrderError(model.ErrCodeInvalidAddress, "selected address not found", model.ErrInvalidAddress)
			}
			return nil, nil, fmt.Errorf("failed to load address: %w", err)
		}
		if !saved.OwnedBy(*cartCtx.UserID) {
			return nil, nil, model.NewOrderError(model.ErrCodeInvalidAddress, "selected address not found", model.ErrInvalidAddress)
		}

		return &saved.ID, saved.ToShippingAddress(), nil
	}

	if req.Address != nil {
		return nil, req.Address, nil
	}

	if intent.Address != nil {
		return intent.AddressID, intent.Address, nil
	}

	return nil, nil, model.NewOrderError(model.ErrCodeInvalidAddress, "delivery address required", model.ErrInvalidAddress)
}

// pricedOrder is the server-derived amount set for one intake
type pricedOrder struct {
	Subtotal       decimal.Decimal
	Discount       decimal.Decimal
	ShippingCharge decimal.Decimal
	Total          decimal.Decimal
	AmountMinor    int64
	Offer          *offermodel.Offer
}

// repriceIntent re-derives subtotal, discount, shipping and total from
// the staged snapshot. The offer is re-validated here: one that died
// between staging and intake fails the intake before anything persists.
func (s *orderService) repriceIntent(ctx context.Context, intent *checkoutmodel.CheckoutIntent, pincode string) (*pricedOrder, error) {
	if len(intent.Items) == 0 {
		return nil, model.NewOrderError(model.ErrCodeCartEmpty, "checkout has no items", model.ErrCartEmpty)
	}

	subtotal := decimal.Zero
	for _, item := range intent.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}

	discount := decimal.Zero
	var offer *offermodel.Offer
	if intent.OfferCode != nil && *intent.OfferCode != "" {
		var err error
		offer, err = s.resolveOffer(ctx, *intent.OfferCode, subtotal)
		if err != nil {
			return nil, err
		}
		discount = s.offerService.CalculateDiscount(offer, subtotal)
	}

	shippingCharge := s.shipping.Calculate(intent.ItemCount(), pincode, subtotal.Sub(discount))
	total := model.CalculateTotal(subtotal, discount, shippingCharge)

	return &pricedOrder{
		Subtotal:       subtotal,
		Discount:       discount,
		ShippingCharge: shippingCharge,
		Total:          total,
		AmountMinor:    model.ToMinorUnits(total),
		Offer:          offer,
	}, nil
}

// resolveOffer loads and re-validates the staged offer, mapping offer
// sentinels onto order error codes
func (s *orderService) resolveOffer(ctx context.Context, code string, subtotal decimal.Decimal) (*offermodel.Offer, error) {
	offer, err := s.offerService.GetOfferByCode(ctx, code)
	if err != nil {
		if errors.Is(err, offermodel.ErrOfferNotFound) {
			return nil, model.NewOrderError(model.ErrCodeOfferInvalid, "offer code is not valid", err)
		}
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}

	if err := s.offerService.ValidateOffer(offer, subtotal); err != nil {
		switch {
		case errors.Is(err, offermodel.ErrOfferExpired):
			return nil, model.NewOrderError(model.ErrCodeOfferExpired, "offer code has expired", err)
		case errors.Is(err, offermodel.ErrOfferUsageExceeded):
			return nil, model.NewOrderError(model.ErrCodeOfferUsageLimitReached, "offer usage limit reached", err)
		case errors.Is(err, offermodel.ErrOfferMinAmount):
			return nil, model.NewOrderError(model.ErrCodeOfferMinAmount, "order amount is below the offer minimum", err)
		default:
			return nil, model.NewOrderError(model.ErrCodeOfferInvalid, "offer code is not valid", err)
		}
	}

	return offer, nil
}

// resolveProvider picks the highest-priority enabled provider that has
// a registered adapter
func (s *orderService) resolveProvider(ctx context.Context) (provider.PaymentProvider, error) {
	names, err := s.resolver.GetEnabledProviders(ctx, s.providerEnv, pcmodel.DefaultTenant)
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		if adapter, err := s.providers.Get(name); err == nil {
			return adapter, nil
		}
	}

	return nil, pcmodel.ErrNoProviderEnabled
}

// recordGatewayFailure settles the attempt as failed and projects the
// failure onto the order. The original provider error is preserved as
// the failure reason.
func (s *orderService) recordGatewayFailure(ctx context.Context, order *model.Order, txn *paymentmodel.PaymentTransaction, provErr error) {
	reason := provErr.Error()
	update := &paymentmodel.TransactionUpdate{FailureReason: &reason}
	if err := s.paymentRepo.TransitionStatus(ctx, txn.ID, paymentmodel.TxnStatusFailed, update); err != nil {
		logger.Error("Failed to mark transaction failed after gateway error", err)
	}
	txn.Status = paymentmodel.TxnStatusFailed

	providerName := txn.Provider
	proj := paymentmodel.ProjectOrderStatus(paymentmodel.TxnStatusFailed)
	if err := s.orderRepo.ApplyPaymentProjection(ctx, order.ID, proj.PaymentStatus, proj.OrderStatus, &providerName); err != nil {
		logger.Error("Failed to project gateway failure onto order", err)
	}
	order.PaymentStatus = proj.PaymentStatus
	order.PaymentProvider = &providerName
}

// enqueueOrderConfirmation schedules the confirmation email. Guest
// orders carry no user id and the worker skips them.
func (s *orderService) enqueueOrderConfirmation(order *model.Order) {
	userID := ""
	if order.UserID != nil {
		userID = order.UserID.String()
	}
	payload := shared.SendOrderConfirmationPayload{
		OrderID:       order.ID.String(),
		OrderNumber:   order.OrderNumber,
		UserID:        userID,
		Total:         order.Total,
		Currency:      order.Currency,
		PaymentMethod: order.PaymentMethod,
		PlacedAt:      order.CreatedAt.Format(time.RFC3339),
	}
	if b, err := json.Marshal(payload); err == nil {
		task := asynq.NewTask(shared.TypeSendOrderConfirmation, b)
		if _, err := s.asynq.Enqueue(task, asynq.Queue(shared.QueueDefault)); err != nil {
			logger.Error("Failed to enqueue order confirmation email", err)
		}
	}
}

// =====================================================
// READ OPERATIONS
// =====================================================

// GetOrderDetail returns the order with its item lines, owner-gated
func (s *orderService) GetOrderDetail(ctx context.Context, cartCtx types.CartContext, orderID uuid.UUID) (*model.OrderDetailResponse, error) {
	order, err := s.loadOwnedOrder(ctx, cartCtx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.orderRepo.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	itemPtrs := make([]*model.OrderItem, len(items))
	for i := range items {
		itemPtrs[i] = &items[i]
	}

	return &model.OrderDetailResponse{Order: order, Items: itemPtrs}, nil
}

// ListOrders pages through the caller's orders, newest first
func (s *orderService) ListOrders(ctx context.Context, cartCtx types.CartContext, req *model.ListOrdersRequest) (*model.ListOrdersResponse, error) {
	orders, total, err := s.orderRepo.ListOrdersByOwner(ctx, cartCtx.UserID, cartCtx.SessionID, req.Status, req.Page, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orderIDs := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
	}
	counts, err := s.orderRepo.CountOrderItemsByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count order items: %w", err)
	}

	summaries := make([]model.OrderSummaryResponse, len(orders))
	for i, o := range orders {
		summaries[i] = model.OrderSummaryResponse{
			ID:            o.ID,
			OrderNumber:   o.OrderNumber,
			Status:        o.Status,
			PaymentMethod: o.PaymentMethod,
			PaymentStatus: o.PaymentStatus,
			Total:         o.Total,
			ItemsCount:    counts[o.ID],
			CreatedAt:     o.CreatedAt,
		}
	}

	totalPages := 0
	if req.Limit > 0 {
		totalPages = (total + req.Limit - 1) / req.Limit
	}

	return &model.ListOrdersResponse{
		Orders: summaries,
		Pagination: model.PaginationMeta{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// loadOwnedOrder loads an order and enforces the ownership gate shared
// by every caller-facing operation
func (s *orderService) loadOwnedOrder(ctx context.Context, cartCtx types.CartContext, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return nil, model.NewOrderError(model.ErrCodeOrderNotFound, "order not found", err)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if !order.OwnedBy(cartCtx.UserID, cartCtx.SessionID) {
		return nil, model.NewOrderError(model.ErrCodeUnauthorized, "order does not belong to caller", model.ErrUnauthorized)
	}

	return order, nil
}

// =====================================================
// CANCEL ORDER
// =====================================================

// CancelOrder cancels a pending or confirmed order that has not been
// paid and has no payment attempt in flight. Paid orders go through
// the refund desk, not this path.
func (s *orderService) CancelOrder(ctx context.Context, cartCtx types.CartContext, orderID uuid.UUID, req *model.CancelOrderRequest) error {
	order, err := s.loadOwnedOrder(ctx, cartCtx, orderID)
	if err != nil {
		return err
	}

	if order.IsPaid() || !order.CanBeCancelled() {
		return model.NewOrderError(model.ErrCodeOrderCannotCancel, "order can no longer be cancelled", model.ErrOrderCannotCancel)
	}

	// An in-flight attempt may still settle; it has to finish or expire
	// before the order can be cancelled
	latest, err := s.paymentRepo.GetLatestByOrderID(ctx, orderID)
	if err != nil && !errors.Is(err, paymentmodel.ErrTransactionNotFound) {
		return fmt.Errorf("failed to load latest payment attempt: %w", err)
	}
	if latest != nil && latest.IsInFlight() {
		return model.NewOrderError(model.ErrCodeOrderCannotCancel, "a payment attempt is still in progress", model.ErrOrderCannotCancel)
	}

	version := order.Version
	if req.Version > 0 {
		version = req.Version
	}
	if err := s.orderRepo.CancelOrder(ctx, orderID, version); err != nil {
		if errors.Is(err, model.ErrVersionMismatch) {
			return model.NewOrderError(model.ErrCodeVersionMismatch, "order changed concurrently, reload and retry", err)
		}
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	fromStatus := order.Status
	reason := req.Reason
	history := &model.OrderStatusHistory{
		ID:         uuid.New(),
		OrderID:    orderID,
		FromStatus: &fromStatus,
		ToStatus:   model.OrderStatusCancelled,
		ChangedBy:  cartCtx.UserID,
		Notes:      &reason,
	}
	if err := s.orderRepo.CreateOrderStatusHistory(ctx, history); err != nil {
		logger.Error("Failed to record cancellation in order status history", err)
	}

	return nil
}
