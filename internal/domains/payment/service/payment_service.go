package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	ordermodel "storefront-backend/internal/domains/order/model"
	orderrepo "storefront-backend/internal/domains/order/repository"
	"storefront-backend/internal/domains/payment/model"
	"storefront-backend/internal/domains/payment/provider"
	"storefront-backend/internal/domains/payment/repository"
	"storefront-backend/internal/shared/types"
	"storefront-backend/pkg/cache"
	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/retry"
)

// =====================================================
// PAYMENT SERVICE IMPLEMENTATION
// =====================================================
type paymentService struct {
	paymentRepo  repository.PaymentRepoInterface
	refundRepo   repository.RefundRepoInterface
	callbackRepo repository.CallbackLogRepoInterface
	orderRepo    orderrepo.OrderRepository
	providers    *provider.Registry
	cache        cache.Cache
	asynq        *asynq.Client
}

func NewPaymentService(
	paymentRepo repository.PaymentRepoInterface,
	refundRepo repository.RefundRepoInterface,
	callbackRepo repository.CallbackLogRepoInterface,
	orderRepo orderrepo.OrderRepository,
	providers *provider.Registry,
	cacheClient cache.Cache,
	asynqClient *asynq.Client,
) PaymentService {
	return &paymentService{
		paymentRepo:  paymentRepo,
		refundRepo:   refundRepo,
		callbackRepo: callbackRepo,
		orderRepo:    orderRepo,
		providers:    providers,
		cache:        cacheClient,
		asynq:        asynqClient,
	}
}

// =====================================================
// ORDER INFO (polling endpoint)
// =====================================================

// GetOrderInfo returns the order with every payment attempt and the
// polling hint the client schedules its next fetch from.
//
// The reconciliation object is present only while the latest attempt is
// in flight; the client treats its absence as "nothing more to wait
// for". An in-flight attempt past its expiry window is reported as
// expired so the client can offer the retry action; the sweep job owns
// actually settling it.
func (s *paymentService) GetOrderInfo(ctx context.Context, cartCtx types.CartContext, orderID uuid.UUID) (*model.OrderInfoResponse, error) {
	order, err := s.loadOwnedOrder(ctx, cartCtx, orderID)
	if err != nil {
		return nil, err
	}

	txns, err := s.paymentRepo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment attempts: %w", err)
	}

	totalPaid, err := s.paymentRepo.SumCompletedByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum completed payments: %w", err)
	}
	totalRefunded, err := s.refundRepo.SumProcessedByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum refunds: %w", err)
	}

	resp := &model.OrderInfoResponse{
		Order:         order,
		Transactions:  txns,
		TotalPaid:     totalPaid,
		TotalRefunded: totalRefunded,
	}
	if len(txns) > 0 {
		resp.LatestTransaction = txns[0]
	}

	if resp.LatestTransaction != nil && resp.LatestTransaction.IsInFlight() {
		now := time.Now()
		attempt := s.bumpPollAttempt(ctx, orderID)
		status := model.ReconcileStatusPending
		if resp.LatestTransaction.IsExpired(now) {
			status = model.ReconcileStatusExpired
		}
		delay := time.Duration(model.NextPollDelaySeconds(attempt)) * time.Second
		resp.Reconciliation = &model.Reconciliation{
			Status:     status,
			NextPollAt: now.Add(delay),
			Attempt:    attempt,
		}
	}

	return resp, nil
}

// =====================================================
// RETURN PROBE
// =====================================================

// HandleReturn reconciles a transaction once after the gateway
// redirects the customer back to the shop.
//
// Business Logic Flow:
// 1. Verify the redirect parameters with the provider adapter
// 2. Load the transaction by merchant reference
// 3. Record the callback for audit
// 4. Already terminal: answer from the stored row
// 5. Otherwise fetch the gateway's state once and apply it
//
// A gateway that cannot be reached leaves the transaction in flight and
// still answers 200 "processing"; the client keeps polling and the
// worker sweep picks the transaction up later.
func (s *paymentService) HandleReturn(ctx context.Context, providerName string, params url.Values) (*model.ReturnProbeResponse, error) {
	adapter, err := s.providers.Get(providerName)
	if err != nil {
		return nil, err
	}
	if !adapter.VerifyReturn(params) {
		return nil, model.NewReturnParamsInvalidError("verification failed")
	}

	merchantTxnID := params.Get("merchantTransactionId")
	if merchantTxnID == "" {
		return nil, model.NewReturnParamsInvalidError("merchantTransactionId missing")
	}

	txn, err := s.paymentRepo.GetByMerchantTransactionID(ctx, merchantTxnID)
	if err != nil {
		if errors.Is(err, model.ErrTransactionNotFound) {
			return nil, model.NewTransactionNotFoundError(merchantTxnID)
		}
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if txn.Provider != providerName {
		return nil, model.NewProviderMismatchError(txn.Provider, providerName)
	}

	s.logCallback(ctx, txn, model.CallbackKindReturn, callbackPayload(params))

	if txn.IsTerminal() {
		return probeResponse(txn), nil
	}

	if _, err := s.ReconcileTransaction(ctx, txn); err != nil {
		logger.Error("Return probe could not reconcile transaction", err)
	}
	return probeResponse(txn), nil
}

// probeResponse answers the return probe from the transaction row.
// "complete" means reconciliation finished, not that the payment
// succeeded; the message carries the outcome.
func probeResponse(txn *model.PaymentTransaction) *model.ReturnProbeResponse {
	switch txn.Status {
	case model.TxnStatusCompleted:
		return &model.ReturnProbeResponse{Status: model.ProbeStatusComplete, Message: "payment completed"}
	case model.TxnStatusFailed:
		return &model.ReturnProbeResponse{Status: model.ProbeStatusComplete, Message: "payment failed"}
	case model.TxnStatusCancelled:
		return &model.ReturnProbeResponse{Status: model.ProbeStatusComplete, Message: "payment cancelled"}
	default:
		return &model.ReturnProbeResponse{Status: model.ProbeStatusProcessing, Message: "awaiting provider confirmation"}
	}
}

// =====================================================
// RETRY AFTER FAILURE OR EXPIRY
// =====================================================

// RetryPayment opens a fresh payment attempt against the named
// provider.
//
// Business Logic Flow:
// 1. Load the order, verify ownership, refuse when already paid
// 2. Close out the previous attempt: a live one blocks the retry, an
//    expired one gets a final gateway check and is cancelled
// 3. Enforce the per-order attempt ceiling
// 4. Create the new transaction row and register it with the gateway
// 5. Reset the poll counter so the polling schedule starts over
//
// Unlike order intake, a gateway that stays down here fails the request:
// there is nothing partial to salvage, the client simply retries later.
func (s *paymentService) RetryPayment(ctx context.Context, cartCtx types.CartContext, providerName string, req *model.RetryPaymentRequest) (*model.RetryPaymentResponse, error) {
	adapter, err := s.providers.Get(providerName)
	if err != nil {
		return nil, err
	}

	order, err := s.loadOwnedOrder(ctx, cartCtx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if order.IsPaid() {
		return nil, model.NewOrderAlreadyPaidError(order.ID.String())
	}
	completed, err := s.paymentRepo.HasCompletedTransaction(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check settled payments: %w", err)
	}
	if completed {
		return nil, model.NewOrderAlreadyPaidError(order.ID.String())
	}

	latest, err := s.paymentRepo.GetLatestByOrderID(ctx, order.ID)
	if err != nil && !errors.Is(err, model.ErrTransactionNotFound) {
		return nil, fmt.Errorf("failed to load latest payment attempt: %w", err)
	}
	if latest != nil && latest.IsInFlight() {
		if !latest.IsExpired(time.Now()) {
			return nil, model.NewRetryNotAllowedError("previous attempt still in progress")
		}

		// A payment that actually settled while the client was away must
		// win over the retry, so the expired attempt is never cancelled
		// without a gateway answer
		status, rerr := s.ReconcileTransaction(ctx, latest)
		if rerr != nil {
			return nil, rerr
		}
		if status == model.TxnStatusCompleted {
			return nil, model.NewOrderAlreadyPaidError(order.ID.String())
		}
		if !model.IsTerminalTxnStatus(status) {
			if err := s.cancelExpired(ctx, latest); err != nil {
				return nil, fmt.Errorf("failed to close expired attempt: %w", err)
			}
		}
	}

	attempts, err := s.paymentRepo.CountByOrderID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count payment attempts: %w", err)
	}
	if attempts >= model.MaxPaymentAttempts {
		return nil, model.NewRetryLimitExceededError()
	}

	now := time.Now()
	txn := &model.PaymentTransaction{
		ID:                    uuid.New(),
		OrderID:               order.ID,
		Provider:              providerName,
		MerchantTransactionID: model.NewMerchantTransactionID(providerName),
		Amount:                order.Total,
		AmountMinor:           order.AmountMinor,
		Currency:              order.Currency,
		Status:                model.TxnStatusInitiated,
		InitiatedAt:           now,
		ExpiresAt:             now.Add(model.TransactionExpiryMinutes * time.Minute),
	}
	if err := s.paymentRepo.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to create payment transaction: %w", err)
	}

	customerID := ""
	if order.SessionID != nil {
		customerID = *order.SessionID
	}
	if order.UserID != nil {
		customerID = order.UserID.String()
	}
	customerPhone := ""
	if order.ShippingAddress != nil {
		customerPhone = order.ShippingAddress.Phone
	}
	params := provider.CreatePaymentParams{
		MerchantTransactionID: txn.MerchantTransactionID,
		Amount:                txn.Amount,
		AmountMinor:           txn.AmountMinor,
		Currency:              txn.Currency,
		CustomerID:            customerID,
		CustomerPhone:         customerPhone,
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
		reason := provErr.Error()
		if err := s.paymentRepo.TransitionStatus(ctx, txn.ID, model.TxnStatusFailed, &model.TransactionUpdate{FailureReason: &reason}); err != nil {
			logger.Error("Failed to mark retry attempt failed", err)
		}
		s.projectTransaction(ctx, txn.OrderID, txn.Provider, model.TxnStatusFailed)
		return nil, model.NewGatewayUnavailableError(providerName, provErr)
	}

	status := result.Status
	if status == "" || status == model.TxnStatusInitiated {
		status = model.TxnStatusPending
	}
	update := &model.TransactionUpdate{ProviderResponse: result.RawResponse}
	if result.ProviderReferenceID != "" {
		refID := result.ProviderReferenceID
		update.ProviderReferenceID = &refID
	}
	if err := s.paymentRepo.TransitionStatus(ctx, txn.ID, status, update); err != nil {
		logger.Error("Failed to record gateway handoff on retry attempt", err)
	}
	txn.Status = status
	if result.ProviderReferenceID != "" {
		refID := result.ProviderReferenceID
		txn.ProviderReferenceID = &refID
	}
	s.projectTransaction(ctx, order.ID, providerName, status)

	proj := model.ProjectOrderStatus(status)
	order.PaymentStatus = proj.PaymentStatus
	if proj.OrderStatus != "" {
		order.Status = proj.OrderStatus
	}
	order.PaymentProvider = &txn.Provider

	// The old polling schedule died with the previous attempt
	s.resetPollAttempts(ctx, order.ID)

	return &model.RetryPaymentResponse{
		Order:       order,
		Transaction: txn,
		Payment: &ordermodel.PaymentInit{
			Provider:              providerName,
			MerchantTransactionID: txn.MerchantTransactionID,
			RedirectURL:           result.RedirectURL,
			SessionToken:          result.SessionToken,
			ExpiresAt:             &txn.ExpiresAt,
		},
		Reconciliation: &model.Reconciliation{
			Status:     model.ReconcileStatusPending,
			NextPollAt: time.Now().Add(time.Duration(model.NextPollDelaySeconds(1)) * time.Second),
			Attempt:    0,
		},
		ShouldStartPolling: true,
	}, nil
}

// =====================================================
// SHARED HELPERS
// =====================================================

// loadOwnedOrder loads an order and enforces the ownership gate
func (s *paymentService) loadOwnedOrder(ctx context.Context, cartCtx types.CartContext, orderID uuid.UUID) (*ordermodel.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ordermodel.ErrOrderNotFound) {
			return nil, model.NewOrderNotFoundError(orderID.String())
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if !order.OwnedBy(cartCtx.UserID, cartCtx.SessionID) {
		return nil, model.NewUnauthorizedError()
	}
	return order, nil
}

// projectTransaction writes the order-side projection of a transaction
// status. Projection failures are logged, never surfaced: the
// transaction row already holds the truth and the next reconcile
// rewrites the projection.
func (s *paymentService) projectTransaction(ctx context.Context, orderID uuid.UUID, providerName, txnStatus string) {
	proj := model.ProjectOrderStatus(txnStatus)
	if err := s.orderRepo.ApplyPaymentProjection(ctx, orderID, proj.PaymentStatus, proj.OrderStatus, &providerName); err != nil {
		logger.Error("Failed to project payment state onto order", err)
	}
}

// cancelExpired settles an in-flight transaction as cancelled with the
// expiry reason and projects the failure onto the order
func (s *paymentService) cancelExpired(ctx context.Context, txn *model.PaymentTransaction) error {
	reason := "expired"
	if err := s.paymentRepo.TransitionStatus(ctx, txn.ID, model.TxnStatusCancelled, &model.TransactionUpdate{FailureReason: &reason}); err != nil {
		return err
	}
	txn.Status = model.TxnStatusCancelled
	txn.FailureReason = &reason
	s.projectTransaction(ctx, txn.OrderID, txn.Provider, model.TxnStatusCancelled)
	return nil
}

func pollAttemptKey(orderID uuid.UUID) string {
	return "payment:poll:" + orderID.String()
}

// bumpPollAttempt advances the per-order poll counter. The counter only
// tunes the backoff schedule, so a Redis hiccup degrades to the
// steepest (first) interval instead of failing the request.
func (s *paymentService) bumpPollAttempt(ctx context.Context, orderID uuid.UUID) int {
	key := pollAttemptKey(orderID)
	count, err := s.cache.Increment(ctx, key)
	if err != nil {
		logger.Error("Failed to bump poll attempt counter", err)
		return 1
	}
	if err := s.cache.Expire(ctx, key, model.PollAttemptTTLHours*time.Hour); err != nil {
		logger.Error("Failed to refresh poll attempt counter TTL", err)
	}
	return int(count)
}

func (s *paymentService) resetPollAttempts(ctx context.Context, orderID uuid.UUID) {
	if err := s.cache.Delete(ctx, pollAttemptKey(orderID)); err != nil {
		logger.Error("Failed to reset poll attempt counter", err)
	}
}

// callbackPayload flattens redirect query parameters for the audit log
func callbackPayload(params url.Values) map[string]interface{} {
	payload := make(map[string]interface{}, len(params))
	for key := range params {
		payload[key] = params.Get(key)
	}
	return payload
}

// logCallback records a provider interaction. Audit writes never fail
// the payment flow.
func (s *paymentService) logCallback(ctx context.Context, txn *model.PaymentTransaction, kind string, payload map[string]interface{}) {
	entry := &model.ProviderCallbackLog{
		ID:                    uuid.New(),
		TransactionID:         &txn.ID,
		Provider:              txn.Provider,
		MerchantTransactionID: txn.MerchantTransactionID,
		Kind:                  kind,
		Payload:               payload,
	}
	if err := s.callbackRepo.Create(ctx, entry); err != nil {
		logger.Error("Failed to record provider callback", err)
	}
}
