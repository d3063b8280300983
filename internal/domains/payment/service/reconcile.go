package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"storefront-backend/internal/domains/payment/model"
	"storefront-backend/internal/domains/payment/provider"
	"storefront-backend/internal/shared"
	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/retry"
)

// =====================================================
// RECONCILIATION CORE
// =====================================================
// One code path settles transactions from every trigger: the return
// probe, the retry close-out and both worker sweeps all come through
// ReconcileTransaction.

// ReconcileTransaction fetches the gateway's current view of the
// transaction and applies it: status transition, order projection and,
// on completion, the receipt and confirmation follow-ups. The passed
// transaction is updated in place. Returns the status after the
// attempt; an unreachable gateway returns the unchanged status together
// with the error.
func (s *paymentService) ReconcileTransaction(ctx context.Context, txn *model.PaymentTransaction) (string, error) {
	if txn.IsTerminal() {
		return txn.Status, nil
	}

	adapter, err := s.providers.Get(txn.Provider)
	if err != nil {
		return txn.Status, err
	}

	porder, err := retry.Do(ctx, retry.DefaultOptions(), func(ctx context.Context) (*provider.ProviderOrder, error) {
		return adapter.CheckOrderExists(ctx, txn.MerchantTransactionID)
	})
	if err != nil {
		return txn.Status, model.NewGatewayUnavailableError(txn.Provider, err)
	}

	s.logCallback(ctx, txn, model.CallbackKindReconcile, reconcilePayload(porder))

	if porder == nil {
		// The gateway has never seen this reference, so the create call
		// never landed. The transaction stays in flight for the expiry
		// sweep to close out.
		return txn.Status, nil
	}

	return s.applyProviderState(ctx, txn, porder)
}

// applyProviderState moves the transaction to the gateway-reported
// status and keeps the order projection in step
func (s *paymentService) applyProviderState(ctx context.Context, txn *model.PaymentTransaction, porder *provider.ProviderOrder) (string, error) {
	mapped := porder.Status
	if mapped == "" {
		mapped = model.TxnStatusPending
	}
	if mapped == txn.Status {
		return txn.Status, nil
	}

	update := &model.TransactionUpdate{ProviderResponse: porder.RawResponse}
	if porder.ProviderReferenceID != "" {
		refID := porder.ProviderReferenceID
		update.ProviderReferenceID = &refID
	}
	if porder.UTR != "" {
		utr := porder.UTR
		update.UTR = &utr
	}
	if porder.PayerVPA != "" {
		vpa := porder.PayerVPA
		update.PayerVPA = &vpa
	}
	if porder.PaymentInstrument != "" {
		instrument := porder.PaymentInstrument
		update.PaymentInstrument = &instrument
	}
	if mapped == model.TxnStatusFailed || mapped == model.TxnStatusCancelled {
		reason := fmt.Sprintf("provider reported %s", porder.ProviderStatus)
		update.FailureReason = &reason
	}

	if err := s.paymentRepo.TransitionStatus(ctx, txn.ID, mapped, update); err != nil {
		if errors.Is(err, model.ErrInvalidTransition) {
			// A concurrent writer settled the row first; the stored state
			// wins over this fetch
			if fresh, ferr := s.paymentRepo.GetByID(ctx, txn.ID); ferr == nil {
				*txn = *fresh
			}
			return txn.Status, nil
		}
		return txn.Status, fmt.Errorf("failed to transition transaction: %w", err)
	}

	txn.Status = mapped
	if update.ProviderReferenceID != nil {
		txn.ProviderReferenceID = update.ProviderReferenceID
	}
	if update.UTR != nil {
		txn.UTR = update.UTR
	}
	if update.PayerVPA != nil {
		txn.PayerVPA = update.PayerVPA
	}
	if update.FailureReason != nil {
		txn.FailureReason = update.FailureReason
	}

	s.projectTransaction(ctx, txn.OrderID, txn.Provider, mapped)

	if mapped == model.TxnStatusCompleted {
		s.enqueueCompletionJobs(ctx, txn)
	}

	return mapped, nil
}

// =====================================================
// WORKER SWEEPS
// =====================================================

// ExpireStaleTransactions settles in-flight transactions that outlived
// their payment window. Each gets one final gateway check first: a
// payment that actually went through must never be cancelled. Returns
// how many transactions reached a terminal state.
func (s *paymentService) ExpireStaleTransactions(ctx context.Context, limit int) (int, error) {
	stale, err := s.paymentRepo.ListExpiredInFlight(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired transactions: %w", err)
	}

	settled := 0
	for _, txn := range stale {
		status, err := s.ReconcileTransaction(ctx, txn)
		if err != nil {
			// Unreachable gateway: leave the row for the next sweep
			// rather than cancelling blind
			logger.Error("Expiry sweep gateway check failed", err)
			continue
		}
		if model.IsTerminalTxnStatus(status) {
			settled++
			continue
		}

		if err := s.cancelExpired(ctx, txn); err != nil {
			logger.Error("Failed to cancel expired transaction", err)
			continue
		}
		settled++
	}

	if settled > 0 {
		logger.Info("Expired stale payment transactions", map[string]interface{}{
			"examined": len(stale),
			"settled":  settled,
		})
	}
	return settled, nil
}

// ReconcilePendingTransactions re-checks in-flight transactions against
// their gateways so completion does not depend on the client polling.
// Returns how many reached a terminal state.
func (s *paymentService) ReconcilePendingTransactions(ctx context.Context, limit int) (int, error) {
	pending, err := s.paymentRepo.ListInFlight(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list in-flight transactions: %w", err)
	}

	finalized := 0
	for _, txn := range pending {
		status, err := s.ReconcileTransaction(ctx, txn)
		if err != nil {
			logger.Error("Reconcile sweep gateway check failed", err)
			continue
		}
		if model.IsTerminalTxnStatus(status) {
			finalized++
		}
	}

	if finalized > 0 {
		logger.Info("Reconciled pending payment transactions", map[string]interface{}{
			"examined":  len(pending),
			"finalized": finalized,
		})
	}
	return finalized, nil
}

// =====================================================
// COMPLETION FOLLOW-UPS
// =====================================================

// enqueueCompletionJobs schedules the receipt upload and the
// confirmation email after a payment settles. Both are best-effort;
// the settled transaction is already durable.
func (s *paymentService) enqueueCompletionJobs(ctx context.Context, txn *model.PaymentTransaction) {
	receipt := shared.GenerateReceiptPayload{
		TransactionID: txn.ID.String(),
		OrderID:       txn.OrderID.String(),
	}
	if b, err := json.Marshal(receipt); err == nil {
		task := asynq.NewTask(shared.TypeGenerateReceipt, b)
		if _, err := s.asynq.Enqueue(task, asynq.Queue(shared.QueueDefault)); err != nil {
			logger.Error("Failed to enqueue receipt generation", err)
		}
	}

	order, err := s.orderRepo.GetOrderByID(ctx, txn.OrderID)
	if err != nil {
		logger.Error("Failed to load order for confirmation email", err)
		return
	}
	userID := ""
	if order.UserID != nil {
		userID = order.UserID.String()
	}
	confirmation := shared.SendOrderConfirmationPayload{
		OrderID:       order.ID.String(),
		OrderNumber:   order.OrderNumber,
		UserID:        userID,
		Total:         order.Total,
		Currency:      order.Currency,
		PaymentMethod: order.PaymentMethod,
		PlacedAt:      order.CreatedAt.Format(time.RFC3339),
	}
	if b, err := json.Marshal(confirmation); err == nil {
		task := asynq.NewTask(shared.TypeSendOrderConfirmation, b)
		if _, err := s.asynq.Enqueue(task, asynq.Queue(shared.QueueDefault)); err != nil {
			logger.Error("Failed to enqueue order confirmation email", err)
		}
	}
}

// reconcilePayload shapes the audit payload for a reconcile fetch
func reconcilePayload(porder *provider.ProviderOrder) map[string]interface{} {
	if porder == nil {
		return map[string]interface{}{"found": false}
	}
	if porder.RawResponse != nil {
		return porder.RawResponse
	}
	return map[string]interface{}{
		"found":               true,
		"providerStatus":      porder.ProviderStatus,
		"status":              porder.Status,
		"providerReferenceId": porder.ProviderReferenceID,
		"amountMinor":         porder.AmountMinor,
	}
}
