package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"storefront-backend/internal/domains/payment/service"
	"storefront-backend/pkg/logger"
)

// ReconcilePendingHandler runs the periodic sweep that re-queries the
// provider for every transaction still sitting in initiated or pending.
// Return redirects get lost (closed tabs, flaky UPI apps), so this is
// the path that eventually settles them.
type ReconcilePendingHandler struct {
	paymentService service.PaymentService
	batchSize      int
}

func NewReconcilePendingHandler(paymentService service.PaymentService, batchSize int) *ReconcilePendingHandler {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ReconcilePendingHandler{paymentService: paymentService, batchSize: batchSize}
}

func (h *ReconcilePendingHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	finalized, err := h.paymentService.ReconcilePendingTransactions(ctx, h.batchSize)
	if err != nil {
		return fmt.Errorf("reconcile pending transactions: %w", err)
	}

	if finalized > 0 {
		logger.Info("Reconciliation sweep finalized transactions", map[string]interface{}{
			"count": finalized,
		})
	}

	return nil
}
