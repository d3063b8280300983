package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"storefront-backend/internal/domains/payment/service"
	"storefront-backend/pkg/logger"
)

// ExpireStaleHandler runs the periodic sweep that fails transactions
// stuck past the payment window and releases their orders back to
// payment_failed.
type ExpireStaleHandler struct {
	paymentService service.PaymentService
	batchSize      int
}

func NewExpireStaleHandler(paymentService service.PaymentService, batchSize int) *ExpireStaleHandler {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ExpireStaleHandler{paymentService: paymentService, batchSize: batchSize}
}

func (h *ExpireStaleHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	expired, err := h.paymentService.ExpireStaleTransactions(ctx, h.batchSize)
	if err != nil {
		return fmt.Errorf("expire stale transactions: %w", err)
	}

	if expired > 0 {
		logger.Info("Expired stale payment transactions", map[string]interface{}{
			"count": expired,
		})
	}

	return nil
}
