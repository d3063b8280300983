package job

import (
	"context"
	"fmt"
	"html"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	ordermodel "storefront-backend/internal/domains/order/model"
	orderrepo "storefront-backend/internal/domains/order/repository"
	"storefront-backend/internal/domains/payment/model"
	"storefront-backend/internal/domains/payment/repository"
	"storefront-backend/internal/infrastructure/storage"
	"storefront-backend/internal/shared"
	"storefront-backend/internal/shared/utils"
	"storefront-backend/pkg/logger"
)

// GenerateReceiptHandler renders a receipt for a settled transaction,
// uploads it to object storage and stores the public URL on the row.
type GenerateReceiptHandler struct {
	paymentRepo repository.PaymentRepoInterface
	orderRepo   orderrepo.OrderRepository
	storage     *storage.MinIOStorage
}

func NewGenerateReceiptHandler(
	paymentRepo repository.PaymentRepoInterface,
	orderRepo orderrepo.OrderRepository,
	store *storage.MinIOStorage,
) *GenerateReceiptHandler {
	return &GenerateReceiptHandler{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		storage:     store,
	}
}

func (h *GenerateReceiptHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.GenerateReceiptPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	txnID, err := uuid.Parse(payload.TransactionID)
	if err != nil {
		return fmt.Errorf("invalid transaction id %q: %w", payload.TransactionID, err)
	}

	txn, err := h.paymentRepo.GetByID(ctx, txnID)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	// Receipts exist only for money that actually moved
	if txn.Status != model.TxnStatusCompleted {
		logger.Info("Skipping receipt for unsettled transaction", map[string]interface{}{
			"transaction_id": txn.ID.String(),
			"status":         txn.Status,
		})
		return nil
	}
	if txn.ReceiptURL != nil && *txn.ReceiptURL != "" {
		return nil
	}

	order, err := h.orderRepo.GetOrderByID(ctx, txn.OrderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}

	key := fmt.Sprintf("receipts/%s/%s.html", txn.OrderID.String(), txn.ID.String())
	url, err := h.storage.Upload(ctx, key, []byte(renderReceipt(order, txn)), "text/html")
	if err != nil {
		return fmt.Errorf("upload receipt: %w", err)
	}

	if err := h.paymentRepo.SetReceiptURL(ctx, txn.ID, url); err != nil {
		return fmt.Errorf("store receipt url: %w", err)
	}

	logger.Info("Generated payment receipt", map[string]interface{}{
		"transaction_id": txn.ID.String(),
		"order_number":   order.OrderNumber,
		"url":            url,
	})

	return nil
}

// renderReceipt builds a small self-contained HTML page. Finance wants
// the merchant reference, UTR and VPA on it; everything else is for
// the customer.
func renderReceipt(order *ordermodel.Order, txn *model.PaymentTransaction) string {
	row := func(label, value string) string {
		if value == "" {
			return ""
		}
		return fmt.Sprintf("<tr><td>%s</td><td>%s</td></tr>\n", html.EscapeString(label), html.EscapeString(value))
	}

	completedAt := ""
	if txn.CompletedAt != nil {
		completedAt = txn.CompletedAt.Format("02 Jan 2006 15:04 MST")
	}

	rows := row("Order", order.OrderNumber) +
		row("Amount", fmt.Sprintf("%s %s", txn.Amount.StringFixed(2), txn.Currency)) +
		row("Provider", txn.Provider) +
		row("Reference", txn.MerchantTransactionID) +
		row("UTR", deref(txn.UTR)) +
		row("Paid from", deref(txn.PayerVPA)) +
		row("Paid at", completedAt)

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Receipt %s</title></head>
<body>
<h2>Payment Receipt</h2>
<table>
%s</table>
</body>
</html>
`, html.EscapeString(order.OrderNumber), rows)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
