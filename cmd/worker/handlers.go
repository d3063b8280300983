package main

import (
	"github.com/hibiken/asynq"

	orderjob "storefront-backend/internal/domains/order/job"
	paymentjob "storefront-backend/internal/domains/payment/job"
	"storefront-backend/internal/shared"
	"storefront-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	sendOrderConfirmation *orderjob.SendOrderConfirmationHandler
	generateReceipt       *paymentjob.GenerateReceiptHandler
	expireStale           *paymentjob.ExpireStaleHandler
	reconcilePending      *paymentjob.ReconcilePendingHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		sendOrderConfirmation: orderjob.NewSendOrderConfirmationHandler(c.EmailService, c.UserRepo),
		generateReceipt:       paymentjob.NewGenerateReceiptHandler(c.PaymentRepo, c.OrderRepo, c.Storage),
		expireStale:           paymentjob.NewExpireStaleHandler(c.PaymentService, c.Config.Reconciliation.ExpireBatchSize),
		reconcilePending:      paymentjob.NewReconcilePendingHandler(c.PaymentService, c.Config.Reconciliation.ReconcileBatchSize),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeSendOrderConfirmation, h.sendOrderConfirmation.ProcessTask)
	mux.HandleFunc(shared.TypeGenerateReceipt, h.generateReceipt.ProcessTask)
	mux.HandleFunc(shared.TypeExpireStaleTransactions, h.expireStale.ProcessTask)
	mux.HandleFunc(shared.TypeReconcilePending, h.reconcilePending.ProcessTask)
}
