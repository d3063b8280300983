package job

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	userrepo "storefront-backend/internal/domains/user/repository"
	emailInfra "storefront-backend/internal/infrastructure/email"
	"storefront-backend/internal/shared"
	"storefront-backend/internal/shared/utils"
	"storefront-backend/pkg/logger"
)

// SendOrderConfirmationHandler emails the shopper once an order is
// confirmed: at intake for COD, on settlement for provider payments.
type SendOrderConfirmationHandler struct {
	emailService emailInfra.EmailService
	userRepo     userrepo.UserRepoInterface
}

func NewSendOrderConfirmationHandler(emailService emailInfra.EmailService, userRepo userrepo.UserRepoInterface) *SendOrderConfirmationHandler {
	return &SendOrderConfirmationHandler{
		emailService: emailService,
		userRepo:     userRepo,
	}
}

func (h *SendOrderConfirmationHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.SendOrderConfirmationPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	// Guest orders carry no account, so there is no address on file.
	// Dropping the task is correct; retrying would never help.
	if payload.UserID == "" {
		logger.Info("Skipping confirmation email for guest order", map[string]interface{}{
			"order_number": payload.OrderNumber,
		})
		return nil
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", payload.UserID, err)
	}

	u, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Info("Skipping confirmation email, account not found", map[string]interface{}{
			"order_number": payload.OrderNumber,
			"user_id":      payload.UserID,
		})
		return nil
	}

	emailReq := emailInfra.EmailRequest{
		To:      []string{u.Email},
		Subject: fmt.Sprintf("Order %s confirmed", payload.OrderNumber),
		Body:    buildConfirmationBody(u.FullName, payload),
		IsHTML:  false,
	}

	if err := h.emailService.SendEmail(ctx, emailReq); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}

	logger.Info("Sent order confirmation email", map[string]interface{}{
		"order_number": payload.OrderNumber,
		"email":        u.Email,
	})

	return nil
}

func buildConfirmationBody(name string, payload shared.SendOrderConfirmationPayload) string {
	method := payload.PaymentMethod
	switch method {
	case "cash_on_delivery":
		method = "Cash on delivery"
	case "upi":
		method = "UPI"
	}

	return fmt.Sprintf(`Hi %s,

Thanks for your order!

Order number: %s
Placed at:    %s
Total:        %s %s
Payment:      %s

You can track your order from your account at any time.

Storefront Team`,
		name,
		payload.OrderNumber,
		payload.PlacedAt,
		payload.Total.StringFixed(2),
		payload.Currency,
		method,
	)
}
