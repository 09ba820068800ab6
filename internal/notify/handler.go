package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/threadline/storefront/internal/domain"
)

// Handler turns order.created events into confirmation emails.
type Handler struct {
	mailer Mailer
	logger *slog.Logger
}

func NewHandler(mailer Mailer, logger *slog.Logger) *Handler {
	return &Handler{mailer: mailer, logger: logger}
}

func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order created event: %w", err)
	}

	h.logger.Info("processing order created event", "order_number", event.OrderNumber)

	subject := "Order confirmation: " + event.OrderNumber
	body := fmt.Sprintf(
		"Hi %s,\n\nWe received your order %s (%d items, %s total). "+
			"You can track it any time with your order number.\n",
		event.FirstName, event.OrderNumber, len(event.Items), event.TotalAmount.StringFixed(2),
	)

	if err := h.mailer.Send(ctx, event.Email, subject, body); err != nil {
		return fmt.Errorf("send confirmation email for %s: %w", event.OrderNumber, err)
	}

	h.logger.Info("confirmation sent", "order_number", event.OrderNumber, "to", event.Email)
	return nil
}
