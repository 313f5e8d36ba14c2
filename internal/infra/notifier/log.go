package notifier

import (
	"context"
	"log/slog"

	"bakery/internal/usecase"
)

// SES未設定時はメール本文をログに出すだけ
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) OrderPlaced(ctx context.Context, msg usecase.OrderPlacedMessage) error {
	n.logger.InfoContext(ctx, "mail: order placed", "to", msg.To, "order_number", msg.OrderNumber,
		"total", msg.Total.StringFixed(2))
	return nil
}

func (n *LogNotifier) OrderAssigned(ctx context.Context, msg usecase.OrderAssignedMessage) error {
	n.logger.InfoContext(ctx, "mail: order assigned", "to", msg.To, "order_number", msg.OrderNumber)
	return nil
}

func (n *LogNotifier) PasswordReset(ctx context.Context, to, name, link string) error {
	n.logger.InfoContext(ctx, "mail: password reset", "to", to, "link", link)
	return nil
}
