// Package notify delivers reservation status notifications. The current
// implementation writes structured log records; a mail or chat backend can
// replace it behind the same booking.Notifier interface.
package notify

import (
	"context"
	"log/slog"

	"github.com/example/campus-booking/internal/booking"
	"github.com/example/campus-booking/internal/logging"
)

// LogNotifier implements booking.Notifier on the structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier wires the notifier. A nil logger falls back to the context
// or default logger at call time.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyStatusChange logs the status change. It never fails; notification
// delivery must not influence the booking operation that triggered it.
func (n *LogNotifier) NotifyStatusChange(ctx context.Context, notification booking.Notification) {
	logger := logging.OrDefault(ctx, n.logger)
	logger.InfoContext(ctx, "reservation status changed",
		"reservation_id", notification.ReservationID,
		"resource_title", notification.ResourceTitle,
		"requester_id", notification.RequesterID,
		"start", notification.Start,
		"end", notification.End,
		"status", string(notification.Status),
	)
}
