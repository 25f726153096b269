package booking

import (
	"context"
	"log/slog"

	"github.com/example/campus-booking/internal/logging"
)

func serviceLogger(ctx context.Context, base *slog.Logger, operation string, attrs ...any) *slog.Logger {
	logger := logging.OrDefault(ctx, base)

	pairs := []any{"service", "booking"}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}
