package events

import (
	"context"
	"log/slog"

	"bigbite-orderbot/internal/logging"
)

type logPublisher struct {
	logger *slog.Logger
}

// NewLog returns a Publisher that only writes events to the log.
func NewLog(logger *slog.Logger) Publisher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &logPublisher{logger: logger}
}

func (p *logPublisher) PublishOrderPlaced(ctx context.Context, ev OrderPlaced) error {
	p.logger.Info("order placed",
		"event_id", ev.EventID,
		"order_id", ev.OrderID,
		"customer_id", ev.CustomerID,
		"total", ev.Pricing.TotalAmount,
	)
	return nil
}

func (p *logPublisher) Close() error { return nil }
