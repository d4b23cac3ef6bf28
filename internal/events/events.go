// Package events publishes "order placed" notifications for downstream
// consumers such as kitchen displays and analytics.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bigbite-orderbot/internal/config"
	"bigbite-orderbot/internal/domain"
	"github.com/google/uuid"
)

const OrderPlacedType = "order.placed"

// OrderPlaced is the payload of every published event.
type OrderPlaced struct {
	EventID      string                  `json:"eventId"`
	Type         string                  `json:"type"`
	OccurredAt   time.Time               `json:"occurredAt"`
	OrderID      string                  `json:"orderId"`
	CustomerID   string                  `json:"customerId"`
	RestaurantID string                  `json:"restaurantId"`
	WishlistID   string                  `json:"wishlistId"`
	WishlistName string                  `json:"wishlistName"`
	Items        []domain.OrderLine      `json:"items"`
	Pricing      domain.PricingBreakdown `json:"pricing"`
}

func NewOrderPlaced(o domain.AssistantOrder, items []domain.OrderLine) OrderPlaced {
	return OrderPlaced{
		EventID:      uuid.NewString(),
		Type:         OrderPlacedType,
		OccurredAt:   time.Now().UTC(),
		OrderID:      o.OrderID,
		CustomerID:   o.CustomerID,
		RestaurantID: o.RestaurantID,
		WishlistID:   o.WishlistID,
		WishlistName: o.WishlistName,
		Items:        items,
		Pricing:      o.Pricing,
	}
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, ev OrderPlaced) error
	Close() error
}

// New builds the publisher selected by cfg.Driver.
func New(cfg config.Events, logger *slog.Logger) (Publisher, error) {
	switch cfg.Driver {
	case "", "none":
		return NewLog(logger), nil
	case "rabbitmq":
		return NewRabbitMQ(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey, logger)
	case "kafka":
		return NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger), nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}
