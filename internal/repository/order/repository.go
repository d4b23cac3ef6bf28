package order

import (
	"context"

	"bigbite-orderbot/internal/domain"
)

// Repository is the local ledger of orders placed through the assistant.
type Repository interface {
	Record(ctx context.Context, o domain.AssistantOrder) (*domain.AssistantOrder, error)
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.AssistantOrder, error)
}
