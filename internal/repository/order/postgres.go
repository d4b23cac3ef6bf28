package order

import (
	"context"
	"errors"
	"log/slog"

	"bigbite-orderbot/internal/domain"
	"bigbite-orderbot/internal/logging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) Repository {
	if logger == nil {
		logger = logging.Discard()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Record(ctx context.Context, o domain.AssistantOrder) (*domain.AssistantOrder, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	const q = `
INSERT INTO assistant_orders (
    id, order_id, customer_id, restaurant_id, wishlist_id, wishlist_name,
    subtotal, delivery_fee, platform_fee, gst, total_amount, distance_km
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id::text, order_id, customer_id, restaurant_id, wishlist_id, wishlist_name,
          subtotal::float8, delivery_fee::float8, platform_fee::float8, gst::float8, total_amount::float8,
          distance_km::float8, created_at
`
	return r.scanOrder(r.pool.QueryRow(
		ctx,
		q,
		o.ID,
		o.OrderID,
		o.CustomerID,
		o.RestaurantID,
		o.WishlistID,
		o.WishlistName,
		o.Pricing.Subtotal,
		o.Pricing.DeliveryFee,
		o.Pricing.PlatformFee,
		o.Pricing.GST,
		o.Pricing.TotalAmount,
		o.Pricing.DistanceKm,
	))
}

// ListByCustomer returns the newest orders first. A non-positive limit
// means the default page size.
func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.AssistantOrder, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	const q = `
SELECT id::text, order_id, customer_id, restaurant_id, wishlist_id, wishlist_name,
       subtotal::float8, delivery_fee::float8, platform_fee::float8, gst::float8, total_amount::float8,
       distance_km::float8, created_at
FROM assistant_orders
WHERE customer_id = $1
ORDER BY created_at DESC, id
LIMIT $2
`
	rows, err := r.pool.Query(ctx, q, customerID, limit)
	if err != nil {
		r.logger.Error("order repo: list query", "customer", customerID, "err", err)
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.AssistantOrder, 0)
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *postgresRepo) scanOrder(row pgx.Row) (*domain.AssistantOrder, error) {
	var o domain.AssistantOrder
	err := row.Scan(
		&o.ID,
		&o.OrderID,
		&o.CustomerID,
		&o.RestaurantID,
		&o.WishlistID,
		&o.WishlistName,
		&o.Pricing.Subtotal,
		&o.Pricing.DeliveryFee,
		&o.Pricing.PlatformFee,
		&o.Pricing.GST,
		&o.Pricing.TotalAmount,
		&o.Pricing.DistanceKm,
		&o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("order repo: scan", "err", err)
		return nil, err
	}
	return &o, nil
}
