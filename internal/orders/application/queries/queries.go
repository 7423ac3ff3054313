package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/vaahanlabs/pitstop/internal/orders/domain"
)

// OrderQuery serves order reads.
type OrderQuery struct {
	orders domain.Repository
}

// NewOrderQuery creates a new OrderQuery.
func NewOrderQuery(orders domain.Repository) *OrderQuery {
	return &OrderQuery{orders: orders}
}

// Get returns the order by id.
func (q *OrderQuery) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return q.orders.FindByID(ctx, id)
}

// ListByUser returns the user's orders, newest first.
func (q *OrderQuery) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return q.orders.ListByUser(ctx, userID)
}
