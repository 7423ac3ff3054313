package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists orders. The Mark* operations are single conditional
// updates: they return false when the order was not in the required state,
// which is how accept races and overlapping sweeps are resolved.
type Repository interface {
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByGatewayOrder(ctx context.Context, gatewayOrderID string) (*Order, error)

	// MarkPaid sets paymentStatus=Paid and records the payment id, only if
	// the order is still unpaid.
	MarkPaid(ctx context.Context, orderID uuid.UUID, paymentID string) (bool, error)

	// MarkAccepted transitions Pending -> Accepted/Scheduled and assigns
	// the mechanic, only if the order is still Pending.
	MarkAccepted(ctx context.Context, orderID, mechanicID uuid.UUID) (bool, error)

	// MarkRejected transitions Pending -> Rejected/Rejected, only if the
	// order is still Pending.
	MarkRejected(ctx context.Context, orderID uuid.UUID) (bool, error)

	// ListPendingMonthlyBefore returns monthly orders still Pending that
	// were created before the cutoff.
	ListPendingMonthlyBefore(ctx context.Context, cutoff time.Time) ([]*Order, error)

	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error)
}
