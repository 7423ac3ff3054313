package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vaahanlabs/pitstop/internal/orders/domain"
	sharedDomain "github.com/vaahanlabs/pitstop/internal/shared/domain"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/persistence"
)

// PostgresOrderRepository implements order persistence on PostgreSQL. The
// Mark* operations are single conditional UPDATEs; callers read the affected
// row count through the returned bool.
type PostgresOrderRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresOrderRepository creates a new repository.
func NewPostgresOrderRepository(pool *pgxpool.Pool) *PostgresOrderRepository {
	return &PostgresOrderRepository{pool: pool}
}

const selectOrder = `
	SELECT id, code, user_id, order_type, status, track_status, payment_status,
	       service_charge, paid_amount, order_amount, spare_parts_charge,
	       customer_name, customer_phone, scheduled_on, location, car_type,
	       services, subscription_id, one_time_plan_id, mechanic_id,
	       gateway_order_id, payment_id, created_at, updated_at
	FROM orders
`

// Save upserts the order.
func (r *PostgresOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, code, user_id, order_type, status, track_status, payment_status,
			service_charge, paid_amount, order_amount, spare_parts_charge,
			customer_name, customer_phone, scheduled_on, location, car_type,
			services, subscription_id, one_time_plan_id, mechanic_id,
			gateway_order_id, payment_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			track_status = EXCLUDED.track_status,
			payment_status = EXCLUDED.payment_status,
			paid_amount = EXCLUDED.paid_amount,
			order_amount = EXCLUDED.order_amount,
			spare_parts_charge = EXCLUDED.spare_parts_charge,
			mechanic_id = EXCLUDED.mechanic_id,
			payment_id = EXCLUDED.payment_id,
			updated_at = EXCLUDED.updated_at
	`
	amounts := order.Amounts()
	customer := order.Customer()
	_, err := persistence.Executor(ctx, r.pool).Exec(ctx, query,
		order.ID(),
		order.Code(),
		order.UserID(),
		string(order.Type()),
		string(order.Status()),
		string(order.TrackStatus()),
		string(order.PaymentStatus()),
		amounts.ServiceCharge,
		amounts.PaidAmount,
		amounts.OrderAmount,
		amounts.SparePartsCharge,
		customer.Name,
		customer.Phone,
		customer.ScheduledOn,
		customer.Location,
		customer.CarType,
		order.Services(),
		order.SubscriptionID(),
		order.OneTimePlanID(),
		order.MechanicID(),
		order.GatewayOrderID(),
		order.PaymentID(),
		order.CreatedAt(),
		order.UpdatedAt(),
	)
	return err
}

// FindByID returns the order by id.
func (r *PostgresOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := persistence.Executor(ctx, r.pool).QueryRow(ctx, selectOrder+` WHERE id = $1`, id)
	return scanOrder(row)
}

// FindByGatewayOrder returns the order opened against the gateway order.
func (r *PostgresOrderRepository) FindByGatewayOrder(ctx context.Context, gatewayOrderID string) (*domain.Order, error) {
	row := persistence.Executor(ctx, r.pool).QueryRow(ctx,
		selectOrder+` WHERE gateway_order_id = $1`, gatewayOrderID)
	return scanOrder(row)
}

// MarkPaid records the payment only if the order is still unpaid.
func (r *PostgresOrderRepository) MarkPaid(ctx context.Context, orderID uuid.UUID, paymentID string) (bool, error) {
	query := `
		UPDATE orders
		SET payment_status = 'Paid',
		    payment_id = $2,
		    paid_amount = order_amount,
		    updated_at = NOW()
		WHERE id = $1 AND payment_status = 'Pending'
	`
	tag, err := persistence.Executor(ctx, r.pool).Exec(ctx, query, orderID, paymentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkAccepted assigns the mechanic only if the order is still Pending, so
// concurrent accepts resolve to exactly one winner.
func (r *PostgresOrderRepository) MarkAccepted(ctx context.Context, orderID, mechanicID uuid.UUID) (bool, error) {
	query := `
		UPDATE orders
		SET status = 'Accepted',
		    track_status = 'Scheduled',
		    mechanic_id = $2,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'Pending'
	`
	tag, err := persistence.Executor(ctx, r.pool).Exec(ctx, query, orderID, mechanicID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkRejected rejects the order only if it is still Pending.
func (r *PostgresOrderRepository) MarkRejected(ctx context.Context, orderID uuid.UUID) (bool, error) {
	query := `
		UPDATE orders
		SET status = 'Rejected',
		    track_status = 'Rejected',
		    updated_at = NOW()
		WHERE id = $1 AND status = 'Pending'
	`
	tag, err := persistence.Executor(ctx, r.pool).Exec(ctx, query, orderID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListPendingMonthlyBefore returns pending monthly orders created before the
// cutoff, oldest first.
func (r *PostgresOrderRepository) ListPendingMonthlyBefore(ctx context.Context, cutoff time.Time) ([]*domain.Order, error) {
	rows, err := persistence.Executor(ctx, r.pool).Query(ctx,
		selectOrder+` WHERE order_type = 'monthly' AND status = 'Pending' AND created_at < $1 ORDER BY created_at`,
		cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

// ListByUser returns the user's orders, newest first.
func (r *PostgresOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	rows, err := persistence.Executor(ctx, r.pool).Query(ctx,
		selectOrder+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]*domain.Order, error) {
	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		id                   uuid.UUID
		code                 string
		userID               uuid.UUID
		orderType            string
		status               string
		trackStatus          string
		paymentStatus        string
		amounts              domain.Amounts
		customer             domain.CustomerDetails
		services             []uuid.UUID
		subscriptionID       *uuid.UUID
		oneTimePlanID        *uuid.UUID
		mechanicID           *uuid.UUID
		gatewayOrderID       string
		paymentID            string
		createdAt, updatedAt time.Time
	)
	err := row.Scan(
		&id, &code, &userID, &orderType, &status, &trackStatus, &paymentStatus,
		&amounts.ServiceCharge, &amounts.PaidAmount, &amounts.OrderAmount, &amounts.SparePartsCharge,
		&customer.Name, &customer.Phone, &customer.ScheduledOn, &customer.Location, &customer.CarType,
		&services, &subscriptionID, &oneTimePlanID, &mechanicID,
		&gatewayOrderID, &paymentID, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	entity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return domain.RehydrateOrder(
		entity,
		code,
		userID,
		domain.OrderType(orderType),
		domain.Status(status),
		domain.TrackStatus(trackStatus),
		domain.PaymentStatus(paymentStatus),
		amounts,
		customer,
		services,
		subscriptionID, oneTimePlanID, mechanicID,
		gatewayOrderID, paymentID,
	), nil
}
