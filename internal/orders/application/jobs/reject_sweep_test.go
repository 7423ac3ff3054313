package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaahanlabs/pitstop/internal/orders/application/commands"
	"github.com/vaahanlabs/pitstop/internal/orders/domain"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/outbox"
	subscriptionCommands "github.com/vaahanlabs/pitstop/internal/subscription/application/commands"
	subscriptionDomain "github.com/vaahanlabs/pitstop/internal/subscription/domain"
)

type noopUow struct{}

func (noopUow) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (noopUow) Commit(ctx context.Context) error                   { return nil }
func (noopUow) Rollback(ctx context.Context) error                 { return nil }

type stubOrders struct {
	orders map[uuid.UUID]*domain.Order
}

func (s *stubOrders) Save(ctx context.Context, order *domain.Order) error {
	s.orders[order.ID()] = order
	return nil
}

func (s *stubOrders) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (s *stubOrders) FindByGatewayOrder(ctx context.Context, gatewayOrderID string) (*domain.Order, error) {
	return nil, domain.ErrOrderNotFound
}

func (s *stubOrders) MarkPaid(ctx context.Context, orderID uuid.UUID, paymentID string) (bool, error) {
	return false, nil
}

func (s *stubOrders) MarkAccepted(ctx context.Context, orderID, mechanicID uuid.UUID) (bool, error) {
	order, ok := s.orders[orderID]
	if !ok || order.Status() != domain.StatusPending {
		return false, nil
	}
	return true, order.Accept(mechanicID)
}

func (s *stubOrders) MarkRejected(ctx context.Context, orderID uuid.UUID) (bool, error) {
	order, ok := s.orders[orderID]
	if !ok || order.Status() != domain.StatusPending {
		return false, nil
	}
	return true, order.Reject()
}

func (s *stubOrders) ListPendingMonthlyBefore(ctx context.Context, cutoff time.Time) ([]*domain.Order, error) {
	var overdue []*domain.Order
	for _, order := range s.orders {
		if order.Type() == domain.TypeMonthly && order.Status() == domain.StatusPending && order.CreatedAt().Before(cutoff) {
			overdue = append(overdue, order)
		}
	}
	return overdue, nil
}

func (s *stubOrders) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return nil, nil
}

// stubLedger carries only what RefundUnit touches.
type stubLedger struct {
	subscriptionDomain.Repository
	limits map[uuid.UUID]int
}

func (s *stubLedger) RefundUnit(ctx context.Context, userID uuid.UUID) error {
	if _, ok := s.limits[userID]; !ok {
		return subscriptionDomain.ErrPlanStateNotFound
	}
	s.limits[userID]++
	return nil
}

func newOrder(t *testing.T, userID uuid.UUID) *domain.Order {
	t.Helper()
	order, err := domain.NewSubscriptionOrder(userID, uuid.New(), nil, domain.CustomerDetails{
		Name:        "Asha",
		Phone:       "+919800000000",
		ScheduledOn: time.Now().Add(2 * time.Hour),
	})
	require.NoError(t, err)
	return order
}

func newSweep(orders *stubOrders, ledger *stubLedger, grace time.Duration) *RejectSweep {
	outboxRepo := outbox.NewInMemoryRepository()
	refund := subscriptionCommands.NewRefundUnitHandler(ledger, outboxRepo, noopUow{}, nil)
	reject := commands.NewRejectByTimeoutHandler(orders, refund, outboxRepo, noopUow{}, nil)
	return NewRejectSweep(orders, reject, grace, nil)
}

func TestRejectSweep_RejectsOverdueOrders(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	orders := &stubOrders{orders: make(map[uuid.UUID]*domain.Order)}
	ledger := &stubLedger{limits: map[uuid.UUID]int{userID: 0}}

	overdue := newOrder(t, userID)
	accepted := newOrder(t, userID)
	require.NoError(t, orders.Save(ctx, overdue))
	require.NoError(t, orders.Save(ctx, accepted))
	_, err := orders.MarkAccepted(ctx, accepted.ID(), uuid.New())
	require.NoError(t, err)

	sweep := newSweep(orders, ledger, 30*time.Minute)

	// Nothing is overdue yet.
	rejected, err := sweep.Run(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, rejected)

	// Past the grace period only the still-pending order is rejected.
	rejected, err = sweep.Run(ctx, time.Now().Add(31*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, domain.StatusRejected, overdue.Status())
	assert.Equal(t, domain.StatusAccepted, accepted.Status())
	assert.Equal(t, 1, ledger.limits[userID], "rejected order refunds its unit")
}

func TestRejectSweep_OneFailureDoesNotStopTheBatch(t *testing.T) {
	ctx := context.Background()
	goodUser := uuid.New()
	orphanUser := uuid.New()
	orders := &stubOrders{orders: make(map[uuid.UUID]*domain.Order)}
	ledger := &stubLedger{limits: map[uuid.UUID]int{goodUser: 0}}

	require.NoError(t, orders.Save(ctx, newOrder(t, orphanUser)))
	good := newOrder(t, goodUser)
	require.NoError(t, orders.Save(ctx, good))

	sweep := newSweep(orders, ledger, 30*time.Minute)
	rejected, err := sweep.Run(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, rejected, "orphan refund failure is isolated")
	assert.Equal(t, domain.StatusRejected, good.Status())
	assert.Equal(t, 1, ledger.limits[goodUser])
}
