package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	catalogDomain "github.com/vaahanlabs/pitstop/internal/catalog/domain"
	identityDomain "github.com/vaahanlabs/pitstop/internal/identity/domain"
	"github.com/vaahanlabs/pitstop/internal/orders/domain"
	paymentDomain "github.com/vaahanlabs/pitstop/internal/payment/domain"
	subscriptionDomain "github.com/vaahanlabs/pitstop/internal/subscription/domain"
)

// noopUow satisfies the unit of work without a database; the fakes below
// apply writes immediately, which is equivalent for single-handler tests.
type noopUow struct{}

func (noopUow) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (noopUow) Commit(ctx context.Context) error                   { return nil }
func (noopUow) Rollback(ctx context.Context) error                 { return nil }

type fakeGateway struct {
	orders       int
	failVerify   error
	createdCalls []float64
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amount float64, currency string) (*paymentDomain.GatewayOrder, error) {
	g.orders++
	g.createdCalls = append(g.createdCalls, amount)
	return &paymentDomain.GatewayOrder{
		ID:       fmt.Sprintf("order_%03d", g.orders),
		Amount:   int64(amount * 100),
		Currency: currency,
	}, nil
}

func (g *fakeGateway) VerifySignature(gatewayOrderID, paymentID, signature string) error {
	return g.failVerify
}

// fakeUsers records AppendOrder calls so tests can assert back-references.
type fakeUsers struct {
	users      map[uuid.UUID]*identityDomain.User
	userOrders map[uuid.UUID][]uuid.UUID
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users:      make(map[uuid.UUID]*identityDomain.User),
		userOrders: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (f *fakeUsers) Save(ctx context.Context, user *identityDomain.User) error {
	f.users[user.ID()] = user
	return nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*identityDomain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, identityDomain.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUsers) AppendOrder(ctx context.Context, userID, orderID uuid.UUID) error {
	for _, id := range f.userOrders[userID] {
		if id == orderID {
			return nil
		}
	}
	f.userOrders[userID] = append(f.userOrders[userID], orderID)
	return nil
}

type fakeOneTimePlans struct {
	plans map[uuid.UUID]*catalogDomain.OneTimePlan
}

func newFakeOneTimePlans() *fakeOneTimePlans {
	return &fakeOneTimePlans{plans: make(map[uuid.UUID]*catalogDomain.OneTimePlan)}
}

func (f *fakeOneTimePlans) Save(ctx context.Context, plan *catalogDomain.OneTimePlan) error {
	f.plans[plan.ID()] = plan
	return nil
}

func (f *fakeOneTimePlans) FindByID(ctx context.Context, id uuid.UUID) (*catalogDomain.OneTimePlan, error) {
	plan, ok := f.plans[id]
	if !ok {
		return nil, catalogDomain.ErrOneTimePlanNotFound
	}
	return plan, nil
}

func (f *fakeOneTimePlans) FindAll(ctx context.Context, activeOnly bool) ([]*catalogDomain.OneTimePlan, error) {
	var plans []*catalogDomain.OneTimePlan
	for _, plan := range f.plans {
		plans = append(plans, plan)
	}
	return plans, nil
}

// fakeOrders mirrors the Postgres repository's conditional updates in memory.
type fakeOrders struct {
	orders map[uuid.UUID]*domain.Order
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: make(map[uuid.UUID]*domain.Order)}
}

func (f *fakeOrders) Save(ctx context.Context, order *domain.Order) error {
	f.orders[order.ID()] = order
	return nil
}

func (f *fakeOrders) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeOrders) FindByGatewayOrder(ctx context.Context, gatewayOrderID string) (*domain.Order, error) {
	for _, order := range f.orders {
		if order.GatewayOrderID() == gatewayOrderID {
			return order, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (f *fakeOrders) MarkPaid(ctx context.Context, orderID uuid.UUID, paymentID string) (bool, error) {
	order, ok := f.orders[orderID]
	if !ok || order.PaymentStatus() != domain.PaymentPending {
		return false, nil
	}
	return true, order.MarkPaid(paymentID)
}

func (f *fakeOrders) MarkAccepted(ctx context.Context, orderID, mechanicID uuid.UUID) (bool, error) {
	order, ok := f.orders[orderID]
	if !ok || order.Status() != domain.StatusPending {
		return false, nil
	}
	return true, order.Accept(mechanicID)
}

func (f *fakeOrders) MarkRejected(ctx context.Context, orderID uuid.UUID) (bool, error) {
	order, ok := f.orders[orderID]
	if !ok || order.Status() != domain.StatusPending {
		return false, nil
	}
	return true, order.Reject()
}

func (f *fakeOrders) ListPendingMonthlyBefore(ctx context.Context, cutoff time.Time) ([]*domain.Order, error) {
	var overdue []*domain.Order
	for _, order := range f.orders {
		if order.Type() == domain.TypeMonthly && order.Status() == domain.StatusPending && order.CreatedAt().Before(cutoff) {
			overdue = append(overdue, order)
		}
	}
	return overdue, nil
}

func (f *fakeOrders) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	var orders []*domain.Order
	for _, order := range f.orders {
		if order.UserID() == userID {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

var _ domain.Repository = (*fakeOrders)(nil)

// fakeLedger implements only the plan state slice of the subscription
// ledger; order commands never touch staging or billing.
type fakeLedger struct {
	states map[uuid.UUID]*subscriptionDomain.PlanState
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{states: make(map[uuid.UUID]*subscriptionDomain.PlanState)}
}

func (f *fakeLedger) FindPlanState(ctx context.Context, userID uuid.UUID) (*subscriptionDomain.PlanState, error) {
	state, ok := f.states[userID]
	if !ok {
		return nil, nil
	}
	copied := *state
	return &copied, nil
}

func (f *fakeLedger) ConsumeUnit(ctx context.Context, userID uuid.UUID) error {
	state, ok := f.states[userID]
	if !ok || !state.IsVerified || state.UsageLimit <= 0 {
		return subscriptionDomain.ErrLimitExhausted
	}
	state.UsageLimit--
	state.IsVerified = state.UsageLimit > 0
	state.IsSubscribed = state.UsageLimit > 0
	return nil
}

func (f *fakeLedger) RefundUnit(ctx context.Context, userID uuid.UUID) error {
	state, ok := f.states[userID]
	if !ok {
		return subscriptionDomain.ErrPlanStateNotFound
	}
	state.UsageLimit++
	state.IsVerified = true
	state.IsSubscribed = true
	return nil
}

func (f *fakeLedger) InstallPlan(ctx context.Context, userID uuid.UUID, install subscriptionDomain.PlanInstall) error {
	return nil
}

func (f *fakeLedger) ArchiveCurrentPlan(ctx context.Context, userID uuid.UUID, endedAt time.Time) error {
	return nil
}

func (f *fakeLedger) StagePurchase(ctx context.Context, staged *subscriptionDomain.StagedPurchase) error {
	return nil
}

func (f *fakeLedger) FindStaged(ctx context.Context, userID uuid.UUID, slot subscriptionDomain.Slot) (*subscriptionDomain.StagedPurchase, error) {
	return nil, nil
}

func (f *fakeLedger) FindStagedByGatewayOrder(ctx context.Context, gatewayOrderID string) (*subscriptionDomain.StagedPurchase, error) {
	return nil, nil
}

func (f *fakeLedger) ClearStaged(ctx context.Context, userID uuid.UUID, slot subscriptionDomain.Slot) error {
	return nil
}

func (f *fakeLedger) AppendBilling(ctx context.Context, entry *subscriptionDomain.BillingEntry) (bool, error) {
	return true, nil
}

func (f *fakeLedger) FindBillingByPaymentID(ctx context.Context, paymentID string) (*subscriptionDomain.BillingEntry, error) {
	return nil, nil
}

func (f *fakeLedger) ListBilling(ctx context.Context, userID uuid.UUID) ([]*subscriptionDomain.BillingEntry, error) {
	return nil, nil
}

func (f *fakeLedger) ListDueRenewals(ctx context.Context, now time.Time, limit int) ([]*subscriptionDomain.StagedPurchase, error) {
	return nil, nil
}

var _ subscriptionDomain.Repository = (*fakeLedger)(nil)
