package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	catalogDomain "github.com/vaahanlabs/pitstop/internal/catalog/domain"
	identityDomain "github.com/vaahanlabs/pitstop/internal/identity/domain"
	paymentDomain "github.com/vaahanlabs/pitstop/internal/payment/domain"
	"github.com/vaahanlabs/pitstop/internal/subscription/domain"
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

type fakeUsers struct {
	users map[uuid.UUID]*identityDomain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[uuid.UUID]*identityDomain.User)}
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

func (f *fakeUsers) AppendOrder(ctx context.Context, userID, orderID uuid.UUID) error { return nil }

type fakePlans struct {
	plans   map[uuid.UUID]*catalogDomain.SubscriptionPlan
	current map[uuid.UUID]map[uuid.UUID]bool
	past    map[uuid.UUID]map[uuid.UUID]bool
}

func newFakePlans() *fakePlans {
	return &fakePlans{
		plans:   make(map[uuid.UUID]*catalogDomain.SubscriptionPlan),
		current: make(map[uuid.UUID]map[uuid.UUID]bool),
		past:    make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (f *fakePlans) Save(ctx context.Context, plan *catalogDomain.SubscriptionPlan) error {
	f.plans[plan.ID()] = plan
	return nil
}

func (f *fakePlans) FindByID(ctx context.Context, id uuid.UUID) (*catalogDomain.SubscriptionPlan, error) {
	plan, ok := f.plans[id]
	if !ok {
		return nil, catalogDomain.ErrPlanNotFound
	}
	return plan, nil
}

func (f *fakePlans) FindByName(ctx context.Context, name string) (*catalogDomain.SubscriptionPlan, error) {
	for _, plan := range f.plans {
		if plan.Name() == name {
			return plan, nil
		}
	}
	return nil, catalogDomain.ErrPlanNotFound
}

func (f *fakePlans) FindAll(ctx context.Context, activeOnly bool) ([]*catalogDomain.SubscriptionPlan, error) {
	var plans []*catalogDomain.SubscriptionPlan
	for _, plan := range f.plans {
		plans = append(plans, plan)
	}
	return plans, nil
}

func (f *fakePlans) AddCurrentSubscriber(ctx context.Context, planID, userID uuid.UUID) error {
	if f.current[planID] == nil {
		f.current[planID] = make(map[uuid.UUID]bool)
	}
	f.current[planID][userID] = true
	delete(f.past[planID], userID)
	return nil
}

func (f *fakePlans) MoveSubscriberToPast(ctx context.Context, planID, userID uuid.UUID) error {
	if f.current[planID][userID] {
		delete(f.current[planID], userID)
		if f.past[planID] == nil {
			f.past[planID] = make(map[uuid.UUID]bool)
		}
		f.past[planID][userID] = true
	}
	return nil
}

// fakeLedger mirrors the Postgres ledger semantics in memory, including the
// conditional consume/refund updates and payment-id uniqueness.
type fakeLedger struct {
	states  map[uuid.UUID]*domain.PlanState
	staged  map[string]*domain.StagedPurchase // key user|slot
	billing []*domain.BillingEntry
	past    map[uuid.UUID]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		states: make(map[uuid.UUID]*domain.PlanState),
		staged: make(map[string]*domain.StagedPurchase),
		past:   make(map[uuid.UUID]int),
	}
}

func slotKey(userID uuid.UUID, slot domain.Slot) string {
	return userID.String() + "|" + string(slot)
}

func (f *fakeLedger) FindPlanState(ctx context.Context, userID uuid.UUID) (*domain.PlanState, error) {
	state, ok := f.states[userID]
	if !ok {
		return nil, nil
	}
	copied := *state
	return &copied, nil
}

func (f *fakeLedger) InstallPlan(ctx context.Context, userID uuid.UUID, install domain.PlanInstall) error {
	f.states[userID] = &domain.PlanState{
		UserID:          userID,
		SubscriptionID:  install.SubscriptionID,
		PlanName:        install.Name,
		Price:           install.Price,
		UsageLimit:      install.UsageLimit,
		Services:        install.Services,
		IsVerified:      true,
		IsSubscribed:    true,
		StartDate:       install.StartDate,
		NextBillingDate: install.NextBillingDate,
		UpgradeDate:     install.UpgradeDate,
		EndDate:         install.EndDate,
	}
	return nil
}

func (f *fakeLedger) ArchiveCurrentPlan(ctx context.Context, userID uuid.UUID, endedAt time.Time) error {
	if _, ok := f.states[userID]; ok {
		f.past[userID]++
	}
	return nil
}

func (f *fakeLedger) StagePurchase(ctx context.Context, staged *domain.StagedPurchase) error {
	f.staged[slotKey(staged.UserID, staged.Kind.Slot())] = staged
	return nil
}

func (f *fakeLedger) FindStaged(ctx context.Context, userID uuid.UUID, slot domain.Slot) (*domain.StagedPurchase, error) {
	return f.staged[slotKey(userID, slot)], nil
}

func (f *fakeLedger) FindStagedByGatewayOrder(ctx context.Context, gatewayOrderID string) (*domain.StagedPurchase, error) {
	for _, staged := range f.staged {
		if staged.GatewayOrderID == gatewayOrderID {
			return staged, nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) ClearStaged(ctx context.Context, userID uuid.UUID, slot domain.Slot) error {
	delete(f.staged, slotKey(userID, slot))
	return nil
}

func (f *fakeLedger) AppendBilling(ctx context.Context, entry *domain.BillingEntry) (bool, error) {
	for _, existing := range f.billing {
		if existing.PaymentID == entry.PaymentID {
			return false, nil
		}
	}
	f.billing = append(f.billing, entry)
	return true, nil
}

func (f *fakeLedger) FindBillingByPaymentID(ctx context.Context, paymentID string) (*domain.BillingEntry, error) {
	for _, entry := range f.billing {
		if entry.PaymentID == paymentID {
			return entry, nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) ListBilling(ctx context.Context, userID uuid.UUID) ([]*domain.BillingEntry, error) {
	var entries []*domain.BillingEntry
	for _, entry := range f.billing {
		if entry.UserID == userID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (f *fakeLedger) ConsumeUnit(ctx context.Context, userID uuid.UUID) error {
	state, ok := f.states[userID]
	if !ok || !state.IsVerified || state.UsageLimit <= 0 {
		return domain.ErrLimitExhausted
	}
	state.UsageLimit--
	state.IsVerified = state.UsageLimit > 0
	state.IsSubscribed = state.UsageLimit > 0
	return nil
}

func (f *fakeLedger) RefundUnit(ctx context.Context, userID uuid.UUID) error {
	state, ok := f.states[userID]
	if !ok {
		return domain.ErrPlanStateNotFound
	}
	state.UsageLimit++
	state.IsVerified = true
	state.IsSubscribed = true
	return nil
}

func (f *fakeLedger) ListDueRenewals(ctx context.Context, now time.Time, limit int) ([]*domain.StagedPurchase, error) {
	var due []*domain.StagedPurchase
	for key, staged := range f.staged {
		if staged.Kind.Slot() != domain.SlotRenewal {
			continue
		}
		state := f.states[staged.UserID]
		if state == nil || state.Exhausted() || state.Expired(now) {
			due = append(due, f.staged[key])
		}
	}
	return due, nil
}

var _ domain.Repository = (*fakeLedger)(nil)
