package commands

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogDomain "github.com/vaahanlabs/pitstop/internal/catalog/domain"
	identityDomain "github.com/vaahanlabs/pitstop/internal/identity/domain"
	"github.com/vaahanlabs/pitstop/internal/subscription/domain"
)

type stageFixture struct {
	users   *fakeUsers
	plans   *fakePlans
	ledger  *fakeLedger
	gateway *fakeGateway
	user    *identityDomain.User
	gold    *catalogDomain.SubscriptionPlan
	plat    *catalogDomain.SubscriptionPlan
}

func newStageFixture(t *testing.T) *stageFixture {
	t.Helper()
	f := &stageFixture{
		users:   newFakeUsers(),
		plans:   newFakePlans(),
		ledger:  newFakeLedger(),
		gateway: &fakeGateway{},
	}

	user, err := identityDomain.NewUser("Asha", "+919800000000", "asha@example.com", identityDomain.RoleUser, identityDomain.SegmentB2C)
	require.NoError(t, err)
	f.user = user
	require.NoError(t, f.users.Save(context.Background(), user))

	f.gold = mustPlan(t, "Gold", 12, 500)
	f.plat = mustPlan(t, "Platinum", 20, 800)
	require.NoError(t, f.plans.Save(context.Background(), f.gold))
	require.NoError(t, f.plans.Save(context.Background(), f.plat))
	return f
}

func mustPlan(t *testing.T, name string, limit int, monthlyPrice float64) *catalogDomain.SubscriptionPlan {
	t.Helper()
	plan, err := catalogDomain.NewSubscriptionPlan(name, limit, 1, catalogDomain.DurationYear)
	require.NoError(t, err)
	plan.SetPricing(catalogDomain.SegmentB2C, catalogDomain.PlanPricing{MonthlyPrice: monthlyPrice})
	require.NoError(t, plan.AddService(uuid.New()))
	return plan
}

func (f *stageFixture) purchaseHandler() *PurchaseHandler {
	return NewPurchaseHandler(f.users, f.plans, f.ledger, f.gateway, "INR", nil)
}

func (f *stageFixture) upgradeHandler() *UpgradeHandler {
	return NewUpgradeHandler(f.users, f.plans, f.ledger, f.gateway, "INR", nil)
}

func (f *stageFixture) renewHandler() *RenewHandler {
	return NewRenewHandler(f.users, f.plans, f.ledger, f.gateway, "INR", nil)
}

func TestPurchase_StagesFullPrice(t *testing.T) {
	f := newStageFixture(t)
	ctx := context.Background()

	result, err := f.purchaseHandler().Handle(ctx, PurchaseCommand{
		UserID:         f.user.ID(),
		SubscriptionID: f.gold.ID(),
	})
	require.NoError(t, err)

	assert.Equal(t, 500.0, result.Amount)
	assert.Equal(t, "INR", result.Currency)
	assert.NotEmpty(t, result.GatewayOrderID)

	staged, err := f.ledger.FindStaged(ctx, f.user.ID(), domain.SlotPending)
	require.NoError(t, err)
	require.NotNil(t, staged)
	assert.Equal(t, domain.KindPurchase, staged.Kind)
	assert.Equal(t, f.gold.ID(), staged.Plan.SubscriptionID)
	assert.Equal(t, 12, staged.Plan.UsageLimit)

	// Staging never touches the current plan.
	state, err := f.ledger.FindPlanState(ctx, f.user.ID())
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestPurchase_AlreadySubscribed(t *testing.T) {
	f := newStageFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ledger.InstallPlan(ctx, f.user.ID(), domain.PlanInstall{
		SubscriptionID: f.gold.ID(), Name: "Gold", UsageLimit: 5,
	}))

	_, err := f.purchaseHandler().Handle(ctx, PurchaseCommand{
		UserID:         f.user.ID(),
		SubscriptionID: f.plat.ID(),
	})
	assert.ErrorIs(t, err, domain.ErrAlreadySubscribed)
}

func TestPurchase_MechanicRejected(t *testing.T) {
	f := newStageFixture(t)
	ctx := context.Background()

	mechanic, err := identityDomain.NewUser("Ravi", "", "", identityDomain.RoleMechanic, identityDomain.SegmentB2C)
	require.NoError(t, err)
	require.NoError(t, f.users.Save(ctx, mechanic))

	_, err = f.purchaseHandler().Handle(ctx, PurchaseCommand{
		UserID:         mechanic.ID(),
		SubscriptionID: f.gold.ID(),
	})
	assert.ErrorIs(t, err, domain.ErrNotACustomer)
}

func TestPurchase_ServiceNotInPlan(t *testing.T) {
	f := newStageFixture(t)

	_, err := f.purchaseHandler().Handle(context.Background(), PurchaseCommand{
		UserID:         f.user.ID(),
		SubscriptionID: f.gold.ID(),
		ServiceIDs:     []uuid.UUID{uuid.New()},
	})
	assert.ErrorIs(t, err, domain.ErrServiceNotInPlan)
}

func TestUpgrade_ChargesPriceDifference(t *testing.T) {
	f := newStageFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ledger.InstallPlan(ctx, f.user.ID(), domain.PlanInstall{
		SubscriptionID: f.gold.ID(), Name: "Gold", Price: 500, UsageLimit: 12,
	}))

	result, err := f.upgradeHandler().Handle(ctx, UpgradeCommand{
		UserID:         f.user.ID(),
		SubscriptionID: f.plat.ID(),
	})
	require.NoError(t, err)
	assert.Equal(t, 300.0, result.Amount)

	staged, err := f.ledger.FindStaged(ctx, f.user.ID(), domain.SlotPending)
	require.NoError(t, err)
	require.NotNil(t, staged)
	assert.Equal(t, domain.KindUpgrade, staged.Kind)
}

func TestUpgrade_DowngradeIsFree(t *testing.T) {
	f := newStageFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ledger.InstallPlan(ctx, f.user.ID(), domain.PlanInstall{
		SubscriptionID: f.plat.ID(), Name: "Platinum", Price: 800, UsageLimit: 20,
	}))

	result, err := f.upgradeHandler().Handle(ctx, UpgradeCommand{
		UserID:         f.user.ID(),
		SubscriptionID: f.gold.ID(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Amount)
}

func TestUpgrade_SamePlan(t *testing.T) {
	f := newStageFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ledger.InstallPlan(ctx, f.user.ID(), domain.PlanInstall{
		SubscriptionID: f.gold.ID(), Name: "Gold", Price: 500, UsageLimit: 12,
	}))

	_, err := f.upgradeHandler().Handle(ctx, UpgradeCommand{
		UserID:         f.user.ID(),
		SubscriptionID: f.gold.ID(),
	})
	assert.ErrorIs(t, err, domain.ErrSamePlan)
}

func TestUpgrade_RequiresActivePlan(t *testing.T) {
	f := newStageFixture(t)

	_, err := f.upgradeHandler().Handle(context.Background(), UpgradeCommand{
		UserID:         f.user.ID(),
		SubscriptionID: f.plat.ID(),
	})
	assert.ErrorIs(t, err, domain.ErrNotSubscribed)
}

func TestRenew_UsesOwnSlot(t *testing.T) {
	f := newStageFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ledger.InstallPlan(ctx, f.user.ID(), domain.PlanInstall{
		SubscriptionID: f.gold.ID(), Name: "Gold", Price: 500, UsageLimit: 3,
	}))

	// An outstanding upgrade must not collide with a renewal.
	_, err := f.upgradeHandler().Handle(ctx, UpgradeCommand{
		UserID: f.user.ID(), SubscriptionID: f.plat.ID(),
	})
	require.NoError(t, err)

	result, err := f.renewHandler().Handle(ctx, RenewCommand{
		UserID: f.user.ID(), SubscriptionID: f.gold.ID(),
	})
	require.NoError(t, err)
	assert.Equal(t, 500.0, result.Amount, "renewal charges full price")

	pending, err := f.ledger.FindStaged(ctx, f.user.ID(), domain.SlotPending)
	require.NoError(t, err)
	renewal, err := f.ledger.FindStaged(ctx, f.user.ID(), domain.SlotRenewal)
	require.NoError(t, err)

	require.NotNil(t, pending)
	require.NotNil(t, renewal)
	assert.Equal(t, domain.KindUpgrade, pending.Kind)
	assert.Equal(t, domain.KindRenewal, renewal.Kind)
}

func TestStaging_AtMostOnePerSlot(t *testing.T) {
	f := newStageFixture(t)
	ctx := context.Background()

	first, err := f.purchaseHandler().Handle(ctx, PurchaseCommand{
		UserID: f.user.ID(), SubscriptionID: f.gold.ID(),
	})
	require.NoError(t, err)
	second, err := f.purchaseHandler().Handle(ctx, PurchaseCommand{
		UserID: f.user.ID(), SubscriptionID: f.plat.ID(),
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.GatewayOrderID, second.GatewayOrderID)

	staged, err := f.ledger.FindStaged(ctx, f.user.ID(), domain.SlotPending)
	require.NoError(t, err)
	assert.Equal(t, second.GatewayOrderID, staged.GatewayOrderID, "second staging replaces the first")
}
