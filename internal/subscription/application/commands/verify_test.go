package commands

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paymentDomain "github.com/vaahanlabs/pitstop/internal/payment/domain"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/outbox"
	"github.com/vaahanlabs/pitstop/internal/subscription/domain"
)

type verifyFixture struct {
	*stageFixture
	outbox *outbox.InMemoryRepository
}

func newVerifyFixture(t *testing.T) *verifyFixture {
	t.Helper()
	return &verifyFixture{
		stageFixture: newStageFixture(t),
		outbox:       outbox.NewInMemoryRepository(),
	}
}

func (f *verifyFixture) verifyPurchase() *VerifyPurchaseHandler {
	return NewVerifyPurchaseHandler(f.ledger, f.plans, f.gateway, f.outbox, noopUow{}, nil)
}

func (f *verifyFixture) verifyUpgrade() *VerifyUpgradeHandler {
	return NewVerifyUpgradeHandler(f.ledger, f.plans, f.gateway, f.outbox, noopUow{}, nil)
}

func (f *verifyFixture) verifyRenewal() *VerifyRenewalHandler {
	return NewVerifyRenewalHandler(f.ledger, f.plans, f.gateway, f.outbox, noopUow{}, nil)
}

func TestVerifyPurchase_InstallsPlan(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	staged, err := f.purchaseHandler().Handle(ctx, PurchaseCommand{
		UserID: f.user.ID(), SubscriptionID: f.gold.ID(),
	})
	require.NoError(t, err)

	state, err := f.verifyPurchase().Handle(ctx, VerifyPurchaseCommand{
		GatewayOrderID: staged.GatewayOrderID,
		PaymentID:      "pay_001",
		Signature:      "sig",
	})
	require.NoError(t, err)
	require.NotNil(t, state)

	assert.Equal(t, f.gold.ID(), state.SubscriptionID)
	assert.True(t, state.IsVerified)
	assert.True(t, state.IsSubscribed)
	assert.Equal(t, 12, state.UsageLimit)
	assert.True(t, state.EndDate.After(time.Now().AddDate(0, 11, 0)), "yearly plan ends about a year out")

	// Slot cleared, billing recorded, subscriber set updated.
	pending, err := f.ledger.FindStaged(ctx, f.user.ID(), domain.SlotPending)
	require.NoError(t, err)
	assert.Nil(t, pending)
	entry, err := f.ledger.FindBillingByPaymentID(ctx, "pay_001")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 500.0, entry.Amount)
	assert.True(t, f.plans.current[f.gold.ID()][f.user.ID()])

	msgs, err := f.outbox.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "marketplace.subscription.activated", msgs[0].RoutingKey)
}

func TestVerifyPurchase_ReplayIsIdempotent(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	staged, err := f.purchaseHandler().Handle(ctx, PurchaseCommand{
		UserID: f.user.ID(), SubscriptionID: f.gold.ID(),
	})
	require.NoError(t, err)

	cmd := VerifyPurchaseCommand{GatewayOrderID: staged.GatewayOrderID, PaymentID: "pay_001", Signature: "sig"}
	first, err := f.verifyPurchase().Handle(ctx, cmd)
	require.NoError(t, err)
	second, err := f.verifyPurchase().Handle(ctx, cmd)
	require.NoError(t, err)

	assert.Equal(t, first.SubscriptionID, second.SubscriptionID)
	assert.Equal(t, first.UsageLimit, second.UsageLimit)

	entries, err := f.ledger.ListBilling(ctx, f.user.ID())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "replay must not append a second billing entry")
}

func TestVerifyPurchase_BadSignature(t *testing.T) {
	f := newVerifyFixture(t)
	f.gateway.failVerify = paymentDomain.ErrSignatureMismatch

	_, err := f.verifyPurchase().Handle(context.Background(), VerifyPurchaseCommand{
		GatewayOrderID: "order_001", PaymentID: "pay_001", Signature: "bad",
	})
	assert.ErrorIs(t, err, paymentDomain.ErrSignatureMismatch)
}

func TestVerifyPurchase_NoStagedPurchase(t *testing.T) {
	f := newVerifyFixture(t)

	_, err := f.verifyPurchase().Handle(context.Background(), VerifyPurchaseCommand{
		GatewayOrderID: "order_unknown", PaymentID: "pay_001", Signature: "sig",
	})
	assert.ErrorIs(t, err, domain.ErrNoPendingPurchase)
}

func TestVerifyPurchase_AfterExhaustion_RetiresOldPlan(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	// Buy Gold and use it up; an exhausted plan permits a fresh purchase.
	staged, err := f.purchaseHandler().Handle(ctx, PurchaseCommand{
		UserID: f.user.ID(), SubscriptionID: f.gold.ID(),
	})
	require.NoError(t, err)
	_, err = f.verifyPurchase().Handle(ctx, VerifyPurchaseCommand{
		GatewayOrderID: staged.GatewayOrderID, PaymentID: "pay_001", Signature: "sig",
	})
	require.NoError(t, err)
	for i := 0; i < 12; i++ {
		require.NoError(t, f.ledger.ConsumeUnit(ctx, f.user.ID()))
	}

	repurchase, err := f.purchaseHandler().Handle(ctx, PurchaseCommand{
		UserID: f.user.ID(), SubscriptionID: f.plat.ID(),
	})
	require.NoError(t, err)
	state, err := f.verifyPurchase().Handle(ctx, VerifyPurchaseCommand{
		GatewayOrderID: repurchase.GatewayOrderID, PaymentID: "pay_002", Signature: "sig",
	})
	require.NoError(t, err)

	assert.Equal(t, f.plat.ID(), state.SubscriptionID)
	assert.True(t, state.Usable())
	assert.Equal(t, 1, f.ledger.past[f.user.ID()], "exhausted plan archived")
	assert.False(t, f.plans.current[f.gold.ID()][f.user.ID()], "only one current subscription per user")
	assert.True(t, f.plans.past[f.gold.ID()][f.user.ID()])
	assert.True(t, f.plans.current[f.plat.ID()][f.user.ID()])
}

func TestVerifyUpgrade_ArchivesAndMigratesSubscribers(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	// Start on Gold.
	staged, err := f.purchaseHandler().Handle(ctx, PurchaseCommand{
		UserID: f.user.ID(), SubscriptionID: f.gold.ID(),
	})
	require.NoError(t, err)
	_, err = f.verifyPurchase().Handle(ctx, VerifyPurchaseCommand{
		GatewayOrderID: staged.GatewayOrderID, PaymentID: "pay_001", Signature: "sig",
	})
	require.NoError(t, err)

	// Upgrade to Platinum.
	upgrade, err := f.upgradeHandler().Handle(ctx, UpgradeCommand{
		UserID: f.user.ID(), SubscriptionID: f.plat.ID(),
	})
	require.NoError(t, err)
	state, err := f.verifyUpgrade().Handle(ctx, VerifyUpgradeCommand{
		GatewayOrderID: upgrade.GatewayOrderID, PaymentID: "pay_002", Signature: "sig",
	})
	require.NoError(t, err)

	assert.Equal(t, f.plat.ID(), state.SubscriptionID)
	assert.NotNil(t, state.UpgradeDate)
	assert.Equal(t, 1, f.ledger.past[f.user.ID()], "old plan archived")
	assert.False(t, f.plans.current[f.gold.ID()][f.user.ID()])
	assert.True(t, f.plans.past[f.gold.ID()][f.user.ID()])
	assert.True(t, f.plans.current[f.plat.ID()][f.user.ID()])
}

func TestVerifyRenewal_DeferredWhileUsable(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ledger.InstallPlan(ctx, f.user.ID(), domain.PlanInstall{
		SubscriptionID: f.gold.ID(), Name: "Gold", Price: 500, UsageLimit: 3,
		EndDate: time.Now().AddDate(0, 6, 0),
	}))

	renewal, err := f.renewHandler().Handle(ctx, RenewCommand{
		UserID: f.user.ID(), SubscriptionID: f.gold.ID(),
	})
	require.NoError(t, err)

	state, err := f.verifyRenewal().Handle(ctx, VerifyRenewalCommand{
		GatewayOrderID: renewal.GatewayOrderID, PaymentID: "pay_010", Signature: "sig",
	})
	require.NoError(t, err)

	// Payment captured, plan untouched, staged renewal retained.
	assert.Equal(t, 3, state.UsageLimit)
	entry, err := f.ledger.FindBillingByPaymentID(ctx, "pay_010")
	require.NoError(t, err)
	require.NotNil(t, entry)
	retained, err := f.ledger.FindStaged(ctx, f.user.ID(), domain.SlotRenewal)
	require.NoError(t, err)
	assert.NotNil(t, retained)
}

func TestVerifyRenewal_AppliesWhenExhausted(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ledger.InstallPlan(ctx, f.user.ID(), domain.PlanInstall{
		SubscriptionID: f.gold.ID(), Name: "Gold", Price: 500, UsageLimit: 1,
		EndDate: time.Now().AddDate(0, 6, 0),
	}))
	require.NoError(t, f.ledger.ConsumeUnit(ctx, f.user.ID()))

	renewal, err := f.renewHandler().Handle(ctx, RenewCommand{
		UserID: f.user.ID(), SubscriptionID: f.gold.ID(),
	})
	require.NoError(t, err)

	state, err := f.verifyRenewal().Handle(ctx, VerifyRenewalCommand{
		GatewayOrderID: renewal.GatewayOrderID, PaymentID: "pay_011", Signature: "sig",
	})
	require.NoError(t, err)

	assert.Equal(t, 12, state.UsageLimit, "fresh cycle installed")
	assert.True(t, state.IsVerified)
	cleared, err := f.ledger.FindStaged(ctx, f.user.ID(), domain.SlotRenewal)
	require.NoError(t, err)
	assert.Nil(t, cleared)
}

func TestApplyDueRenewals(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Prepaid renewal while the plan was still usable.
	require.NoError(t, f.ledger.InstallPlan(ctx, f.user.ID(), domain.PlanInstall{
		SubscriptionID: f.gold.ID(), Name: "Gold", Price: 500, UsageLimit: 1,
		EndDate: now.AddDate(0, 6, 0),
	}))
	renewal, err := f.renewHandler().Handle(ctx, RenewCommand{
		UserID: f.user.ID(), SubscriptionID: f.gold.ID(),
	})
	require.NoError(t, err)
	_, err = f.verifyRenewal().Handle(ctx, VerifyRenewalCommand{
		GatewayOrderID: renewal.GatewayOrderID, PaymentID: "pay_020", Signature: "sig",
	})
	require.NoError(t, err)

	handler := NewApplyDueRenewalsHandler(f.ledger, f.plans, f.outbox, noopUow{}, nil)

	// Not due yet.
	applied, err := handler.Handle(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, applied)

	// Plan exhausts; the prepaid cycle kicks in.
	require.NoError(t, f.ledger.ConsumeUnit(ctx, f.user.ID()))
	applied, err = handler.Handle(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	state, err := f.ledger.FindPlanState(ctx, f.user.ID())
	require.NoError(t, err)
	assert.Equal(t, 12, state.UsageLimit)
	assert.True(t, state.IsVerified)
}

func TestConsumeRefund_RoundTripLaw(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ledger.InstallPlan(ctx, f.user.ID(), domain.PlanInstall{
		SubscriptionID: f.gold.ID(), Name: "Gold", Price: 500, UsageLimit: 1,
		EndDate: time.Now().AddDate(1, 0, 0),
	}))

	consume := NewConsumeUnitHandler(f.ledger, f.outbox, noopUow{}, nil)
	refund := NewRefundUnitHandler(f.ledger, f.outbox, noopUow{}, nil)

	require.NoError(t, consume.Handle(ctx, f.user.ID()))
	state, err := f.ledger.FindPlanState(ctx, f.user.ID())
	require.NoError(t, err)
	assert.Equal(t, 0, state.UsageLimit)
	assert.False(t, state.IsVerified, "consuming the last unit flips verified off")
	assert.False(t, state.IsSubscribed)

	// A second consume must fail, not go negative.
	assert.ErrorIs(t, consume.Handle(ctx, f.user.ID()), domain.ErrLimitExhausted)

	require.NoError(t, refund.Handle(ctx, f.user.ID()))
	state, err = f.ledger.FindPlanState(ctx, f.user.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, state.UsageLimit)
	assert.True(t, state.IsVerified, "refund into an exhausted plan reinstates it")
	assert.True(t, state.IsSubscribed)
}
