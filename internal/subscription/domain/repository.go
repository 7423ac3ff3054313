package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PlanInstall is the write applied to a user's plan state when a verified
// purchase, upgrade or renewal commits. The installed state is always
// verified and subscribed (a fresh plan has a positive limit).
type PlanInstall struct {
	SubscriptionID  uuid.UUID
	Name            string
	Price           float64
	UsageLimit      int
	Services        []uuid.UUID
	StartDate       time.Time
	NextBillingDate time.Time
	EndDate         time.Time
	UpgradeDate     *time.Time
}

// Repository is the subscription ledger store. Mutations that race with
// concurrent requests (ConsumeUnit, RefundUnit, AppendBilling) are single
// conditional statements, never read-modify-write.
type Repository interface {
	// FindPlanState returns the user's plan state, or nil when the user has
	// never held a plan.
	FindPlanState(ctx context.Context, userID uuid.UUID) (*PlanState, error)

	// InstallPlan replaces (or creates) the user's plan state.
	InstallPlan(ctx context.Context, userID uuid.UUID, install PlanInstall) error

	// ArchiveCurrentPlan snapshots the user's current plan into the past
	// plans history, stamped with endedAt. No-op when the user has no plan.
	ArchiveCurrentPlan(ctx context.Context, userID uuid.UUID, endedAt time.Time) error

	// StagePurchase upserts the staged purchase into its slot.
	StagePurchase(ctx context.Context, staged *StagedPurchase) error

	// FindStaged returns the staged purchase in the user's slot, or nil.
	FindStaged(ctx context.Context, userID uuid.UUID, slot Slot) (*StagedPurchase, error)

	// FindStagedByGatewayOrder returns the staged purchase opened against
	// the gateway order, or nil.
	FindStagedByGatewayOrder(ctx context.Context, gatewayOrderID string) (*StagedPurchase, error)

	// ClearStaged removes the staged purchase from the user's slot.
	ClearStaged(ctx context.Context, userID uuid.UUID, slot Slot) error

	// AppendBilling inserts the billing entry. Returns false without error
	// when an entry with the same payment id already exists.
	AppendBilling(ctx context.Context, entry *BillingEntry) (bool, error)

	// FindBillingByPaymentID returns the billing entry for the payment id,
	// or nil.
	FindBillingByPaymentID(ctx context.Context, paymentID string) (*BillingEntry, error)

	// ListBilling returns the user's billing history, newest first.
	ListBilling(ctx context.Context, userID uuid.UUID) ([]*BillingEntry, error)

	// ConsumeUnit atomically decrements the user's remaining limit by one
	// and applies the boundary rule from the pre-decrement value. Returns
	// ErrLimitExhausted when the plan is not usable.
	ConsumeUnit(ctx context.Context, userID uuid.UUID) error

	// RefundUnit atomically increments the user's remaining limit by one,
	// reinstating the verified/subscribed flags. Returns ErrPlanStateNotFound
	// when the user has no plan state.
	RefundUnit(ctx context.Context, userID uuid.UUID) error

	// ListDueRenewals returns staged renewals whose holder's current plan is
	// exhausted or expired at now, ready for deferred application.
	ListDueRenewals(ctx context.Context, now time.Time, limit int) ([]*StagedPurchase, error)
}
