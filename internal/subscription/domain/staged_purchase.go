package domain

import (
	"time"

	"github.com/google/uuid"

	catalog "github.com/vaahanlabs/pitstop/internal/catalog/domain"
)

// Kind tags what a staged purchase will do to the plan state when its
// payment is verified.
type Kind string

const (
	KindPurchase Kind = "purchase"
	KindUpgrade  Kind = "upgrade"
	KindRenewal  Kind = "renewal"
)

// Slot is the staging slot a purchase occupies. A user holds at most one
// staged purchase per slot: purchase and upgrade compete for the pending
// slot, a renewal gets its own slot because it may legitimately coexist
// with a still-running plan (prepay for the next cycle).
type Slot string

const (
	SlotPending Slot = "pending"
	SlotRenewal Slot = "renewal"
)

// Slot returns the staging slot for the kind.
func (k Kind) Slot() Slot {
	if k == KindRenewal {
		return SlotRenewal
	}
	return SlotPending
}

// PlanCandidate is the snapshot of the target plan taken at staging time.
// Verification installs this snapshot, not the live catalog row, so a
// concurrent catalog edit cannot change what the user paid for.
type PlanCandidate struct {
	SubscriptionID uuid.UUID
	Name           string
	Price          float64
	UsageLimit     int
	Duration       int
	DurationUnit   catalog.DurationUnit
	Services       []uuid.UUID
}

// StagedPurchase is a not-yet-applied plan change awaiting payment
// confirmation, keyed by the gateway order opened for it.
type StagedPurchase struct {
	UserID         uuid.UUID
	Kind           Kind
	GatewayOrderID string
	Amount         float64
	Currency       string
	Plan           PlanCandidate
	CreatedAt      time.Time
}

// NewStagedPurchase creates a staged purchase.
func NewStagedPurchase(userID uuid.UUID, kind Kind, gatewayOrderID string, amount float64, currency string, plan PlanCandidate) *StagedPurchase {
	return &StagedPurchase{
		UserID:         userID,
		Kind:           kind,
		GatewayOrderID: gatewayOrderID,
		Amount:         amount,
		Currency:       currency,
		Plan:           plan,
		CreatedAt:      time.Now().UTC(),
	}
}

// PeriodEnd returns the end of the candidate's billing period starting at from.
func (c PlanCandidate) PeriodEnd(from time.Time) time.Time {
	return catalog.AddDuration(from, c.Duration, c.DurationUnit)
}
