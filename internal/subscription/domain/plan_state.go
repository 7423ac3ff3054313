package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlanState is a user's current plan entitlement: which subscription they
// hold, how many covered uses remain and the billing period boundaries.
// One row per user; mutated only through the ledger's atomic operations.
//
// IsVerified and IsSubscribed follow one canonical boundary rule: both are
// true exactly when the remaining limit is positive. Consuming the last unit
// flips them false in the same update as the decrement; refunding a unit
// into an exhausted plan flips them back.
type PlanState struct {
	UserID          uuid.UUID
	SubscriptionID  uuid.UUID
	PlanName        string
	Price           float64
	UsageLimit      int
	Services        []uuid.UUID
	IsVerified      bool
	IsSubscribed    bool
	StartDate       time.Time
	NextBillingDate time.Time
	UpgradeDate     *time.Time
	EndDate         time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Usable reports whether orders may be placed against the plan.
func (s *PlanState) Usable() bool {
	return s != nil && s.IsVerified && s.UsageLimit > 0
}

// Expired reports whether the billing period has ended.
func (s *PlanState) Expired(now time.Time) bool {
	return s != nil && !s.EndDate.After(now)
}

// Exhausted reports whether the plan has no remaining uses.
func (s *PlanState) Exhausted() bool {
	return s != nil && s.UsageLimit <= 0
}

// HasService reports whether the service is covered by the plan.
func (s *PlanState) HasService(serviceID uuid.UUID) bool {
	if s == nil {
		return false
	}
	for _, id := range s.Services {
		if id == serviceID {
			return true
		}
	}
	return false
}

// HasServices reports whether every given service is covered by the plan.
func (s *PlanState) HasServices(serviceIDs []uuid.UUID) bool {
	for _, id := range serviceIDs {
		if !s.HasService(id) {
			return false
		}
	}
	return true
}
