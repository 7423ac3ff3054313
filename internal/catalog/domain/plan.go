package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vaahanlabs/pitstop/internal/shared/domain"
)

// Segment identifies the customer pricing segment.
type Segment string

const (
	SegmentB2B Segment = "b2b"
	SegmentB2C Segment = "b2c"
)

// DurationUnit is the unit of a plan's billing period.
type DurationUnit string

const (
	DurationMonth DurationUnit = "month"
	DurationYear  DurationUnit = "year"
)

// AddDuration advances t by n periods of the given unit.
func AddDuration(t time.Time, n int, unit DurationUnit) time.Time {
	if unit == DurationYear {
		return t.AddDate(n, 0, 0)
	}
	return t.AddDate(0, n, 0)
}

// PlanPricing holds the per-segment prices of a subscription plan.
type PlanPricing struct {
	OneTimePrice float64
	MonthlyPrice float64
}

// SubscriptionPlan is a recurring plan customers subscribe to. The
// subscriber sets are back-references maintained by the subscription ledger
// whenever a user's current plan changes; nothing else writes them.
type SubscriptionPlan struct {
	domain.BaseAggregateRoot
	name         string
	active       bool
	usageLimit   int
	duration     int
	durationUnit DurationUnit
	pricing      map[Segment]PlanPricing
	services     []uuid.UUID
}

// NewSubscriptionPlan creates a new subscription plan.
func NewSubscriptionPlan(name string, usageLimit, duration int, unit DurationUnit) (*SubscriptionPlan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if unit == "" {
		unit = DurationYear
	}
	return &SubscriptionPlan{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		name:              name,
		active:            true,
		usageLimit:        usageLimit,
		duration:          duration,
		durationUnit:      unit,
		pricing:           make(map[Segment]PlanPricing),
		services:          make([]uuid.UUID, 0),
	}, nil
}

// RehydrateSubscriptionPlan recreates a plan from persisted state.
func RehydrateSubscriptionPlan(
	entity domain.BaseEntity,
	name string,
	active bool,
	usageLimit, duration int,
	unit DurationUnit,
	pricing map[Segment]PlanPricing,
	services []uuid.UUID,
) *SubscriptionPlan {
	if pricing == nil {
		pricing = make(map[Segment]PlanPricing)
	}
	return &SubscriptionPlan{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(entity),
		name:              name,
		active:            active,
		usageLimit:        usageLimit,
		duration:          duration,
		durationUnit:      unit,
		pricing:           pricing,
		services:          services,
	}
}

func (p *SubscriptionPlan) Name() string               { return p.name }
func (p *SubscriptionPlan) Active() bool               { return p.active }
func (p *SubscriptionPlan) UsageLimit() int            { return p.usageLimit }
func (p *SubscriptionPlan) Duration() int              { return p.duration }
func (p *SubscriptionPlan) DurationUnit() DurationUnit { return p.durationUnit }
func (p *SubscriptionPlan) Services() []uuid.UUID      { return p.services }

// Pricing returns the pricing table keyed by segment.
func (p *SubscriptionPlan) Pricing() map[Segment]PlanPricing { return p.pricing }

// SetPricing sets the price entry for a segment.
func (p *SubscriptionPlan) SetPricing(segment Segment, pricing PlanPricing) {
	p.pricing[segment] = pricing
	p.Touch()
}

// MonthlyPriceFor returns the recurring price for the segment.
func (p *SubscriptionPlan) MonthlyPriceFor(segment Segment) (float64, error) {
	pricing, ok := p.pricing[segment]
	if !ok {
		return 0, ErrNoPricing
	}
	return pricing.MonthlyPrice, nil
}

// HasService reports whether the service belongs to this plan.
func (p *SubscriptionPlan) HasService(serviceID uuid.UUID) bool {
	for _, id := range p.services {
		if id == serviceID {
			return true
		}
	}
	return false
}

// HasServices reports whether every given service belongs to this plan.
func (p *SubscriptionPlan) HasServices(serviceIDs []uuid.UUID) bool {
	for _, id := range serviceIDs {
		if !p.HasService(id) {
			return false
		}
	}
	return true
}

// AddService appends a service to the plan's service set.
func (p *SubscriptionPlan) AddService(serviceID uuid.UUID) error {
	if p.HasService(serviceID) {
		return ErrServiceAlreadyInPlan
	}
	p.services = append(p.services, serviceID)
	p.Touch()
	return nil
}

// ReplaceServices overwrites the plan's service set with the exact list,
// deduplicated, and returns the ids that were added and removed.
func (p *SubscriptionPlan) ReplaceServices(serviceIDs []uuid.UUID) (added, removed []uuid.UUID) {
	desired := make([]uuid.UUID, 0, len(serviceIDs))
	seen := make(map[uuid.UUID]bool, len(serviceIDs))
	for _, id := range serviceIDs {
		if !seen[id] {
			seen[id] = true
			desired = append(desired, id)
		}
	}

	current := make(map[uuid.UUID]bool, len(p.services))
	for _, id := range p.services {
		current[id] = true
	}

	for _, id := range desired {
		if !current[id] {
			added = append(added, id)
		}
	}
	for _, id := range p.services {
		if !seen[id] {
			removed = append(removed, id)
		}
	}

	p.services = desired
	p.Touch()
	return added, removed
}

// PeriodEnd returns the end of a billing period starting at from.
func (p *SubscriptionPlan) PeriodEnd(from time.Time) time.Time {
	return AddDuration(from, p.duration, p.durationUnit)
}

// Deactivate hides the plan from new purchases.
func (p *SubscriptionPlan) Deactivate() {
	p.active = false
	p.Touch()
}
