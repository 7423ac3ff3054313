package domain

import (
	"strings"

	"github.com/google/uuid"

	"github.com/vaahanlabs/pitstop/internal/shared/domain"
)

// OneTimePlan is a single-visit package bought per order, outside any
// subscription. It has one price per segment and no usage limit.
type OneTimePlan struct {
	domain.BaseAggregateRoot
	name     string
	active   bool
	pricing  map[Segment]float64
	services []uuid.UUID
}

// NewOneTimePlan creates a new one-time plan.
func NewOneTimePlan(name string) (*OneTimePlan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return &OneTimePlan{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		name:              name,
		active:            true,
		pricing:           make(map[Segment]float64),
		services:          make([]uuid.UUID, 0),
	}, nil
}

// RehydrateOneTimePlan recreates a one-time plan from persisted state.
func RehydrateOneTimePlan(
	entity domain.BaseEntity,
	name string,
	active bool,
	pricing map[Segment]float64,
	services []uuid.UUID,
) *OneTimePlan {
	if pricing == nil {
		pricing = make(map[Segment]float64)
	}
	return &OneTimePlan{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(entity),
		name:              name,
		active:            active,
		pricing:           pricing,
		services:          services,
	}
}

func (p *OneTimePlan) Name() string          { return p.name }
func (p *OneTimePlan) Active() bool          { return p.active }
func (p *OneTimePlan) Services() []uuid.UUID { return p.services }

// SetPrice sets the price for a segment.
func (p *OneTimePlan) SetPrice(segment Segment, price float64) {
	p.pricing[segment] = price
	p.Touch()
}

// PriceFor returns the plan's price for the segment.
func (p *OneTimePlan) PriceFor(segment Segment) (float64, error) {
	price, ok := p.pricing[segment]
	if !ok {
		return 0, ErrNoPricing
	}
	return price, nil
}

// Pricing returns the price table keyed by segment.
func (p *OneTimePlan) Pricing() map[Segment]float64 { return p.pricing }

// AddService appends a service to the plan.
func (p *OneTimePlan) AddService(serviceID uuid.UUID) error {
	for _, id := range p.services {
		if id == serviceID {
			return ErrServiceAlreadyInPlan
		}
	}
	p.services = append(p.services, serviceID)
	p.Touch()
	return nil
}

// Deactivate hides the plan from new orders.
func (p *OneTimePlan) Deactivate() {
	p.active = false
	p.Touch()
}
