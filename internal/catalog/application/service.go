package application

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vaahanlabs/pitstop/internal/catalog/domain"
)

// Service provides catalog management: workshop services, subscription plans
// and one-time plans.
type Service struct {
	services     domain.ServiceRepository
	plans        domain.SubscriptionPlanRepository
	oneTimePlans domain.OneTimePlanRepository
	logger       *slog.Logger
}

// NewService creates a new catalog service.
func NewService(
	services domain.ServiceRepository,
	plans domain.SubscriptionPlanRepository,
	oneTimePlans domain.OneTimePlanRepository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{services: services, plans: plans, oneTimePlans: oneTimePlans, logger: logger}
}

// CreateService registers a new workshop service.
func (s *Service) CreateService(ctx context.Context, name string, active bool) (*domain.Service, error) {
	service, err := domain.NewService(name, active)
	if err != nil {
		return nil, err
	}
	if err := s.services.Save(ctx, service); err != nil {
		return nil, err
	}
	s.logger.Info("service created", "service_id", service.ID(), "code", service.Code())
	return service, nil
}

// ListServices returns all services, optionally only active ones.
func (s *Service) ListServices(ctx context.Context, activeOnly bool) ([]*domain.Service, error) {
	return s.services.FindAll(ctx, activeOnly)
}

// CreatePlanInput carries the fields for a new subscription plan.
type CreatePlanInput struct {
	Name         string
	UsageLimit   int
	Duration     int
	DurationUnit domain.DurationUnit
	Pricing      map[domain.Segment]domain.PlanPricing
}

// CreateSubscriptionPlan registers a new subscription plan.
func (s *Service) CreateSubscriptionPlan(ctx context.Context, input CreatePlanInput) (*domain.SubscriptionPlan, error) {
	plan, err := domain.NewSubscriptionPlan(input.Name, input.UsageLimit, input.Duration, input.DurationUnit)
	if err != nil {
		return nil, err
	}
	for segment, pricing := range input.Pricing {
		plan.SetPricing(segment, pricing)
	}
	if err := s.plans.Save(ctx, plan); err != nil {
		return nil, err
	}
	s.logger.Info("subscription plan created", "plan_id", plan.ID(), "name", plan.Name())
	return plan, nil
}

// GetPlan returns the subscription plan with the given id.
func (s *Service) GetPlan(ctx context.Context, id uuid.UUID) (*domain.SubscriptionPlan, error) {
	return s.plans.FindByID(ctx, id)
}

// ListPlans returns all subscription plans, optionally only active ones.
func (s *Service) ListPlans(ctx context.Context, activeOnly bool) ([]*domain.SubscriptionPlan, error) {
	return s.plans.FindAll(ctx, activeOnly)
}

// UpdatePlanServices replaces a plan's service set in one call. Every id must
// refer to an existing service; ids already present are kept, missing ones are
// added and the rest removed.
func (s *Service) UpdatePlanServices(ctx context.Context, planID uuid.UUID, serviceIDs []uuid.UUID) (*domain.SubscriptionPlan, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	found, err := s.services.FindByIDs(ctx, serviceIDs)
	if err != nil {
		return nil, err
	}
	known := make(map[uuid.UUID]bool, len(found))
	for _, service := range found {
		known[service.ID()] = true
	}
	for _, id := range serviceIDs {
		if !known[id] {
			return nil, domain.ErrUnknownService
		}
	}

	added, removed := plan.ReplaceServices(serviceIDs)
	if err := s.plans.Save(ctx, plan); err != nil {
		return nil, err
	}
	s.logger.Info("plan services updated",
		"plan_id", planID, "added", len(added), "removed", len(removed))
	return plan, nil
}

// CreateOneTimePlan registers a new one-time plan.
func (s *Service) CreateOneTimePlan(ctx context.Context, name string, pricing map[domain.Segment]float64) (*domain.OneTimePlan, error) {
	plan, err := domain.NewOneTimePlan(name)
	if err != nil {
		return nil, err
	}
	for segment, price := range pricing {
		plan.SetPrice(segment, price)
	}
	if err := s.oneTimePlans.Save(ctx, plan); err != nil {
		return nil, err
	}
	s.logger.Info("one-time plan created", "plan_id", plan.ID(), "name", plan.Name())
	return plan, nil
}

// GetOneTimePlan returns the one-time plan with the given id.
func (s *Service) GetOneTimePlan(ctx context.Context, id uuid.UUID) (*domain.OneTimePlan, error) {
	return s.oneTimePlans.FindByID(ctx, id)
}

// ListOneTimePlans returns all one-time plans, optionally only active ones.
func (s *Service) ListOneTimePlans(ctx context.Context, activeOnly bool) ([]*domain.OneTimePlan, error) {
	return s.oneTimePlans.FindAll(ctx, activeOnly)
}
