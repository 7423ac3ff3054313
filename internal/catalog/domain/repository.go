package domain

import (
	"context"

	"github.com/google/uuid"
)

// ServiceRepository persists workshop services.
type ServiceRepository interface {
	Save(ctx context.Context, service *Service) error
	FindByID(ctx context.Context, id uuid.UUID) (*Service, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Service, error)
	FindAll(ctx context.Context, activeOnly bool) ([]*Service, error)
}

// SubscriptionPlanRepository persists subscription plans and the
// subscriber back-references the ledger maintains on them.
type SubscriptionPlanRepository interface {
	Save(ctx context.Context, plan *SubscriptionPlan) error
	FindByID(ctx context.Context, id uuid.UUID) (*SubscriptionPlan, error)
	FindByName(ctx context.Context, name string) (*SubscriptionPlan, error)
	FindAll(ctx context.Context, activeOnly bool) ([]*SubscriptionPlan, error)

	// AddCurrentSubscriber records the user as a current subscriber of the
	// plan. Duplicate adds are no-ops.
	AddCurrentSubscriber(ctx context.Context, planID, userID uuid.UUID) error
	// MoveSubscriberToPast demotes the user from current to past subscriber.
	MoveSubscriberToPast(ctx context.Context, planID, userID uuid.UUID) error
}

// OneTimePlanRepository persists one-time plans.
type OneTimePlanRepository interface {
	Save(ctx context.Context, plan *OneTimePlan) error
	FindByID(ctx context.Context, id uuid.UUID) (*OneTimePlan, error)
	FindAll(ctx context.Context, activeOnly bool) ([]*OneTimePlan, error)
}
