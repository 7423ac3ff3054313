package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/vaahanlabs/pitstop/internal/subscription/domain"
)

// PlanStateQuery reads a user's current entitlement and billing history.
type PlanStateQuery struct {
	ledger domain.Repository
}

// NewPlanStateQuery creates a new PlanStateQuery.
func NewPlanStateQuery(ledger domain.Repository) *PlanStateQuery {
	return &PlanStateQuery{ledger: ledger}
}

// CurrentPlan returns the user's plan state.
func (q *PlanStateQuery) CurrentPlan(ctx context.Context, userID uuid.UUID) (*domain.PlanState, error) {
	state, err := q.ledger.FindPlanState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, domain.ErrPlanStateNotFound
	}
	return state, nil
}

// BillingHistory returns the user's billing entries, newest first.
func (q *PlanStateQuery) BillingHistory(ctx context.Context, userID uuid.UUID) ([]*domain.BillingEntry, error) {
	return q.ledger.ListBilling(ctx, userID)
}
