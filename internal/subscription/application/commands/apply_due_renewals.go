package commands

import (
	"context"
	"log/slog"
	"time"

	catalogDomain "github.com/vaahanlabs/pitstop/internal/catalog/domain"
	sharedApplication "github.com/vaahanlabs/pitstop/internal/shared/application"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/outbox"
	"github.com/vaahanlabs/pitstop/internal/subscription/domain"
)

const dueRenewalBatchSize = 100

// ApplyDueRenewalsHandler applies prepaid renewals whose current plan has
// exhausted or expired since the payment was captured. Invoked periodically
// by the worker; each renewal commits in its own transaction so one failure
// cannot abort the rest of the batch.
type ApplyDueRenewalsHandler struct {
	ledger     domain.Repository
	plans      catalogDomain.SubscriptionPlanRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewApplyDueRenewalsHandler creates a new ApplyDueRenewalsHandler.
func NewApplyDueRenewalsHandler(
	ledger domain.Repository,
	plans catalogDomain.SubscriptionPlanRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *ApplyDueRenewalsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApplyDueRenewalsHandler{ledger: ledger, plans: plans, outboxRepo: outboxRepo, uow: uow, logger: logger}
}

// Handle applies all due renewals and returns how many were applied.
func (h *ApplyDueRenewalsHandler) Handle(ctx context.Context, now time.Time) (int, error) {
	due, err := h.ledger.ListDueRenewals(ctx, now, dueRenewalBatchSize)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, staged := range due {
		if err := h.applyOne(ctx, staged, now); err != nil {
			h.logger.Error("failed to apply due renewal",
				"user_id", staged.UserID, "subscription_id", staged.Plan.SubscriptionID, "error", err)
			continue
		}
		applied++
	}
	return applied, nil
}

func (h *ApplyDueRenewalsHandler) applyOne(ctx context.Context, staged *domain.StagedPurchase, now time.Time) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		current, err := h.ledger.FindPlanState(txCtx, staged.UserID)
		if err != nil {
			return err
		}
		// Re-check inside the transaction; a concurrent order or refund may
		// have changed the picture since the batch was selected.
		if current != nil && !current.Exhausted() && !current.Expired(now) {
			return nil
		}
		if err := replacePlan(txCtx, h.ledger, h.plans, staged, current, now); err != nil {
			return err
		}
		event := domain.NewSubscriptionRenewedEvent(staged.UserID, staged.Plan.SubscriptionID, false)
		return saveEvents(txCtx, h.outboxRepo, staged.UserID, event)
	})
}
