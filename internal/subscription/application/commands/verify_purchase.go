package commands

import (
	"context"
	"log/slog"
	"time"

	catalogDomain "github.com/vaahanlabs/pitstop/internal/catalog/domain"
	paymentDomain "github.com/vaahanlabs/pitstop/internal/payment/domain"
	sharedApplication "github.com/vaahanlabs/pitstop/internal/shared/application"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/outbox"
	"github.com/vaahanlabs/pitstop/internal/subscription/domain"
)

// VerifyPurchaseCommand commits a staged fresh purchase after payment.
type VerifyPurchaseCommand struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

// VerifyPurchaseHandler handles the VerifyPurchaseCommand. Billing append,
// plan install, staging clear and subscriber-set update commit in one
// transaction; a replayed payment id returns the committed state untouched.
// A leftover exhausted or expired plan is archived and its subscriber row
// demoted before the new plan installs, so a user holds at most one current
// subscription.
type VerifyPurchaseHandler struct {
	ledger     domain.Repository
	plans      catalogDomain.SubscriptionPlanRepository
	gateway    paymentDomain.Gateway
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewVerifyPurchaseHandler creates a new VerifyPurchaseHandler.
func NewVerifyPurchaseHandler(
	ledger domain.Repository,
	plans catalogDomain.SubscriptionPlanRepository,
	gateway paymentDomain.Gateway,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *VerifyPurchaseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VerifyPurchaseHandler{
		ledger: ledger, plans: plans, gateway: gateway,
		outboxRepo: outboxRepo, uow: uow, logger: logger,
	}
}

// Handle executes the VerifyPurchaseCommand.
func (h *VerifyPurchaseHandler) Handle(ctx context.Context, cmd VerifyPurchaseCommand) (*domain.PlanState, error) {
	if err := h.gateway.VerifySignature(cmd.GatewayOrderID, cmd.PaymentID, cmd.Signature); err != nil {
		return nil, err
	}

	var result *domain.PlanState
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		committed, err := replayedState(txCtx, h.ledger, cmd.PaymentID)
		if err != nil || committed != nil {
			result = committed
			return err
		}

		staged, err := h.ledger.FindStagedByGatewayOrder(txCtx, cmd.GatewayOrderID)
		if err != nil {
			return err
		}
		if staged == nil || staged.Kind != domain.KindPurchase {
			return domain.ErrNoPendingPurchase
		}

		inserted, err := h.ledger.AppendBilling(txCtx, domain.NewBillingEntry(staged, cmd.PaymentID))
		if err != nil {
			return err
		}
		if !inserted {
			result, err = h.ledger.FindPlanState(txCtx, staged.UserID)
			return err
		}

		now := time.Now().UTC()
		prior, err := h.ledger.FindPlanState(txCtx, staged.UserID)
		if err != nil {
			return err
		}
		if err := replacePlan(txCtx, h.ledger, h.plans, staged, prior, now); err != nil {
			return err
		}

		event := domain.NewSubscriptionActivatedEvent(
			staged.UserID, staged.Plan.SubscriptionID, staged.Plan.Name, cmd.PaymentID, staged.Amount)
		if err := saveEvents(txCtx, h.outboxRepo, staged.UserID, event); err != nil {
			return err
		}

		result, err = h.ledger.FindPlanState(txCtx, staged.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("purchase verified", "payment_id", cmd.PaymentID, "gateway_order_id", cmd.GatewayOrderID)
	return result, nil
}

// replayedState returns the committed plan state when the payment id was
// already processed, or nil when this is a first delivery.
func replayedState(ctx context.Context, ledger domain.Repository, paymentID string) (*domain.PlanState, error) {
	existing, err := ledger.FindBillingByPaymentID(ctx, paymentID)
	if err != nil || existing == nil {
		return nil, err
	}
	return ledger.FindPlanState(ctx, existing.UserID)
}

// replacePlan archives the current plan state when one exists, demotes its
// subscriber row when the plan changes, and installs the staged candidate.
// Runs inside the caller's transaction.
func replacePlan(
	ctx context.Context,
	ledger domain.Repository,
	plans catalogDomain.SubscriptionPlanRepository,
	staged *domain.StagedPurchase,
	current *domain.PlanState,
	now time.Time,
) error {
	if current != nil {
		if err := ledger.ArchiveCurrentPlan(ctx, staged.UserID, now); err != nil {
			return err
		}
		if current.SubscriptionID != staged.Plan.SubscriptionID {
			if err := plans.MoveSubscriberToPast(ctx, current.SubscriptionID, staged.UserID); err != nil {
				return err
			}
		}
	}
	return installStaged(ctx, ledger, plans, staged, now, nil)
}

// installStaged applies a staged candidate to the user's plan state and
// subscriber sets. Runs inside the caller's transaction.
func installStaged(
	ctx context.Context,
	ledger domain.Repository,
	plans catalogDomain.SubscriptionPlanRepository,
	staged *domain.StagedPurchase,
	now time.Time,
	upgradeDate *time.Time,
) error {
	end := staged.Plan.PeriodEnd(now)
	install := domain.PlanInstall{
		SubscriptionID:  staged.Plan.SubscriptionID,
		Name:            staged.Plan.Name,
		Price:           staged.Plan.Price,
		UsageLimit:      staged.Plan.UsageLimit,
		Services:        staged.Plan.Services,
		StartDate:       now,
		NextBillingDate: end,
		EndDate:         end,
		UpgradeDate:     upgradeDate,
	}
	if err := ledger.InstallPlan(ctx, staged.UserID, install); err != nil {
		return err
	}
	if err := ledger.ClearStaged(ctx, staged.UserID, staged.Kind.Slot()); err != nil {
		return err
	}
	return plans.AddCurrentSubscriber(ctx, staged.Plan.SubscriptionID, staged.UserID)
}
