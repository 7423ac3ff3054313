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

// VerifyUpgradeCommand commits a staged upgrade after payment.
type VerifyUpgradeCommand struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

// VerifyUpgradeHandler handles the VerifyUpgradeCommand. On top of the
// purchase commit it archives the outgoing plan into the past-plan history
// and migrates the user between the two plans' subscriber sets, all in the
// same transaction.
type VerifyUpgradeHandler struct {
	ledger     domain.Repository
	plans      catalogDomain.SubscriptionPlanRepository
	gateway    paymentDomain.Gateway
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewVerifyUpgradeHandler creates a new VerifyUpgradeHandler.
func NewVerifyUpgradeHandler(
	ledger domain.Repository,
	plans catalogDomain.SubscriptionPlanRepository,
	gateway paymentDomain.Gateway,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *VerifyUpgradeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VerifyUpgradeHandler{
		ledger: ledger, plans: plans, gateway: gateway,
		outboxRepo: outboxRepo, uow: uow, logger: logger,
	}
}

// Handle executes the VerifyUpgradeCommand.
func (h *VerifyUpgradeHandler) Handle(ctx context.Context, cmd VerifyUpgradeCommand) (*domain.PlanState, error) {
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
		if staged == nil || staged.Kind != domain.KindUpgrade {
			return domain.ErrNoPendingPurchase
		}

		current, err := h.ledger.FindPlanState(txCtx, staged.UserID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotSubscribed
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
		if err := h.ledger.ArchiveCurrentPlan(txCtx, staged.UserID, now); err != nil {
			return err
		}
		if err := h.plans.MoveSubscriberToPast(txCtx, current.SubscriptionID, staged.UserID); err != nil {
			return err
		}
		if err := installStaged(txCtx, h.ledger, h.plans, staged, now, &now); err != nil {
			return err
		}

		event := domain.NewSubscriptionUpgradedEvent(
			staged.UserID, current.SubscriptionID, staged.Plan.SubscriptionID, cmd.PaymentID, staged.Amount)
		if err := saveEvents(txCtx, h.outboxRepo, staged.UserID, event); err != nil {
			return err
		}

		result, err = h.ledger.FindPlanState(txCtx, staged.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("upgrade verified", "payment_id", cmd.PaymentID, "gateway_order_id", cmd.GatewayOrderID)
	return result, nil
}
