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

// VerifyRenewalCommand records a renewal payment. The renewal is applied
// immediately only when the current plan is exhausted or expired; otherwise
// the payment is captured and the staged renewal retained for deferred
// application when the current cycle ends.
type VerifyRenewalCommand struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

// VerifyRenewalHandler handles the VerifyRenewalCommand.
type VerifyRenewalHandler struct {
	ledger     domain.Repository
	plans      catalogDomain.SubscriptionPlanRepository
	gateway    paymentDomain.Gateway
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewVerifyRenewalHandler creates a new VerifyRenewalHandler.
func NewVerifyRenewalHandler(
	ledger domain.Repository,
	plans catalogDomain.SubscriptionPlanRepository,
	gateway paymentDomain.Gateway,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *VerifyRenewalHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VerifyRenewalHandler{
		ledger: ledger, plans: plans, gateway: gateway,
		outboxRepo: outboxRepo, uow: uow, logger: logger,
	}
}

// Handle executes the VerifyRenewalCommand.
func (h *VerifyRenewalHandler) Handle(ctx context.Context, cmd VerifyRenewalCommand) (*domain.PlanState, error) {
	if err := h.gateway.VerifySignature(cmd.GatewayOrderID, cmd.PaymentID, cmd.Signature); err != nil {
		return nil, err
	}

	var result *domain.PlanState
	var deferred bool
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
		if staged == nil || staged.Kind != domain.KindRenewal {
			return domain.ErrNoPendingRenewal
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
		current, err := h.ledger.FindPlanState(txCtx, staged.UserID)
		if err != nil {
			return err
		}

		if current != nil && !current.Exhausted() && !current.Expired(now) {
			// Current entitlement still usable: keep the staged renewal for
			// deferred application, the payment is already captured.
			deferred = true
			event := domain.NewSubscriptionRenewedEvent(staged.UserID, staged.Plan.SubscriptionID, true)
			if err := saveEvents(txCtx, h.outboxRepo, staged.UserID, event); err != nil {
				return err
			}
			result = current
			return nil
		}

		if err := replacePlan(txCtx, h.ledger, h.plans, staged, current, now); err != nil {
			return err
		}
		event := domain.NewSubscriptionRenewedEvent(staged.UserID, staged.Plan.SubscriptionID, false)
		if err := saveEvents(txCtx, h.outboxRepo, staged.UserID, event); err != nil {
			return err
		}

		result, err = h.ledger.FindPlanState(txCtx, staged.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("renewal verified",
		"payment_id", cmd.PaymentID, "gateway_order_id", cmd.GatewayOrderID, "deferred", deferred)
	return result, nil
}
