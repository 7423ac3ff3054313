package commands

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	sharedApplication "github.com/vaahanlabs/pitstop/internal/shared/application"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/outbox"
	"github.com/vaahanlabs/pitstop/internal/subscription/domain"
)

// RefundUnitHandler returns one plan use. Invoked only by the expiry sweep
// when an unaccepted subscription order is rejected; joins the sweep's
// reject transaction.
type RefundUnitHandler struct {
	ledger     domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewRefundUnitHandler creates a new RefundUnitHandler.
func NewRefundUnitHandler(ledger domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, logger *slog.Logger) *RefundUnitHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefundUnitHandler{ledger: ledger, outboxRepo: outboxRepo, uow: uow, logger: logger}
}

// Handle refunds one unit to the user's plan.
func (h *RefundUnitHandler) Handle(ctx context.Context, userID uuid.UUID) error {
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.ledger.RefundUnit(txCtx, userID); err != nil {
			return err
		}
		return saveEvents(txCtx, h.outboxRepo, userID, domain.NewUnitRefundedEvent(userID))
	})
	if err != nil {
		return err
	}
	h.logger.Info("plan unit refunded", "user_id", userID)
	return nil
}
