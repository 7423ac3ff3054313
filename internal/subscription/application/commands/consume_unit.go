package commands

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	sharedApplication "github.com/vaahanlabs/pitstop/internal/shared/application"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/outbox"
	"github.com/vaahanlabs/pitstop/internal/subscription/domain"
)

// ConsumeUnitHandler decrements one plan use. Invoked by order creation for
// subscription orders; the unit of work joins the caller's transaction when
// one is already open, so the decrement commits with the order.
type ConsumeUnitHandler struct {
	ledger     domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewConsumeUnitHandler creates a new ConsumeUnitHandler.
func NewConsumeUnitHandler(ledger domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, logger *slog.Logger) *ConsumeUnitHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumeUnitHandler{ledger: ledger, outboxRepo: outboxRepo, uow: uow, logger: logger}
}

// Handle consumes one unit from the user's plan.
func (h *ConsumeUnitHandler) Handle(ctx context.Context, userID uuid.UUID) error {
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.ledger.ConsumeUnit(txCtx, userID); err != nil {
			return err
		}
		return saveEvents(txCtx, h.outboxRepo, userID, domain.NewUnitConsumedEvent(userID))
	})
	if err != nil {
		return err
	}
	h.logger.Info("plan unit consumed", "user_id", userID)
	return nil
}
