package commands

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vaahanlabs/pitstop/internal/orders/domain"
	sharedApplication "github.com/vaahanlabs/pitstop/internal/shared/application"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/outbox"
	subscriptionCommands "github.com/vaahanlabs/pitstop/internal/subscription/application/commands"
)

// RejectByTimeoutHandler rejects a monthly order no mechanic picked up and
// returns the consumed plan unit to the customer. The reject and the refund
// commit together. A false conditional update means another actor got to the
// order first, which is a safe no-op.
type RejectByTimeoutHandler struct {
	orders     domain.Repository
	refund     *subscriptionCommands.RefundUnitHandler
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewRejectByTimeoutHandler creates a new RejectByTimeoutHandler.
func NewRejectByTimeoutHandler(
	orders domain.Repository,
	refund *subscriptionCommands.RefundUnitHandler,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *RejectByTimeoutHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RejectByTimeoutHandler{orders: orders, refund: refund, outboxRepo: outboxRepo, uow: uow, logger: logger}
}

// Handle rejects the order if it is still pending. Returns true when this
// call performed the rejection.
func (h *RejectByTimeoutHandler) Handle(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var rejected bool
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		order, err := h.orders.FindByID(txCtx, orderID)
		if err != nil {
			return err
		}
		if order.Type() != domain.TypeMonthly || order.Status() != domain.StatusPending {
			return nil
		}

		rejected, err = h.orders.MarkRejected(txCtx, orderID)
		if err != nil || !rejected {
			return err
		}

		if err := h.refund.Handle(txCtx, order.UserID()); err != nil {
			return err
		}
		event := domain.NewOrderRejectedEvent(orderID, order.UserID(), order.Type())
		return saveEvents(txCtx, h.outboxRepo, order.UserID(), event)
	})
	if err != nil {
		return false, err
	}
	if rejected {
		h.logger.Info("order rejected by timeout", "order_id", orderID)
	}
	return rejected, nil
}
