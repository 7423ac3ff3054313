package commands

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	identityDomain "github.com/vaahanlabs/pitstop/internal/identity/domain"
	"github.com/vaahanlabs/pitstop/internal/orders/domain"
	sharedApplication "github.com/vaahanlabs/pitstop/internal/shared/application"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/outbox"
)

// AcceptOrderCommand assigns a pending order to a mechanic.
type AcceptOrderCommand struct {
	OrderID    uuid.UUID
	MechanicID uuid.UUID
}

// AcceptOrderHandler handles the AcceptOrderCommand. Concurrent accepts are
// resolved by the store's conditional update; exactly one caller wins.
type AcceptOrderHandler struct {
	users      identityDomain.UserRepository
	orders     domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewAcceptOrderHandler creates a new AcceptOrderHandler.
func NewAcceptOrderHandler(
	users identityDomain.UserRepository,
	orders domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *AcceptOrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AcceptOrderHandler{users: users, orders: orders, outboxRepo: outboxRepo, uow: uow, logger: logger}
}

// Handle executes the AcceptOrderCommand.
func (h *AcceptOrderHandler) Handle(ctx context.Context, cmd AcceptOrderCommand) error {
	mechanic, err := h.users.FindByID(ctx, cmd.MechanicID)
	if err != nil {
		return err
	}
	if !mechanic.IsMechanic() {
		return identityDomain.ErrNotAMechanic
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		order, err := h.orders.FindByID(txCtx, cmd.OrderID)
		if err != nil {
			return err
		}

		accepted, err := h.orders.MarkAccepted(txCtx, cmd.OrderID, cmd.MechanicID)
		if err != nil {
			return err
		}
		if !accepted {
			return domain.ErrAlreadyAccepted
		}

		if err := h.users.AppendOrder(txCtx, cmd.MechanicID, cmd.OrderID); err != nil {
			return err
		}
		event := domain.NewOrderAcceptedEvent(cmd.OrderID, order.UserID(), cmd.MechanicID)
		return saveEvents(txCtx, h.outboxRepo, cmd.MechanicID, event)
	})
	if err != nil {
		return err
	}

	h.logger.Info("order accepted", "order_id", cmd.OrderID, "mechanic_id", cmd.MechanicID)
	return nil
}
