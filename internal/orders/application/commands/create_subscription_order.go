package commands

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	identityDomain "github.com/vaahanlabs/pitstop/internal/identity/domain"
	"github.com/vaahanlabs/pitstop/internal/orders/domain"
	sharedApplication "github.com/vaahanlabs/pitstop/internal/shared/application"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/outbox"
	subscriptionCommands "github.com/vaahanlabs/pitstop/internal/subscription/application/commands"
	subscriptionDomain "github.com/vaahanlabs/pitstop/internal/subscription/domain"
)

// CreateSubscriptionOrderCommand books a service visit covered by the
// user's active plan.
type CreateSubscriptionOrderCommand struct {
	UserID     uuid.UUID
	ServiceIDs []uuid.UUID
	Details    domain.CustomerDetails
}

// CreateSubscriptionOrderHandler handles the CreateSubscriptionOrderCommand.
// The plan unit decrement runs in the same transaction as the order insert,
// so a failed insert never leaks a consumed unit and an exhausted plan never
// leaks an order.
type CreateSubscriptionOrderHandler struct {
	users      identityDomain.UserRepository
	ledger     subscriptionDomain.Repository
	consume    *subscriptionCommands.ConsumeUnitHandler
	orders     domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewCreateSubscriptionOrderHandler creates a new CreateSubscriptionOrderHandler.
func NewCreateSubscriptionOrderHandler(
	users identityDomain.UserRepository,
	ledger subscriptionDomain.Repository,
	consume *subscriptionCommands.ConsumeUnitHandler,
	orders domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *CreateSubscriptionOrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateSubscriptionOrderHandler{
		users: users, ledger: ledger, consume: consume, orders: orders,
		outboxRepo: outboxRepo, uow: uow, logger: logger,
	}
}

// Handle executes the CreateSubscriptionOrderCommand.
func (h *CreateSubscriptionOrderHandler) Handle(ctx context.Context, cmd CreateSubscriptionOrderCommand) (*domain.Order, error) {
	user, err := h.users.FindByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	var order *domain.Order
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		state, err := h.ledger.FindPlanState(txCtx, cmd.UserID)
		if err != nil {
			return err
		}
		if !state.Usable() {
			return subscriptionDomain.ErrNotSubscribed
		}
		for _, serviceID := range cmd.ServiceIDs {
			if !state.HasService(serviceID) {
				return domain.ErrServiceNotInPlan
			}
		}

		order, err = domain.NewSubscriptionOrder(cmd.UserID, state.SubscriptionID, cmd.ServiceIDs, cmd.Details)
		if err != nil {
			return err
		}
		if err := h.orders.Save(txCtx, order); err != nil {
			return err
		}

		// Joins this transaction; fails the whole command on exhaustion.
		if err := h.consume.Handle(txCtx, cmd.UserID); err != nil {
			return err
		}
		if err := h.users.AppendOrder(txCtx, user.ID(), order.ID()); err != nil {
			return err
		}
		return saveEvents(txCtx, h.outboxRepo, cmd.UserID, order.DomainEvents()...)
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("subscription order created", "order_id", order.ID(), "user_id", cmd.UserID)
	return order, nil
}
