package commands

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	catalogDomain "github.com/vaahanlabs/pitstop/internal/catalog/domain"
	identityDomain "github.com/vaahanlabs/pitstop/internal/identity/domain"
	"github.com/vaahanlabs/pitstop/internal/orders/domain"
	paymentDomain "github.com/vaahanlabs/pitstop/internal/payment/domain"
	sharedApplication "github.com/vaahanlabs/pitstop/internal/shared/application"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/outbox"
)

// CreateOneTimeOrderCommand books a pay-per-visit service order.
type CreateOneTimeOrderCommand struct {
	UserID        uuid.UUID
	OneTimePlanID uuid.UUID
	ServiceIDs    []uuid.UUID
	Details       domain.CustomerDetails
}

// CreateOneTimeOrderResult carries the order and the gateway handle the
// client completes checkout against.
type CreateOneTimeOrderResult struct {
	OrderID        uuid.UUID
	OrderCode      string
	GatewayOrderID string
	Amount         float64
	Currency       string
}

// CreateOneTimeOrderHandler handles the CreateOneTimeOrderCommand.
type CreateOneTimeOrderHandler struct {
	users      identityDomain.UserRepository
	plans      catalogDomain.OneTimePlanRepository
	orders     domain.Repository
	gateway    paymentDomain.Gateway
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	currency   string
	logger     *slog.Logger
}

// NewCreateOneTimeOrderHandler creates a new CreateOneTimeOrderHandler.
func NewCreateOneTimeOrderHandler(
	users identityDomain.UserRepository,
	plans catalogDomain.OneTimePlanRepository,
	orders domain.Repository,
	gateway paymentDomain.Gateway,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	currency string,
	logger *slog.Logger,
) *CreateOneTimeOrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateOneTimeOrderHandler{
		users: users, plans: plans, orders: orders, gateway: gateway,
		outboxRepo: outboxRepo, uow: uow, currency: currency, logger: logger,
	}
}

// Handle executes the CreateOneTimeOrderCommand.
func (h *CreateOneTimeOrderHandler) Handle(ctx context.Context, cmd CreateOneTimeOrderCommand) (*CreateOneTimeOrderResult, error) {
	user, err := h.users.FindByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	plan, err := h.plans.FindByID(ctx, cmd.OneTimePlanID)
	if err != nil {
		return nil, err
	}
	if !containsAll(plan.Services(), cmd.ServiceIDs) {
		return nil, domain.ErrServiceNotInPlan
	}

	amount, err := plan.PriceFor(catalogDomain.Segment(user.Segment()))
	if err != nil {
		return nil, err
	}

	gatewayOrder, err := h.gateway.CreateOrder(ctx, amount, h.currency)
	if err != nil {
		return nil, err
	}

	var result *CreateOneTimeOrderResult
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		order, err := domain.NewOneTimeOrder(cmd.UserID, cmd.OneTimePlanID, cmd.ServiceIDs, amount, cmd.Details, gatewayOrder.ID)
		if err != nil {
			return err
		}
		if err := h.orders.Save(txCtx, order); err != nil {
			return err
		}
		if err := saveEvents(txCtx, h.outboxRepo, cmd.UserID, order.DomainEvents()...); err != nil {
			return err
		}
		result = &CreateOneTimeOrderResult{
			OrderID:        order.ID(),
			OrderCode:      order.Code(),
			GatewayOrderID: gatewayOrder.ID,
			Amount:         amount,
			Currency:       h.currency,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("one-time order created",
		"order_id", result.OrderID, "user_id", cmd.UserID, "amount", amount)
	return result, nil
}

func containsAll(set, candidates []uuid.UUID) bool {
	for _, candidate := range candidates {
		found := false
		for _, id := range set {
			if id == candidate {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
