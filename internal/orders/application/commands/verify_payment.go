package commands

import (
	"context"
	"log/slog"

	identityDomain "github.com/vaahanlabs/pitstop/internal/identity/domain"
	"github.com/vaahanlabs/pitstop/internal/orders/domain"
	paymentDomain "github.com/vaahanlabs/pitstop/internal/payment/domain"
	sharedApplication "github.com/vaahanlabs/pitstop/internal/shared/application"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/outbox"
)

// VerifyPaymentCommand confirms a gateway payment against a one-time order.
type VerifyPaymentCommand struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

// VerifyPaymentHandler handles the VerifyPaymentCommand.
type VerifyPaymentHandler struct {
	users      identityDomain.UserRepository
	orders     domain.Repository
	gateway    paymentDomain.Gateway
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewVerifyPaymentHandler creates a new VerifyPaymentHandler.
func NewVerifyPaymentHandler(
	users identityDomain.UserRepository,
	orders domain.Repository,
	gateway paymentDomain.Gateway,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *VerifyPaymentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VerifyPaymentHandler{
		users: users, orders: orders, gateway: gateway,
		outboxRepo: outboxRepo, uow: uow, logger: logger,
	}
}

// Handle executes the VerifyPaymentCommand. Replaying a verification with
// the payment id already recorded on the order succeeds without writing.
func (h *VerifyPaymentHandler) Handle(ctx context.Context, cmd VerifyPaymentCommand) (*domain.Order, error) {
	if err := h.gateway.VerifySignature(cmd.GatewayOrderID, cmd.PaymentID, cmd.Signature); err != nil {
		return nil, err
	}

	var order *domain.Order
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		var err error
		order, err = h.orders.FindByGatewayOrder(txCtx, cmd.GatewayOrderID)
		if err != nil {
			return err
		}
		if order.Type() != domain.TypeOneTime {
			return domain.ErrNotOneTimeOrder
		}
		if order.PaymentStatus() == domain.PaymentPaid {
			if order.PaymentID() == cmd.PaymentID {
				return nil
			}
			return domain.ErrInvalidTransition
		}

		marked, err := h.orders.MarkPaid(txCtx, order.ID(), cmd.PaymentID)
		if err != nil {
			return err
		}
		if !marked {
			// Lost a concurrent race; re-read to decide replay vs conflict.
			order, err = h.orders.FindByID(txCtx, order.ID())
			if err != nil {
				return err
			}
			if order.PaymentID() == cmd.PaymentID {
				return nil
			}
			return domain.ErrInvalidTransition
		}

		if err := h.users.AppendOrder(txCtx, order.UserID(), order.ID()); err != nil {
			return err
		}
		event := domain.NewOrderPaymentVerifiedEvent(order.ID(), order.UserID(), cmd.PaymentID)
		return saveEvents(txCtx, h.outboxRepo, order.UserID(), event)
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("order payment verified",
		"order_id", order.ID(), "payment_id", cmd.PaymentID)
	return order, nil
}
