package commands

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	catalogDomain "github.com/vaahanlabs/pitstop/internal/catalog/domain"
	identityDomain "github.com/vaahanlabs/pitstop/internal/identity/domain"
	paymentDomain "github.com/vaahanlabs/pitstop/internal/payment/domain"
	"github.com/vaahanlabs/pitstop/internal/subscription/domain"
)

// RenewCommand stages a renewal at full price. Renewals get their own
// staging slot so a user can prepay the next cycle while the current plan
// is still running.
type RenewCommand struct {
	UserID         uuid.UUID
	SubscriptionID uuid.UUID
	ServiceIDs     []uuid.UUID
}

// RenewResult carries the gateway handle for the renewal payment.
type RenewResult struct {
	GatewayOrderID string
	Amount         float64
	Currency       string
}

// RenewHandler handles the RenewCommand.
type RenewHandler struct {
	users    identityDomain.UserRepository
	plans    catalogDomain.SubscriptionPlanRepository
	ledger   domain.Repository
	gateway  paymentDomain.Gateway
	currency string
	logger   *slog.Logger
}

// NewRenewHandler creates a new RenewHandler.
func NewRenewHandler(
	users identityDomain.UserRepository,
	plans catalogDomain.SubscriptionPlanRepository,
	ledger domain.Repository,
	gateway paymentDomain.Gateway,
	currency string,
	logger *slog.Logger,
) *RenewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RenewHandler{users: users, plans: plans, ledger: ledger, gateway: gateway, currency: currency, logger: logger}
}

// Handle executes the RenewCommand.
func (h *RenewHandler) Handle(ctx context.Context, cmd RenewCommand) (*RenewResult, error) {
	user, err := h.users.FindByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsCustomer() {
		return nil, domain.ErrNotACustomer
	}

	state, err := h.ledger.FindPlanState(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, domain.ErrNotSubscribed
	}

	candidate, amount, err := buildCandidate(ctx, h.plans, cmd.SubscriptionID, cmd.ServiceIDs, user.Segment())
	if err != nil {
		return nil, err
	}

	gatewayOrder, err := h.gateway.CreateOrder(ctx, amount, h.currency)
	if err != nil {
		return nil, err
	}

	staged := domain.NewStagedPurchase(cmd.UserID, domain.KindRenewal, gatewayOrder.ID, amount, h.currency, candidate)
	if err := h.ledger.StagePurchase(ctx, staged); err != nil {
		return nil, err
	}

	h.logger.Info("renewal staged",
		"user_id", cmd.UserID, "subscription_id", cmd.SubscriptionID,
		"gateway_order_id", gatewayOrder.ID, "amount", amount)
	return &RenewResult{GatewayOrderID: gatewayOrder.ID, Amount: amount, Currency: h.currency}, nil
}
