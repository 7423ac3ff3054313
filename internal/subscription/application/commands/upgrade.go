package commands

import (
	"context"
	"log/slog"
	"math"

	"github.com/google/uuid"

	catalogDomain "github.com/vaahanlabs/pitstop/internal/catalog/domain"
	identityDomain "github.com/vaahanlabs/pitstop/internal/identity/domain"
	paymentDomain "github.com/vaahanlabs/pitstop/internal/payment/domain"
	"github.com/vaahanlabs/pitstop/internal/subscription/domain"
)

// UpgradeCommand stages an upgrade from the user's current plan to another.
type UpgradeCommand struct {
	UserID         uuid.UUID
	SubscriptionID uuid.UUID
	ServiceIDs     []uuid.UUID
}

// UpgradeResult carries the gateway handle for the price difference.
type UpgradeResult struct {
	GatewayOrderID string
	Amount         float64
	Currency       string
}

// UpgradeHandler handles the UpgradeCommand. The amount due is the price
// difference, floored at zero; downgrades stage at no charge.
type UpgradeHandler struct {
	users    identityDomain.UserRepository
	plans    catalogDomain.SubscriptionPlanRepository
	ledger   domain.Repository
	gateway  paymentDomain.Gateway
	currency string
	logger   *slog.Logger
}

// NewUpgradeHandler creates a new UpgradeHandler.
func NewUpgradeHandler(
	users identityDomain.UserRepository,
	plans catalogDomain.SubscriptionPlanRepository,
	ledger domain.Repository,
	gateway paymentDomain.Gateway,
	currency string,
	logger *slog.Logger,
) *UpgradeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpgradeHandler{users: users, plans: plans, ledger: ledger, gateway: gateway, currency: currency, logger: logger}
}

// Handle executes the UpgradeCommand.
func (h *UpgradeHandler) Handle(ctx context.Context, cmd UpgradeCommand) (*UpgradeResult, error) {
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
	if !state.Usable() {
		return nil, domain.ErrNotSubscribed
	}
	if state.SubscriptionID == cmd.SubscriptionID {
		return nil, domain.ErrSamePlan
	}

	candidate, price, err := buildCandidate(ctx, h.plans, cmd.SubscriptionID, cmd.ServiceIDs, user.Segment())
	if err != nil {
		return nil, err
	}

	amount := math.Round(math.Max(0, price-state.Price)*100) / 100

	gatewayOrder, err := h.gateway.CreateOrder(ctx, amount, h.currency)
	if err != nil {
		return nil, err
	}

	staged := domain.NewStagedPurchase(cmd.UserID, domain.KindUpgrade, gatewayOrder.ID, amount, h.currency, candidate)
	if err := h.ledger.StagePurchase(ctx, staged); err != nil {
		return nil, err
	}

	h.logger.Info("upgrade staged",
		"user_id", cmd.UserID, "from", state.SubscriptionID, "to", cmd.SubscriptionID,
		"gateway_order_id", gatewayOrder.ID, "amount", amount)
	return &UpgradeResult{GatewayOrderID: gatewayOrder.ID, Amount: amount, Currency: h.currency}, nil
}
