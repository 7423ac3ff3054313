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

// PurchaseCommand stages a fresh subscription purchase.
type PurchaseCommand struct {
	UserID         uuid.UUID
	SubscriptionID uuid.UUID
	ServiceIDs     []uuid.UUID
}

// PurchaseResult carries the gateway handle the client pays against.
type PurchaseResult struct {
	GatewayOrderID string
	Amount         float64
	Currency       string
}

// PurchaseHandler handles the PurchaseCommand. It validates, computes the
// amount due, opens a gateway order and stages the candidate plan; the
// user's current plan is never touched here.
type PurchaseHandler struct {
	users    identityDomain.UserRepository
	plans    catalogDomain.SubscriptionPlanRepository
	ledger   domain.Repository
	gateway  paymentDomain.Gateway
	currency string
	logger   *slog.Logger
}

// NewPurchaseHandler creates a new PurchaseHandler.
func NewPurchaseHandler(
	users identityDomain.UserRepository,
	plans catalogDomain.SubscriptionPlanRepository,
	ledger domain.Repository,
	gateway paymentDomain.Gateway,
	currency string,
	logger *slog.Logger,
) *PurchaseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PurchaseHandler{users: users, plans: plans, ledger: ledger, gateway: gateway, currency: currency, logger: logger}
}

// Handle executes the PurchaseCommand.
func (h *PurchaseHandler) Handle(ctx context.Context, cmd PurchaseCommand) (*PurchaseResult, error) {
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
	if state.Usable() {
		return nil, domain.ErrAlreadySubscribed
	}

	candidate, amount, err := buildCandidate(ctx, h.plans, cmd.SubscriptionID, cmd.ServiceIDs, user.Segment())
	if err != nil {
		return nil, err
	}

	gatewayOrder, err := h.gateway.CreateOrder(ctx, amount, h.currency)
	if err != nil {
		return nil, err
	}

	staged := domain.NewStagedPurchase(cmd.UserID, domain.KindPurchase, gatewayOrder.ID, amount, h.currency, candidate)
	if err := h.ledger.StagePurchase(ctx, staged); err != nil {
		return nil, err
	}

	h.logger.Info("purchase staged",
		"user_id", cmd.UserID, "subscription_id", cmd.SubscriptionID,
		"gateway_order_id", gatewayOrder.ID, "amount", amount)
	return &PurchaseResult{GatewayOrderID: gatewayOrder.ID, Amount: amount, Currency: h.currency}, nil
}

// buildCandidate resolves the target plan, validates the chosen services and
// snapshots the plan fields that verification will install.
func buildCandidate(
	ctx context.Context,
	plans catalogDomain.SubscriptionPlanRepository,
	subscriptionID uuid.UUID,
	serviceIDs []uuid.UUID,
	segment identityDomain.Segment,
) (domain.PlanCandidate, float64, error) {
	plan, err := plans.FindByID(ctx, subscriptionID)
	if err != nil {
		return domain.PlanCandidate{}, 0, err
	}
	if len(serviceIDs) == 0 {
		serviceIDs = plan.Services()
	}
	if !plan.HasServices(serviceIDs) {
		return domain.PlanCandidate{}, 0, domain.ErrServiceNotInPlan
	}

	price, err := plan.MonthlyPriceFor(catalogDomain.Segment(segment))
	if err != nil {
		return domain.PlanCandidate{}, 0, err
	}

	return domain.PlanCandidate{
		SubscriptionID: plan.ID(),
		Name:           plan.Name(),
		Price:          price,
		UsageLimit:     plan.UsageLimit(),
		Duration:       plan.Duration(),
		DurationUnit:   plan.DurationUnit(),
		Services:       serviceIDs,
	}, price, nil
}
