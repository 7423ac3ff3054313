package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vaahanlabs/pitstop/internal/subscription/application/commands"
	"github.com/vaahanlabs/pitstop/internal/subscription/application/queries"
)

// SubscriptionHandler handles subscription API requests.
type SubscriptionHandler struct {
	purchase      *commands.PurchaseHandler
	upgrade       *commands.UpgradeHandler
	renew         *commands.RenewHandler
	verifyPur     *commands.VerifyPurchaseHandler
	verifyUpg     *commands.VerifyUpgradeHandler
	verifyRenewal *commands.VerifyRenewalHandler
	planState     *queries.PlanStateQuery
	logger        *slog.Logger
}

// SubscriptionHandlerConfig holds dependencies for the subscription handler.
type SubscriptionHandlerConfig struct {
	Purchase      *commands.PurchaseHandler
	Upgrade       *commands.UpgradeHandler
	Renew         *commands.RenewHandler
	VerifyPur     *commands.VerifyPurchaseHandler
	VerifyUpg     *commands.VerifyUpgradeHandler
	VerifyRenewal *commands.VerifyRenewalHandler
	PlanState     *queries.PlanStateQuery
	Logger        *slog.Logger
}

// NewSubscriptionHandler creates a new subscription handler.
func NewSubscriptionHandler(cfg SubscriptionHandlerConfig) *SubscriptionHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &SubscriptionHandler{
		purchase:      cfg.Purchase,
		upgrade:       cfg.Upgrade,
		renew:         cfg.Renew,
		verifyPur:     cfg.VerifyPur,
		verifyUpg:     cfg.VerifyUpg,
		verifyRenewal: cfg.VerifyRenewal,
		planState:     cfg.PlanState,
		logger:        cfg.Logger,
	}
}

type stageRequest struct {
	UserID         uuid.UUID   `json:"userId"`
	SubscriptionID uuid.UUID   `json:"subscriptionId"`
	ServiceIDs     []uuid.UUID `json:"serviceIds"`
}

type verifyRequest struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	PaymentID      string `json:"paymentId"`
	Signature      string `json:"signature"`
}

type stageResponse struct {
	GatewayOrderID string  `json:"gatewayOrderId"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
}

// Purchase handles POST /api/v1/subscriptions/purchase
func (h *SubscriptionHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	result, err := h.purchase.Handle(r.Context(), commands.PurchaseCommand{
		UserID:         req.UserID,
		SubscriptionID: req.SubscriptionID,
		ServiceIDs:     req.ServiceIDs,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, stageResponse{
		GatewayOrderID: result.GatewayOrderID,
		Amount:         result.Amount,
		Currency:       result.Currency,
	})
}

// Upgrade handles POST /api/v1/subscriptions/upgrade
func (h *SubscriptionHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	result, err := h.upgrade.Handle(r.Context(), commands.UpgradeCommand{
		UserID:         req.UserID,
		SubscriptionID: req.SubscriptionID,
		ServiceIDs:     req.ServiceIDs,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, stageResponse{
		GatewayOrderID: result.GatewayOrderID,
		Amount:         result.Amount,
		Currency:       result.Currency,
	})
}

// Renew handles POST /api/v1/subscriptions/renew
func (h *SubscriptionHandler) Renew(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	result, err := h.renew.Handle(r.Context(), commands.RenewCommand{
		UserID:         req.UserID,
		SubscriptionID: req.SubscriptionID,
		ServiceIDs:     req.ServiceIDs,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, stageResponse{
		GatewayOrderID: result.GatewayOrderID,
		Amount:         result.Amount,
		Currency:       result.Currency,
	})
}

// VerifyPurchase handles POST /api/v1/subscriptions/purchase/verify
func (h *SubscriptionHandler) VerifyPurchase(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	state, err := h.verifyPur.Handle(r.Context(), commands.VerifyPurchaseCommand{
		GatewayOrderID: req.GatewayOrderID,
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanStateDTO(state))
}

// VerifyUpgrade handles POST /api/v1/subscriptions/upgrade/verify
func (h *SubscriptionHandler) VerifyUpgrade(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	state, err := h.verifyUpg.Handle(r.Context(), commands.VerifyUpgradeCommand{
		GatewayOrderID: req.GatewayOrderID,
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanStateDTO(state))
}

// VerifyRenewal handles POST /api/v1/subscriptions/renew/verify
func (h *SubscriptionHandler) VerifyRenewal(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	state, err := h.verifyRenewal.Handle(r.Context(), commands.VerifyRenewalCommand{
		GatewayOrderID: req.GatewayOrderID,
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanStateDTO(state))
}

// CurrentPlan handles GET /api/v1/users/{userID}/plan
func (h *SubscriptionHandler) CurrentPlan(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid user id"})
		return
	}

	state, err := h.planState.CurrentPlan(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanStateDTO(state))
}

// BillingHistory handles GET /api/v1/users/{userID}/billing
func (h *SubscriptionHandler) BillingHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid user id"})
		return
	}

	entries, err := h.planState.BillingHistory(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	dtos := make([]billingEntryDTO, len(entries))
	for i, entry := range entries {
		dtos[i] = toBillingEntryDTO(entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": dtos})
}
