package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vaahanlabs/pitstop/internal/orders/application/commands"
	"github.com/vaahanlabs/pitstop/internal/orders/application/queries"
	"github.com/vaahanlabs/pitstop/internal/orders/domain"
)

// OrderHandler handles order API requests.
type OrderHandler struct {
	createOneTime      *commands.CreateOneTimeOrderHandler
	createSubscription *commands.CreateSubscriptionOrderHandler
	verifyPayment      *commands.VerifyPaymentHandler
	accept             *commands.AcceptOrderHandler
	orderQuery         *queries.OrderQuery
	logger             *slog.Logger
}

// OrderHandlerConfig holds dependencies for the order handler.
type OrderHandlerConfig struct {
	CreateOneTime      *commands.CreateOneTimeOrderHandler
	CreateSubscription *commands.CreateSubscriptionOrderHandler
	VerifyPayment      *commands.VerifyPaymentHandler
	Accept             *commands.AcceptOrderHandler
	OrderQuery         *queries.OrderQuery
	Logger             *slog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(cfg OrderHandlerConfig) *OrderHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &OrderHandler{
		createOneTime:      cfg.CreateOneTime,
		createSubscription: cfg.CreateSubscription,
		verifyPayment:      cfg.VerifyPayment,
		accept:             cfg.Accept,
		orderQuery:         cfg.OrderQuery,
		logger:             cfg.Logger,
	}
}

type customerDetailsRequest struct {
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	ScheduledOn time.Time `json:"scheduledOn"`
	Location    string    `json:"location"`
	CarType     string    `json:"carType"`
}

func (d customerDetailsRequest) toDomain() domain.CustomerDetails {
	return domain.CustomerDetails{
		Name:        d.Name,
		Phone:       d.Phone,
		ScheduledOn: d.ScheduledOn,
		Location:    d.Location,
		CarType:     d.CarType,
	}
}

// CreateOneTimeOrder handles POST /api/v1/orders/one-time
func (h *OrderHandler) CreateOneTimeOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID        uuid.UUID              `json:"userId"`
		OneTimePlanID uuid.UUID              `json:"oneTimePlanId"`
		ServiceIDs    []uuid.UUID            `json:"serviceIds"`
		Details       customerDetailsRequest `json:"details"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	result, err := h.createOneTime.Handle(r.Context(), commands.CreateOneTimeOrderCommand{
		UserID:        req.UserID,
		OneTimePlanID: req.OneTimePlanID,
		ServiceIDs:    req.ServiceIDs,
		Details:       req.Details.toDomain(),
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"orderId":        result.OrderID,
		"orderCode":      result.OrderCode,
		"gatewayOrderId": result.GatewayOrderID,
		"amount":         result.Amount,
		"currency":       result.Currency,
	})
}

// CreateSubscriptionOrder handles POST /api/v1/orders/subscription
func (h *OrderHandler) CreateSubscriptionOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID     uuid.UUID              `json:"userId"`
		ServiceIDs []uuid.UUID            `json:"serviceIds"`
		Details    customerDetailsRequest `json:"details"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	order, err := h.createSubscription.Handle(r.Context(), commands.CreateSubscriptionOrderCommand{
		UserID:     req.UserID,
		ServiceIDs: req.ServiceIDs,
		Details:    req.Details.toDomain(),
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDTO(order))
}

// VerifyPayment handles POST /api/v1/orders/verify-payment
func (h *OrderHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	order, err := h.verifyPayment.Handle(r.Context(), commands.VerifyPaymentCommand{
		GatewayOrderID: req.GatewayOrderID,
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

// AcceptOrder handles POST /api/v1/orders/{orderID}/accept
func (h *OrderHandler) AcceptOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("orderID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid order id"})
		return
	}

	var req struct {
		MechanicID uuid.UUID `json:"mechanicId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	if err := h.accept.Handle(r.Context(), commands.AcceptOrderCommand{
		OrderID:    orderID,
		MechanicID: req.MechanicID,
	}); err != nil {
		respondError(w, h.logger, err)
		return
	}

	order, err := h.orderQuery.Get(r.Context(), orderID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

// GetOrder handles GET /api/v1/orders/{orderID}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("orderID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid order id"})
		return
	}

	order, err := h.orderQuery.Get(r.Context(), orderID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

// ListUserOrders handles GET /api/v1/users/{userID}/orders
func (h *OrderHandler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid user id"})
		return
	}

	orders, err := h.orderQuery.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": toOrderDTOs(orders)})
}
