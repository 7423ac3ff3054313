package domain

import (
	"github.com/google/uuid"

	"github.com/vaahanlabs/pitstop/internal/shared/domain"
)

const aggregateType = "Order"

// OrderCreatedEvent is emitted when an order is placed.
type OrderCreatedEvent struct {
	domain.BaseEvent
	OrderID   uuid.UUID `json:"orderId"`
	UserID    uuid.UUID `json:"userId"`
	OrderType OrderType `json:"orderType"`
}

// NewOrderCreatedEvent creates a new event.
func NewOrderCreatedEvent(orderID, userID uuid.UUID, orderType OrderType) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseEvent: domain.NewBaseEvent(orderID, aggregateType, "marketplace.order.created"),
		OrderID:   orderID,
		UserID:    userID,
		OrderType: orderType,
	}
}

// OrderPaymentVerifiedEvent is emitted when a one-time order's payment
// signature checks out.
type OrderPaymentVerifiedEvent struct {
	domain.BaseEvent
	OrderID   uuid.UUID `json:"orderId"`
	UserID    uuid.UUID `json:"userId"`
	PaymentID string    `json:"paymentId"`
}

// NewOrderPaymentVerifiedEvent creates a new event.
func NewOrderPaymentVerifiedEvent(orderID, userID uuid.UUID, paymentID string) *OrderPaymentVerifiedEvent {
	return &OrderPaymentVerifiedEvent{
		BaseEvent: domain.NewBaseEvent(orderID, aggregateType, "marketplace.order.payment_verified"),
		OrderID:   orderID,
		UserID:    userID,
		PaymentID: paymentID,
	}
}

// OrderAcceptedEvent is emitted when a mechanic takes the order.
type OrderAcceptedEvent struct {
	domain.BaseEvent
	OrderID    uuid.UUID `json:"orderId"`
	UserID     uuid.UUID `json:"userId"`
	MechanicID uuid.UUID `json:"mechanicId"`
}

// NewOrderAcceptedEvent creates a new event.
func NewOrderAcceptedEvent(orderID, userID, mechanicID uuid.UUID) *OrderAcceptedEvent {
	return &OrderAcceptedEvent{
		BaseEvent:  domain.NewBaseEvent(orderID, aggregateType, "marketplace.order.accepted"),
		OrderID:    orderID,
		UserID:     userID,
		MechanicID: mechanicID,
	}
}

// OrderRejectedEvent is emitted when the expiry sweep rejects an order.
type OrderRejectedEvent struct {
	domain.BaseEvent
	OrderID   uuid.UUID `json:"orderId"`
	UserID    uuid.UUID `json:"userId"`
	OrderType OrderType `json:"orderType"`
}

// NewOrderRejectedEvent creates a new event.
func NewOrderRejectedEvent(orderID, userID uuid.UUID, orderType OrderType) *OrderRejectedEvent {
	return &OrderRejectedEvent{
		BaseEvent: domain.NewBaseEvent(orderID, aggregateType, "marketplace.order.rejected"),
		OrderID:   orderID,
		UserID:    userID,
		OrderType: orderType,
	}
}
