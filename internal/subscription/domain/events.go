package domain

import (
	"github.com/google/uuid"

	"github.com/vaahanlabs/pitstop/internal/shared/domain"
)

const aggregateType = "PlanState"

// SubscriptionActivatedEvent is emitted when a fresh purchase is verified
// and the plan installed.
type SubscriptionActivatedEvent struct {
	domain.BaseEvent
	UserID         uuid.UUID `json:"userId"`
	SubscriptionID uuid.UUID `json:"subscriptionId"`
	PlanName       string    `json:"planName"`
	PaymentID      string    `json:"paymentId"`
	Amount         float64   `json:"amount"`
}

// NewSubscriptionActivatedEvent creates a new event.
func NewSubscriptionActivatedEvent(userID, subscriptionID uuid.UUID, planName, paymentID string, amount float64) *SubscriptionActivatedEvent {
	return &SubscriptionActivatedEvent{
		BaseEvent:      domain.NewBaseEvent(userID, aggregateType, "marketplace.subscription.activated"),
		UserID:         userID,
		SubscriptionID: subscriptionID,
		PlanName:       planName,
		PaymentID:      paymentID,
		Amount:         amount,
	}
}

// SubscriptionUpgradedEvent is emitted when an upgrade replaces the plan.
type SubscriptionUpgradedEvent struct {
	domain.BaseEvent
	UserID             uuid.UUID `json:"userId"`
	FromSubscriptionID uuid.UUID `json:"fromSubscriptionId"`
	ToSubscriptionID   uuid.UUID `json:"toSubscriptionId"`
	PaymentID          string    `json:"paymentId"`
	Amount             float64   `json:"amount"`
}

// NewSubscriptionUpgradedEvent creates a new event.
func NewSubscriptionUpgradedEvent(userID, from, to uuid.UUID, paymentID string, amount float64) *SubscriptionUpgradedEvent {
	return &SubscriptionUpgradedEvent{
		BaseEvent:          domain.NewBaseEvent(userID, aggregateType, "marketplace.subscription.upgraded"),
		UserID:             userID,
		FromSubscriptionID: from,
		ToSubscriptionID:   to,
		PaymentID:          paymentID,
		Amount:             amount,
	}
}

// SubscriptionRenewedEvent is emitted when a renewal is applied to the plan
// state, whether immediately on verification or deferred until exhaustion.
type SubscriptionRenewedEvent struct {
	domain.BaseEvent
	UserID         uuid.UUID `json:"userId"`
	SubscriptionID uuid.UUID `json:"subscriptionId"`
	Deferred       bool      `json:"deferred"`
}

// NewSubscriptionRenewedEvent creates a new event.
func NewSubscriptionRenewedEvent(userID, subscriptionID uuid.UUID, deferred bool) *SubscriptionRenewedEvent {
	return &SubscriptionRenewedEvent{
		BaseEvent:      domain.NewBaseEvent(userID, aggregateType, "marketplace.subscription.renewed"),
		UserID:         userID,
		SubscriptionID: subscriptionID,
		Deferred:       deferred,
	}
}

// UnitConsumedEvent is emitted when an order consumes one plan use.
type UnitConsumedEvent struct {
	domain.BaseEvent
	UserID uuid.UUID `json:"userId"`
}

// NewUnitConsumedEvent creates a new event.
func NewUnitConsumedEvent(userID uuid.UUID) *UnitConsumedEvent {
	return &UnitConsumedEvent{
		BaseEvent: domain.NewBaseEvent(userID, aggregateType, "marketplace.subscription.unit_consumed"),
		UserID:    userID,
	}
}

// UnitRefundedEvent is emitted when a rejected order returns its plan use.
type UnitRefundedEvent struct {
	domain.BaseEvent
	UserID uuid.UUID `json:"userId"`
}

// NewUnitRefundedEvent creates a new event.
func NewUnitRefundedEvent(userID uuid.UUID) *UnitRefundedEvent {
	return &UnitRefundedEvent{
		BaseEvent: domain.NewBaseEvent(userID, aggregateType, "marketplace.subscription.unit_refunded"),
		UserID:    userID,
	}
}
