package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vaahanlabs/pitstop/internal/shared/domain"
	"github.com/vaahanlabs/pitstop/pkg/shortid"
)

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrAlreadyAccepted        = errors.New("order already accepted or no longer pending")
	ErrInvalidTransition      = errors.New("invalid order status transition")
	ErrServiceNotInPlan       = errors.New("service is not part of the plan")
	ErrMissingCustomerDetails = errors.New("customer contact and schedule details are required")
	ErrNotOneTimeOrder        = errors.New("payment verification applies to one-time orders only")
)

// OrderType distinguishes pay-per-visit orders from plan-covered ones.
type OrderType string

const (
	TypeOneTime OrderType = "oneTime"
	TypeMonthly OrderType = "monthly"
)

// Status is the order's lifecycle state. Transitions are monotonic:
// Pending goes to Accepted or Rejected, Accepted goes to InProgress or
// Completed; Rejected and Completed are terminal.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusAccepted   Status = "Accepted"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
	StatusRejected   Status = "Rejected"
)

// TrackStatus is the customer-facing display state. It mirrors Status but
// may lag it (Scheduled while the order is Accepted).
type TrackStatus string

const (
	TrackPending    TrackStatus = "Pending"
	TrackScheduled  TrackStatus = "Scheduled"
	TrackInProgress TrackStatus = "In Progress"
	TrackCompleted  TrackStatus = "Completed"
	TrackRejected   TrackStatus = "Rejected"
)

// PaymentStatus is independent of Status: an order may be Paid while still
// Pending acceptance.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
)

// Amounts carries the money fields of an order.
type Amounts struct {
	ServiceCharge    float64
	PaidAmount       float64
	OrderAmount      float64
	SparePartsCharge float64
}

// CustomerDetails carries the contact and schedule fields of an order.
type CustomerDetails struct {
	Name        string
	Phone       string
	ScheduledOn time.Time
	Location    string
	CarType     string
}

func (d CustomerDetails) validate() error {
	if d.Name == "" || d.Phone == "" || d.ScheduledOn.IsZero() {
		return ErrMissingCustomerDetails
	}
	return nil
}

// Order is a service visit booked by a customer and fulfilled by a
// mechanic. Exactly one of subscriptionID / oneTimePlanID is set,
// depending on the type.
type Order struct {
	domain.BaseAggregateRoot
	code           string
	userID         uuid.UUID
	orderType      OrderType
	status         Status
	trackStatus    TrackStatus
	paymentStatus  PaymentStatus
	amounts        Amounts
	customer       CustomerDetails
	services       []uuid.UUID
	subscriptionID *uuid.UUID
	oneTimePlanID  *uuid.UUID
	mechanicID     *uuid.UUID
	gatewayOrderID string
	paymentID      string
}

// NewOneTimeOrder creates a pending, unpaid one-time order.
func NewOneTimeOrder(userID, planID uuid.UUID, services []uuid.UUID, amount float64, details CustomerDetails, gatewayOrderID string) (*Order, error) {
	if err := details.validate(); err != nil {
		return nil, err
	}
	o := &Order{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		code:              shortid.New("ORD"),
		userID:            userID,
		orderType:         TypeOneTime,
		status:            StatusPending,
		trackStatus:       TrackPending,
		paymentStatus:     PaymentPending,
		amounts:           Amounts{ServiceCharge: amount, OrderAmount: amount},
		customer:          details,
		services:          services,
		oneTimePlanID:     &planID,
		gatewayOrderID:    gatewayOrderID,
	}
	o.AddDomainEvent(NewOrderCreatedEvent(o.ID(), userID, TypeOneTime))
	return o, nil
}

// NewSubscriptionOrder creates a pending order covered by the user's plan.
// It is already paid (the plan unit is the payment) and carries no amounts.
func NewSubscriptionOrder(userID, subscriptionID uuid.UUID, services []uuid.UUID, details CustomerDetails) (*Order, error) {
	if err := details.validate(); err != nil {
		return nil, err
	}
	o := &Order{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		code:              shortid.New("ORD"),
		userID:            userID,
		orderType:         TypeMonthly,
		status:            StatusPending,
		trackStatus:       TrackPending,
		paymentStatus:     PaymentPaid,
		customer:          details,
		services:          services,
		subscriptionID:    &subscriptionID,
	}
	o.AddDomainEvent(NewOrderCreatedEvent(o.ID(), userID, TypeMonthly))
	return o, nil
}

// RehydrateOrder recreates an order from persisted state.
func RehydrateOrder(
	entity domain.BaseEntity,
	code string,
	userID uuid.UUID,
	orderType OrderType,
	status Status,
	trackStatus TrackStatus,
	paymentStatus PaymentStatus,
	amounts Amounts,
	customer CustomerDetails,
	services []uuid.UUID,
	subscriptionID, oneTimePlanID, mechanicID *uuid.UUID,
	gatewayOrderID, paymentID string,
) *Order {
	return &Order{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(entity),
		code:              code,
		userID:            userID,
		orderType:         orderType,
		status:            status,
		trackStatus:       trackStatus,
		paymentStatus:     paymentStatus,
		amounts:           amounts,
		customer:          customer,
		services:          services,
		subscriptionID:    subscriptionID,
		oneTimePlanID:     oneTimePlanID,
		mechanicID:        mechanicID,
		gatewayOrderID:    gatewayOrderID,
		paymentID:         paymentID,
	}
}

func (o *Order) Code() string                 { return o.code }
func (o *Order) UserID() uuid.UUID            { return o.userID }
func (o *Order) Type() OrderType              { return o.orderType }
func (o *Order) Status() Status               { return o.status }
func (o *Order) TrackStatus() TrackStatus     { return o.trackStatus }
func (o *Order) PaymentStatus() PaymentStatus { return o.paymentStatus }
func (o *Order) Amounts() Amounts             { return o.amounts }
func (o *Order) Customer() CustomerDetails    { return o.customer }
func (o *Order) Services() []uuid.UUID        { return o.services }
func (o *Order) SubscriptionID() *uuid.UUID   { return o.subscriptionID }
func (o *Order) OneTimePlanID() *uuid.UUID    { return o.oneTimePlanID }
func (o *Order) MechanicID() *uuid.UUID       { return o.mechanicID }
func (o *Order) GatewayOrderID() string       { return o.gatewayOrderID }
func (o *Order) PaymentID() string            { return o.paymentID }

// IsTerminal reports whether no further status transitions are possible.
func (o *Order) IsTerminal() bool {
	return o.status == StatusRejected || o.status == StatusCompleted
}

// MarkPaid records a verified payment on a one-time order. Replaying the
// same payment id is a no-op.
func (o *Order) MarkPaid(paymentID string) error {
	if o.orderType != TypeOneTime {
		return ErrNotOneTimeOrder
	}
	if o.paymentStatus == PaymentPaid {
		if o.paymentID == paymentID {
			return nil
		}
		return ErrInvalidTransition
	}
	o.paymentStatus = PaymentPaid
	o.paymentID = paymentID
	o.amounts.PaidAmount = o.amounts.OrderAmount
	o.Touch()
	o.AddDomainEvent(NewOrderPaymentVerifiedEvent(o.ID(), o.userID, paymentID))
	return nil
}

// Accept assigns the order to a mechanic. Only a Pending order can be
// accepted; concurrent acceptors are resolved by the store's conditional
// update, this method encodes the same rule for in-memory use.
func (o *Order) Accept(mechanicID uuid.UUID) error {
	if o.status != StatusPending {
		return ErrAlreadyAccepted
	}
	o.status = StatusAccepted
	o.trackStatus = TrackScheduled
	o.mechanicID = &mechanicID
	o.Touch()
	o.AddDomainEvent(NewOrderAcceptedEvent(o.ID(), o.userID, mechanicID))
	return nil
}

// Reject moves a Pending order to the terminal Rejected state.
func (o *Order) Reject() error {
	if o.status != StatusPending {
		return ErrInvalidTransition
	}
	o.status = StatusRejected
	o.trackStatus = TrackRejected
	o.Touch()
	o.AddDomainEvent(NewOrderRejectedEvent(o.ID(), o.userID, o.orderType))
	return nil
}

// Start moves an Accepted order to In Progress.
func (o *Order) Start() error {
	if o.status != StatusAccepted {
		return ErrInvalidTransition
	}
	o.status = StatusInProgress
	o.trackStatus = TrackInProgress
	o.Touch()
	return nil
}

// Complete moves an Accepted or In Progress order to the terminal
// Completed state.
func (o *Order) Complete() error {
	if o.status != StatusAccepted && o.status != StatusInProgress {
		return ErrInvalidTransition
	}
	o.status = StatusCompleted
	o.trackStatus = TrackCompleted
	o.Touch()
	return nil
}

// AddSparePartsCharge records parts used during fulfilment.
func (o *Order) AddSparePartsCharge(amount float64) {
	o.amounts.SparePartsCharge += amount
	o.amounts.OrderAmount += amount
	o.Touch()
}
