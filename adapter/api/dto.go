package api

import (
	"time"

	"github.com/google/uuid"

	catalogDomain "github.com/vaahanlabs/pitstop/internal/catalog/domain"
	identityDomain "github.com/vaahanlabs/pitstop/internal/identity/domain"
	ordersDomain "github.com/vaahanlabs/pitstop/internal/orders/domain"
	subscriptionDomain "github.com/vaahanlabs/pitstop/internal/subscription/domain"
)

type serviceDTO struct {
	ID     uuid.UUID `json:"id"`
	Code   string    `json:"code"`
	Name   string    `json:"name"`
	Active bool      `json:"active"`
}

func toServiceDTO(s *catalogDomain.Service) serviceDTO {
	return serviceDTO{ID: s.ID(), Code: s.Code(), Name: s.Name(), Active: s.Active()}
}

type planPricingDTO struct {
	OneTimePrice float64 `json:"oneTimePrice"`
	MonthlyPrice float64 `json:"monthlyPrice"`
}

type planDTO struct {
	ID           uuid.UUID                 `json:"id"`
	Name         string                    `json:"name"`
	Active       bool                      `json:"active"`
	UsageLimit   int                       `json:"usageLimit"`
	Duration     int                       `json:"duration"`
	DurationUnit string                    `json:"durationUnit"`
	Pricing      map[string]planPricingDTO `json:"pricing"`
	Services     []uuid.UUID               `json:"services"`
}

func toPlanDTO(p *catalogDomain.SubscriptionPlan) planDTO {
	pricing := make(map[string]planPricingDTO, len(p.Pricing()))
	for segment, pp := range p.Pricing() {
		pricing[string(segment)] = planPricingDTO{OneTimePrice: pp.OneTimePrice, MonthlyPrice: pp.MonthlyPrice}
	}
	return planDTO{
		ID:           p.ID(),
		Name:         p.Name(),
		Active:       p.Active(),
		UsageLimit:   p.UsageLimit(),
		Duration:     p.Duration(),
		DurationUnit: string(p.DurationUnit()),
		Pricing:      pricing,
		Services:     p.Services(),
	}
}

type oneTimePlanDTO struct {
	ID       uuid.UUID          `json:"id"`
	Name     string             `json:"name"`
	Active   bool               `json:"active"`
	Pricing  map[string]float64 `json:"pricing"`
	Services []uuid.UUID        `json:"services"`
}

func toOneTimePlanDTO(p *catalogDomain.OneTimePlan) oneTimePlanDTO {
	pricing := make(map[string]float64, len(p.Pricing()))
	for segment, price := range p.Pricing() {
		pricing[string(segment)] = price
	}
	return oneTimePlanDTO{
		ID:       p.ID(),
		Name:     p.Name(),
		Active:   p.Active(),
		Pricing:  pricing,
		Services: p.Services(),
	}
}

type userDTO struct {
	ID      uuid.UUID   `json:"id"`
	Code    string      `json:"code"`
	Name    string      `json:"name"`
	Phone   string      `json:"phone"`
	Email   string      `json:"email"`
	Role    string      `json:"role"`
	Segment string      `json:"segment"`
	Orders  []uuid.UUID `json:"orders"`
}

func toUserDTO(u *identityDomain.User) userDTO {
	return userDTO{
		ID:      u.ID(),
		Code:    u.Code(),
		Name:    u.Name(),
		Phone:   u.Phone(),
		Email:   u.Email(),
		Role:    string(u.Role()),
		Segment: string(u.Segment()),
		Orders:  u.Orders(),
	}
}

type planStateDTO struct {
	SubscriptionID  uuid.UUID   `json:"subscriptionId"`
	PlanName        string      `json:"planName"`
	Price           float64     `json:"price"`
	UsageLimit      int         `json:"usageLimit"`
	Services        []uuid.UUID `json:"services"`
	IsVerified      bool        `json:"isVerified"`
	IsSubscribed    bool        `json:"isSubscribed"`
	StartDate       time.Time   `json:"startDate"`
	NextBillingDate time.Time   `json:"nextBillingDate"`
	UpgradeDate     *time.Time  `json:"upgradeDate,omitempty"`
	EndDate         time.Time   `json:"endDate"`
}

func toPlanStateDTO(s *subscriptionDomain.PlanState) planStateDTO {
	return planStateDTO{
		SubscriptionID:  s.SubscriptionID,
		PlanName:        s.PlanName,
		Price:           s.Price,
		UsageLimit:      s.UsageLimit,
		Services:        s.Services,
		IsVerified:      s.IsVerified,
		IsSubscribed:    s.IsSubscribed,
		StartDate:       s.StartDate,
		NextBillingDate: s.NextBillingDate,
		UpgradeDate:     s.UpgradeDate,
		EndDate:         s.EndDate,
	}
}

type billingEntryDTO struct {
	ID             uuid.UUID `json:"id"`
	SubscriptionID uuid.UUID `json:"subscriptionId"`
	PlanName       string    `json:"planName"`
	Kind           string    `json:"kind"`
	GatewayOrderID string    `json:"gatewayOrderId"`
	PaymentID      string    `json:"paymentId"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toBillingEntryDTO(e *subscriptionDomain.BillingEntry) billingEntryDTO {
	return billingEntryDTO{
		ID:             e.ID,
		SubscriptionID: e.SubscriptionID,
		PlanName:       e.PlanName,
		Kind:           string(e.Kind),
		GatewayOrderID: e.GatewayOrderID,
		PaymentID:      e.PaymentID,
		Amount:         e.Amount,
		Currency:       e.Currency,
		CreatedAt:      e.CreatedAt,
	}
}

type orderDTO struct {
	ID             uuid.UUID   `json:"id"`
	Code           string      `json:"code"`
	UserID         uuid.UUID   `json:"userId"`
	Type           string      `json:"type"`
	Status         string      `json:"status"`
	TrackStatus    string      `json:"trackStatus"`
	PaymentStatus  string      `json:"paymentStatus"`
	ServiceCharge  float64     `json:"serviceCharge"`
	PaidAmount     float64     `json:"paidAmount"`
	OrderAmount    float64     `json:"orderAmount"`
	SpareParts     float64     `json:"sparePartsCharge"`
	Services       []uuid.UUID `json:"services"`
	SubscriptionID *uuid.UUID  `json:"subscriptionId,omitempty"`
	OneTimePlanID  *uuid.UUID  `json:"oneTimePlanId,omitempty"`
	MechanicID     *uuid.UUID  `json:"mechanicId,omitempty"`
	GatewayOrderID string      `json:"gatewayOrderId,omitempty"`
	ScheduledOn    time.Time   `json:"scheduledOn"`
	Location       string      `json:"location"`
	CarType        string      `json:"carType"`
	CreatedAt      time.Time   `json:"createdAt"`
}

func toOrderDTO(o *ordersDomain.Order) orderDTO {
	amounts := o.Amounts()
	customer := o.Customer()
	return orderDTO{
		ID:             o.ID(),
		Code:           o.Code(),
		UserID:         o.UserID(),
		Type:           string(o.Type()),
		Status:         string(o.Status()),
		TrackStatus:    string(o.TrackStatus()),
		PaymentStatus:  string(o.PaymentStatus()),
		ServiceCharge:  amounts.ServiceCharge,
		PaidAmount:     amounts.PaidAmount,
		OrderAmount:    amounts.OrderAmount,
		SpareParts:     amounts.SparePartsCharge,
		Services:       o.Services(),
		SubscriptionID: o.SubscriptionID(),
		OneTimePlanID:  o.OneTimePlanID(),
		MechanicID:     o.MechanicID(),
		GatewayOrderID: o.GatewayOrderID(),
		ScheduledOn:    customer.ScheduledOn,
		Location:       customer.Location,
		CarType:        customer.CarType,
		CreatedAt:      o.CreatedAt(),
	}
}

func toOrderDTOs(orders []*ordersDomain.Order) []orderDTO {
	dtos := make([]orderDTO, len(orders))
	for i, order := range orders {
		dtos[i] = toOrderDTO(order)
	}
	return dtos
}
