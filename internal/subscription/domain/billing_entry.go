package domain

import (
	"time"

	"github.com/google/uuid"
)

// BillingEntry is one verified payment. The paymentID is the idempotency
// key: a replayed gateway callback must never produce a second entry.
type BillingEntry struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	SubscriptionID uuid.UUID
	PlanName       string
	Kind           Kind
	GatewayOrderID string
	PaymentID      string
	Amount         float64
	Currency       string
	CreatedAt      time.Time
}

// NewBillingEntry creates a billing entry for a verified payment.
func NewBillingEntry(staged *StagedPurchase, paymentID string) *BillingEntry {
	return &BillingEntry{
		ID:             uuid.New(),
		UserID:         staged.UserID,
		SubscriptionID: staged.Plan.SubscriptionID,
		PlanName:       staged.Plan.Name,
		Kind:           staged.Kind,
		GatewayOrderID: staged.GatewayOrderID,
		PaymentID:      paymentID,
		Amount:         staged.Amount,
		Currency:       staged.Currency,
		CreatedAt:      time.Now().UTC(),
	}
}
