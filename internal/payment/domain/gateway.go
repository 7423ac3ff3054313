package domain

import (
	"context"
	"errors"
)

var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrSignatureMismatch  = errors.New("payment signature mismatch")
)

// GatewayOrder is an order registered with the external payment gateway.
// Amount is in the currency's minor unit (paise for INR).
type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// Gateway abstracts the external payment provider. CreateOrder registers the
// amount (in major units) and returns the gateway's order handle; the client
// completes checkout against that handle and comes back with a payment id and
// signature which VerifySignature authenticates.
type Gateway interface {
	CreateOrder(ctx context.Context, amount float64, currency string) (*GatewayOrder, error)
	VerifySignature(gatewayOrderID, paymentID, signature string) error
}
