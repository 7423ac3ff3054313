package api

import (
	"errors"
	"log/slog"
	"net/http"

	catalogDomain "github.com/vaahanlabs/pitstop/internal/catalog/domain"
	identityDomain "github.com/vaahanlabs/pitstop/internal/identity/domain"
	ordersDomain "github.com/vaahanlabs/pitstop/internal/orders/domain"
	paymentDomain "github.com/vaahanlabs/pitstop/internal/payment/domain"
	subscriptionDomain "github.com/vaahanlabs/pitstop/internal/subscription/domain"
)

// statusFromError maps domain sentinel errors to HTTP status codes.
// Anything unmapped is a server-side failure.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, catalogDomain.ErrEmptyName),
		errors.Is(err, catalogDomain.ErrNoPricing),
		errors.Is(err, catalogDomain.ErrUnknownService),
		errors.Is(err, identityDomain.ErrInvalidRole),
		errors.Is(err, ordersDomain.ErrMissingCustomerDetails),
		errors.Is(err, ordersDomain.ErrNotOneTimeOrder),
		errors.Is(err, paymentDomain.ErrSignatureMismatch):
		return http.StatusBadRequest

	case errors.Is(err, subscriptionDomain.ErrNotACustomer),
		errors.Is(err, identityDomain.ErrNotAMechanic):
		return http.StatusForbidden

	case errors.Is(err, catalogDomain.ErrServiceNotFound),
		errors.Is(err, catalogDomain.ErrPlanNotFound),
		errors.Is(err, catalogDomain.ErrOneTimePlanNotFound),
		errors.Is(err, identityDomain.ErrUserNotFound),
		errors.Is(err, ordersDomain.ErrOrderNotFound),
		errors.Is(err, subscriptionDomain.ErrPlanStateNotFound),
		errors.Is(err, subscriptionDomain.ErrNoPendingPurchase),
		errors.Is(err, subscriptionDomain.ErrNoPendingRenewal):
		return http.StatusNotFound

	case errors.Is(err, catalogDomain.ErrServiceAlreadyInPlan),
		errors.Is(err, ordersDomain.ErrAlreadyAccepted),
		errors.Is(err, ordersDomain.ErrInvalidTransition),
		errors.Is(err, subscriptionDomain.ErrAlreadySubscribed),
		errors.Is(err, subscriptionDomain.ErrNotSubscribed),
		errors.Is(err, subscriptionDomain.ErrSamePlan),
		errors.Is(err, subscriptionDomain.ErrLimitExhausted):
		return http.StatusConflict

	case errors.Is(err, subscriptionDomain.ErrServiceNotInPlan),
		errors.Is(err, ordersDomain.ErrServiceNotInPlan):
		return http.StatusUnprocessableEntity

	case errors.Is(err, paymentDomain.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error as JSON with the mapped status. Server-side
// failures are logged and masked.
func respondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFromError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		message = "internal server error"
	}
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
