package domain

import "errors"

var (
	ErrNotACustomer      = errors.New("only customer accounts can hold subscriptions")
	ErrAlreadySubscribed = errors.New("user already holds an active subscription")
	ErrNotSubscribed     = errors.New("user holds no active subscription")
	ErrSamePlan          = errors.New("upgrade target matches the current plan")
	ErrServiceNotInPlan  = errors.New("service is not part of the plan")
	ErrNoPendingPurchase = errors.New("no staged purchase matches the payment order")
	ErrNoPendingRenewal  = errors.New("no staged renewal for user")
	ErrPlanStateNotFound = errors.New("user has no plan state")
	ErrLimitExhausted    = errors.New("plan limit exhausted or plan not usable")
	ErrLimitInvariant    = errors.New("plan limit would become negative")
)
