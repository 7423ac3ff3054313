package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/vaahanlabs/pitstop/internal/orders/application/commands"
	"github.com/vaahanlabs/pitstop/internal/orders/domain"
)

// DefaultAcceptanceGrace is how long a subscription order may sit unaccepted
// before the sweep rejects it and refunds the plan unit.
const DefaultAcceptanceGrace = 30 * time.Minute

// RejectSweep periodically rejects monthly orders that outlived the
// acceptance grace period. One bad order does not stop the batch.
type RejectSweep struct {
	orders domain.Repository
	reject *commands.RejectByTimeoutHandler
	grace  time.Duration
	logger *slog.Logger
}

// NewRejectSweep creates a new RejectSweep.
func NewRejectSweep(orders domain.Repository, reject *commands.RejectByTimeoutHandler, grace time.Duration, logger *slog.Logger) *RejectSweep {
	if grace <= 0 {
		grace = DefaultAcceptanceGrace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RejectSweep{orders: orders, reject: reject, grace: grace, logger: logger}
}

// Run rejects all overdue pending monthly orders and returns how many it
// rejected.
func (s *RejectSweep) Run(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.orders.ListPendingMonthlyBefore(ctx, now.Add(-s.grace))
	if err != nil {
		return 0, err
	}

	rejected := 0
	for _, order := range overdue {
		ok, err := s.reject.Handle(ctx, order.ID())
		if err != nil {
			s.logger.Error("failed to reject overdue order",
				"order_id", order.ID(), "error", err)
			continue
		}
		if ok {
			rejected++
		}
	}

	if rejected > 0 {
		s.logger.Info("expiry sweep finished", "overdue", len(overdue), "rejected", rejected)
	}
	return rejected, nil
}
