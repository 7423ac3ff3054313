package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vaahanlabs/pitstop/internal/catalog/domain"
	sharedDomain "github.com/vaahanlabs/pitstop/internal/shared/domain"
)

// CachedSubscriptionPlanRepository is a read-through cache in front of the
// plan repository. Plans change rarely but are read on every purchase and
// order, so cache misses fall through to the inner repository and hits skip
// the database entirely. Cache failures are logged and never surfaced.
type CachedSubscriptionPlanRepository struct {
	inner  domain.SubscriptionPlanRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedSubscriptionPlanRepository wraps the inner repository with a Redis cache.
func NewCachedSubscriptionPlanRepository(
	inner domain.SubscriptionPlanRepository,
	client *redis.Client,
	ttl time.Duration,
	logger *slog.Logger,
) *CachedSubscriptionPlanRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSubscriptionPlanRepository{inner: inner, client: client, ttl: ttl, logger: logger}
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
	CreatedAt    time.Time                 `json:"createdAt"`
	UpdatedAt    time.Time                 `json:"updatedAt"`
}

type planPricingDTO struct {
	OneTimePrice float64 `json:"oneTimePrice"`
	MonthlyPrice float64 `json:"monthlyPrice"`
}

func toPlanDTO(plan *domain.SubscriptionPlan) planDTO {
	pricing := make(map[string]planPricingDTO, len(plan.Pricing()))
	for segment, p := range plan.Pricing() {
		pricing[string(segment)] = planPricingDTO{OneTimePrice: p.OneTimePrice, MonthlyPrice: p.MonthlyPrice}
	}
	return planDTO{
		ID:           plan.ID(),
		Name:         plan.Name(),
		Active:       plan.Active(),
		UsageLimit:   plan.UsageLimit(),
		Duration:     plan.Duration(),
		DurationUnit: string(plan.DurationUnit()),
		Pricing:      pricing,
		Services:     plan.Services(),
		CreatedAt:    plan.CreatedAt(),
		UpdatedAt:    plan.UpdatedAt(),
	}
}

func fromPlanDTO(dto planDTO) *domain.SubscriptionPlan {
	pricing := make(map[domain.Segment]domain.PlanPricing, len(dto.Pricing))
	for segment, p := range dto.Pricing {
		pricing[domain.Segment(segment)] = domain.PlanPricing{OneTimePrice: p.OneTimePrice, MonthlyPrice: p.MonthlyPrice}
	}
	entity := sharedDomain.RehydrateBaseEntity(dto.ID, dto.CreatedAt, dto.UpdatedAt)
	return domain.RehydrateSubscriptionPlan(entity, dto.Name, dto.Active, dto.UsageLimit,
		dto.Duration, domain.DurationUnit(dto.DurationUnit), pricing, dto.Services)
}

func planKey(id uuid.UUID) string { return "catalog:plan:" + id.String() }

// Save writes through to the inner repository and drops the cached entry.
func (r *CachedSubscriptionPlanRepository) Save(ctx context.Context, plan *domain.SubscriptionPlan) error {
	if err := r.inner.Save(ctx, plan); err != nil {
		return err
	}
	if err := r.client.Del(ctx, planKey(plan.ID())).Err(); err != nil {
		r.logger.Warn("failed to invalidate plan cache", "plan_id", plan.ID(), "error", err)
	}
	return nil
}

// FindByID returns the cached plan, falling through to the inner repository.
func (r *CachedSubscriptionPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.SubscriptionPlan, error) {
	data, err := r.client.Get(ctx, planKey(id)).Bytes()
	if err == nil {
		var dto planDTO
		if err := json.Unmarshal(data, &dto); err == nil {
			return fromPlanDTO(dto), nil
		}
		r.logger.Warn("dropping corrupt plan cache entry", "plan_id", id)
		r.client.Del(ctx, planKey(id))
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("plan cache read failed", "plan_id", id, "error", err)
	}

	plan, err := r.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, plan)
	return plan, nil
}

// FindByName always hits the inner repository but warms the id cache.
func (r *CachedSubscriptionPlanRepository) FindByName(ctx context.Context, name string) (*domain.SubscriptionPlan, error) {
	plan, err := r.inner.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	r.store(ctx, plan)
	return plan, nil
}

// FindAll delegates to the inner repository. Listing is an admin operation
// and not worth cache invalidation bookkeeping.
func (r *CachedSubscriptionPlanRepository) FindAll(ctx context.Context, activeOnly bool) ([]*domain.SubscriptionPlan, error) {
	return r.inner.FindAll(ctx, activeOnly)
}

// AddCurrentSubscriber delegates to the inner repository. Subscriber rows are
// not part of the cached plan document.
func (r *CachedSubscriptionPlanRepository) AddCurrentSubscriber(ctx context.Context, planID, userID uuid.UUID) error {
	return r.inner.AddCurrentSubscriber(ctx, planID, userID)
}

// MoveSubscriberToPast delegates to the inner repository.
func (r *CachedSubscriptionPlanRepository) MoveSubscriberToPast(ctx context.Context, planID, userID uuid.UUID) error {
	return r.inner.MoveSubscriberToPast(ctx, planID, userID)
}

func (r *CachedSubscriptionPlanRepository) store(ctx context.Context, plan *domain.SubscriptionPlan) {
	data, err := json.Marshal(toPlanDTO(plan))
	if err != nil {
		r.logger.Warn("failed to marshal plan for cache", "plan_id", plan.ID(), "error", err)
		return
	}
	if err := r.client.Set(ctx, planKey(plan.ID()), data, r.ttl).Err(); err != nil {
		r.logger.Warn("plan cache write failed", "plan_id", plan.ID(), "error", err)
	}
}

var _ domain.SubscriptionPlanRepository = (*CachedSubscriptionPlanRepository)(nil)
