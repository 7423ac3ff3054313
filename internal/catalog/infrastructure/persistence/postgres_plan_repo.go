package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vaahanlabs/pitstop/internal/catalog/domain"
	sharedDomain "github.com/vaahanlabs/pitstop/internal/shared/domain"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/persistence"
)

// PostgresSubscriptionPlanRepository implements domain.SubscriptionPlanRepository
// using PostgreSQL. Pricing is stored as a jsonb map keyed by segment; the
// subscriber back-references live in plan_subscribers with a status column.
type PostgresSubscriptionPlanRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSubscriptionPlanRepository creates a new repository.
func NewPostgresSubscriptionPlanRepository(pool *pgxpool.Pool) *PostgresSubscriptionPlanRepository {
	return &PostgresSubscriptionPlanRepository{pool: pool}
}

type pricingRecord struct {
	OneTimePrice float64 `json:"oneTimePrice"`
	MonthlyPrice float64 `json:"monthlyPrice"`
}

func marshalPricing(pricing map[domain.Segment]domain.PlanPricing) ([]byte, error) {
	records := make(map[string]pricingRecord, len(pricing))
	for segment, p := range pricing {
		records[string(segment)] = pricingRecord{OneTimePrice: p.OneTimePrice, MonthlyPrice: p.MonthlyPrice}
	}
	return json.Marshal(records)
}

func unmarshalPricing(data []byte) (map[domain.Segment]domain.PlanPricing, error) {
	records := make(map[string]pricingRecord)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal plan pricing: %w", err)
	}
	pricing := make(map[domain.Segment]domain.PlanPricing, len(records))
	for segment, p := range records {
		pricing[domain.Segment(segment)] = domain.PlanPricing{OneTimePrice: p.OneTimePrice, MonthlyPrice: p.MonthlyPrice}
	}
	return pricing, nil
}

// Save inserts or updates a plan.
func (r *PostgresSubscriptionPlanRepository) Save(ctx context.Context, plan *domain.SubscriptionPlan) error {
	pricing, err := marshalPricing(plan.Pricing())
	if err != nil {
		return err
	}
	query := `
		INSERT INTO subscription_plans (
			id, name, active, usage_limit, duration, duration_unit,
			pricing, services, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			active = EXCLUDED.active,
			usage_limit = EXCLUDED.usage_limit,
			duration = EXCLUDED.duration,
			duration_unit = EXCLUDED.duration_unit,
			pricing = EXCLUDED.pricing,
			services = EXCLUDED.services,
			updated_at = EXCLUDED.updated_at
	`
	_, err = persistence.Executor(ctx, r.pool).Exec(ctx, query,
		plan.ID(),
		plan.Name(),
		plan.Active(),
		plan.UsageLimit(),
		plan.Duration(),
		string(plan.DurationUnit()),
		pricing,
		plan.Services(),
		plan.CreatedAt(),
		plan.UpdatedAt(),
	)
	return err
}

const selectPlan = `
	SELECT id, name, active, usage_limit, duration, duration_unit,
	       pricing, services, created_at, updated_at
	FROM subscription_plans
`

// FindByID returns the plan with the given id.
func (r *PostgresSubscriptionPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.SubscriptionPlan, error) {
	row := persistence.Executor(ctx, r.pool).QueryRow(ctx, selectPlan+` WHERE id = $1`, id)
	plan, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// FindByName returns the plan with the given name.
func (r *PostgresSubscriptionPlanRepository) FindByName(ctx context.Context, name string) (*domain.SubscriptionPlan, error) {
	row := persistence.Executor(ctx, r.pool).QueryRow(ctx, selectPlan+` WHERE name = $1`, name)
	plan, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// FindAll returns all plans, optionally only active ones.
func (r *PostgresSubscriptionPlanRepository) FindAll(ctx context.Context, activeOnly bool) ([]*domain.SubscriptionPlan, error) {
	rows, err := persistence.Executor(ctx, r.pool).Query(ctx,
		selectPlan+` WHERE ($1 = false OR active = true) ORDER BY name`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*domain.SubscriptionPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// AddCurrentSubscriber records the user as a current subscriber of the plan.
func (r *PostgresSubscriptionPlanRepository) AddCurrentSubscriber(ctx context.Context, planID, userID uuid.UUID) error {
	query := `
		INSERT INTO plan_subscribers (plan_id, user_id, status, updated_at)
		VALUES ($1, $2, 'current', NOW())
		ON CONFLICT (plan_id, user_id) DO UPDATE SET
			status = 'current',
			updated_at = NOW()
	`
	_, err := persistence.Executor(ctx, r.pool).Exec(ctx, query, planID, userID)
	return err
}

// MoveSubscriberToPast demotes the user from current to past subscriber.
func (r *PostgresSubscriptionPlanRepository) MoveSubscriberToPast(ctx context.Context, planID, userID uuid.UUID) error {
	query := `
		UPDATE plan_subscribers
		SET status = 'past', updated_at = NOW()
		WHERE plan_id = $1 AND user_id = $2 AND status = 'current'
	`
	_, err := persistence.Executor(ctx, r.pool).Exec(ctx, query, planID, userID)
	return err
}

func scanPlan(row pgx.Row) (*domain.SubscriptionPlan, error) {
	var (
		id                   uuid.UUID
		name                 string
		active               bool
		usageLimit, duration int
		durationUnit         string
		pricingJSON          []byte
		services             []uuid.UUID
		createdAt, updatedAt time.Time
	)
	err := row.Scan(&id, &name, &active, &usageLimit, &duration, &durationUnit,
		&pricingJSON, &services, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	pricing, err := unmarshalPricing(pricingJSON)
	if err != nil {
		return nil, err
	}
	entity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return domain.RehydrateSubscriptionPlan(entity, name, active, usageLimit, duration,
		domain.DurationUnit(durationUnit), pricing, services), nil
}
