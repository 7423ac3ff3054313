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

// PostgresOneTimePlanRepository implements domain.OneTimePlanRepository using PostgreSQL.
type PostgresOneTimePlanRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresOneTimePlanRepository creates a new repository.
func NewPostgresOneTimePlanRepository(pool *pgxpool.Pool) *PostgresOneTimePlanRepository {
	return &PostgresOneTimePlanRepository{pool: pool}
}

// Save inserts or updates a one-time plan.
func (r *PostgresOneTimePlanRepository) Save(ctx context.Context, plan *domain.OneTimePlan) error {
	pricing, err := json.Marshal(plan.Pricing())
	if err != nil {
		return fmt.Errorf("marshal one-time plan pricing: %w", err)
	}
	query := `
		INSERT INTO one_time_plans (id, name, active, pricing, services, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			active = EXCLUDED.active,
			pricing = EXCLUDED.pricing,
			services = EXCLUDED.services,
			updated_at = EXCLUDED.updated_at
	`
	_, err = persistence.Executor(ctx, r.pool).Exec(ctx, query,
		plan.ID(),
		plan.Name(),
		plan.Active(),
		pricing,
		plan.Services(),
		plan.CreatedAt(),
		plan.UpdatedAt(),
	)
	return err
}

const selectOneTimePlan = `
	SELECT id, name, active, pricing, services, created_at, updated_at
	FROM one_time_plans
`

// FindByID returns the one-time plan with the given id.
func (r *PostgresOneTimePlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.OneTimePlan, error) {
	row := persistence.Executor(ctx, r.pool).QueryRow(ctx, selectOneTimePlan+` WHERE id = $1`, id)
	plan, err := scanOneTimePlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOneTimePlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// FindAll returns all one-time plans, optionally only active ones.
func (r *PostgresOneTimePlanRepository) FindAll(ctx context.Context, activeOnly bool) ([]*domain.OneTimePlan, error) {
	rows, err := persistence.Executor(ctx, r.pool).Query(ctx,
		selectOneTimePlan+` WHERE ($1 = false OR active = true) ORDER BY name`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*domain.OneTimePlan
	for rows.Next() {
		plan, err := scanOneTimePlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func scanOneTimePlan(row pgx.Row) (*domain.OneTimePlan, error) {
	var (
		id                   uuid.UUID
		name                 string
		active               bool
		pricingJSON          []byte
		services             []uuid.UUID
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &name, &active, &pricingJSON, &services, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	pricing := make(map[domain.Segment]float64)
	if err := json.Unmarshal(pricingJSON, &pricing); err != nil {
		return nil, fmt.Errorf("unmarshal one-time plan pricing: %w", err)
	}
	entity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return domain.RehydrateOneTimePlan(entity, name, active, pricing, services), nil
}
