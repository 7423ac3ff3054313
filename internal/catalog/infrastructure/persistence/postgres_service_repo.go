package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vaahanlabs/pitstop/internal/catalog/domain"
	sharedDomain "github.com/vaahanlabs/pitstop/internal/shared/domain"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/persistence"
)

// PostgresServiceRepository implements domain.ServiceRepository using PostgreSQL.
type PostgresServiceRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresServiceRepository creates a new repository.
func NewPostgresServiceRepository(pool *pgxpool.Pool) *PostgresServiceRepository {
	return &PostgresServiceRepository{pool: pool}
}

// Save inserts or updates a service.
func (r *PostgresServiceRepository) Save(ctx context.Context, service *domain.Service) error {
	query := `
		INSERT INTO services (id, code, name, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`
	_, err := persistence.Executor(ctx, r.pool).Exec(ctx, query,
		service.ID(),
		service.Code(),
		service.Name(),
		service.Active(),
		service.CreatedAt(),
		service.UpdatedAt(),
	)
	return err
}

// FindByID returns the service with the given id.
func (r *PostgresServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Service, error) {
	query := `
		SELECT id, code, name, active, created_at, updated_at
		FROM services
		WHERE id = $1
	`
	service, err := scanService(persistence.Executor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrServiceNotFound
		}
		return nil, err
	}
	return service, nil
}

// FindByIDs returns the services matching any of the given ids.
func (r *PostgresServiceRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, code, name, active, created_at, updated_at
		FROM services
		WHERE id = ANY($1)
	`
	rows, err := persistence.Executor(ctx, r.pool).Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectServices(rows)
}

// FindAll returns all services, optionally only active ones.
func (r *PostgresServiceRepository) FindAll(ctx context.Context, activeOnly bool) ([]*domain.Service, error) {
	query := `
		SELECT id, code, name, active, created_at, updated_at
		FROM services
		WHERE ($1 = false OR active = true)
		ORDER BY name
	`
	rows, err := persistence.Executor(ctx, r.pool).Query(ctx, query, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectServices(rows)
}

func collectServices(rows pgx.Rows) ([]*domain.Service, error) {
	var services []*domain.Service
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, service)
	}
	return services, rows.Err()
}

func scanService(row pgx.Row) (*domain.Service, error) {
	var (
		id                   uuid.UUID
		code, name           string
		active               bool
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &code, &name, &active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	entity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return domain.RehydrateService(entity, code, name, active), nil
}
