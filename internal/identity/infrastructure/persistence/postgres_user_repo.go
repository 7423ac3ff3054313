package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vaahanlabs/pitstop/internal/identity/domain"
	sharedDomain "github.com/vaahanlabs/pitstop/internal/shared/domain"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/persistence"
)

// PostgresUserRepository implements domain.UserRepository using PostgreSQL.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a new repository.
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Save inserts or updates a user.
func (r *PostgresUserRepository) Save(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, code, name, phone, email, role, segment, orders, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			segment = EXCLUDED.segment,
			updated_at = EXCLUDED.updated_at
	`
	_, err := persistence.Executor(ctx, r.pool).Exec(ctx, query,
		user.ID(),
		user.Code(),
		user.Name(),
		user.Phone(),
		user.Email(),
		string(user.Role()),
		string(user.Segment()),
		user.Orders(),
		user.CreatedAt(),
		user.UpdatedAt(),
	)
	return err
}

// FindByID returns the user with the given id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, code, name, phone, email, role, segment, orders, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var (
		userID               uuid.UUID
		code, name           string
		phone, email         string
		role, segment        string
		orders               []uuid.UUID
		createdAt, updatedAt time.Time
	)
	err := persistence.Executor(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&userID, &code, &name, &phone, &email, &role, &segment, &orders, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	entity := sharedDomain.RehydrateBaseEntity(userID, createdAt, updatedAt)
	return domain.RehydrateUser(entity, code, name, phone, email,
		domain.Role(role), domain.Segment(segment), orders), nil
}

// AppendOrder adds the order to the user's order list unless already present.
func (r *PostgresUserRepository) AppendOrder(ctx context.Context, userID, orderID uuid.UUID) error {
	query := `
		UPDATE users
		SET orders = array_append(orders, $2), updated_at = NOW()
		WHERE id = $1 AND NOT (orders @> ARRAY[$2]::uuid[])
	`
	_, err := persistence.Executor(ctx, r.pool).Exec(ctx, query, userID, orderID)
	return err
}
