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

	catalogDomain "github.com/vaahanlabs/pitstop/internal/catalog/domain"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/persistence"
	"github.com/vaahanlabs/pitstop/internal/subscription/domain"
)

// PostgresLedgerRepository implements the subscription ledger on PostgreSQL.
//
// Layout: plan_states holds one row per user (the current plan), past_plans
// holds jsonb snapshots of superseded plans, billing_entries carries a unique
// index on payment_id for idempotency, staged_purchases is keyed by
// (user_id, slot). ConsumeUnit and RefundUnit are single conditional UPDATEs
// that compute the verified/subscribed toggle from the pre-update value.
type PostgresLedgerRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresLedgerRepository creates a new repository.
func NewPostgresLedgerRepository(pool *pgxpool.Pool) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{pool: pool}
}

const selectPlanState = `
	SELECT user_id, subscription_id, plan_name, price, usage_limit, services,
	       is_verified, is_subscribed, start_date, next_billing_date,
	       upgrade_date, end_date, created_at, updated_at
	FROM plan_states
`

// FindPlanState returns the user's plan state, or nil when absent.
func (r *PostgresLedgerRepository) FindPlanState(ctx context.Context, userID uuid.UUID) (*domain.PlanState, error) {
	row := persistence.Executor(ctx, r.pool).QueryRow(ctx, selectPlanState+` WHERE user_id = $1`, userID)
	state, err := scanPlanState(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return state, nil
}

// InstallPlan replaces or creates the user's plan state. A freshly
// installed plan is always verified and subscribed.
func (r *PostgresLedgerRepository) InstallPlan(ctx context.Context, userID uuid.UUID, install domain.PlanInstall) error {
	query := `
		INSERT INTO plan_states (
			user_id, subscription_id, plan_name, price, usage_limit, services,
			is_verified, is_subscribed, start_date, next_billing_date,
			upgrade_date, end_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, true, true, $7, $8, $9, $10, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			subscription_id = EXCLUDED.subscription_id,
			plan_name = EXCLUDED.plan_name,
			price = EXCLUDED.price,
			usage_limit = EXCLUDED.usage_limit,
			services = EXCLUDED.services,
			is_verified = true,
			is_subscribed = true,
			start_date = EXCLUDED.start_date,
			next_billing_date = EXCLUDED.next_billing_date,
			upgrade_date = EXCLUDED.upgrade_date,
			end_date = EXCLUDED.end_date,
			updated_at = NOW()
	`
	_, err := persistence.Executor(ctx, r.pool).Exec(ctx, query,
		userID,
		install.SubscriptionID,
		install.Name,
		install.Price,
		install.UsageLimit,
		install.Services,
		install.StartDate,
		install.NextBillingDate,
		install.UpgradeDate,
		install.EndDate,
	)
	return err
}

// ArchiveCurrentPlan snapshots the current plan row into past_plans.
func (r *PostgresLedgerRepository) ArchiveCurrentPlan(ctx context.Context, userID uuid.UUID, endedAt time.Time) error {
	query := `
		INSERT INTO past_plans (user_id, snapshot, ended_at)
		SELECT user_id, to_jsonb(p) - 'user_id' - 'created_at' - 'updated_at', $2
		FROM plan_states p
		WHERE user_id = $1
	`
	_, err := persistence.Executor(ctx, r.pool).Exec(ctx, query, userID, endedAt)
	return err
}

// StagePurchase upserts the staged purchase into its slot.
func (r *PostgresLedgerRepository) StagePurchase(ctx context.Context, staged *domain.StagedPurchase) error {
	plan, err := json.Marshal(planCandidateRecord{
		SubscriptionID: staged.Plan.SubscriptionID,
		Name:           staged.Plan.Name,
		Price:          staged.Plan.Price,
		UsageLimit:     staged.Plan.UsageLimit,
		Duration:       staged.Plan.Duration,
		DurationUnit:   string(staged.Plan.DurationUnit),
		Services:       staged.Plan.Services,
	})
	if err != nil {
		return fmt.Errorf("marshal plan candidate: %w", err)
	}
	query := `
		INSERT INTO staged_purchases (user_id, slot, kind, gateway_order_id, amount, currency, plan, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, slot) DO UPDATE SET
			kind = EXCLUDED.kind,
			gateway_order_id = EXCLUDED.gateway_order_id,
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			plan = EXCLUDED.plan,
			created_at = EXCLUDED.created_at
	`
	_, err = persistence.Executor(ctx, r.pool).Exec(ctx, query,
		staged.UserID,
		string(staged.Kind.Slot()),
		string(staged.Kind),
		staged.GatewayOrderID,
		staged.Amount,
		staged.Currency,
		plan,
		staged.CreatedAt,
	)
	return err
}

const selectStaged = `
	SELECT user_id, kind, gateway_order_id, amount, currency, plan, created_at
	FROM staged_purchases
`

// FindStaged returns the staged purchase in the user's slot, or nil.
func (r *PostgresLedgerRepository) FindStaged(ctx context.Context, userID uuid.UUID, slot domain.Slot) (*domain.StagedPurchase, error) {
	row := persistence.Executor(ctx, r.pool).QueryRow(ctx,
		selectStaged+` WHERE user_id = $1 AND slot = $2`, userID, string(slot))
	return scanStagedOrNil(row)
}

// FindStagedByGatewayOrder returns the staged purchase opened against the
// gateway order, or nil.
func (r *PostgresLedgerRepository) FindStagedByGatewayOrder(ctx context.Context, gatewayOrderID string) (*domain.StagedPurchase, error) {
	row := persistence.Executor(ctx, r.pool).QueryRow(ctx,
		selectStaged+` WHERE gateway_order_id = $1`, gatewayOrderID)
	return scanStagedOrNil(row)
}

// ClearStaged removes the staged purchase from the user's slot.
func (r *PostgresLedgerRepository) ClearStaged(ctx context.Context, userID uuid.UUID, slot domain.Slot) error {
	_, err := persistence.Executor(ctx, r.pool).Exec(ctx,
		`DELETE FROM staged_purchases WHERE user_id = $1 AND slot = $2`, userID, string(slot))
	return err
}

// AppendBilling inserts the billing entry. The unique index on payment_id
// makes a webhook replay a detectable no-op instead of a duplicate row.
func (r *PostgresLedgerRepository) AppendBilling(ctx context.Context, entry *domain.BillingEntry) (bool, error) {
	query := `
		INSERT INTO billing_entries (
			id, user_id, subscription_id, plan_name, kind,
			gateway_order_id, payment_id, amount, currency, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (payment_id) DO NOTHING
	`
	tag, err := persistence.Executor(ctx, r.pool).Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.SubscriptionID,
		entry.PlanName,
		string(entry.Kind),
		entry.GatewayOrderID,
		entry.PaymentID,
		entry.Amount,
		entry.Currency,
		entry.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const selectBilling = `
	SELECT id, user_id, subscription_id, plan_name, kind,
	       gateway_order_id, payment_id, amount, currency, created_at
	FROM billing_entries
`

// FindBillingByPaymentID returns the billing entry for the payment id, or nil.
func (r *PostgresLedgerRepository) FindBillingByPaymentID(ctx context.Context, paymentID string) (*domain.BillingEntry, error) {
	row := persistence.Executor(ctx, r.pool).QueryRow(ctx,
		selectBilling+` WHERE payment_id = $1`, paymentID)
	entry, err := scanBilling(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

// ListBilling returns the user's billing history, newest first.
func (r *PostgresLedgerRepository) ListBilling(ctx context.Context, userID uuid.UUID) ([]*domain.BillingEntry, error) {
	rows, err := persistence.Executor(ctx, r.pool).Query(ctx,
		selectBilling+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.BillingEntry
	for rows.Next() {
		entry, err := scanBilling(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ConsumeUnit decrements the limit in one conditional statement. The
// verified/subscribed flags are recomputed from the decremented value, so
// consuming the last unit flips them false in the same update.
func (r *PostgresLedgerRepository) ConsumeUnit(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE plan_states
		SET usage_limit = usage_limit - 1,
		    is_verified = usage_limit - 1 > 0,
		    is_subscribed = usage_limit - 1 > 0,
		    updated_at = NOW()
		WHERE user_id = $1 AND is_verified = true AND usage_limit > 0
	`
	tag, err := persistence.Executor(ctx, r.pool).Exec(ctx, query, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLimitExhausted
	}
	return nil
}

// RefundUnit increments the limit in one conditional statement. The
// post-increment limit is always positive, so the flags come back true.
func (r *PostgresLedgerRepository) RefundUnit(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE plan_states
		SET usage_limit = usage_limit + 1,
		    is_verified = true,
		    is_subscribed = true,
		    updated_at = NOW()
		WHERE user_id = $1
	`
	tag, err := persistence.Executor(ctx, r.pool).Exec(ctx, query, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPlanStateNotFound
	}
	return nil
}

// ListDueRenewals returns staged renewals whose holder's plan is exhausted
// or expired, including holders whose plan state row is gone.
func (r *PostgresLedgerRepository) ListDueRenewals(ctx context.Context, now time.Time, limit int) ([]*domain.StagedPurchase, error) {
	query := `
		SELECT s.user_id, s.kind, s.gateway_order_id, s.amount, s.currency, s.plan, s.created_at
		FROM staged_purchases s
		LEFT JOIN plan_states p ON p.user_id = s.user_id
		WHERE s.slot = 'renewal'
		  AND (p.user_id IS NULL OR p.usage_limit <= 0 OR p.end_date <= $1)
		ORDER BY s.created_at
		LIMIT $2
	`
	rows, err := persistence.Executor(ctx, r.pool).Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staged []*domain.StagedPurchase
	for rows.Next() {
		s, err := scanStaged(rows)
		if err != nil {
			return nil, err
		}
		staged = append(staged, s)
	}
	return staged, rows.Err()
}

type planCandidateRecord struct {
	SubscriptionID uuid.UUID   `json:"subscriptionId"`
	Name           string      `json:"name"`
	Price          float64     `json:"price"`
	UsageLimit     int         `json:"usageLimit"`
	Duration       int         `json:"duration"`
	DurationUnit   string      `json:"durationUnit"`
	Services       []uuid.UUID `json:"services"`
}

func scanPlanState(row pgx.Row) (*domain.PlanState, error) {
	var state domain.PlanState
	err := row.Scan(
		&state.UserID,
		&state.SubscriptionID,
		&state.PlanName,
		&state.Price,
		&state.UsageLimit,
		&state.Services,
		&state.IsVerified,
		&state.IsSubscribed,
		&state.StartDate,
		&state.NextBillingDate,
		&state.UpgradeDate,
		&state.EndDate,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func scanStagedOrNil(row pgx.Row) (*domain.StagedPurchase, error) {
	staged, err := scanStaged(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return staged, nil
}

func scanStaged(row pgx.Row) (*domain.StagedPurchase, error) {
	var (
		staged   domain.StagedPurchase
		kind     string
		planJSON []byte
	)
	err := row.Scan(
		&staged.UserID,
		&kind,
		&staged.GatewayOrderID,
		&staged.Amount,
		&staged.Currency,
		&planJSON,
		&staged.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	var record planCandidateRecord
	if err := json.Unmarshal(planJSON, &record); err != nil {
		return nil, fmt.Errorf("unmarshal plan candidate: %w", err)
	}
	staged.Kind = domain.Kind(kind)
	staged.Plan = domain.PlanCandidate{
		SubscriptionID: record.SubscriptionID,
		Name:           record.Name,
		Price:          record.Price,
		UsageLimit:     record.UsageLimit,
		Duration:       record.Duration,
		DurationUnit:   catalogDomain.DurationUnit(record.DurationUnit),
		Services:       record.Services,
	}
	return &staged, nil
}

func scanBilling(row pgx.Row) (*domain.BillingEntry, error) {
	var (
		entry domain.BillingEntry
		kind  string
	)
	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.SubscriptionID,
		&entry.PlanName,
		&kind,
		&entry.GatewayOrderID,
		&entry.PaymentID,
		&entry.Amount,
		&entry.Currency,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.Kind = domain.Kind(kind)
	return &entry, nil
}
