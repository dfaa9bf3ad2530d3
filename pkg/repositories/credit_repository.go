package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/inkwell-ai/inkwell-engine/pkg/database"
	"github.com/inkwell-ai/inkwell-engine/pkg/models"
)

// CreditRepository provides data access for per-user metering state.
// The balance row is also mutated by the external billing collaborator
// (plan changes, period resets), so every write here is idempotent with
// respect to retries and tolerant of racing writers.
type CreditRepository interface {
	// Get returns the user's balance, creating a zero row if none exists
	// and rolling the period counters forward when a new billing month has
	// started. The roll-forward is guarded by a date comparison so it is a
	// no-op if the external billing writer already reset the period.
	Get(ctx context.Context, userID uuid.UUID) (*models.CreditBalance, error)

	// Settle atomically deducts cost from the balance (floored at zero),
	// increments the period usage, and appends the usage log entry - all
	// in one transaction. A repeated call with the same action and request
	// key is a no-op returning charged=0: the usage log's uniqueness
	// constraint is the idempotency guard.
	Settle(ctx context.Context, entry *models.UsageLogEntry) (charged int, err error)
}

type creditRepository struct {
	db *database.DB
}

// NewCreditRepository creates a new CreditRepository.
func NewCreditRepository(db *database.DB) CreditRepository {
	return &creditRepository{db: db}
}

var _ CreditRepository = (*creditRepository)(nil)

func (r *creditRepository) Get(ctx context.Context, userID uuid.UUID) (*models.CreditBalance, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO credit_balances (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure credit balance: %w", err)
	}

	// New billing month: zero the period counter. Idempotent against the
	// external billing writer doing the same reset.
	_, err = r.db.Exec(ctx, `
		UPDATE credit_balances
		SET used_this_period = 0,
		    last_reset_date = date_trunc('month', CURRENT_DATE),
		    updated_at = now()
		WHERE user_id = $1
		  AND last_reset_date < date_trunc('month', CURRENT_DATE)`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to roll credit period forward: %w", err)
	}

	var b models.CreditBalance
	err = r.db.QueryRow(ctx, `
		SELECT user_id, remaining, used_this_period, last_reset_date, updated_at
		FROM credit_balances
		WHERE user_id = $1`,
		userID,
	).Scan(&b.UserID, &b.Remaining, &b.UsedThisPeriod, &b.LastResetDate, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get credit balance: %w", err)
	}

	return &b, nil
}

func (r *creditRepository) Settle(ctx context.Context, entry *models.UsageLogEntry) (int, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin settlement transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The usage log append doubles as the idempotency guard: a retried
	// settlement for the same request key inserts nothing and charges
	// nothing.
	var logID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO usage_log (id, user_id, action, credits_charged, request_key)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, action, request_key) DO NOTHING
		RETURNING id`,
		entry.ID, entry.UserID, entry.Action, entry.CreditsCharged, entry.RequestKey,
	).Scan(&logID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to append usage log entry: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE credit_balances
		SET remaining = GREATEST(remaining - $2, 0),
		    used_this_period = used_this_period + $2,
		    updated_at = now()
		WHERE user_id = $1`,
		entry.UserID, entry.CreditsCharged,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to deduct credits: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit settlement: %w", err)
	}

	return entry.CreditsCharged, nil
}
