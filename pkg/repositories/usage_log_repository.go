package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/inkwell-ai/inkwell-engine/pkg/database"
	"github.com/inkwell-ai/inkwell-engine/pkg/models"
)

// UsageLogRepository provides access to the append-only usage audit log.
// There is deliberately no update or delete: rows are write-once.
type UsageLogRepository interface {
	// Append writes one usage log entry. Duplicate (user, action, request
	// key) appends are silently dropped.
	Append(ctx context.Context, entry *models.UsageLogEntry) error

	// ListByUser returns up to limit entries newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.UsageLogEntry, error)
}

type usageLogRepository struct {
	db *database.DB
}

// NewUsageLogRepository creates a new UsageLogRepository.
func NewUsageLogRepository(db *database.DB) UsageLogRepository {
	return &usageLogRepository{db: db}
}

var _ UsageLogRepository = (*usageLogRepository)(nil)

func (r *usageLogRepository) Append(ctx context.Context, entry *models.UsageLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO usage_log (id, user_id, action, credits_charged, request_key)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, action, request_key) DO NOTHING`,
		entry.ID, entry.UserID, entry.Action, entry.CreditsCharged, entry.RequestKey,
	)
	if err != nil {
		return fmt.Errorf("failed to append usage log entry: %w", err)
	}

	return nil
}

func (r *usageLogRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.UsageLogEntry, error) {
	query := `
		SELECT id, user_id, action, credits_charged, request_key, created_at
		FROM usage_log
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage log entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.UsageLogEntry, 0)
	for rows.Next() {
		var e models.UsageLogEntry
		err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.CreditsCharged, &e.RequestKey, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage log entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage log entries: %w", err)
	}

	return entries, nil
}
