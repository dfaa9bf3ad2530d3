package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/inkwell-ai/inkwell-engine/pkg/database"
	"github.com/inkwell-ai/inkwell-engine/pkg/models"
)

// EntryRepository provides read access to journal entries and their
// per-entry analyses. Soft-deleted entries never leave this layer.
type EntryRepository interface {
	// CountEligible returns how many of the user's live entries carry a
	// per-entry analysis.
	CountEligible(ctx context.Context, userID uuid.UUID) (int, error)

	// ListAnalyzedRecent returns up to limit analyzed entries, newest
	// entry date first, paired with their analyses.
	ListAnalyzedRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.AnalyzedEntry, error)
}

type entryRepository struct {
	db *database.DB
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db *database.DB) EntryRepository {
	return &entryRepository{db: db}
}

var _ EntryRepository = (*entryRepository)(nil)

func (r *entryRepository) CountEligible(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM journal_entries e
		JOIN entry_analyses a ON a.entry_id = e.id
		WHERE e.user_id = $1 AND NOT e.deleted`

	var count int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count eligible entries: %w", err)
	}

	return count, nil
}

func (r *entryRepository) ListAnalyzedRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.AnalyzedEntry, error) {
	query := `
		SELECT e.id, e.user_id, e.body, e.entry_date, e.tags, e.created_at, e.updated_at,
		       a.id, a.entry_id, a.themes, a.emotions, a.symbols, a.summary, a.reflection, a.created_at
		FROM journal_entries e
		JOIN entry_analyses a ON a.entry_id = e.id
		WHERE e.user_id = $1 AND NOT e.deleted
		ORDER BY e.entry_date DESC, e.created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyzed entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.AnalyzedEntry, 0)
	for rows.Next() {
		var ae models.AnalyzedEntry
		err := rows.Scan(
			&ae.Entry.ID, &ae.Entry.UserID, &ae.Entry.Body, &ae.Entry.EntryDate,
			&ae.Entry.Tags, &ae.Entry.CreatedAt, &ae.Entry.UpdatedAt,
			&ae.Analysis.ID, &ae.Analysis.EntryID, &ae.Analysis.Themes,
			&ae.Analysis.Emotions, &ae.Analysis.Symbols, &ae.Analysis.Summary,
			&ae.Analysis.Reflection, &ae.Analysis.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analyzed entry: %w", err)
		}
		entries = append(entries, ae)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyzed entries: %w", err)
	}

	return entries, nil
}
