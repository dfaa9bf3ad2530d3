package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/inkwell-ai/inkwell-engine/pkg/database"
	"github.com/inkwell-ai/inkwell-engine/pkg/models"
)

// PatternRepository provides data access for aggregate pattern analyses.
// "Current" is a stored fact in the current_pattern_analyses pointer table,
// swapped atomically with each insert; superseded rows are retained but
// unreachable via GetCurrent.
type PatternRepository interface {
	// GetCurrent returns the user's current analysis, or nil if none exists.
	GetCurrent(ctx context.Context, userID uuid.UUID) (*models.PatternAnalysis, error)

	// Insert persists a new analysis row and repoints the current pointer
	// to it in the same transaction. This is the only write path that may
	// create a current analysis.
	Insert(ctx context.Context, analysis *models.PatternAnalysis) error

	// ListHistory returns up to limit analyses newest first, including
	// superseded rows.
	ListHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*models.PatternAnalysis, error)
}

type patternRepository struct {
	db *database.DB
}

// NewPatternRepository creates a new PatternRepository.
func NewPatternRepository(db *database.DB) PatternRepository {
	return &patternRepository{db: db}
}

var _ PatternRepository = (*patternRepository)(nil)

func (r *patternRepository) GetCurrent(ctx context.Context, userID uuid.UUID) (*models.PatternAnalysis, error) {
	query := `
		SELECT p.id, p.user_id, p.payload, p.entries_covered, p.latest_source_date,
		       p.schema_version, p.language, p.created_at
		FROM current_pattern_analyses c
		JOIN pattern_analyses p ON p.id = c.analysis_id
		WHERE c.user_id = $1`

	analysis, err := scanPatternAnalysis(r.db.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current pattern analysis: %w", err)
	}

	return analysis, nil
}

func (r *patternRepository) Insert(ctx context.Context, analysis *models.PatternAnalysis) error {
	if analysis.ID == uuid.Nil {
		analysis.ID = uuid.New()
	}
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = time.Now()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO pattern_analyses (
			id, user_id, payload, entries_covered, latest_source_date,
			schema_version, language, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		analysis.ID, analysis.UserID, analysis.Payload, analysis.EntriesCovered,
		analysis.LatestSourceDate, analysis.SchemaVersion, analysis.Language,
		analysis.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pattern analysis: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO current_pattern_analyses (user_id, analysis_id, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id)
		DO UPDATE SET analysis_id = EXCLUDED.analysis_id, updated_at = EXCLUDED.updated_at`,
		analysis.UserID, analysis.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update current analysis pointer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit pattern analysis: %w", err)
	}

	return nil
}

func (r *patternRepository) ListHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*models.PatternAnalysis, error) {
	query := `
		SELECT id, user_id, payload, entries_covered, latest_source_date,
		       schema_version, language, created_at
		FROM pattern_analyses
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pattern analyses: %w", err)
	}
	defer rows.Close()

	analyses := make([]*models.PatternAnalysis, 0)
	for rows.Next() {
		a, err := scanPatternAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pattern analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pattern analyses: %w", err)
	}

	return analyses, nil
}

// scanPatternAnalysis scans one pattern_analyses row.
func scanPatternAnalysis(row pgx.Row) (*models.PatternAnalysis, error) {
	var a models.PatternAnalysis
	err := row.Scan(
		&a.ID, &a.UserID, &a.Payload, &a.EntriesCovered, &a.LatestSourceDate,
		&a.SchemaVersion, &a.Language, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
