package vehicles

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

var _ SearchRecorder = (*PostgresSearchRecorder)(nil)

// SearchRecorder persists search analytics rows. Recording is best-effort;
// a failed insert never fails the search itself.
type SearchRecorder interface {
	Record(ctx context.Context, rec models.SearchRecord) error
}

type PostgresSearchRecorder struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresSearchRecorder(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresSearchRecorder {
	return &PostgresSearchRecorder{logger: logger, pgpool: pgpool}
}

func (r *PostgresSearchRecorder) Record(ctx context.Context, rec models.SearchRecord) error {
	var userID any
	if rec.UserID != nil && *rec.UserID != uuid.Nil {
		userID = *rec.UserID
	}
	matched := rec.MatchedMakes
	if matched == nil {
		matched = []string{}
	}
	query := `INSERT INTO search_analytics (user_id, query, matched_makes, result_count)
	          VALUES ($1, $2, $3, $4)`
	if _, err := r.pgpool.Exec(ctx, query, userID, rec.Query, matched, rec.ResultCount); err != nil {
		r.logger.Warn("Failed to record search", zap.Error(err), zap.String("query", rec.Query))
		return fmt.Errorf("database error recording search: %w", err)
	}
	return nil
}
