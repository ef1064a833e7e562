package catalog

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	perrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type CatalogRepo interface {
	ListMakes(ctx context.Context) ([]models.TractorMake, error)
	ListModels(ctx context.Context, makeID uuid.UUID) ([]models.TractorModel, error)
	// AllNames returns every make and model name for the search matcher.
	AllNames(ctx context.Context) ([]string, error)
}

type PostgresCatalogRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresCatalogRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresCatalogRepo {
	return &PostgresCatalogRepo{logger: logger, pgpool: pgpool}
}

func (r *PostgresCatalogRepo) ListMakes(ctx context.Context) ([]models.TractorMake, error) {
	query, args, err := psql.Select("id", "name").From("tractor_makes").OrderBy("name").ToSql()
	if err != nil {
		return nil, perrors.Wrap(err, "building makes query")
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, perrors.Wrap(err, "listing makes")
	}
	defer rows.Close()

	var out []models.TractorMake
	for rows.Next() {
		var m models.TractorMake
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, perrors.Wrap(err, "scanning make")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresCatalogRepo) ListModels(ctx context.Context, makeID uuid.UUID) ([]models.TractorModel, error) {
	query, args, err := psql.Select("id", "make_id", "name").
		From("tractor_models").
		Where(sq.Eq{"make_id": makeID}).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, perrors.Wrap(err, "building models query")
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, perrors.Wrap(err, "listing models")
	}
	defer rows.Close()

	var out []models.TractorModel
	for rows.Next() {
		var m models.TractorModel
		if err := rows.Scan(&m.ID, &m.MakeID, &m.Name); err != nil {
			return nil, perrors.Wrap(err, "scanning model")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresCatalogRepo) AllNames(ctx context.Context) ([]string, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT name FROM tractor_makes UNION SELECT name FROM tractor_models ORDER BY name`)
	if err != nil {
		return nil, perrors.Wrap(err, "listing catalog names")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, perrors.Wrap(err, "scanning catalog name")
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
