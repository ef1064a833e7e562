package company

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	perrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type CompanyRepo interface {
	GetInfo(ctx context.Context) (*models.CompanyInfo, error)
	ListLeadership(ctx context.Context) ([]models.LeadershipMember, error)
	ListAwards(ctx context.Context) ([]models.CompanyAward, error)
	ListBranches(ctx context.Context) ([]models.BranchLocation, error)
}

type PostgresCompanyRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresCompanyRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresCompanyRepo {
	return &PostgresCompanyRepo{logger: logger, pgpool: pgpool}
}

func (r *PostgresCompanyRepo) GetInfo(ctx context.Context) (*models.CompanyInfo, error) {
	query, args, err := psql.
		Select("id", "name", "about", "email", "phone", "updated_at").
		From("company_info").
		OrderBy("updated_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, perrors.Wrap(err, "building company info query")
	}

	var info models.CompanyInfo
	err = r.pgpool.QueryRow(ctx, query, args...).
		Scan(&info.ID, &info.Name, &info.About, &info.Email, &info.Phone, &info.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, perrors.Wrap(err, "fetching company info")
	}
	return &info, nil
}

func (r *PostgresCompanyRepo) ListLeadership(ctx context.Context) ([]models.LeadershipMember, error) {
	query, args, err := psql.
		Select("id", "name", "position", "COALESCE(photo_url, '')", "ordering").
		From("leadership_team").
		OrderBy("ordering", "name").
		ToSql()
	if err != nil {
		return nil, perrors.Wrap(err, "building leadership query")
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, perrors.Wrap(err, "listing leadership")
	}
	defer rows.Close()

	var out []models.LeadershipMember
	for rows.Next() {
		var m models.LeadershipMember
		if err := rows.Scan(&m.ID, &m.Name, &m.Position, &m.PhotoURL, &m.Ordering); err != nil {
			return nil, perrors.Wrap(err, "scanning leadership member")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresCompanyRepo) ListAwards(ctx context.Context) ([]models.CompanyAward, error) {
	query, args, err := psql.
		Select("id", "title", "year", "issuer", "COALESCE(photo_url, '')").
		From("company_awards").
		OrderBy("year DESC").
		ToSql()
	if err != nil {
		return nil, perrors.Wrap(err, "building awards query")
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, perrors.Wrap(err, "listing awards")
	}
	defer rows.Close()

	var out []models.CompanyAward
	for rows.Next() {
		var a models.CompanyAward
		if err := rows.Scan(&a.ID, &a.Title, &a.Year, &a.Issuer, &a.PhotoURL); err != nil {
			return nil, perrors.Wrap(err, "scanning award")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresCompanyRepo) ListBranches(ctx context.Context) ([]models.BranchLocation, error) {
	query, args, err := psql.
		Select("id", "name", "address", "city", "phone").
		From("branch_locations").
		OrderBy("city", "name").
		ToSql()
	if err != nil {
		return nil, perrors.Wrap(err, "building branches query")
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, perrors.Wrap(err, "listing branches")
	}
	defer rows.Close()

	var out []models.BranchLocation
	for rows.Next() {
		var b models.BranchLocation
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.City, &b.Phone); err != nil {
			return nil, perrors.Wrap(err, "scanning branch")
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
