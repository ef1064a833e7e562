package vehicles

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
	"github.com/tractorbazar/marketplace/internal/app/observability/metrics"
)

var _ VehiclesRepo = (*PostgresVehiclesRepo)(nil)

type VehiclesRepo interface {
	Create(ctx context.Context, v *models.Vehicle) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	// UpdateListing rewrites listing fields; scoped by seller so one seller
	// can never touch another's row.
	UpdateListing(ctx context.Context, sellerID uuid.UUID, v *models.Vehicle) error
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Vehicle, error)
	// ListPublic returns approved listings matching the filter.
	ListPublic(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, error)
	// SearchPublic is ListPublic plus a free-text predicate.
	SearchPublic(ctx context.Context, text string, filter models.VehicleFilter) ([]models.Vehicle, error)
	// SetStatus is the admin moderation path.
	SetStatus(ctx context.Context, id uuid.UUID, status models.VehicleStatus, rejectReason string) error
	// MarkSold is seller-scoped.
	MarkSold(ctx context.Context, sellerID, id uuid.UUID) error
	ListByStatus(ctx context.Context, status models.VehicleStatus) ([]models.Vehicle, error)
}

type PostgresVehiclesRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresVehiclesRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresVehiclesRepo {
	return &PostgresVehiclesRepo{logger: logger, pgpool: pgpool}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var vehicleColumns = []string{
	"id", "seller_id", "title", "make", "model", "year", "price_rupees",
	"hours_used", "description", "status", "COALESCE(reject_reason, '')",
	"photo_keys", "created_at", "updated_at",
}

func scanVehicle(row pgx.Row) (*models.Vehicle, error) {
	var v models.Vehicle
	err := row.Scan(&v.ID, &v.SellerID, &v.Title, &v.Make, &v.Model, &v.Year,
		&v.PriceRupees, &v.HoursUsed, &v.Description, &v.Status,
		&v.RejectReason, &v.PhotoKeys, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *PostgresVehiclesRepo) collect(ctx context.Context, query string, args ...any) ([]models.Vehicle, error) {
	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		metrics.DBQueryError(ctx)
		r.logger.Error("Vehicle query failed", zap.Error(err))
		return nil, fmt.Errorf("database error querying vehicles: %w", err)
	}
	defer rows.Close()

	var result []models.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning vehicle: %w", err)
		}
		result = append(result, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error reading vehicles: %w", err)
	}
	return result, nil
}

func (r *PostgresVehiclesRepo) Create(ctx context.Context, v *models.Vehicle) (uuid.UUID, error) {
	var id uuid.UUID
	query := `INSERT INTO vehicles (seller_id, title, make, model, year, price_rupees, hours_used, description, photo_keys)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := r.pgpool.QueryRow(ctx, query, v.SellerID, v.Title, v.Make, v.Model,
		v.Year, v.PriceRupees, v.HoursUsed, v.Description, v.PhotoKeys).Scan(&id)
	if err != nil {
		r.logger.Error("Error inserting vehicle", zap.Error(err), zap.Stringer("sellerID", v.SellerID))
		return uuid.Nil, fmt.Errorf("database error inserting vehicle: %w", err)
	}
	return id, nil
}

func (r *PostgresVehiclesRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	query, args, err := psql.Select(vehicleColumns...).From("vehicles").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build vehicle query: %w", err)
	}
	v, err := scanVehicle(r.pgpool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("vehicle %s not found: %w", id, models.ErrNotFound)
		}
		r.logger.Error("Error fetching vehicle", zap.Error(err), zap.Stringer("id", id))
		return nil, fmt.Errorf("database error fetching vehicle: %w", err)
	}
	return v, nil
}

func (r *PostgresVehiclesRepo) UpdateListing(ctx context.Context, sellerID uuid.UUID, v *models.Vehicle) error {
	query := `UPDATE vehicles
	          SET title = $1, make = $2, model = $3, year = $4, price_rupees = $5,
	              hours_used = $6, description = $7, photo_keys = $8,
	              status = 'pending', reject_reason = NULL, updated_at = now()
	          WHERE id = $9 AND seller_id = $10`
	tag, err := r.pgpool.Exec(ctx, query, v.Title, v.Make, v.Model, v.Year,
		v.PriceRupees, v.HoursUsed, v.Description, v.PhotoKeys, v.ID, sellerID)
	if err != nil {
		r.logger.Error("Error updating vehicle", zap.Error(err), zap.Stringer("id", v.ID))
		return fmt.Errorf("database error updating vehicle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vehicle %s not found for seller: %w", v.ID, models.ErrNotFound)
	}
	return nil
}

func (r *PostgresVehiclesRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Vehicle, error) {
	query, args, err := psql.Select(vehicleColumns...).From("vehicles").
		Where(sq.Eq{"seller_id": sellerID}).
		OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build seller listing query: %w", err)
	}
	return r.collect(ctx, query, args...)
}

func publicQuery(filter models.VehicleFilter) sq.SelectBuilder {
	q := psql.Select(vehicleColumns...).From("vehicles").
		Where(sq.Eq{"status": models.VehicleStatusApproved})
	if filter.Make != "" {
		q = q.Where(sq.Eq{"make": filter.Make})
	}
	if filter.Model != "" {
		q = q.Where(sq.Eq{"model": filter.Model})
	}
	if filter.MinPrice > 0 {
		q = q.Where(sq.GtOrEq{"price_rupees": filter.MinPrice})
	}
	if filter.MaxPrice > 0 {
		q = q.Where(sq.LtOrEq{"price_rupees": filter.MaxPrice})
	}
	if filter.MinYear > 0 {
		q = q.Where(sq.GtOrEq{"year": filter.MinYear})
	}
	if filter.MaxYear > 0 {
		q = q.Where(sq.LtOrEq{"year": filter.MaxYear})
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q = q.OrderBy("created_at DESC").Limit(uint64(limit))
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}

func (r *PostgresVehiclesRepo) ListPublic(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, error) {
	query, args, err := publicQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build public listing query: %w", err)
	}
	return r.collect(ctx, query, args...)
}

func (r *PostgresVehiclesRepo) SearchPublic(ctx context.Context, text string, filter models.VehicleFilter) ([]models.Vehicle, error) {
	q := publicQuery(filter)
	if text != "" {
		pattern := "%" + text + "%"
		q = q.Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"make": pattern},
			sq.ILike{"model": pattern},
			sq.ILike{"description": pattern},
		})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}
	return r.collect(ctx, query, args...)
}

func (r *PostgresVehiclesRepo) SetStatus(ctx context.Context, id uuid.UUID, status models.VehicleStatus, rejectReason string) error {
	var reason any
	if rejectReason != "" {
		reason = rejectReason
	}
	query := `UPDATE vehicles SET status = $1, reject_reason = $2, updated_at = now() WHERE id = $3`
	tag, err := r.pgpool.Exec(ctx, query, status, reason, id)
	if err != nil {
		r.logger.Error("Error setting vehicle status", zap.Error(err), zap.Stringer("id", id))
		return fmt.Errorf("database error setting vehicle status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vehicle %s not found: %w", id, models.ErrNotFound)
	}
	return nil
}

func (r *PostgresVehiclesRepo) MarkSold(ctx context.Context, sellerID, id uuid.UUID) error {
	query := `UPDATE vehicles SET status = 'sold', updated_at = now()
	          WHERE id = $1 AND seller_id = $2 AND status = 'approved'`
	tag, err := r.pgpool.Exec(ctx, query, id, sellerID)
	if err != nil {
		r.logger.Error("Error marking vehicle sold", zap.Error(err), zap.Stringer("id", id))
		return fmt.Errorf("database error marking vehicle sold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vehicle %s not approved or not owned: %w", id, models.ErrNotFound)
	}
	return nil
}

func (r *PostgresVehiclesRepo) ListByStatus(ctx context.Context, status models.VehicleStatus) ([]models.Vehicle, error) {
	query, args, err := psql.Select(vehicleColumns...).From("vehicles").
		Where(sq.Eq{"status": status}).
		OrderBy("created_at ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build status listing query: %w", err)
	}
	return r.collect(ctx, query, args...)
}
