package interests

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	perrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type InterestsRepo interface {
	// Express records a buyer's interest in a vehicle. Expressing interest
	// twice leaves a single row and is not an error.
	Express(ctx context.Context, vehicleID, buyerID uuid.UUID, message string) error
	Withdraw(ctx context.Context, vehicleID, buyerID uuid.UUID) error
	ListForBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.BuyerInterest, error)
	ListForVehicle(ctx context.Context, vehicleID uuid.UUID) ([]models.BuyerInterest, error)
}

type PostgresInterestsRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresInterestsRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresInterestsRepo {
	return &PostgresInterestsRepo{logger: logger, pgpool: pgpool}
}

func (r *PostgresInterestsRepo) Express(ctx context.Context, vehicleID, buyerID uuid.UUID, message string) error {
	query, args, err := psql.Insert("buyer_interests").
		Columns("vehicle_id", "buyer_id", "message").
		Values(vehicleID, buyerID, message).
		Suffix("ON CONFLICT (vehicle_id, buyer_id) DO NOTHING").
		ToSql()
	if err != nil {
		return perrors.Wrap(err, "building interest insert")
	}

	tag, err := r.pgpool.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				r.logger.Debug("Duplicate interest ignored",
					zap.Stringer("vehicleID", vehicleID), zap.Stringer("buyerID", buyerID))
				return nil
			case "23503":
				return models.ErrNotFound
			}
		}
		return perrors.Wrap(err, "expressing interest")
	}
	if tag.RowsAffected() == 0 {
		r.logger.Debug("Duplicate interest ignored",
			zap.Stringer("vehicleID", vehicleID), zap.Stringer("buyerID", buyerID))
	}
	return nil
}

func (r *PostgresInterestsRepo) Withdraw(ctx context.Context, vehicleID, buyerID uuid.UUID) error {
	query, args, err := psql.Delete("buyer_interests").
		Where(sq.Eq{"vehicle_id": vehicleID, "buyer_id": buyerID}).
		ToSql()
	if err != nil {
		return perrors.Wrap(err, "building interest delete")
	}

	tag, err := r.pgpool.Exec(ctx, query, args...)
	if err != nil {
		return perrors.Wrap(err, "withdrawing interest")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PostgresInterestsRepo) list(ctx context.Context, pred sq.Eq) ([]models.BuyerInterest, error) {
	query, args, err := psql.
		Select("id", "vehicle_id", "buyer_id", "message", "created_at").
		From("buyer_interests").
		Where(pred).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, perrors.Wrap(err, "building interest list query")
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, perrors.Wrap(err, "listing interests")
	}
	defer rows.Close()

	var out []models.BuyerInterest
	for rows.Next() {
		var bi models.BuyerInterest
		if err := rows.Scan(&bi.ID, &bi.VehicleID, &bi.BuyerID, &bi.Message, &bi.CreatedAt); err != nil {
			return nil, perrors.Wrap(err, "scanning interest")
		}
		out = append(out, bi)
	}
	return out, rows.Err()
}

func (r *PostgresInterestsRepo) ListForBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.BuyerInterest, error) {
	return r.list(ctx, sq.Eq{"buyer_id": buyerID})
}

func (r *PostgresInterestsRepo) ListForVehicle(ctx context.Context, vehicleID uuid.UUID) ([]models.BuyerInterest, error) {
	return r.list(ctx, sq.Eq{"vehicle_id": vehicleID})
}
