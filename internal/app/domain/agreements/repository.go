package agreements

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	perrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type AgreementsRepo interface {
	Create(ctx context.Context, a *models.Agreement) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Agreement, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Agreement, error)
	// Sign moves a draft to signed and records the signed document key.
	// Signing an already-signed agreement returns ErrConflict.
	Sign(ctx context.Context, id uuid.UUID, documentKey string) error
}

type PostgresAgreementsRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresAgreementsRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresAgreementsRepo {
	return &PostgresAgreementsRepo{logger: logger, pgpool: pgpool}
}

func (r *PostgresAgreementsRepo) Create(ctx context.Context, a *models.Agreement) (uuid.UUID, error) {
	query, args, err := psql.Insert("agreements").
		Columns("vehicle_id", "seller_id", "buyer_id", "price_rupees", "status").
		Values(a.VehicleID, a.SellerID, a.BuyerID, a.PriceRupees, models.AgreementStatusDraft).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, perrors.Wrap(err, "building agreement insert")
	}

	var id uuid.UUID
	if err := r.pgpool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return uuid.Nil, models.ErrNotFound
		}
		return uuid.Nil, perrors.Wrap(err, "inserting agreement")
	}
	return id, nil
}

func scanAgreement(row pgx.Row, a *models.Agreement) error {
	var documentKey *string
	err := row.Scan(&a.ID, &a.VehicleID, &a.SellerID, &a.BuyerID,
		&a.PriceRupees, &a.Status, &documentKey, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return err
	}
	if documentKey != nil {
		a.DocumentKey = *documentKey
	}
	return nil
}

func (r *PostgresAgreementsRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Agreement, error) {
	query, args, err := psql.
		Select("id", "vehicle_id", "seller_id", "buyer_id", "price_rupees", "status", "document_key", "created_at", "updated_at").
		From("agreements").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, perrors.Wrap(err, "building agreement query")
	}

	var a models.Agreement
	if err := scanAgreement(r.pgpool.QueryRow(ctx, query, args...), &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, perrors.Wrap(err, "fetching agreement")
	}
	return &a, nil
}

func (r *PostgresAgreementsRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Agreement, error) {
	query, args, err := psql.
		Select("id", "vehicle_id", "seller_id", "buyer_id", "price_rupees", "status", "document_key", "created_at", "updated_at").
		From("agreements").
		Where(sq.Or{sq.Eq{"seller_id": userID}, sq.Eq{"buyer_id": userID}}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, perrors.Wrap(err, "building agreement list query")
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, perrors.Wrap(err, "listing agreements")
	}
	defer rows.Close()

	var out []models.Agreement
	for rows.Next() {
		var a models.Agreement
		if err := scanAgreement(rows, &a); err != nil {
			return nil, perrors.Wrap(err, "scanning agreement")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresAgreementsRepo) Sign(ctx context.Context, id uuid.UUID, documentKey string) error {
	query, args, err := psql.Update("agreements").
		Set("status", models.AgreementStatusSigned).
		Set("document_key", documentKey).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "status": models.AgreementStatusDraft}).
		ToSql()
	if err != nil {
		return perrors.Wrap(err, "building agreement sign update")
	}

	tag, err := r.pgpool.Exec(ctx, query, args...)
	if err != nil {
		return perrors.Wrap(err, "signing agreement")
	}
	if tag.RowsAffected() == 0 {
		// Either missing or already signed; the caller fetched it first,
		// so treat it as a state conflict.
		return models.ErrConflict
	}
	return nil
}
