package documents

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

type DocumentsRepo interface {
	InsertDocument(ctx context.Context, doc *models.VehicleDocument) (uuid.UUID, error)
	ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]models.VehicleDocument, error)
	// RecordCCUpload inserts a clearance-certificate record. A second call
	// for the same (vehicle, uploader) pair is a no-op.
	RecordCCUpload(ctx context.Context, rec *models.CCUpload) error
	GetCCUpload(ctx context.Context, vehicleID, uploaderID uuid.UUID) (*models.CCUpload, error)
}

type PostgresDocumentsRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresDocumentsRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresDocumentsRepo {
	return &PostgresDocumentsRepo{logger: logger, pgpool: pgpool}
}

func (r *PostgresDocumentsRepo) InsertDocument(ctx context.Context, doc *models.VehicleDocument) (uuid.UUID, error) {
	query, args, err := psql.Insert("vehicle_documents").
		Columns("vehicle_id", "uploader_id", "kind", "storage_key", "content_type").
		Values(doc.VehicleID, doc.UploaderID, doc.Kind, doc.StorageKey, doc.ContentType).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, perrors.Wrap(err, "building document insert")
	}

	var id uuid.UUID
	if err := r.pgpool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return uuid.Nil, models.ErrNotFound
		}
		return uuid.Nil, perrors.Wrap(err, "inserting vehicle document")
	}
	return id, nil
}

func (r *PostgresDocumentsRepo) ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]models.VehicleDocument, error) {
	query, args, err := psql.
		Select("id", "vehicle_id", "uploader_id", "kind", "storage_key", "content_type", "created_at").
		From("vehicle_documents").
		Where(sq.Eq{"vehicle_id": vehicleID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, perrors.Wrap(err, "building document list query")
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, perrors.Wrap(err, "listing vehicle documents")
	}
	defer rows.Close()

	var docs []models.VehicleDocument
	for rows.Next() {
		var d models.VehicleDocument
		if err := rows.Scan(&d.ID, &d.VehicleID, &d.UploaderID, &d.Kind, &d.StorageKey, &d.ContentType, &d.CreatedAt); err != nil {
			return nil, perrors.Wrap(err, "scanning vehicle document")
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *PostgresDocumentsRepo) RecordCCUpload(ctx context.Context, rec *models.CCUpload) error {
	query, args, err := psql.Insert("vehicle_cc_uploads").
		Columns("vehicle_id", "uploader_id", "storage_key").
		Values(rec.VehicleID, rec.UploaderID, rec.StorageKey).
		Suffix("ON CONFLICT (vehicle_id, uploader_id) DO NOTHING").
		ToSql()
	if err != nil {
		return perrors.Wrap(err, "building cc upload insert")
	}

	tag, err := r.pgpool.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.logger.Debug("Duplicate CC upload ignored",
				zap.Stringer("vehicleID", rec.VehicleID),
				zap.Stringer("uploaderID", rec.UploaderID))
			return nil
		}
		return perrors.Wrap(err, "recording cc upload")
	}
	if tag.RowsAffected() == 0 {
		r.logger.Debug("Duplicate CC upload ignored",
			zap.Stringer("vehicleID", rec.VehicleID),
			zap.Stringer("uploaderID", rec.UploaderID))
	}
	return nil
}

func (r *PostgresDocumentsRepo) GetCCUpload(ctx context.Context, vehicleID, uploaderID uuid.UUID) (*models.CCUpload, error) {
	query, args, err := psql.
		Select("id", "vehicle_id", "uploader_id", "storage_key", "created_at").
		From("vehicle_cc_uploads").
		Where(sq.Eq{"vehicle_id": vehicleID, "uploader_id": uploaderID}).
		ToSql()
	if err != nil {
		return nil, perrors.Wrap(err, "building cc upload query")
	}

	var rec models.CCUpload
	err = r.pgpool.QueryRow(ctx, query, args...).
		Scan(&rec.ID, &rec.VehicleID, &rec.UploaderID, &rec.StorageKey, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, perrors.Wrap(err, "fetching cc upload")
	}
	return &rec, nil
}
