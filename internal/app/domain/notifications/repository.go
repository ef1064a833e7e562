package notifications

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

type NotificationsRepo interface {
	Insert(ctx context.Context, n *models.Notification) (uuid.UUID, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

type PostgresNotificationsRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresNotificationsRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresNotificationsRepo {
	return &PostgresNotificationsRepo{logger: logger, pgpool: pgpool}
}

func (r *PostgresNotificationsRepo) Insert(ctx context.Context, n *models.Notification) (uuid.UUID, error) {
	query, args, err := psql.Insert("notifications").
		Columns("user_id", "title", "body").
		Values(n.UserID, n.Title, n.Body).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, perrors.Wrap(err, "building notification insert")
	}

	var id uuid.UUID
	if err := r.pgpool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return uuid.Nil, perrors.Wrap(err, "inserting notification")
	}
	return id, nil
}

func (r *PostgresNotificationsRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query, args, err := psql.
		Select("id", "user_id", "title", "body", "read_at", "created_at").
		From("notifications").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, perrors.Wrap(err, "building notification list query")
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, perrors.Wrap(err, "listing notifications")
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, perrors.Wrap(err, "scanning notification")
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *PostgresNotificationsRepo) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	query, args, err := psql.Update("notifications").
		Set("read_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "user_id": userID}).
		Where("read_at IS NULL").
		ToSql()
	if err != nil {
		return perrors.Wrap(err, "building mark read update")
	}

	tag, err := r.pgpool.Exec(ctx, query, args...)
	if err != nil {
		return perrors.Wrap(err, "marking notification read")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PostgresNotificationsRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	query, args, err := psql.Update("notifications").
		Set("read_at", sq.Expr("NOW()")).
		Where(sq.Eq{"user_id": userID}).
		Where("read_at IS NULL").
		ToSql()
	if err != nil {
		return perrors.Wrap(err, "building mark all read update")
	}
	if _, err := r.pgpool.Exec(ctx, query, args...); err != nil {
		return perrors.Wrap(err, "marking all notifications read")
	}
	return nil
}

func (r *PostgresNotificationsRepo) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("notifications").
		Where(sq.Eq{"user_id": userID}).
		Where("read_at IS NULL").
		ToSql()
	if err != nil {
		return 0, perrors.Wrap(err, "building unread count query")
	}

	var count int
	if err := r.pgpool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, perrors.Wrap(err, "counting unread notifications")
	}
	return count, nil
}
