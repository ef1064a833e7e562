package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
	"github.com/tractorbazar/marketplace/internal/app/observability/metrics"
)

var _ RolesRepo = (*PostgresRolesRepo)(nil)

// PgxPool is the slice of pgxpool.Pool this repo uses, satisfied by both the
// real pool and pgxmock in tests.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type RolesRepo interface {
	// FetchRoles returns every role the user holds; empty is a valid result.
	FetchRoles(ctx context.Context, userID uuid.UUID) ([]models.Role, error)
	// AddRole inserts the (user, role) assignment. A pre-existing assignment
	// is not an error.
	AddRole(ctx context.Context, userID uuid.UUID, role models.Role) error
	// RemoveRole deletes one assignment. Admin user management only.
	RemoveRole(ctx context.Context, userID uuid.UUID, role models.Role) error
	// BootstrapAdmin calls the atomic server-side function; true when this
	// call created the first admin.
	BootstrapAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
	ListUsersWithRoles(ctx context.Context) ([]models.UserWithRoles, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type PostgresRolesRepo struct {
	logger *zap.Logger
	pgpool PgxPool
}

func NewPostgresRolesRepo(pgpool PgxPool, logger *zap.Logger) *PostgresRolesRepo {
	return &PostgresRolesRepo{logger: logger, pgpool: pgpool}
}

func (r *PostgresRolesRepo) FetchRoles(ctx context.Context, userID uuid.UUID) ([]models.Role, error) {
	query := `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY created_at`
	rows, err := r.pgpool.Query(ctx, query, userID)
	if err != nil {
		metrics.DBQueryError(ctx)
		r.logger.Error("Error fetching roles", zap.Error(err), zap.Stringer("userID", userID))
		return nil, fmt.Errorf("database error fetching roles: %w", err)
	}
	defer rows.Close()

	var result []models.Role
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("database error scanning role: %w", err)
		}
		result = append(result, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error reading roles: %w", err)
	}
	return result, nil
}

// AddRole relies on ON CONFLICT DO NOTHING instead of inspecting error text:
// a duplicate insert affects zero rows and reads as success. A 23505 raised
// anyway is also mapped to a no-op.
func (r *PostgresRolesRepo) AddRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	query := `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
	          ON CONFLICT (user_id, role) DO NOTHING`
	_, err := r.pgpool.Exec(ctx, query, userID, role)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.logger.Debug("Duplicate role insert treated as success",
				zap.Stringer("userID", userID), zap.String("role", string(role)))
			return nil
		}
		r.logger.Error("Error inserting role", zap.Error(err),
			zap.Stringer("userID", userID), zap.String("role", string(role)))
		return fmt.Errorf("database error inserting role: %w", err)
	}
	return nil
}

func (r *PostgresRolesRepo) RemoveRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	query := `DELETE FROM user_roles WHERE user_id = $1 AND role = $2`
	tag, err := r.pgpool.Exec(ctx, query, userID, role)
	if err != nil {
		r.logger.Error("Error removing role", zap.Error(err),
			zap.Stringer("userID", userID), zap.String("role", string(role)))
		return fmt.Errorf("database error removing role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("role assignment not found: %w", models.ErrNotFound)
	}
	return nil
}

func (r *PostgresRolesRepo) BootstrapAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	var granted bool
	query := `SELECT bootstrap_admin($1)`
	if err := r.pgpool.QueryRow(ctx, query, userID).Scan(&granted); err != nil {
		r.logger.Error("Error calling bootstrap_admin", zap.Error(err), zap.Stringer("userID", userID))
		return false, fmt.Errorf("database error bootstrapping admin: %w", err)
	}
	return granted, nil
}

func (r *PostgresRolesRepo) ListUsersWithRoles(ctx context.Context) ([]models.UserWithRoles, error) {
	query := `SELECT u.id, COALESCE(u.email, ''), COALESCE(u.phone, ''), u.display_name,
	                 u.is_active, u.created_at,
	                 COALESCE(array_agg(ur.role) FILTER (WHERE ur.role IS NOT NULL), '{}')
	          FROM users u
	          LEFT JOIN user_roles ur ON ur.user_id = u.id
	          GROUP BY u.id
	          ORDER BY u.created_at DESC`
	rows, err := r.pgpool.Query(ctx, query)
	if err != nil {
		r.logger.Error("Error listing users with roles", zap.Error(err))
		return nil, fmt.Errorf("database error listing users: %w", err)
	}
	defer rows.Close()

	var result []models.UserWithRoles
	for rows.Next() {
		var item models.UserWithRoles
		var roleNames []string
		err := rows.Scan(&item.User.ID, &item.User.Email, &item.User.Phone,
			&item.User.DisplayName, &item.User.IsActive, &item.User.CreatedAt, &roleNames)
		if err != nil {
			return nil, fmt.Errorf("database error scanning user: %w", err)
		}
		for _, name := range roleNames {
			item.Roles = append(item.Roles, models.Role(name))
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error reading users: %w", err)
	}
	return result, nil
}

func (r *PostgresRolesRepo) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		r.logger.Error("Error deleting user", zap.Error(err), zap.Stringer("userID", userID))
		return fmt.Errorf("database error deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %w", models.ErrNotFound)
	}
	return nil
}
