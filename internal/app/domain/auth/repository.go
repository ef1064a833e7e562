package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

type AuthRepo interface {
	// GetUserByEmail fetches credential fields for password login.
	GetUserByEmail(ctx context.Context, email string) (*models.UserAuth, error)
	// GetUserByPhone fetches the user behind an OTP identity.
	GetUserByPhone(ctx context.Context, phone string) (*models.UserAuth, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.UserAuth, error)
	// RegisterWithPassword stores a new user with a HASHED password.
	RegisterWithPassword(ctx context.Context, displayName, email, hashedPassword string) (uuid.UUID, error)
	// EnsureUserByPhone finds or creates the account for a verified phone.
	EnsureUserByPhone(ctx context.Context, phone string) (uuid.UUID, error)

	StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (uuid.UUID, error)
	InvalidateRefreshToken(ctx context.Context, refreshToken string) error
	InvalidateAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error
}

type PostgresAuthRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresAuthRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{logger: logger, pgpool: pgpool}
}

const userColumns = `id, COALESCE(email, ''), COALESCE(phone, ''), display_name, COALESCE(password_hash, ''), is_active, created_at`

func (r *PostgresAuthRepo) scanUser(row pgx.Row) (*models.UserAuth, error) {
	var user models.UserAuth
	err := row.Scan(&user.ID, &user.Email, &user.Phone, &user.DisplayName,
		&user.PasswordHash, &user.IsActive, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*models.UserAuth, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND is_active = TRUE`
	user, err := r.scanUser(r.pgpool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s not found: %w", email, models.ErrNotFound)
		}
		r.logger.Error("Error fetching user by email", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) GetUserByPhone(ctx context.Context, phone string) (*models.UserAuth, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1 AND is_active = TRUE`
	user, err := r.scanUser(r.pgpool.QueryRow(ctx, query, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with phone %s not found: %w", phone, models.ErrNotFound)
		}
		r.logger.Error("Error fetching user by phone", zap.Error(err), zap.String("phone", phone))
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.UserAuth, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND is_active = TRUE`
	user, err := r.scanUser(r.pgpool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s not found: %w", userID, models.ErrNotFound)
		}
		r.logger.Error("Error fetching user by ID", zap.Error(err), zap.Stringer("userID", userID))
		return nil, fmt.Errorf("database error fetching user by ID: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) RegisterWithPassword(ctx context.Context, displayName, email, hashedPassword string) (uuid.UUID, error) {
	var userID uuid.UUID
	query := `INSERT INTO users (display_name, email, password_hash) VALUES ($1, $2, $3) RETURNING id`
	err := r.pgpool.QueryRow(ctx, query, displayName, email, hashedPassword).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, fmt.Errorf("email already registered: %w", models.ErrConflict)
		}
		r.logger.Error("Error inserting user", zap.Error(err), zap.String("email", email))
		return uuid.Nil, fmt.Errorf("database error registering user: %w", err)
	}
	return userID, nil
}

func (r *PostgresAuthRepo) EnsureUserByPhone(ctx context.Context, phone string) (uuid.UUID, error) {
	var userID uuid.UUID
	// Upsert so two concurrent first-time verifications of the same phone
	// converge on one row.
	query := `INSERT INTO users (phone) VALUES ($1)
	          ON CONFLICT (phone) DO UPDATE SET phone = EXCLUDED.phone
	          RETURNING id`
	if err := r.pgpool.QueryRow(ctx, query, phone).Scan(&userID); err != nil {
		r.logger.Error("Error ensuring user by phone", zap.Error(err), zap.String("phone", phone))
		return uuid.Nil, fmt.Errorf("database error ensuring user: %w", err)
	}
	return userID, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (r *PostgresAuthRepo) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	query := `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3)`
	if _, err := r.pgpool.Exec(ctx, query, userID, hashToken(token), expiresAt); err != nil {
		r.logger.Error("Error storing refresh token", zap.Error(err), zap.Stringer("userID", userID))
		return fmt.Errorf("database error storing refresh token: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepo) ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (uuid.UUID, error) {
	var userID uuid.UUID
	query := `SELECT user_id FROM refresh_tokens
	          WHERE token_hash = $1 AND expires_at > now() AND revoked_at IS NULL`
	err := r.pgpool.QueryRow(ctx, query, hashToken(refreshToken)).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("refresh token invalid: %w", models.ErrUnauthenticated)
		}
		r.logger.Error("Error validating refresh token", zap.Error(err))
		return uuid.Nil, fmt.Errorf("database error validating refresh token: %w", err)
	}
	return userID, nil
}

func (r *PostgresAuthRepo) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	query := `UPDATE refresh_tokens SET revoked_at = now() WHERE token_hash = $1 AND revoked_at IS NULL`
	if _, err := r.pgpool.Exec(ctx, query, hashToken(refreshToken)); err != nil {
		r.logger.Error("Error invalidating refresh token", zap.Error(err))
		return fmt.Errorf("database error invalidating refresh token: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepo) InvalidateAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE refresh_tokens SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL`
	if _, err := r.pgpool.Exec(ctx, query, userID); err != nil {
		r.logger.Error("Error invalidating user refresh tokens", zap.Error(err), zap.Stringer("userID", userID))
		return fmt.Errorf("database error invalidating user refresh tokens: %w", err)
	}
	return nil
}
