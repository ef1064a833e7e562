package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tractorbazar/marketplace/internal/app/models"
	"github.com/tractorbazar/marketplace/internal/app/observability/metrics"
	"github.com/tractorbazar/marketplace/internal/pkg/config"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the authentication business logic contract.
type AuthService interface {
	Register(ctx context.Context, displayName, email, password string) (uuid.UUID, error)
	Login(ctx context.Context, email, password string) (accessToken string, refreshToken string, err error)
	RequestOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, code string) (accessToken string, refreshToken string, err error)
	RefreshSession(ctx context.Context, refreshToken string) (accessToken string, newRefreshToken string, err error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateToken(tokenString string) (*models.Session, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.UserAuth, error)
}

// AuthServiceImpl provides the implementation for AuthService.
type AuthServiceImpl struct {
	logger *zap.Logger
	repo   AuthRepo
	otp    *OTPStore
	sender SMSSender
	cfg    *config.Config
}

func NewAuthService(repo AuthRepo, otp *OTPStore, sender SMSSender, cfg *config.Config, logger *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{logger: logger, repo: repo, otp: otp, sender: sender, cfg: cfg}
}

// Register stores a new email/password account.
func (s *AuthServiceImpl) Register(ctx context.Context, displayName, email, password string) (uuid.UUID, error) {
	l := s.logger.With(zap.String("method", "Register"), zap.String("email", email))

	tracer := otel.Tracer("tractorbazar")
	ctx, span := tracer.Start(ctx, "AuthService.Register", trace.WithAttributes(
		attribute.String("email", email),
	))
	defer span.End()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		l.Error("Failed to hash password", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Password hashing failed")
		return uuid.Nil, fmt.Errorf("could not process password")
	}

	userID, err := s.repo.RegisterWithPassword(ctx, displayName, email, string(hashed))
	if err != nil {
		l.Error("Repository registration failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository registration failed")
		return uuid.Nil, err
	}

	l.Info("Registration successful", zap.Stringer("userID", userID))
	span.SetStatus(codes.Ok, "User registered")
	return userID, nil
}

// Login validates credentials, generates tokens, stores the refresh token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, string, error) {
	l := s.logger.With(zap.String("method", "Login"), zap.String("email", email))
	l.Debug("Attempting login")

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		l.Warn("GetUserByEmail failed")
		// Don't reveal whether the user exists or the password is wrong
		return "", "", fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		l.Warn("Password comparison failed", zap.Stringer("userID", user.ID))
		return "", "", fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	return s.issueTokens(ctx, user, l)
}

// RequestOTP issues and delivers a one-time code for the phone.
func (s *AuthServiceImpl) RequestOTP(ctx context.Context, phone string) error {
	l := s.logger.With(zap.String("method", "RequestOTP"), zap.String("phone", phone))

	code, err := s.otp.Issue(ctx, phone)
	if err != nil {
		l.Error("Failed to issue OTP", zap.Error(err))
		return fmt.Errorf("app error issuing code: %w", err)
	}
	if err := s.sender.SendCode(ctx, phone, code); err != nil {
		l.Error("Failed to deliver OTP", zap.Error(err))
		return fmt.Errorf("app error delivering code: %w", err)
	}

	l.Info("OTP requested")
	return nil
}

// VerifyOTP checks the code, provisions the account on first sign-in and
// issues a token pair.
func (s *AuthServiceImpl) VerifyOTP(ctx context.Context, phone, code string) (string, string, error) {
	l := s.logger.With(zap.String("method", "VerifyOTP"), zap.String("phone", phone))

	if err := s.otp.Verify(ctx, phone, code); err != nil {
		l.Warn("OTP verification failed", zap.Error(err))
		return "", "", err
	}

	userID, err := s.repo.EnsureUserByPhone(ctx, phone)
	if err != nil {
		l.Error("Failed to ensure user for phone", zap.Error(err))
		return "", "", fmt.Errorf("app error provisioning account: %w", err)
	}
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		l.Error("Failed to load user after OTP verify", zap.Error(err))
		return "", "", fmt.Errorf("app error loading account: %w", err)
	}

	return s.issueTokens(ctx, user, l)
}

// RefreshSession rotates the refresh token and mints a new access token.
func (s *AuthServiceImpl) RefreshSession(ctx context.Context, refreshToken string) (string, string, error) {
	l := s.logger.With(zap.String("method", "RefreshSession"))
	l.Debug("Attempting token refresh")

	userID, err := s.repo.ValidateRefreshTokenAndGetUserID(ctx, refreshToken)
	if err != nil {
		l.Warn("Refresh token validation failed", zap.Error(err))
		return "", "", fmt.Errorf("invalid or expired refresh token: %w", models.ErrUnauthenticated)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		l.Error("Failed to get user during refresh", zap.Stringer("userID", userID), zap.Error(err))
		if revokeErr := s.repo.InvalidateRefreshToken(ctx, refreshToken); revokeErr != nil {
			l.Warn("Failed to invalidate suspicious refresh token", zap.Error(revokeErr))
		}
		return "", "", fmt.Errorf("app error retrieving user during refresh: %w", models.ErrUnauthenticated)
	}

	access, newRefresh, err := s.issueTokens(ctx, user, l)
	if err != nil {
		return "", "", err
	}

	// Rotation: the old token is dead once the new pair exists.
	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		l.Warn("Failed to invalidate old refresh token during rotation", zap.Stringer("userID", user.ID), zap.Error(err))
		return "", "", fmt.Errorf("failed to invalidate old refresh token: %w", err)
	}

	l.Info("Token refresh successful", zap.Stringer("userID", user.ID))
	return access, newRefresh, nil
}

// Logout invalidates the provided refresh token.
func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	l := s.logger.With(zap.String("method", "Logout"))
	if refreshToken == "" {
		return nil
	}
	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		l.Error("Failed to invalidate refresh token on logout", zap.Error(err))
		return fmt.Errorf("app error during logout: %w", err)
	}
	l.Info("Logout successful")
	return nil
}

// ValidateToken turns a valid access token into a Session.
func (s *AuthServiceImpl) ValidateToken(tokenString string) (*models.Session, error) {
	claims, err := parseAccessToken(s.cfg.JWT, tokenString)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", models.ErrUnauthenticated)
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("malformed subject: %w", models.ErrUnauthenticated)
	}
	session := &models.Session{
		UserID: userID,
		Email:  claims.Email,
		Phone:  claims.Phone,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

func (s *AuthServiceImpl) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.UserAuth, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *AuthServiceImpl) issueTokens(ctx context.Context, user *models.UserAuth, l *zap.Logger) (string, string, error) {
	accessToken, err := mintAccessToken(s.cfg.JWT, user.ID, user.Email, user.Phone)
	if err != nil {
		l.Error("Failed to generate access token", zap.Stringer("userID", user.ID), zap.Error(err))
		return "", "", fmt.Errorf("app error generating tokens: %w", err)
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		l.Error("Failed to generate refresh token", zap.Stringer("userID", user.ID), zap.Error(err))
		return "", "", fmt.Errorf("app error generating tokens: %w", err)
	}

	expiresAt := time.Now().Add(s.cfg.JWT.RefreshTokenTTL)
	if err := s.repo.StoreRefreshToken(ctx, user.ID, refreshToken, expiresAt); err != nil {
		l.Error("Failed to store refresh token", zap.Stringer("userID", user.ID), zap.Error(err))
		return "", "", fmt.Errorf("app error storing session: %w", err)
	}

	if m := metrics.Get(); m != nil {
		m.AuthRequestsTotal.Add(ctx, 1)
	}
	l.Info("Tokens issued", zap.Stringer("userID", user.ID))
	return accessToken, refreshToken, nil
}

func generateRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
