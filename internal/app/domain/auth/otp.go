package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
	"github.com/tractorbazar/marketplace/internal/pkg/config"
)

// SMSSender delivers one-time codes. The real gateway lives behind this so
// dev and tests can run without one.
type SMSSender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// LogSender writes codes to the log instead of sending them.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) SendCode(_ context.Context, phone, code string) error {
	s.Logger.Info("OTP code issued (log sender)",
		zap.String("phone", phone),
		zap.String("code", code))
	return nil
}

// OTPStore keeps pending verification codes in Redis with a TTL and a
// bounded attempt counter.
type OTPStore struct {
	rdb    *redis.Client
	cfg    config.OTPConfig
	logger *zap.Logger
}

func NewOTPStore(rdb *redis.Client, cfg config.OTPConfig, logger *zap.Logger) *OTPStore {
	return &OTPStore{rdb: rdb, cfg: cfg, logger: logger}
}

func codeKey(phone string) string     { return "otp:code:" + phone }
func attemptsKey(phone string) string { return "otp:attempts:" + phone }

// Issue generates a fresh 6-digit code for the phone, replacing any pending
// one, and resets the attempt counter.
func (s *OTPStore) Issue(ctx context.Context, phone string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, codeKey(phone), code, s.cfg.CodeTTL)
	pipe.Del(ctx, attemptsKey(phone))
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify checks the submitted code. The code is consumed on success;
// failures are counted and throttled once MaxAttempts is reached.
func (s *OTPStore) Verify(ctx context.Context, phone, code string) error {
	stored, err := s.rdb.Get(ctx, codeKey(phone)).Result()
	if err == redis.Nil {
		return models.ErrOTPExpired
	}
	if err != nil {
		return fmt.Errorf("read otp: %w", err)
	}

	attempts, err := s.rdb.Incr(ctx, attemptsKey(phone)).Result()
	if err != nil {
		return fmt.Errorf("count otp attempt: %w", err)
	}
	s.rdb.Expire(ctx, attemptsKey(phone), s.cfg.CodeTTL)
	if attempts > int64(s.cfg.MaxAttempts) {
		s.logger.Warn("OTP attempts exhausted", zap.String("phone", phone))
		return models.ErrOTPThrottled
	}

	if stored != code {
		return models.ErrOTPMismatch
	}

	s.rdb.Del(ctx, codeKey(phone), attemptsKey(phone))
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
