package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
	"github.com/tractorbazar/marketplace/internal/pkg/config"
)

func newTestOTPStore(t *testing.T) (*OTPStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.OTPConfig{CodeTTL: 5 * time.Minute, MaxAttempts: 3}
	return NewOTPStore(rdb, cfg, zap.NewNop()), mr
}

func TestOTPIssueAndVerify(t *testing.T) {
	store, _ := newTestOTPStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "+919876543210")
	require.NoError(t, err)
	require.Len(t, code, 6)

	require.NoError(t, store.Verify(ctx, "+919876543210", code))

	// The code is consumed on success.
	assert.ErrorIs(t, store.Verify(ctx, "+919876543210", code), models.ErrOTPExpired)
}

func TestOTPVerifyWrongCode(t *testing.T) {
	store, _ := newTestOTPStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "+919876543210")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	assert.ErrorIs(t, store.Verify(ctx, "+919876543210", wrong), models.ErrOTPMismatch)

	// The right code still works while attempts remain.
	assert.NoError(t, store.Verify(ctx, "+919876543210", code))
}

func TestOTPExpires(t *testing.T) {
	store, mr := newTestOTPStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "+919876543210")
	require.NoError(t, err)

	mr.FastForward(6 * time.Minute)

	assert.ErrorIs(t, store.Verify(ctx, "+919876543210", code), models.ErrOTPExpired)
}

func TestOTPThrottlesAfterMaxAttempts(t *testing.T) {
	store, _ := newTestOTPStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "+919876543210")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, store.Verify(ctx, "+919876543210", wrong), models.ErrOTPMismatch)
	}

	// Attempt cap reached: even the correct code is refused now.
	assert.ErrorIs(t, store.Verify(ctx, "+919876543210", code), models.ErrOTPThrottled)
}

func TestOTPReissueResetsAttempts(t *testing.T) {
	store, _ := newTestOTPStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "+919876543210")
	require.NoError(t, err)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	for i := 0; i < 3; i++ {
		_ = store.Verify(ctx, "+919876543210", wrong)
	}

	fresh, err := store.Issue(ctx, "+919876543210")
	require.NoError(t, err)
	assert.NoError(t, store.Verify(ctx, "+919876543210", fresh))
}
