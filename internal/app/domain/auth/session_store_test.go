package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, displayName, email, password string) (uuid.UUID, error) {
	args := m.Called(ctx, displayName, email, password)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockAuthService) RequestOTP(ctx context.Context, phone string) error {
	args := m.Called(ctx, phone)
	return args.Error(0)
}

func (m *MockAuthService) VerifyOTP(ctx context.Context, phone, code string) (string, string, error) {
	args := m.Called(ctx, phone, code)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockAuthService) RefreshSession(ctx context.Context, refreshToken string) (string, string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*models.Session, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockAuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.UserAuth, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAuth), args.Error(1)
}

func TestCurrentValidToken(t *testing.T) {
	svc := new(MockAuthService)
	store := NewSessionStore(svc, zap.NewNop())
	userID := uuid.New()

	svc.On("ValidateToken", "good-token").Return(&models.Session{UserID: userID}, nil)

	session := store.Current(context.Background(), "good-token")
	require.NotNil(t, session)
	assert.Equal(t, userID, session.UserID)
}

func TestCurrentFailsClosed(t *testing.T) {
	svc := new(MockAuthService)
	store := NewSessionStore(svc, zap.NewNop())

	svc.On("ValidateToken", "bad-token").Return(nil, errors.New("token expired"))

	assert.Nil(t, store.Current(context.Background(), "bad-token"))
	assert.Nil(t, store.Current(context.Background(), ""))
}

func TestBroadcastReachesSubscribers(t *testing.T) {
	store := NewSessionStore(new(MockAuthService), zap.NewNop())
	userID := uuid.New()

	var got []SessionEvent
	unsubscribe := store.Subscribe(func(ev SessionEvent) { got = append(got, ev) })
	defer unsubscribe()

	store.Broadcast(SessionEvent{Type: SessionSignedIn, UserID: userID})

	require.Len(t, got, 1)
	assert.Equal(t, SessionSignedIn, got[0].Type)
	assert.Equal(t, userID, got[0].UserID)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	store := NewSessionStore(new(MockAuthService), zap.NewNop())

	calls := 0
	unsubscribe := store.Subscribe(func(SessionEvent) { calls++ })

	store.Broadcast(SessionEvent{Type: SessionSignedIn})
	unsubscribe()
	store.Broadcast(SessionEvent{Type: SessionSignedOut})

	assert.Equal(t, 1, calls, "no event may arrive after unsubscribe returns")

	// A second unsubscribe is a no-op.
	unsubscribe()
}

func TestSignOutBroadcasts(t *testing.T) {
	svc := new(MockAuthService)
	store := NewSessionStore(svc, zap.NewNop())
	userID := uuid.New()

	svc.On("Logout", mock.Anything, "refresh-token").Return(nil)

	var got []SessionEvent
	defer store.Subscribe(func(ev SessionEvent) { got = append(got, ev) })()

	require.NoError(t, store.SignOut(context.Background(), userID, "refresh-token"))
	require.Len(t, got, 1)
	assert.Equal(t, SessionSignedOut, got[0].Type)
	assert.Equal(t, userID, got[0].UserID)
}

func TestSignOutLogoutFailureSkipsBroadcast(t *testing.T) {
	svc := new(MockAuthService)
	store := NewSessionStore(svc, zap.NewNop())

	svc.On("Logout", mock.Anything, "refresh-token").Return(errors.New("store down"))

	calls := 0
	defer store.Subscribe(func(SessionEvent) { calls++ })()

	err := store.SignOut(context.Background(), uuid.New(), "refresh-token")
	assert.Error(t, err)
	assert.Zero(t, calls)
}
