package vehicles

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
	"github.com/tractorbazar/marketplace/internal/pkg/realtime"
)

type MockVehiclesRepo struct {
	mock.Mock
}

func (m *MockVehiclesRepo) Create(ctx context.Context, v *models.Vehicle) (uuid.UUID, error) {
	args := m.Called(ctx, v)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockVehiclesRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehiclesRepo) UpdateListing(ctx context.Context, sellerID uuid.UUID, v *models.Vehicle) error {
	args := m.Called(ctx, sellerID, v)
	return args.Error(0)
}

func (m *MockVehiclesRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Vehicle, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockVehiclesRepo) ListPublic(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockVehiclesRepo) SearchPublic(ctx context.Context, text string, filter models.VehicleFilter) ([]models.Vehicle, error) {
	args := m.Called(ctx, text, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockVehiclesRepo) SetStatus(ctx context.Context, id uuid.UUID, status models.VehicleStatus, reason string) error {
	args := m.Called(ctx, id, status, reason)
	return args.Error(0)
}

func (m *MockVehiclesRepo) MarkSold(ctx context.Context, sellerID, id uuid.UUID) error {
	args := m.Called(ctx, sellerID, id)
	return args.Error(0)
}

func (m *MockVehiclesRepo) ListByStatus(ctx context.Context, status models.VehicleStatus) ([]models.Vehicle, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

type stubRecorder struct {
	records []models.SearchRecord
}

func (s *stubRecorder) Record(_ context.Context, rec models.SearchRecord) error {
	s.records = append(s.records, rec)
	return nil
}

type recordingNotifier struct {
	calls []uuid.UUID
}

func (n *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, _, _ string) error {
	n.calls = append(n.calls, userID)
	return nil
}

func newTestVehicleService(t *testing.T, repo VehiclesRepo, rec SearchRecorder, notifier Notifier) *VehicleServiceImpl {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	hub := realtime.NewHub(rdb, zap.NewNop())
	t.Cleanup(func() { _ = hub.Close() })

	matcher := NewKeywordMatcher([]string{"Mahindra", "Swaraj"})
	return NewVehicleService(repo, rec, matcher, hub, notifier, zap.NewNop())
}

func TestCreateListingValidation(t *testing.T) {
	repo := new(MockVehiclesRepo)
	svc := newTestVehicleService(t, repo, &stubRecorder{}, &recordingNotifier{})

	_, err := svc.CreateListing(context.Background(), uuid.New(), &models.Vehicle{Title: "no make"})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.CreateListing(context.Background(), uuid.New(), &models.Vehicle{
		Title: "t", Make: "Mahindra", Model: "575", PriceRupees: 0,
	})
	assert.ErrorIs(t, err, models.ErrValidation)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateListingStampsSeller(t *testing.T) {
	repo := new(MockVehiclesRepo)
	svc := newTestVehicleService(t, repo, &stubRecorder{}, &recordingNotifier{})
	sellerID := uuid.New()
	newID := uuid.New()

	repo.On("Create", mock.Anything, mock.MatchedBy(func(v *models.Vehicle) bool {
		return v.SellerID == sellerID
	})).Return(newID, nil)

	id, err := svc.CreateListing(context.Background(), sellerID, &models.Vehicle{
		Title: "Mahindra 575 DI", Make: "Mahindra", Model: "575 DI", Year: 2019, PriceRupees: 450000,
	})
	require.NoError(t, err)
	assert.Equal(t, newID, id)
}

func TestSearchRecordsAnalytics(t *testing.T) {
	repo := new(MockVehiclesRepo)
	recorder := &stubRecorder{}
	svc := newTestVehicleService(t, repo, recorder, &recordingNotifier{})
	userID := uuid.New()

	repo.On("SearchPublic", mock.Anything, "used mahindra", mock.Anything).
		Return([]models.Vehicle{{Title: "Mahindra 575 DI"}}, nil)

	result, matched, err := svc.Search(context.Background(), &userID, "used mahindra", models.VehicleFilter{})
	require.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Equal(t, []string{"Mahindra"}, matched)

	require.Len(t, recorder.records, 1)
	assert.Equal(t, "used mahindra", recorder.records[0].Query)
	assert.Equal(t, 1, recorder.records[0].ResultCount)
	assert.Equal(t, &userID, recorder.records[0].UserID)
}

func TestApproveNotifiesSeller(t *testing.T) {
	repo := new(MockVehiclesRepo)
	notifier := &recordingNotifier{}
	svc := newTestVehicleService(t, repo, &stubRecorder{}, notifier)
	sellerID := uuid.New()
	vehicleID := uuid.New()

	repo.On("GetByID", mock.Anything, vehicleID).Return(&models.Vehicle{
		ID: vehicleID, SellerID: sellerID, Title: "Swaraj 744", Status: models.VehicleStatusPending,
	}, nil)
	repo.On("SetStatus", mock.Anything, vehicleID, models.VehicleStatusApproved, "").Return(nil)

	require.NoError(t, svc.Approve(context.Background(), vehicleID))
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, sellerID, notifier.calls[0])
}

func TestRejectRequiresReasonInStatus(t *testing.T) {
	repo := new(MockVehiclesRepo)
	notifier := &recordingNotifier{}
	svc := newTestVehicleService(t, repo, &stubRecorder{}, notifier)
	vehicleID := uuid.New()
	sellerID := uuid.New()

	repo.On("GetByID", mock.Anything, vehicleID).Return(&models.Vehicle{
		ID: vehicleID, SellerID: sellerID, Title: "Swaraj 744", Status: models.VehicleStatusPending,
	}, nil)
	repo.On("SetStatus", mock.Anything, vehicleID, models.VehicleStatusRejected, "missing RC book").Return(nil)

	require.NoError(t, svc.Reject(context.Background(), vehicleID, "missing RC book"))
	assert.Len(t, notifier.calls, 1)
	repo.AssertExpectations(t)
}
