package interests

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

type MockInterestsRepo struct {
	mock.Mock
}

func (m *MockInterestsRepo) Express(ctx context.Context, vehicleID, buyerID uuid.UUID, message string) error {
	args := m.Called(ctx, vehicleID, buyerID, message)
	return args.Error(0)
}

func (m *MockInterestsRepo) Withdraw(ctx context.Context, vehicleID, buyerID uuid.UUID) error {
	args := m.Called(ctx, vehicleID, buyerID)
	return args.Error(0)
}

func (m *MockInterestsRepo) ListForBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.BuyerInterest, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BuyerInterest), args.Error(1)
}

func (m *MockInterestsRepo) ListForVehicle(ctx context.Context, vehicleID uuid.UUID) ([]models.BuyerInterest, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BuyerInterest), args.Error(1)
}

type stubVehicleLookup struct {
	vehicle *models.Vehicle
	err     error
}

func (s *stubVehicleLookup) Get(context.Context, uuid.UUID) (*models.Vehicle, error) {
	return s.vehicle, s.err
}

type recordingNotifier struct {
	calls []uuid.UUID
}

func (n *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, _, _ string) error {
	n.calls = append(n.calls, userID)
	return nil
}

func TestExpressNotifiesSeller(t *testing.T) {
	repo := new(MockInterestsRepo)
	sellerID := uuid.New()
	buyerID := uuid.New()
	vehicleID := uuid.New()
	lookup := &stubVehicleLookup{vehicle: &models.Vehicle{
		ID:       vehicleID,
		SellerID: sellerID,
		Title:    "Mahindra 575 DI",
		Status:   models.VehicleStatusApproved,
	}}
	notifier := &recordingNotifier{}
	svc := NewInterestService(repo, lookup, notifier, zap.NewNop())

	repo.On("Express", mock.Anything, vehicleID, buyerID, "still available?").Return(nil)

	require.NoError(t, svc.Express(context.Background(), buyerID, vehicleID, "still available?"))
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, sellerID, notifier.calls[0])
}

func TestExpressRejectsUnapprovedListing(t *testing.T) {
	repo := new(MockInterestsRepo)
	lookup := &stubVehicleLookup{vehicle: &models.Vehicle{
		ID:     uuid.New(),
		Status: models.VehicleStatusPending,
	}}
	svc := NewInterestService(repo, lookup, &recordingNotifier{}, zap.NewNop())

	err := svc.Express(context.Background(), uuid.New(), uuid.New(), "")
	assert.ErrorIs(t, err, models.ErrBadRequest)
	repo.AssertNotCalled(t, "Express", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExpressMissingVehicle(t *testing.T) {
	repo := new(MockInterestsRepo)
	lookup := &stubVehicleLookup{err: models.ErrNotFound}
	svc := NewInterestService(repo, lookup, &recordingNotifier{}, zap.NewNop())

	err := svc.Express(context.Background(), uuid.New(), uuid.New(), "")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestInterestsForVehicleOwnerOnly(t *testing.T) {
	repo := new(MockInterestsRepo)
	sellerID := uuid.New()
	vehicleID := uuid.New()
	lookup := &stubVehicleLookup{vehicle: &models.Vehicle{
		ID:       vehicleID,
		SellerID: sellerID,
		Status:   models.VehicleStatusApproved,
	}}
	svc := NewInterestService(repo, lookup, &recordingNotifier{}, zap.NewNop())

	_, err := svc.InterestsForVehicle(context.Background(), uuid.New(), vehicleID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	repo.On("ListForVehicle", mock.Anything, vehicleID).
		Return([]models.BuyerInterest{{VehicleID: vehicleID}}, nil)
	out, err := svc.InterestsForVehicle(context.Background(), sellerID, vehicleID)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
