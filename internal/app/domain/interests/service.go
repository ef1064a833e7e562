package interests

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

// VehicleLookup resolves a vehicle so the seller can be told who is asking.
type VehicleLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, body string) error
}

type InterestService interface {
	Express(ctx context.Context, buyerID, vehicleID uuid.UUID, message string) error
	Withdraw(ctx context.Context, buyerID, vehicleID uuid.UUID) error
	MyInterests(ctx context.Context, buyerID uuid.UUID) ([]models.BuyerInterest, error)
	InterestsForVehicle(ctx context.Context, sellerID, vehicleID uuid.UUID) ([]models.BuyerInterest, error)
}

type InterestServiceImpl struct {
	logger   *zap.Logger
	repo     InterestsRepo
	vehicles VehicleLookup
	notifier Notifier
}

func NewInterestService(repo InterestsRepo, vehicles VehicleLookup, notifier Notifier, logger *zap.Logger) *InterestServiceImpl {
	return &InterestServiceImpl{logger: logger, repo: repo, vehicles: vehicles, notifier: notifier}
}

func (s *InterestServiceImpl) Express(ctx context.Context, buyerID, vehicleID uuid.UUID, message string) error {
	v, err := s.vehicles.Get(ctx, vehicleID)
	if err != nil {
		return err
	}
	if v.Status != models.VehicleStatusApproved {
		return fmt.Errorf("listing is not open for interest: %w", models.ErrBadRequest)
	}

	if err := s.repo.Express(ctx, vehicleID, buyerID, message); err != nil {
		return err
	}
	s.logger.Info("Interest expressed",
		zap.Stringer("vehicleID", vehicleID), zap.Stringer("buyerID", buyerID))

	if err := s.notifier.Notify(ctx, v.SellerID, "New buyer interest",
		fmt.Sprintf("A buyer is interested in %q.", v.Title)); err != nil {
		s.logger.Warn("Failed to notify seller about interest", zap.Error(err))
	}
	return nil
}

func (s *InterestServiceImpl) Withdraw(ctx context.Context, buyerID, vehicleID uuid.UUID) error {
	return s.repo.Withdraw(ctx, vehicleID, buyerID)
}

func (s *InterestServiceImpl) MyInterests(ctx context.Context, buyerID uuid.UUID) ([]models.BuyerInterest, error) {
	return s.repo.ListForBuyer(ctx, buyerID)
}

// InterestsForVehicle is seller-facing; only the listing's owner may see who
// is asking.
func (s *InterestServiceImpl) InterestsForVehicle(ctx context.Context, sellerID, vehicleID uuid.UUID) ([]models.BuyerInterest, error) {
	v, err := s.vehicles.Get(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if v.SellerID != sellerID {
		return nil, models.ErrForbidden
	}
	return s.repo.ListForVehicle(ctx, vehicleID)
}
