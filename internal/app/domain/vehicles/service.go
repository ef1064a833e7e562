package vehicles

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
	"github.com/tractorbazar/marketplace/internal/app/observability/metrics"
	"github.com/tractorbazar/marketplace/internal/pkg/realtime"
)

const tableName = "vehicles"

var _ VehicleService = (*VehicleServiceImpl)(nil)

// Notifier lets the vehicle flows drop a message on a user without knowing
// how notifications are stored or delivered.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, body string) error
}

// VehicleService is the listing lifecycle: sellers create and maintain
// listings, admins moderate them, buyers browse the approved ones.
type VehicleService interface {
	CreateListing(ctx context.Context, sellerID uuid.UUID, v *models.Vehicle) (uuid.UUID, error)
	UpdateListing(ctx context.Context, sellerID uuid.UUID, v *models.Vehicle) error
	MyListings(ctx context.Context, sellerID uuid.UUID) ([]models.Vehicle, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	Browse(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, error)
	// Search browses with free text, tags recognized catalog names and
	// records the query for analytics.
	Search(ctx context.Context, userID *uuid.UUID, text string, filter models.VehicleFilter) ([]models.Vehicle, []string, error)
	MarkSold(ctx context.Context, sellerID, id uuid.UUID) error

	// Moderation.
	PendingModeration(ctx context.Context) ([]models.Vehicle, error)
	Approve(ctx context.Context, id uuid.UUID) error
	Reject(ctx context.Context, id uuid.UUID, reason string) error
}

type VehicleServiceImpl struct {
	logger   *zap.Logger
	repo     VehiclesRepo
	recorder SearchRecorder
	matcher  *KeywordMatcher
	hub      *realtime.Hub
	notifier Notifier
}

func NewVehicleService(repo VehiclesRepo, recorder SearchRecorder, matcher *KeywordMatcher, hub *realtime.Hub, notifier Notifier, logger *zap.Logger) *VehicleServiceImpl {
	return &VehicleServiceImpl{
		logger:   logger,
		repo:     repo,
		recorder: recorder,
		matcher:  matcher,
		hub:      hub,
		notifier: notifier,
	}
}

func (s *VehicleServiceImpl) publish(ctx context.Context, op realtime.Op, id uuid.UUID) {
	err := s.hub.Publish(ctx, realtime.Change{Table: tableName, Op: op, RowID: id.String()})
	if err != nil {
		// Realtime is best-effort; the row change already committed.
		s.logger.Warn("Failed to publish vehicle change", zap.Stringer("id", id), zap.Error(err))
	}
}

func (s *VehicleServiceImpl) CreateListing(ctx context.Context, sellerID uuid.UUID, v *models.Vehicle) (uuid.UUID, error) {
	if v.Title == "" || v.Make == "" || v.Model == "" {
		return uuid.Nil, fmt.Errorf("title, make and model are required: %w", models.ErrValidation)
	}
	if v.PriceRupees <= 0 {
		return uuid.Nil, fmt.Errorf("price must be positive: %w", models.ErrValidation)
	}
	v.SellerID = sellerID

	id, err := s.repo.Create(ctx, v)
	if err != nil {
		return uuid.Nil, err
	}
	s.logger.Info("Listing created", zap.Stringer("id", id), zap.Stringer("sellerID", sellerID))
	s.publish(ctx, realtime.OpInsert, id)
	return id, nil
}

func (s *VehicleServiceImpl) UpdateListing(ctx context.Context, sellerID uuid.UUID, v *models.Vehicle) error {
	if err := s.repo.UpdateListing(ctx, sellerID, v); err != nil {
		return err
	}
	s.publish(ctx, realtime.OpUpdate, v.ID)
	return nil
}

func (s *VehicleServiceImpl) MyListings(ctx context.Context, sellerID uuid.UUID) ([]models.Vehicle, error) {
	return s.repo.ListBySeller(ctx, sellerID)
}

func (s *VehicleServiceImpl) Get(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *VehicleServiceImpl) Browse(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, error) {
	return s.repo.ListPublic(ctx, filter)
}

func (s *VehicleServiceImpl) Search(ctx context.Context, userID *uuid.UUID, text string, filter models.VehicleFilter) ([]models.Vehicle, []string, error) {
	matched := s.matcher.Match(text)

	result, err := s.repo.SearchPublic(ctx, text, filter)
	if err != nil {
		return nil, nil, err
	}

	if m := metrics.Get(); m != nil {
		m.SearchRequestsTotal.Add(ctx, 1)
	}
	if recErr := s.recorder.Record(ctx, models.SearchRecord{
		UserID:       userID,
		Query:        text,
		MatchedMakes: matched,
		ResultCount:  len(result),
	}); recErr != nil {
		s.logger.Debug("Search analytics insert failed", zap.Error(recErr))
	}

	return result, matched, nil
}

func (s *VehicleServiceImpl) MarkSold(ctx context.Context, sellerID, id uuid.UUID) error {
	if err := s.repo.MarkSold(ctx, sellerID, id); err != nil {
		return err
	}
	s.publish(ctx, realtime.OpUpdate, id)
	return nil
}

func (s *VehicleServiceImpl) PendingModeration(ctx context.Context) ([]models.Vehicle, error) {
	return s.repo.ListByStatus(ctx, models.VehicleStatusPending)
}

func (s *VehicleServiceImpl) Approve(ctx context.Context, id uuid.UUID) error {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SetStatus(ctx, id, models.VehicleStatusApproved, ""); err != nil {
		return err
	}
	s.logger.Info("Listing approved", zap.Stringer("id", id))
	s.publish(ctx, realtime.OpUpdate, id)

	if err := s.notifier.Notify(ctx, v.SellerID, "Listing approved",
		fmt.Sprintf("Your listing %q is now live.", v.Title)); err != nil {
		s.logger.Warn("Failed to notify seller about approval", zap.Error(err))
	}
	return nil
}

func (s *VehicleServiceImpl) Reject(ctx context.Context, id uuid.UUID, reason string) error {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SetStatus(ctx, id, models.VehicleStatusRejected, reason); err != nil {
		return err
	}
	s.logger.Info("Listing rejected", zap.Stringer("id", id), zap.String("reason", reason))
	s.publish(ctx, realtime.OpUpdate, id)

	if err := s.notifier.Notify(ctx, v.SellerID, "Listing rejected",
		fmt.Sprintf("Your listing %q was rejected: %s", v.Title, reason)); err != nil {
		s.logger.Warn("Failed to notify seller about rejection", zap.Error(err))
	}
	return nil
}
