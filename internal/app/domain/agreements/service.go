package agreements

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
	"github.com/tractorbazar/marketplace/internal/app/observability/metrics"
	"github.com/tractorbazar/marketplace/internal/pkg/realtime"
)

const tableName = "agreements"

type VehicleLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, body string) error
}

// ObjectStore stores the scanned, signed agreement document.
type ObjectStore interface {
	Upload(ctx context.Context, key string, content io.Reader, contentType string) (int64, error)
	PublicURL(key string) string
}

type AgreementService interface {
	// Draft opens a sale agreement between the listing's seller and a buyer.
	Draft(ctx context.Context, sellerID, vehicleID, buyerID uuid.UUID, priceRupees int64) (uuid.UUID, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Agreement, error)
	MyAgreements(ctx context.Context, userID uuid.UUID) ([]models.Agreement, error)
	// Sign uploads the signed copy and flips the draft to signed. Only a
	// party to the agreement may sign.
	Sign(ctx context.Context, userID, id uuid.UUID, filename, contentType string, content io.Reader) (string, error)
}

type AgreementServiceImpl struct {
	logger   *zap.Logger
	repo     AgreementsRepo
	vehicles VehicleLookup
	store    ObjectStore
	hub      *realtime.Hub
	notifier Notifier
}

func NewAgreementService(repo AgreementsRepo, vehicles VehicleLookup, store ObjectStore, hub *realtime.Hub, notifier Notifier, logger *zap.Logger) *AgreementServiceImpl {
	return &AgreementServiceImpl{
		logger:   logger,
		repo:     repo,
		vehicles: vehicles,
		store:    store,
		hub:      hub,
		notifier: notifier,
	}
}

func (s *AgreementServiceImpl) publish(ctx context.Context, op realtime.Op, a *models.Agreement) {
	for _, userID := range []uuid.UUID{a.SellerID, a.BuyerID} {
		err := s.hub.Publish(ctx, realtime.Change{
			Table:  tableName,
			Op:     op,
			RowID:  a.ID.String(),
			UserID: userID.String(),
		})
		if err != nil {
			s.logger.Warn("Failed to publish agreement change", zap.Stringer("id", a.ID), zap.Error(err))
		}
	}
}

func (s *AgreementServiceImpl) Draft(ctx context.Context, sellerID, vehicleID, buyerID uuid.UUID, priceRupees int64) (uuid.UUID, error) {
	if priceRupees <= 0 {
		return uuid.Nil, fmt.Errorf("price must be positive: %w", models.ErrValidation)
	}

	v, err := s.vehicles.Get(ctx, vehicleID)
	if err != nil {
		return uuid.Nil, err
	}
	if v.SellerID != sellerID {
		return uuid.Nil, models.ErrForbidden
	}
	if v.Status != models.VehicleStatusApproved {
		return uuid.Nil, fmt.Errorf("listing is not approved: %w", models.ErrBadRequest)
	}

	a := &models.Agreement{
		VehicleID:   vehicleID,
		SellerID:    sellerID,
		BuyerID:     buyerID,
		PriceRupees: priceRupees,
	}
	id, err := s.repo.Create(ctx, a)
	if err != nil {
		return uuid.Nil, err
	}
	a.ID = id
	s.logger.Info("Agreement drafted", zap.Stringer("id", id), zap.Stringer("vehicleID", vehicleID))
	s.publish(ctx, realtime.OpInsert, a)

	if err := s.notifier.Notify(ctx, buyerID, "Sale agreement ready",
		fmt.Sprintf("The seller drafted an agreement for %q.", v.Title)); err != nil {
		s.logger.Warn("Failed to notify buyer about agreement", zap.Error(err))
	}
	return id, nil
}

func (s *AgreementServiceImpl) Get(ctx context.Context, userID, id uuid.UUID) (*models.Agreement, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.SellerID != userID && a.BuyerID != userID {
		return nil, models.ErrForbidden
	}
	if a.DocumentKey != "" {
		a.DocumentKey = s.store.PublicURL(a.DocumentKey)
	}
	return a, nil
}

func (s *AgreementServiceImpl) MyAgreements(ctx context.Context, userID uuid.UUID) ([]models.Agreement, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *AgreementServiceImpl) Sign(ctx context.Context, userID, id uuid.UUID, filename, contentType string, content io.Reader) (string, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if a.SellerID != userID && a.BuyerID != userID {
		return "", models.ErrForbidden
	}
	if a.Status == models.AgreementStatusSigned {
		return "", models.ErrConflict
	}

	key := fmt.Sprintf("agreements/%s/%s%s", id, uuid.New(), strings.ToLower(path.Ext(filename)))
	written, err := s.store.Upload(ctx, key, content, contentType)
	if err != nil {
		return "", err
	}
	if m := metrics.Get(); m != nil {
		m.UploadBytesTotal.Add(ctx, written)
	}

	if err := s.repo.Sign(ctx, id, key); err != nil {
		return "", err
	}
	a.DocumentKey = key
	a.Status = models.AgreementStatusSigned
	s.logger.Info("Agreement signed", zap.Stringer("id", id))
	s.publish(ctx, realtime.OpUpdate, a)

	other := a.SellerID
	if userID == a.SellerID {
		other = a.BuyerID
	}
	if err := s.notifier.Notify(ctx, other, "Agreement signed",
		"The sale agreement has been signed."); err != nil {
		s.logger.Warn("Failed to notify counterparty about signing", zap.Error(err))
	}
	return s.store.PublicURL(key), nil
}
