package documents

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

type MockDocumentsRepo struct {
	mock.Mock
}

func (m *MockDocumentsRepo) InsertDocument(ctx context.Context, doc *models.VehicleDocument) (uuid.UUID, error) {
	args := m.Called(ctx, doc)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockDocumentsRepo) ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]models.VehicleDocument, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VehicleDocument), args.Error(1)
}

func (m *MockDocumentsRepo) RecordCCUpload(ctx context.Context, rec *models.CCUpload) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockDocumentsRepo) GetCCUpload(ctx context.Context, vehicleID, uploaderID uuid.UUID) (*models.CCUpload, error) {
	args := m.Called(ctx, vehicleID, uploaderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CCUpload), args.Error(1)
}

type stubVehicleLookup struct {
	vehicles map[uuid.UUID]*models.Vehicle
}

func (s *stubVehicleLookup) Get(_ context.Context, id uuid.UUID) (*models.Vehicle, error) {
	v, ok := s.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("vehicle %s not found: %w", id, models.ErrNotFound)
	}
	return v, nil
}

type recordingStore struct {
	uploads []string
}

func (s *recordingStore) Upload(_ context.Context, key string, content io.Reader, _ string) (int64, error) {
	s.uploads = append(s.uploads, key)
	return io.Copy(io.Discard, content)
}

func (s *recordingStore) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func TestUploadDocumentOwnerOnly(t *testing.T) {
	sellerID := uuid.New()
	strangerID := uuid.New()
	vehicleID := uuid.New()

	repo := new(MockDocumentsRepo)
	store := &recordingStore{}
	lookup := &stubVehicleLookup{vehicles: map[uuid.UUID]*models.Vehicle{
		vehicleID: {ID: vehicleID, SellerID: sellerID, Status: models.VehicleStatusApproved},
	}}
	svc := NewDocumentService(repo, store, lookup, zap.NewNop())

	_, err := svc.UploadDocument(context.Background(), strangerID, vehicleID,
		models.DocumentKindRC, "rc.pdf", "application/pdf", strings.NewReader("scan"))
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.Empty(t, store.uploads, "nothing reaches the object store for a foreign listing")
	repo.AssertNotCalled(t, "InsertDocument", mock.Anything, mock.Anything)
}

func TestUploadDocumentBySeller(t *testing.T) {
	sellerID := uuid.New()
	vehicleID := uuid.New()
	docID := uuid.New()

	repo := new(MockDocumentsRepo)
	store := &recordingStore{}
	lookup := &stubVehicleLookup{vehicles: map[uuid.UUID]*models.Vehicle{
		vehicleID: {ID: vehicleID, SellerID: sellerID, Status: models.VehicleStatusApproved},
	}}
	svc := NewDocumentService(repo, store, lookup, zap.NewNop())

	repo.On("InsertDocument", mock.Anything, mock.MatchedBy(func(d *models.VehicleDocument) bool {
		return d.VehicleID == vehicleID && d.UploaderID == sellerID && d.Kind == models.DocumentKindInsurance
	})).Return(docID, nil)

	doc, err := svc.UploadDocument(context.Background(), sellerID, vehicleID,
		models.DocumentKindInsurance, "policy.pdf", "application/pdf", strings.NewReader("scan"))
	require.NoError(t, err)
	assert.Equal(t, docID, doc.ID)
	assert.NotEmpty(t, doc.PublicURL)
	require.Len(t, store.uploads, 1)
	assert.Contains(t, store.uploads[0], vehicleID.String())
}

func TestUploadDocumentMissingVehicle(t *testing.T) {
	repo := new(MockDocumentsRepo)
	store := &recordingStore{}
	svc := NewDocumentService(repo, store, &stubVehicleLookup{}, zap.NewNop())

	_, err := svc.UploadDocument(context.Background(), uuid.New(), uuid.New(),
		models.DocumentKindRC, "rc.pdf", "application/pdf", strings.NewReader("scan"))
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, store.uploads)
}

func TestUploadCCNotOwnerScoped(t *testing.T) {
	buyerID := uuid.New()
	vehicleID := uuid.New()

	repo := new(MockDocumentsRepo)
	store := &recordingStore{}
	// The lookup knows nothing; CC uploads come from buyers, not the seller,
	// so the service must not consult it.
	svc := NewDocumentService(repo, store, &stubVehicleLookup{}, zap.NewNop())

	repo.On("RecordCCUpload", mock.Anything, mock.MatchedBy(func(r *models.CCUpload) bool {
		return r.VehicleID == vehicleID && r.UploaderID == buyerID
	})).Return(nil)

	url, err := svc.UploadCC(context.Background(), buyerID, vehicleID,
		"cc.pdf", "application/pdf", strings.NewReader("scan"))
	require.NoError(t, err)
	assert.NotEmpty(t, url)
	repo.AssertExpectations(t)
}
