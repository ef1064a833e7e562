package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
	"github.com/tractorbazar/marketplace/internal/app/observability/metrics"
)

// ObjectStore is the slice of the blob store this service needs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, content io.Reader, contentType string) (int64, error)
	PublicURL(key string) string
}

// VehicleLookup resolves the listing a document is being attached to.
type VehicleLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
}

type DocumentService interface {
	// UploadDocument streams the file to the object store and records it
	// against the vehicle. Only the listing's seller may upload; everyone
	// else gets ErrForbidden. Returns the stored document with its public
	// URL.
	UploadDocument(ctx context.Context, uploaderID, vehicleID uuid.UUID, kind models.DocumentKind, filename, contentType string, content io.Reader) (*models.VehicleDocument, error)
	ListForVehicle(ctx context.Context, vehicleID uuid.UUID) ([]models.VehicleDocument, error)
	// UploadCC stores a clearance certificate. Repeat uploads for the same
	// vehicle and uploader succeed without creating a second record.
	UploadCC(ctx context.Context, uploaderID, vehicleID uuid.UUID, filename, contentType string, content io.Reader) (string, error)
	HasCC(ctx context.Context, vehicleID, uploaderID uuid.UUID) (bool, error)
}

type DocumentServiceImpl struct {
	logger   *zap.Logger
	repo     DocumentsRepo
	store    ObjectStore
	vehicles VehicleLookup
}

func NewDocumentService(repo DocumentsRepo, store ObjectStore, vehicles VehicleLookup, logger *zap.Logger) *DocumentServiceImpl {
	return &DocumentServiceImpl{logger: logger, repo: repo, store: store, vehicles: vehicles}
}

func objectKey(prefix string, vehicleID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%s/%s%s", prefix, vehicleID, uuid.New(), ext)
}

func (s *DocumentServiceImpl) UploadDocument(ctx context.Context, uploaderID, vehicleID uuid.UUID, kind models.DocumentKind, filename, contentType string, content io.Reader) (*models.VehicleDocument, error) {
	ctx, span := otel.Tracer("DocumentService").Start(ctx, "UploadDocument")
	defer span.End()
	span.SetAttributes(attribute.String("vehicle.id", vehicleID.String()))

	v, err := s.vehicles.Get(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	// Only the listing's seller may attach paperwork to it.
	if v.SellerID != uploaderID {
		return nil, models.ErrForbidden
	}

	key := objectKey("documents", vehicleID, filename)
	written, err := s.store.Upload(ctx, key, content, contentType)
	if err != nil {
		return nil, err
	}
	if m := metrics.Get(); m != nil {
		m.UploadBytesTotal.Add(ctx, written)
	}

	doc := &models.VehicleDocument{
		VehicleID:   vehicleID,
		UploaderID:  uploaderID,
		Kind:        kind,
		StorageKey:  key,
		ContentType: contentType,
	}
	id, err := s.repo.InsertDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	doc.ID = id
	doc.PublicURL = s.store.PublicURL(key)

	s.logger.Info("Document uploaded",
		zap.Stringer("vehicleID", vehicleID),
		zap.String("kind", string(kind)),
		zap.Int64("bytes", written))
	return doc, nil
}

func (s *DocumentServiceImpl) ListForVehicle(ctx context.Context, vehicleID uuid.UUID) ([]models.VehicleDocument, error) {
	docs, err := s.repo.ListByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].PublicURL = s.store.PublicURL(docs[i].StorageKey)
	}
	return docs, nil
}

func (s *DocumentServiceImpl) UploadCC(ctx context.Context, uploaderID, vehicleID uuid.UUID, filename, contentType string, content io.Reader) (string, error) {
	ctx, span := otel.Tracer("DocumentService").Start(ctx, "UploadCC")
	defer span.End()

	key := objectKey("cc", vehicleID, filename)
	written, err := s.store.Upload(ctx, key, content, contentType)
	if err != nil {
		return "", err
	}
	if m := metrics.Get(); m != nil {
		m.UploadBytesTotal.Add(ctx, written)
	}

	err = s.repo.RecordCCUpload(ctx, &models.CCUpload{
		VehicleID:  vehicleID,
		UploaderID: uploaderID,
		StorageKey: key,
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("Clearance certificate uploaded",
		zap.Stringer("vehicleID", vehicleID),
		zap.Stringer("uploaderID", uploaderID))
	return s.store.PublicURL(key), nil
}

func (s *DocumentServiceImpl) HasCC(ctx context.Context, vehicleID, uploaderID uuid.UUID) (bool, error) {
	_, err := s.repo.GetCCUpload(ctx, vehicleID, uploaderID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
