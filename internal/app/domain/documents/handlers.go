package documents

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appmiddleware "github.com/tractorbazar/marketplace/internal/app/middleware"
	"github.com/tractorbazar/marketplace/internal/app/models"
)

// 20 MiB is plenty for scanned paperwork and listing photos.
const maxUploadBytes = 20 << 20

type DocumentHandlers struct {
	service DocumentService
	logger  *zap.Logger
}

func NewDocumentHandlers(service DocumentService, logger *zap.Logger) *DocumentHandlers {
	return &DocumentHandlers{service: service, logger: logger}
}

func (h *DocumentHandlers) UploadDocument(c *gin.Context) {
	session := appmiddleware.GetSession(c)

	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return
	}

	kind := models.DocumentKind(c.PostForm("kind"))
	switch kind {
	case models.DocumentKindRC, models.DocumentKindInsurance, models.DocumentKindPhoto, models.DocumentKindOther:
	case "":
		kind = models.DocumentKindOther
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown document kind"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if header.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer file.Close()

	doc, err := h.service.UploadDocument(c.Request.Context(), session.UserID, vehicleID, kind,
		header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
			return
		}
		if errors.Is(err, models.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your listing"})
			return
		}
		h.logger.Error("Document upload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not upload document"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

func (h *DocumentHandlers) ListDocuments(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return
	}

	docs, err := h.service.ListForVehicle(c.Request.Context(), vehicleID)
	if err != nil {
		h.logger.Warn("Document list failed, rendering empty list", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"documents": []models.VehicleDocument{}})
		return
	}
	if docs == nil {
		docs = []models.VehicleDocument{}
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// UploadCC handles clearance-certificate uploads from the buyer portal.
// Submitting twice for the same vehicle returns success both times.
func (h *DocumentHandlers) UploadCC(c *gin.Context) {
	session := appmiddleware.GetSession(c)

	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if header.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer file.Close()

	url, err := h.service.UploadCC(c.Request.Context(), session.UserID, vehicleID,
		header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.logger.Error("CC upload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not upload certificate"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
