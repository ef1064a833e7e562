package agreements

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appmiddleware "github.com/tractorbazar/marketplace/internal/app/middleware"
	"github.com/tractorbazar/marketplace/internal/app/models"
)

const maxUploadBytes = 20 << 20

type AgreementHandlers struct {
	service AgreementService
	logger  *zap.Logger
}

func NewAgreementHandlers(service AgreementService, logger *zap.Logger) *AgreementHandlers {
	return &AgreementHandlers{service: service, logger: logger}
}

func (h *AgreementHandlers) Draft(c *gin.Context) {
	session := appmiddleware.GetSession(c)

	var req struct {
		VehicleID   uuid.UUID `json:"vehicle_id" binding:"required"`
		BuyerID     uuid.UUID `json:"buyer_id" binding:"required"`
		PriceRupees int64     `json:"price_rupees" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agreement payload"})
		return
	}

	id, err := h.service.Draft(c.Request.Context(), session.UserID, req.VehicleID, req.BuyerID, req.PriceRupees)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrBadRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle or buyer not found"})
		case errors.Is(err, models.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "not your listing"})
		default:
			h.logger.Error("Agreement draft failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not draft agreement"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *AgreementHandlers) Get(c *gin.Context) {
	session := appmiddleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agreement id"})
		return
	}

	a, err := h.service.Get(c.Request.Context(), session.UserID, id)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "agreement not found"})
		case errors.Is(err, models.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "not a party to this agreement"})
		default:
			h.logger.Error("Agreement fetch failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load agreement"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"agreement": a})
}

func (h *AgreementHandlers) MyAgreements(c *gin.Context) {
	session := appmiddleware.GetSession(c)

	out, err := h.service.MyAgreements(c.Request.Context(), session.UserID)
	if err != nil {
		h.logger.Warn("Agreement list failed, rendering empty list", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"agreements": []models.Agreement{}})
		return
	}
	if out == nil {
		out = []models.Agreement{}
	}
	c.JSON(http.StatusOK, gin.H{"agreements": out})
}

func (h *AgreementHandlers) Sign(c *gin.Context) {
	session := appmiddleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agreement id"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "signed document is required"})
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

	url, err := h.service.Sign(c.Request.Context(), session.UserID, id,
		header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "agreement not found"})
		case errors.Is(err, models.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "not a party to this agreement"})
		case errors.Is(err, models.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "agreement is already signed"})
		default:
			h.logger.Error("Agreement sign failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign agreement"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "document_url": url})
}
