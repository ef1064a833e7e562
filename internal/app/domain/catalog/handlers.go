package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

type CatalogHandlers struct {
	service CatalogService
	logger  *zap.Logger
}

func NewCatalogHandlers(service CatalogService, logger *zap.Logger) *CatalogHandlers {
	return &CatalogHandlers{service: service, logger: logger}
}

func (h *CatalogHandlers) Makes(c *gin.Context) {
	makes, err := h.service.Makes(c.Request.Context())
	if err != nil {
		h.logger.Warn("Makes query failed, rendering empty list", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"makes": []models.TractorMake{}})
		return
	}
	if makes == nil {
		makes = []models.TractorMake{}
	}
	c.JSON(http.StatusOK, gin.H{"makes": makes})
}

func (h *CatalogHandlers) Models(c *gin.Context) {
	makeID, err := uuid.Parse(c.Param("makeId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid make id"})
		return
	}

	out, err := h.service.Models(c.Request.Context(), makeID)
	if err != nil {
		h.logger.Warn("Models query failed, rendering empty list", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"models": []models.TractorModel{}})
		return
	}
	if out == nil {
		out = []models.TractorModel{}
	}
	c.JSON(http.StatusOK, gin.H{"models": out})
}
